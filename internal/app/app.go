// Package app собирает хранилища и сервисы в работающее приложение.
package app

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/shaharge/library-circulation/internal/config"
	"github.com/shaharge/library-circulation/internal/lib/smtp"
	"github.com/shaharge/library-circulation/internal/services/admin"
	"github.com/shaharge/library-circulation/internal/services/lending"
	"github.com/shaharge/library-circulation/internal/services/reminder"
	"github.com/shaharge/library-circulation/internal/services/report"
	"github.com/shaharge/library-circulation/internal/services/user"
	"github.com/shaharge/library-circulation/internal/storage"
)

const envLocal = "local"

// App связанный набор хранилищ и сервисов поверх одного каталога данных.
type App struct {
	Cfg *config.Config
	Log *slog.Logger

	Catalog *storage.Catalog
	Members *storage.Members
	Ledger  *storage.Ledger

	Lending  *lending.Engine
	Users    *user.Service
	Admin    *admin.Service
	Reminder *reminder.Service
	Report   *report.Service
}

// New открывает хранилища в cfg.DataDir и строит сервисы. В локальном
// окружении напоминания печатаются в консоль, иначе уходят по SMTP.
func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	const op = "app.New"

	catalog, err := storage.OpenCatalog(cfg.DataDir, log)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	members, err := storage.OpenMembers(cfg.DataDir, log)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ledger, err := storage.OpenLedger(cfg.DataDir, catalog, log)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	reminderService := reminder.New(ledger, members, log)
	if cfg.Env == envLocal || cfg.SMTPHost == "" {
		reminderService.Subscribe(reminder.NewConsoleObserver(os.Stdout))
	} else {
		transport := smtp.NewTransport(cfg.SMTP, log)
		reminderService.Subscribe(reminder.NewEmailObserver(transport, log))
	}

	return &App{
		Cfg:      cfg,
		Log:      log,
		Catalog:  catalog,
		Members:  members,
		Ledger:   ledger,
		Lending:  lending.New(catalog, ledger, members, cfg.BlockWhileFined, log),
		Users:    user.New(members, ledger, log),
		Admin:    admin.New(cfg.Admin, catalog, log),
		Reminder: reminderService,
		Report:   report.New(ledger, log),
	}, nil
}
