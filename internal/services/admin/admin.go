// Package admin содержит аутентификацию администратора и операции над каталогом.
package admin

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator"

	"github.com/shaharge/library-circulation/internal/config"
	"github.com/shaharge/library-circulation/internal/lib/password"
	"github.com/shaharge/library-circulation/internal/models"
)

var (
	// ErrInvalidCredentials — пара логин/пароль администратора не подошла.
	ErrInvalidCredentials = errors.New("invalid admin credentials")
	// ErrNotLoggedIn — операция требует активной сессии администратора.
	ErrNotLoggedIn = errors.New("admin is not logged in")
)

type Catalog interface {
	Add(item *models.Media) error
}

// Service единственная учётная запись администратора из конфигурации.
// Сессия живет в памяти процесса.
type Service struct {
	username     string
	passwordHash string
	catalog      Catalog
	validate     *validator.Validate
	loggedIn     bool
	log          *slog.Logger
}

func New(cfg config.Admin, catalog Catalog, log *slog.Logger) *Service {
	return &Service{
		username:     cfg.AdminUsername,
		passwordHash: cfg.AdminPasswordHash,
		catalog:      catalog,
		validate:     validator.New(),
		log:          log,
	}
}

// Login открывает сессию администратора при совпадении имени и пароля.
func (s *Service) Login(username, rawPassword string) error {
	const op = "admin.Service.Login"

	if !strings.EqualFold(strings.TrimSpace(username), s.username) {
		return fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	if err := password.CompareHash(s.passwordHash, rawPassword); err != nil {
		return fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	s.loggedIn = true
	s.log.Info("admin logged in", slog.String("username", s.username))
	return nil
}

// Logout закрывает сессию. Выход без входа — no-op.
func (s *Service) Logout() {
	s.loggedIn = false
}

// IsLoggedIn сообщает, открыта ли сессия администратора.
func (s *Service) IsLoggedIn() bool {
	return s.loggedIn
}

// AddBook добавляет книгу в каталог. Требует активной сессии.
func (s *Service) AddBook(req models.AddBookRequest) (*models.Media, error) {
	const op = "admin.Service.AddBook"

	if !s.loggedIn {
		return nil, fmt.Errorf("%s: %w", op, ErrNotLoggedIn)
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	book := models.NewBook(req.Title, req.Author, req.ISBN)
	if req.Quantity > 0 {
		book.Quantity = req.Quantity
	}
	if err := s.catalog.Add(book); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("book added to catalog", slog.String("title", book.Title), slog.String("isbn", book.ISBN))
	return book, nil
}

// AddCD добавляет CD в каталог. Требует активной сессии.
func (s *Service) AddCD(req models.AddCDRequest) (*models.Media, error) {
	const op = "admin.Service.AddCD"

	if !s.loggedIn {
		return nil, fmt.Errorf("%s: %w", op, ErrNotLoggedIn)
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cd := models.NewCD(req.Title, req.Artist)
	if req.Quantity > 0 {
		cd.Quantity = req.Quantity
	}
	if err := s.catalog.Add(cd); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("cd added to catalog", slog.String("title", cd.Title), slog.String("artist", cd.Artist))
	return cd, nil
}
