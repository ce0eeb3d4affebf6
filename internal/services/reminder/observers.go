package reminder

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/shaharge/library-circulation/internal/lib/sl"
	"github.com/shaharge/library-circulation/internal/lib/smtp"
	"github.com/shaharge/library-circulation/internal/models"
)

// EmailObserver отправляет напоминание на почту читателя через SMTP транспорт.
type EmailObserver struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

func NewEmailObserver(transport smtp.TransportInterface, log *slog.Logger) *EmailObserver {
	return &EmailObserver{transport: transport, log: log}
}

// Notify собирает письмо и отправляет его одним SMTP сеансом.
func (o *EmailObserver) Notify(member *models.Member, message string) error {
	const op = "reminder.EmailObserver.Notify"

	from := o.transport.GetSMTPUser()
	msg := strings.Join([]string{
		"From: " + from,
		"To: " + member.Email,
		"Subject: Library overdue reminder",
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		fmt.Sprintf("Hello, %s!\n\n%s\nPlease return them as soon as possible.", member.Username, message),
	}, "\r\n")

	client, err := o.transport.Connect()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			o.log.Warn("failed to close smtp client", sl.Err(closeErr))
		}
	}()

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := client.Rcpt(member.Email); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err := wc.Write([]byte(msg)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := client.Quit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	o.log.Info("reminder email sent", slog.String("to", member.Email))
	return nil
}

// ConsoleObserver печатает напоминание в поток вывода. Используется в
// локальном окружении вместо почты.
type ConsoleObserver struct {
	out io.Writer
}

func NewConsoleObserver(out io.Writer) *ConsoleObserver {
	return &ConsoleObserver{out: out}
}

func (o *ConsoleObserver) Notify(member *models.Member, message string) error {
	_, err := fmt.Fprintf(o.out, "[reminder] %s <%s>: %s\n", member.Username, member.Email, message)
	return err
}
