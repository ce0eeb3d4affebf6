// Package user содержит регистрацию, аутентификацию и снятие с учета читателей.
package user

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator"

	"github.com/shaharge/library-circulation/internal/lib/password"
	"github.com/shaharge/library-circulation/internal/models"
	"github.com/shaharge/library-circulation/internal/schema"
)

var (
	// ErrUsernameTaken — имя уже занято (без учета регистра).
	ErrUsernameTaken = errors.New("username already taken")
	// ErrEmailTaken — на этот адрес уже зарегистрирован читатель.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials — пара логин/пароль не подошла.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrHasOverdueItems — снятие с учета заблокировано просрочками.
	ErrHasOverdueItems = errors.New("member has overdue items")
	// ErrHasActiveLoans — снятие с учета заблокировано активными займами.
	ErrHasActiveLoans = errors.New("member has active loans")
	// ErrUnpaidFines — снятие с учета заблокировано непогашенным штрафом.
	ErrUnpaidFines = errors.New("member has unpaid fines")
	// ErrMemberNotFound — читатель не зарегистрирован.
	ErrMemberNotFound = errors.New("member not found")
)

type MemberStore interface {
	Add(member *models.Member) error
	FindByUsername(username string) *models.Member
	FindByEmail(email string) *models.Member
	Remove(username string) error
}

type LoanLedger interface {
	CountActiveLoans(username string) int
	HasOverdue(username string, now time.Time) bool
}

// Service реестр читателей поверх хранилища пользователей.
type Service struct {
	members  MemberStore
	ledger   LoanLedger
	validate *validator.Validate
	now      func() time.Time
	log      *slog.Logger
}

func New(members MemberStore, ledger LoanLedger, log *slog.Logger) *Service {
	return &Service{
		members:  members,
		ledger:   ledger,
		validate: validator.New(),
		now:      time.Now,
		log:      log,
	}
}

// Register заводит нового читателя: валидирует запрос, нормализует адрес,
// проверяет уникальность имени и адреса, хэширует пароль.
func (s *Service) Register(req models.RegisterRequest) (*models.Member, error) {
	const op = "user.Service.Register"

	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	username := strings.TrimSpace(req.Username)
	email := schema.SanitizeEmail(req.Email)

	if s.members.FindByUsername(username) != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUsernameTaken)
	}
	if s.members.FindByEmail(email) != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
	}

	hashed, err := password.GetHash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	member := &models.Member{
		Username: username,
		Password: hashed,
		Email:    email,
	}
	if err := s.members.Add(member); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("member registered", slog.String("username", username))
	return member, nil
}

// Login проверяет пару логин/пароль и возвращает читателя.
func (s *Service) Login(username, rawPassword string) (*models.Member, error) {
	const op = "user.Service.Login"

	member := s.members.FindByUsername(strings.TrimSpace(username))
	if member == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	if err := password.CompareHash(member.Password, rawPassword); err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	s.log.Info("member logged in", slog.String("username", member.Username))
	return member, nil
}

// Unregister снимает читателя с учета. Проверки идут в фиксированном порядке:
// просрочки, активные займы, непогашенный штраф — первая непройденная
// определяет ошибку.
func (s *Service) Unregister(username string) error {
	const op = "user.Service.Unregister"

	member := s.members.FindByUsername(username)
	if member == nil {
		return fmt.Errorf("%s: %w", op, ErrMemberNotFound)
	}
	if s.ledger.HasOverdue(member.Username, s.now()) {
		return fmt.Errorf("%s: %w", op, ErrHasOverdueItems)
	}
	if s.ledger.CountActiveLoans(member.Username) > 0 {
		return fmt.Errorf("%s: %w", op, ErrHasActiveLoans)
	}
	if member.FineBalance > 0 {
		return fmt.Errorf("%s: %w", op, ErrUnpaidFines)
	}

	if err := s.members.Remove(member.Username); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("member unregistered", slog.String("username", member.Username))
	return nil
}
