// Package lending реализует транзакции выдачи, возврата и оплаты штрафов.
//
// Движок — единственное место, которому разрешено менять количество
// экземпляров, журнал займов и баланс штрафов вместе: каждая операция
// выполняется в одной критической секции, чтобы инвариант «не более одного
// активного займа на пару (читатель, носитель)» и согласованность количества
// не нарушались при конкурентных вызовах.
package lending

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaharge/library-circulation/internal/fine"
	"github.com/shaharge/library-circulation/internal/lib/sl"
	"github.com/shaharge/library-circulation/internal/models"
)

var (
	// ErrOverdueItems — у читателя есть просроченные займы.
	ErrOverdueItems = errors.New("member has overdue items outstanding")
	// ErrUnpaidFines — выдача заблокирована непогашенным штрафом.
	ErrUnpaidFines = errors.New("member has unpaid fines")
	// ErrAlreadyBorrowed — носитель уже на руках у читателя и не возвращён.
	ErrAlreadyBorrowed = errors.New("item already borrowed and not returned")
	// ErrOutOfStock — свободных экземпляров не осталось.
	ErrOutOfStock = errors.New("item out of stock")
	// ErrNoActiveLoan — активного займа на эту пару (читатель, носитель) нет.
	ErrNoActiveLoan = errors.New("no active loan for this item")
	// ErrMemberNotFound — читатель не зарегистрирован.
	ErrMemberNotFound = errors.New("member not found")
)

type Catalog interface {
	Resolve(item *models.Media) (*models.Media, error)
	AdjustQuantity(id uuid.UUID, delta int) error
}

type Ledger interface {
	RecordLoan(loan *models.Loan) error
	MarkReturned(username string, item *models.Media, fineAmount int) error
	FindActiveLoan(username string, item *models.Media) *models.Loan
	HasActiveLoan(username string, item *models.Media) bool
	HasOverdue(username string, now time.Time) bool
}

type Members interface {
	FindByUsername(username string) *models.Member
	AddFine(username string, amount int) error
	ApplyFinePayment(username string, amount int) error
}

// Engine движок выдачи. Потокобезопасен.
type Engine struct {
	mu              sync.Mutex
	catalog         Catalog
	ledger          Ledger
	members         Members
	blockWhileFined bool
	now             func() time.Time
	log             *slog.Logger
}

// New создает движок выдачи. blockWhileFined включает запрет выдачи при
// непогашенном штрафе в дополнение к постоянному запрету при просрочках.
func New(catalog Catalog, ledger Ledger, members Members, blockWhileFined bool, log *slog.Logger) *Engine {
	return &Engine{
		catalog:         catalog,
		ledger:          ledger,
		members:         members,
		blockWhileFined: blockWhileFined,
		now:             time.Now,
		log:             log,
	}
}

// Borrow выдает носитель читателю. Предусловия проверяются в фиксированном
// порядке: просрочки, штрафной блок (если включен), существование носителя,
// повторная выдача, наличие экземпляров. Первая непройденная проверка
// определяет ошибку, состояние не меняется.
func (e *Engine) Borrow(username string, item *models.Media) (*models.Loan, error) {
	const op = "lending.Engine.Borrow"

	e.mu.Lock()
	defer e.mu.Unlock()

	member := e.members.FindByUsername(username)
	if member == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrMemberNotFound)
	}

	now := e.now()
	if e.ledger.HasOverdue(member.Username, now) {
		return nil, fmt.Errorf("%s: %w", op, ErrOverdueItems)
	}
	if e.blockWhileFined && member.FineBalance > 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrUnpaidFines)
	}

	resolved, err := e.catalog.Resolve(item)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if e.ledger.HasActiveLoan(member.Username, resolved) {
		return nil, fmt.Errorf("%s: %w", op, ErrAlreadyBorrowed)
	}
	if resolved.Quantity <= 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrOutOfStock)
	}

	if err := e.catalog.AdjustQuantity(resolved.ID, -1); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	loan := models.NewLoan(member, resolved, now)
	if err := e.ledger.RecordLoan(loan); err != nil {
		if rbErr := e.catalog.AdjustQuantity(resolved.ID, +1); rbErr != nil {
			e.log.Error("failed to roll back quantity after loan write failure",
				slog.String("item", resolved.Title), sl.Err(rbErr))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	e.log.Info("item borrowed",
		slog.String("username", member.Username),
		slog.String("item", resolved.Title),
		slog.String("due", loan.DueDate.Format("2006-01-02")))
	return loan, nil
}

// Return принимает носитель обратно и возвращает начисленный штраф.
// Количество экземпляров растет, займ помечается возвращённым, при просрочке
// штраф добавляется к балансу читателя. Повторный возврат того же займа
// завершается ErrNoActiveLoan.
func (e *Engine) Return(username string, item *models.Media) (int, error) {
	const op = "lending.Engine.Return"

	e.mu.Lock()
	defer e.mu.Unlock()

	member := e.members.FindByUsername(username)
	if member == nil {
		return 0, fmt.Errorf("%s: %w", op, ErrMemberNotFound)
	}

	loan := e.ledger.FindActiveLoan(member.Username, item)
	if loan == nil {
		return 0, fmt.Errorf("%s: %w", op, ErrNoActiveLoan)
	}

	now := e.now()
	fineAmount := fine.Amount(loan.Item.Kind, loan.OverdueDays(now))

	if err := e.catalog.AdjustQuantity(loan.Item.ID, +1); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if fineAmount > 0 {
		if err := e.members.AddFine(member.Username, fineAmount); err != nil {
			if rbErr := e.catalog.AdjustQuantity(loan.Item.ID, -1); rbErr != nil {
				e.log.Error("failed to roll back quantity after fine write failure",
					slog.String("item", loan.Item.Title), sl.Err(rbErr))
			}
			return 0, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := e.ledger.MarkReturned(member.Username, &loan.Item, fineAmount); err != nil {
		if fineAmount > 0 {
			if rbErr := e.members.ApplyFinePayment(member.Username, fineAmount); rbErr != nil {
				e.log.Error("failed to roll back fine after loan write failure",
					slog.String("username", member.Username), sl.Err(rbErr))
			}
		}
		if rbErr := e.catalog.AdjustQuantity(loan.Item.ID, -1); rbErr != nil {
			e.log.Error("failed to roll back quantity after loan write failure",
				slog.String("item", loan.Item.Title), sl.Err(rbErr))
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	e.log.Info("item returned",
		slog.String("username", member.Username),
		slog.String("item", loan.Item.Title),
		slog.Int("fine", fineAmount))
	return fineAmount, nil
}

// PayFine списывает amount с баланса штрафов читателя.
// Сумма должна быть положительной и не превышать баланс.
func (e *Engine) PayFine(username string, amount int) error {
	const op = "lending.Engine.PayFine"

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.members.FindByUsername(username) == nil {
		return fmt.Errorf("%s: %w", op, ErrMemberNotFound)
	}
	if err := e.members.ApplyFinePayment(username, amount); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	e.log.Info("fine paid", slog.String("username", username), slog.Int("amount", amount))
	return nil
}
