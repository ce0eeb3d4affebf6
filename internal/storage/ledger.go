package storage

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaharge/library-circulation/internal/lib/sl"
	"github.com/shaharge/library-circulation/internal/models"
	"github.com/shaharge/library-circulation/internal/schema"
	"github.com/shaharge/library-circulation/internal/storage/jsonfile"
)

// Ledger журнал займов (loans.json).
//
// Хранилище не следит за уникальностью активного займа на пару
// (читатель, носитель) — это инвариант движка выдачи, который обязан
// выполнять проверку и запись в одной критической секции.
type Ledger struct {
	mu    sync.RWMutex
	path  string
	loans []*models.Loan
	log   *slog.Logger
}

// OpenLedger загружает журнал займов. Займы старого формата без
// стабильного идентификатора носителя сопоставляются с каталогом по
// содержимому — это единственное место, где каталог нужен журналу.
func OpenLedger(dataDir string, catalog *Catalog, log *slog.Logger) (*Ledger, error) {
	const op = "storage.OpenLedger"

	l := &Ledger{
		path: filepath.Join(dataDir, LoansFile),
		log:  log,
	}

	data, err := jsonfile.Load(l.path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	records, dirty, err := schema.DecodeArray(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, raw := range records {
		rec, modified, err := schema.RepairLoan(raw)
		if err != nil {
			l.log.Warn("dropping unreadable loan record", sl.Err(err))
			dirty = true
			continue
		}
		dirty = dirty || modified

		loan := rec.ToModel()
		if loan.Item.ID == uuid.Nil && catalog != nil {
			if resolved, err := catalog.Resolve(&loan.Item); err == nil {
				loan.Item.ID = resolved.ID
				dirty = true
			}
		}
		l.loans = append(l.loans, loan)
	}

	if dirty {
		l.log.Info("loans file repaired, rewriting canonical form")
		if err := l.saveLocked(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return l, nil
}

// RecordLoan добавляет займ и сохраняет журнал. Вызывающий обязан заранее
// убедиться, что активного займа на эту пару (читатель, носитель) нет.
func (l *Ledger) RecordLoan(loan *models.Loan) error {
	const op = "storage.Ledger.RecordLoan"

	l.mu.Lock()
	defer l.mu.Unlock()

	added := *loan
	l.loans = append(l.loans, &added)
	if err := l.saveLocked(); err != nil {
		l.loans = l.loans[:len(l.loans)-1]
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// MarkReturned помечает активный займ возвращённым и фиксирует штраф.
// Повторная пометка уже возвращённого займа — успешный no-op.
func (l *Ledger) MarkReturned(username string, item *models.Media, fineAmount int) error {
	const op = "storage.Ledger.MarkReturned"

	l.mu.Lock()
	defer l.mu.Unlock()

	loan := l.findActiveLocked(username, item)
	if loan == nil {
		// уже возвращён — идемпотентный успех
		return nil
	}

	prevReturned, prevAmount := loan.Returned, loan.FineAmount
	loan.Returned = true
	if fineAmount > 0 {
		loan.FineAmount = fineAmount
	}

	if err := l.saveLocked(); err != nil {
		loan.Returned = prevReturned
		loan.FineAmount = prevAmount
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// FindActiveLoan возвращает копию единственного активного займа читателя на
// носитель, nil если такого займа нет. Носители сопоставляются по
// стабильному идентификатору, записи старого формата — по содержимому.
func (l *Ledger) FindActiveLoan(username string, item *models.Media) *models.Loan {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if loan := l.findActiveLocked(username, item); loan != nil {
		copied := *loan
		return &copied
	}
	return nil
}

// HasActiveLoan сообщает, держит ли читатель носитель прямо сейчас.
func (l *Ledger) HasActiveLoan(username string, item *models.Media) bool {
	return l.FindActiveLoan(username, item) != nil
}

// CountActiveLoans возвращает число невозвращённых займов читателя.
func (l *Ledger) CountActiveLoans(username string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	count := 0
	for _, loan := range l.loans {
		if !loan.Returned && strings.EqualFold(loan.Member.Username, username) {
			count++
		}
	}
	return count
}

// HasOverdue сообщает, есть ли у читателя просроченные займы на момент now.
func (l *Ledger) HasOverdue(username string, now time.Time) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, loan := range l.loans {
		if strings.EqualFold(loan.Member.Username, username) && loan.IsOverdue(now) {
			return true
		}
	}
	return false
}

// OverdueLoans возвращает копии всех просроченных займов на момент now.
func (l *Ledger) OverdueLoans(now time.Time) []*models.Loan {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := []*models.Loan{}
	for _, loan := range l.loans {
		if loan.IsOverdue(now) {
			copied := *loan
			result = append(result, &copied)
		}
	}
	return result
}

// LoansOf возвращает копии всех займов читателя, включая возвращённые.
func (l *Ledger) LoansOf(username string) []*models.Loan {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := []*models.Loan{}
	for _, loan := range l.loans {
		if strings.EqualFold(loan.Member.Username, username) {
			copied := *loan
			result = append(result, &copied)
		}
	}
	return result
}

// All возвращает копии всех займов журнала.
func (l *Ledger) All() []*models.Loan {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*models.Loan, 0, len(l.loans))
	for _, loan := range l.loans {
		copied := *loan
		result = append(result, &copied)
	}
	return result
}

func (l *Ledger) findActiveLocked(username string, item *models.Media) *models.Loan {
	for _, loan := range l.loans {
		if loan.Returned || !strings.EqualFold(loan.Member.Username, username) {
			continue
		}
		if loan.Item.Matches(item) {
			return loan
		}
	}
	return nil
}

func (l *Ledger) saveLocked() error {
	records := []schema.LoanRecord{}
	for _, loan := range l.loans {
		records = append(records, schema.LoanToRecord(loan))
	}
	data, err := schema.MarshalCanonical(records)
	if err != nil {
		return err
	}
	return jsonfile.WriteAtomic(l.path, data)
}
