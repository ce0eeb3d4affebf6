// Package report формирует сводки по просроченным займам.
package report

import (
	"log/slog"
	"strings"
	"time"

	"github.com/shaharge/library-circulation/internal/fine"
	"github.com/shaharge/library-circulation/internal/models"
)

type Ledger interface {
	OverdueLoans(now time.Time) []*models.Loan
}

// Service строит отчёты поверх журнала займов и тарифов штрафов.
// Отчёт считает штрафы на момент формирования: суммы станут частью баланса
// читателя только при фактическом возврате.
type Service struct {
	ledger Ledger
	now    func() time.Time
	log    *slog.Logger
}

func New(ledger Ledger, log *slog.Logger) *Service {
	return &Service{
		ledger: ledger,
		now:    time.Now,
		log:    log,
	}
}

// Generate строит отчёт по одному читателю. Отчёт без просрочек пуст, но
// валиден.
func (s *Service) Generate(username string) *models.OverdueReport {
	now := s.now()
	rep := &models.OverdueReport{Username: username}

	for _, loan := range s.ledger.OverdueLoans(now) {
		if !strings.EqualFold(loan.Member.Username, username) {
			continue
		}
		appendLoan(rep, loan, now)
	}
	return rep
}

// GenerateAll строит по отчёту на каждого читателя с просрочками, в порядке
// появления займов в журнале.
func (s *Service) GenerateAll() []*models.OverdueReport {
	now := s.now()

	byMember := map[string]*models.OverdueReport{}
	order := []string{}
	for _, loan := range s.ledger.OverdueLoans(now) {
		key := strings.ToLower(loan.Member.Username)
		rep, ok := byMember[key]
		if !ok {
			rep = &models.OverdueReport{Username: loan.Member.Username}
			byMember[key] = rep
			order = append(order, key)
		}
		appendLoan(rep, loan, now)
	}

	reports := make([]*models.OverdueReport, 0, len(order))
	for _, key := range order {
		reports = append(reports, byMember[key])
	}
	return reports
}

func appendLoan(rep *models.OverdueReport, loan *models.Loan, now time.Time) {
	daysLate := loan.OverdueDays(now)
	amount := fine.Amount(loan.Item.Kind, daysLate)

	rep.Items = append(rep.Items, models.OverdueItem{
		Title:    loan.Item.Title,
		Kind:     loan.Item.Kind,
		DaysLate: daysLate,
		Fine:     amount,
	})
	rep.TotalFine += amount
	switch loan.Item.Kind {
	case models.KindCD:
		rep.CDs++
	default:
		rep.Books++
	}
}
