// Package reminder рассылает читателям напоминания о просроченных носителях.
package reminder

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shaharge/library-circulation/internal/lib/sl"
	"github.com/shaharge/library-circulation/internal/models"
)

// Result итог одного прогона рассылки.
type Result int

const (
	// NoUsers в реестре нет ни одного читателя.
	NoUsers Result = iota
	// NoOverdue просроченных займов нет, рассылать нечего.
	NoOverdue
	// Sent напоминания отправлены хотя бы одному читателю.
	Sent
)

func (r Result) String() string {
	switch r {
	case NoUsers:
		return "no users"
	case NoOverdue:
		return "no overdue"
	case Sent:
		return "sent"
	default:
		return fmt.Sprintf("result(%d)", int(r))
	}
}

// Observer получатель напоминаний. Ошибка одного получателя логируется и не
// прерывает рассылку остальным.
type Observer interface {
	Notify(member *models.Member, message string) error
}

type Ledger interface {
	OverdueLoans(now time.Time) []*models.Loan
}

type Members interface {
	All() []*models.Member
	FindByUsername(username string) *models.Member
}

// Service обходит журнал займов и оповещает должников через подписанных
// наблюдателей.
type Service struct {
	ledger    Ledger
	members   Members
	observers []Observer
	now       func() time.Time
	log       *slog.Logger
}

func New(ledger Ledger, members Members, log *slog.Logger) *Service {
	return &Service{
		ledger:  ledger,
		members: members,
		now:     time.Now,
		log:     log,
	}
}

// Subscribe добавляет наблюдателя к рассылке.
func (s *Service) Subscribe(o Observer) {
	s.observers = append(s.observers, o)
}

// Run выполняет один прогон рассылки и возвращает его итог.
func (s *Service) Run() Result {
	if len(s.members.All()) == 0 {
		s.log.Info("reminder run finished", slog.String("result", NoUsers.String()))
		return NoUsers
	}

	overdue := s.ledger.OverdueLoans(s.now())
	if len(overdue) == 0 {
		s.log.Info("reminder run finished", slog.String("result", NoOverdue.String()))
		return NoOverdue
	}

	type counts struct{ books, cds int }
	byMember := map[string]*counts{}
	order := []string{}
	for _, loan := range overdue {
		key := strings.ToLower(loan.Member.Username)
		c, ok := byMember[key]
		if !ok {
			c = &counts{}
			byMember[key] = c
			order = append(order, key)
		}
		switch loan.Item.Kind {
		case models.KindCD:
			c.cds++
		default:
			c.books++
		}
	}

	for _, key := range order {
		member := s.members.FindByUsername(key)
		if member == nil {
			s.log.Warn("overdue loan references unknown member", slog.String("username", key))
			continue
		}
		c := byMember[key]
		message := Message(c.books, c.cds)
		for _, o := range s.observers {
			if err := o.Notify(member, message); err != nil {
				s.log.Error("failed to notify member",
					slog.String("username", member.Username), sl.Err(err))
			}
		}
	}

	s.log.Info("reminder run finished",
		slog.String("result", Sent.String()), slog.Int("members", len(order)))
	return Sent
}

// Message формирует текст напоминания по числу просроченных книг и CD.
func Message(books, cds int) string {
	return fmt.Sprintf("You have %d overdue book(s) and %d overdue CD(s).", books, cds)
}
