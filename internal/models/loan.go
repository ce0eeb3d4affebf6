package models

import "time"

// Loan представляет выдачу носителя читателю.
//
// Member и Item — снимки на момент выдачи: актуальный баланс читателя и
// количество экземпляров живут в users.json и books.json/cds.json.
type Loan struct {
	Member       Member
	Item         Media
	BorrowedDate time.Time // календарная дата, полночь UTC
	DueDate      time.Time // BorrowedDate + срок выдачи носителя
	Returned     bool
	FinePaid     bool
	FineAmount   int // штраф, зафиксированный при возврате, в шекелях
}

// NewLoan создает займ, начинающийся в календарный день момента now.
func NewLoan(member *Member, item *Media, now time.Time) *Loan {
	borrowed := DateOnly(now)
	return &Loan{
		Member:       *member,
		Item:         *item,
		BorrowedDate: borrowed,
		DueDate:      borrowed.AddDate(0, 0, item.BorrowDuration()),
	}
}

// IsOverdue сообщает, просрочен ли займ на момент now. Займ, который должен
// быть возвращен сегодня, ещё не просрочен: просрочка начинается на
// следующий календарный день после DueDate.
func (l *Loan) IsOverdue(now time.Time) bool {
	return !l.Returned && !l.DueDate.IsZero() && DateOnly(now).After(l.DueDate)
}

// OverdueDays возвращает число полных дней просрочки, 0 если займ не просрочен.
func (l *Loan) OverdueDays(now time.Time) int {
	if !l.IsOverdue(now) {
		return 0
	}
	return int(DateOnly(now).Sub(l.DueDate).Hours() / 24)
}

// DateOnly обрезает момент времени до календарного дня (полночь UTC).
// Все даты займов хранятся и сравниваются в таком виде.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
