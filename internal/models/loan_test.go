package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewLoan(t *testing.T) {
	alice := &Member{Username: "alice"}
	now := time.Date(2026, 8, 29, 18, 45, 0, 0, time.UTC)

	book := NewBook("Dune", "Frank Herbert", "111")
	loan := NewLoan(alice, book, now)
	assert.Equal(t, time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC), loan.BorrowedDate)
	assert.Equal(t, time.Date(2026, 9, 26, 0, 0, 0, 0, time.UTC), loan.DueDate)
	assert.False(t, loan.Returned)

	cd := NewCD("Kind of Blue", "Miles Davis")
	loan = NewLoan(alice, cd, now)
	assert.Equal(t, time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC), loan.DueDate)
}

func TestLoan_IsOverdue(t *testing.T) {
	alice := &Member{Username: "alice"}
	book := NewBook("Dune", "Frank Herbert", "111")
	borrowed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	loan := NewLoan(alice, book, borrowed) // due 2026-01-29

	cases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before due date", time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), false},
		{"on due date", time.Date(2026, 1, 29, 23, 59, 0, 0, time.UTC), false},
		{"day after due date", time.Date(2026, 1, 30, 0, 0, 1, 0, time.UTC), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, loan.IsOverdue(tc.now))
		})
	}

	loan.Returned = true
	assert.False(t, loan.IsOverdue(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
}

func TestLoan_OverdueDays(t *testing.T) {
	alice := &Member{Username: "alice"}
	book := NewBook("Dune", "Frank Herbert", "111")
	loan := NewLoan(alice, book, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) // due 2026-01-29

	assert.Equal(t, 0, loan.OverdueDays(time.Date(2026, 1, 29, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, 1, loan.OverdueDays(time.Date(2026, 1, 30, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, 3, loan.OverdueDays(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)))
}

func TestDateOnly(t *testing.T) {
	loc := time.FixedZone("IST", 2*60*60)
	got := DateOnly(time.Date(2026, 8, 29, 23, 30, 0, 0, loc))
	assert.Equal(t, time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC), got)
}
