// Package fine реализует политику начисления штрафов за просрочку.
//
// Политика — чистая функция от типа носителя и числа дней просрочки,
// без побочных эффектов и без условий ошибки.
package fine

import "github.com/shaharge/library-circulation/internal/models"

// Ставки штрафа в шекелях за каждый день просрочки.
const (
	BookDailyRate = 10
	CDDailyRate   = 20
)

// Rate возвращает дневную ставку штрафа для типа носителя.
func Rate(kind models.MediaKind) int {
	if kind == models.KindCD {
		return CDDailyRate
	}
	return BookDailyRate
}

// Amount возвращает штраф за overdueDays полных дней просрочки.
// Непросроченный займ (overdueDays <= 0) штрафа не даёт.
func Amount(kind models.MediaKind, overdueDays int) int {
	if overdueDays <= 0 {
		return 0
	}
	return overdueDays * Rate(kind)
}
