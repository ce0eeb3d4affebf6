package models

import (
	"fmt"
	"strings"
)

// OverdueItem одна строка отчёта о просрочке.
type OverdueItem struct {
	Title    string
	Kind     MediaKind
	DaysLate int
	Fine     int
}

// OverdueReport сводка по просроченным займам одного читателя на момент
// формирования отчёта.
type OverdueReport struct {
	Username  string
	Items     []OverdueItem
	TotalFine int
	Books     int
	CDs       int
}

// String возвращает отчёт в текстовом виде для консольного вывода.
func (r *OverdueReport) String() string {
	var sb strings.Builder

	sb.WriteString("--- Overdue Report ---\n")
	fmt.Fprintf(&sb, "Books overdue: %d\n", r.Books)
	fmt.Fprintf(&sb, "CDs overdue: %d\n", r.CDs)
	fmt.Fprintf(&sb, "Total fine: %d NIS\n\n", r.TotalFine)
	sb.WriteString("Details:\n")

	for _, item := range r.Items {
		fmt.Fprintf(&sb, "- %s | Days late: %d | Fine: %d NIS\n",
			item.Title, item.DaysLate, item.Fine)
	}
	return sb.String()
}
