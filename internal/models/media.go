// Package models содержит доменные структуры библиотеки: носители (книги и CD),
// читателей, займы и отчёты о просрочке, а также DTO для входящих запросов.
package models

import (
	"strings"

	"github.com/google/uuid"
)

// MediaKind закрытый дискриминатор типа носителя. В JSON-файлах сохраняется
// в поле mediaType.
type MediaKind string

// Поддерживаемые типы носителей.
const (
	KindBook MediaKind = "BOOK"
	KindCD   MediaKind = "CD"
)

// Сроки выдачи в днях, фиксированные для каждого типа носителя.
const (
	BookBorrowDays = 28
	CDBorrowDays   = 7
)

// Media описывает физический носитель в каталоге. Тип закрыт: всегда либо
// книга (Author, ISBN), либо CD (Artist). Quantity — количество доступных
// экземпляров, никогда не опускается ниже нуля.
type Media struct {
	ID       uuid.UUID // стабильный идентификатор, присваивается при создании или ремонте записи
	Kind     MediaKind
	Title    string
	Author   string // только книги
	ISBN     string // только книги
	Artist   string // только CD
	Quantity int
}

// NewBook создает книгу с одним экземпляром по умолчанию.
func NewBook(title, author, isbn string) *Media {
	return &Media{
		ID:       uuid.New(),
		Kind:     KindBook,
		Title:    title,
		Author:   author,
		ISBN:     isbn,
		Quantity: 1,
	}
}

// NewCD создает CD с одним экземпляром по умолчанию.
func NewCD(title, artist string) *Media {
	return &Media{
		ID:       uuid.New(),
		Kind:     KindCD,
		Title:    title,
		Artist:   artist,
		Quantity: 1,
	}
}

// BorrowDuration возвращает срок выдачи в днях. Срок фиксирован типом
// носителя и не зависит от значения в файле.
func (m *Media) BorrowDuration() int {
	if m.Kind == KindCD {
		return CDBorrowDays
	}
	return BookBorrowDays
}

// Matches сообщает, ссылаются ли две записи на один и тот же носитель.
//
// Если обе записи имеют стабильный идентификатор, сравниваются только они.
// Иначе используется совместимое со старым форматом сопоставление по
// содержимому: книги — по ISBN, при его отсутствии по названию и автору;
// CD — по названию и исполнителю. Дубликаты названий среди записей без
// идентификатора могут ошибочно совпасть — это известное наследие старого
// формата.
func (m *Media) Matches(other *Media) bool {
	if m == nil || other == nil {
		return false
	}
	if m.ID != uuid.Nil && other.ID != uuid.Nil {
		return m.ID == other.ID
	}
	if m.Kind != other.Kind {
		return false
	}
	switch m.Kind {
	case KindCD:
		return strings.EqualFold(m.Title, other.Title) &&
			strings.EqualFold(m.Artist, other.Artist)
	default:
		if m.ISBN != "" && other.ISBN != "" {
			return strings.EqualFold(m.ISBN, other.ISBN)
		}
		return strings.EqualFold(m.Title, other.Title) &&
			strings.EqualFold(m.Author, other.Author)
	}
}
