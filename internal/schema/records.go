// Package schema определяет канонические формы JSON-записей всех файлов
// хранилища и конвейер ремонта, приводящий записи старых или повреждённых
// форматов к каноническому виду.
//
// Каждая функция Repair* — чистая функция rawJSON -> (каноническая запись,
// признак изменения). Ремонт детерминирован и сходится к неподвижной точке:
// повторный ремонт канонической записи ничего не меняет. Единственное
// исключение — генерация стабильного идентификатора для записей старого
// формата без id: значение случайно, но после первой записи на диск больше
// не меняется.
package schema

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/shaharge/library-circulation/internal/models"
)

// DateLayout формат календарных дат в файлах хранилища.
const DateLayout = "2006-01-02"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// MediaRecord каноническая запись носителя (books.json, cds.json и снимок
// item внутри loans.json).
type MediaRecord struct {
	ID             string `json:"id,omitempty"`
	MediaType      string `json:"mediaType"`
	Title          string `json:"title"`
	Author         string `json:"author,omitempty"`
	ISBN           string `json:"isbn,omitempty"`
	Artist         string `json:"artist,omitempty"`
	Quantity       int    `json:"quantity"`
	BorrowDuration int    `json:"borrowDuration"`
}

// UserRecord каноническая запись читателя (users.json и снимок user внутри
// loans.json).
type UserRecord struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	Email       string `json:"email"`
	FineBalance int    `json:"fineBalance"`
}

// LoanRecord каноническая запись займа (loans.json).
type LoanRecord struct {
	User         UserRecord  `json:"user"`
	Item         MediaRecord `json:"item"`
	BorrowedDate string      `json:"borrowedDate,omitempty"`
	DueDate      string      `json:"dueDate,omitempty"`
	Returned     bool        `json:"returned"`
	FinePaid     bool        `json:"finePaid"`
	FineAmount   int         `json:"fineAmount"`
}

// ToModel преобразует запись носителя в доменную модель.
func (r MediaRecord) ToModel() *models.Media {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		id = uuid.Nil
	}
	return &models.Media{
		ID:       id,
		Kind:     models.MediaKind(r.MediaType),
		Title:    r.Title,
		Author:   r.Author,
		ISBN:     r.ISBN,
		Artist:   r.Artist,
		Quantity: r.Quantity,
	}
}

// MediaToRecord строит каноническую запись носителя.
func MediaToRecord(m *models.Media) MediaRecord {
	rec := MediaRecord{
		MediaType:      string(m.Kind),
		Title:          m.Title,
		Quantity:       m.Quantity,
		BorrowDuration: m.BorrowDuration(),
	}
	if m.ID != uuid.Nil {
		rec.ID = m.ID.String()
	}
	switch m.Kind {
	case models.KindCD:
		rec.Artist = m.Artist
	default:
		rec.Author = m.Author
		rec.ISBN = m.ISBN
	}
	return rec
}

// ToModel преобразует запись читателя в доменную модель.
func (r UserRecord) ToModel() *models.Member {
	return &models.Member{
		Username:    r.Username,
		Password:    r.Password,
		Email:       r.Email,
		FineBalance: r.FineBalance,
	}
}

// MemberToRecord строит каноническую запись читателя.
func MemberToRecord(m *models.Member) UserRecord {
	return UserRecord{
		Username:    m.Username,
		Password:    m.Password,
		Email:       m.Email,
		FineBalance: m.FineBalance,
	}
}

// ToModel преобразует запись займа в доменную модель.
func (r LoanRecord) ToModel() *models.Loan {
	return &models.Loan{
		Member:       *r.User.ToModel(),
		Item:         *r.Item.ToModel(),
		BorrowedDate: parseDate(r.BorrowedDate),
		DueDate:      parseDate(r.DueDate),
		Returned:     r.Returned,
		FinePaid:     r.FinePaid,
		FineAmount:   r.FineAmount,
	}
}

// LoanToRecord строит каноническую запись займа.
func LoanToRecord(l *models.Loan) LoanRecord {
	return LoanRecord{
		User:         MemberToRecord(&l.Member),
		Item:         MediaToRecord(&l.Item),
		BorrowedDate: formatDate(l.BorrowedDate),
		DueDate:      formatDate(l.DueDate),
		Returned:     l.Returned,
		FinePaid:     l.FinePaid,
		FineAmount:   l.FineAmount,
	}
}

// MarshalCanonical сериализует значение в канонический вид файла хранилища:
// отформатированный JSON, только распознанные поля.
func MarshalCanonical(v any) ([]byte, error) {
	const op = "schema.MarshalCanonical"
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return data, nil
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
