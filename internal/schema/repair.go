package schema

import (
	"bytes"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

// DecodeArray разбирает корень файла хранилища. Корень-null превращается в
// пустой массив, одиночный объект старого формата оборачивается в массив из
// одного элемента. Второй результат сообщает, что файл требует перезаписи.
func DecodeArray(data []byte) ([]jsoniter.RawMessage, bool, error) {
	const op = "schema.DecodeArray"

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, len(trimmed) != 0, nil
	}

	var records []jsoniter.RawMessage
	if err := json.Unmarshal(trimmed, &records); err == nil {
		return records, false, nil
	}

	// одиночная запись старого формата
	var single map[string]any
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return []jsoniter.RawMessage{jsoniter.RawMessage(trimmed)}, true, nil
}

// RepairMedia приводит запись носителя к канонической форме. Отсутствующий
// дискриминатор выводится из состава полей, количество получает безопасное
// значение, записям без стабильного идентификатора он присваивается.
func RepairMedia(raw []byte) (MediaRecord, bool, error) {
	const op = "schema.RepairMedia"

	obj, err := decodeObject(raw)
	if err != nil {
		return MediaRecord{}, false, fmt.Errorf("%s: %w", op, err)
	}
	rec := repairMediaObject(obj, true)
	return rec, !matchesCanonical(raw, rec), nil
}

// RepairUser приводит запись читателя к канонической форме: нормализует
// адрес почты и баланс задолженности.
func RepairUser(raw []byte) (UserRecord, bool, error) {
	const op = "schema.RepairUser"

	obj, err := decodeObject(raw)
	if err != nil {
		return UserRecord{}, false, fmt.Errorf("%s: %w", op, err)
	}
	rec := repairUserObject(obj)
	return rec, !matchesCanonical(raw, rec), nil
}

// RepairLoan приводит запись займа к канонической форме. Срок возврата
// пересчитывается, когда он отсутствует или предшествует дате выдачи.
// Снимку носителя внутри займа идентификатор не присваивается: записи
// старого формата сопоставляются с каталогом по содержимому на уровне
// хранилища займов.
func RepairLoan(raw []byte) (LoanRecord, bool, error) {
	const op = "schema.RepairLoan"

	obj, err := decodeObject(raw)
	if err != nil {
		return LoanRecord{}, false, fmt.Errorf("%s: %w", op, err)
	}

	var rec LoanRecord
	userObj, _ := obj["user"].(map[string]any)
	rec.User = repairUserObject(userObj)
	itemObj, _ := obj["item"].(map[string]any)
	rec.Item = repairMediaObject(itemObj, false)

	borrowed := parseDateFlexible(asString(obj["borrowedDate"]))
	due := parseDateFlexible(asString(obj["dueDate"]))
	if !borrowed.IsZero() && (due.IsZero() || due.Before(borrowed)) {
		due = borrowed.AddDate(0, 0, rec.Item.BorrowDuration)
	}
	rec.BorrowedDate = formatDate(borrowed)
	rec.DueDate = formatDate(due)

	rec.Returned = asBool(obj["returned"])
	rec.FinePaid = asBool(obj["finePaid"])
	rec.FineAmount = asInt(obj["fineAmount"], 0)
	if rec.FineAmount < 0 {
		rec.FineAmount = 0
	}

	return rec, !matchesCanonical(raw, rec), nil
}

// SanitizeEmail нормализует адрес почты: обрезает края, переводит в нижний
// регистр и убирает пробельные символы внутри.
func SanitizeEmail(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func repairMediaObject(obj map[string]any, assignID bool) MediaRecord {
	mediaType := strings.ToUpper(strings.TrimSpace(asString(obj["mediaType"])))
	if mediaType != "BOOK" && mediaType != "CD" {
		// вывод типа по составу полей: книги несут isbn/author, CD — artist
		switch {
		case hasKey(obj, "isbn") || hasKey(obj, "author"):
			mediaType = "BOOK"
		case hasKey(obj, "artist"):
			mediaType = "CD"
		default:
			mediaType = "BOOK"
		}
	}

	rec := MediaRecord{
		MediaType: mediaType,
		Title:     asString(obj["title"]),
	}

	if id, err := uuid.Parse(asString(obj["id"])); err == nil && id != uuid.Nil {
		rec.ID = id.String()
	} else if assignID {
		rec.ID = uuid.New().String()
	}

	if mediaType == "CD" {
		rec.Artist = asString(obj["artist"])
		rec.BorrowDuration = 7
	} else {
		rec.Author = asString(obj["author"])
		rec.ISBN = asString(obj["isbn"])
		rec.BorrowDuration = 28
	}

	rec.Quantity = asInt(obj["quantity"], 1)
	if rec.Quantity < 0 {
		rec.Quantity = 0
	}

	return rec
}

func repairUserObject(obj map[string]any) UserRecord {
	balance := asInt(obj["fineBalance"], 0)
	if balance < 0 {
		balance = 0
	}
	return UserRecord{
		Username:    asString(obj["username"]),
		Password:    asString(obj["password"]),
		Email:       SanitizeEmail(asString(obj["email"])),
		FineBalance: balance,
	}
}

func decodeObject(raw []byte) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// matchesCanonical сообщает, совпадает ли исходная запись с канонической
// с точностью до форматирования. Сравнение нечувствительно к порядку ключей
// и пробелам, но замечает лишние ключи и изменённые значения.
func matchesCanonical(raw []byte, rec any) bool {
	canonical, err := json.Marshal(rec)
	if err != nil {
		return false
	}
	var a, b any
	if err := json.Unmarshal(raw, &a); err != nil {
		return false
	}
	if err := json.Unmarshal(canonical, &b); err != nil {
		return false
	}
	return reflect.DeepEqual(a, b)
}

func parseDateFlexible(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t
	}
	// дата из старых файлов могла сохраниться с временем
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	return time.Time{}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asInt(v any, def int) int {
	switch n := v.(type) {
	case float64:
		return int(math.Round(n))
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i
		}
	}
	return def
}

func hasKey(obj map[string]any, key string) bool {
	_, ok := obj[key]
	return ok
}
