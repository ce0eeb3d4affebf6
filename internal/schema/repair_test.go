package schema

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDecodeArray(t *testing.T) {
	tests := []struct {
		name         string
		data         string
		wantLen      int
		wantModified bool
		wantErr      bool
	}{
		{name: "regular array", data: `[{"title":"Dune"},{"title":"Hobbit"}]`, wantLen: 2},
		{name: "empty array", data: `[]`, wantLen: 0},
		{name: "null root", data: `null`, wantLen: 0, wantModified: true},
		{name: "empty input", data: ``, wantLen: 0},
		{name: "single object wrapped", data: `{"title":"Dune"}`, wantLen: 1, wantModified: true},
		{name: "garbage", data: `not json`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, modified, err := DecodeArray([]byte(tt.data))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, records, tt.wantLen)
			assert.Equal(t, tt.wantModified, modified)
		})
	}
}

func TestRepairMedia_InfersDiscriminator(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantType string
	}{
		{name: "isbn means book", raw: `{"title":"Dune","author":"Herbert","isbn":"111"}`, wantType: "BOOK"},
		{name: "author means book", raw: `{"title":"Dune","author":"Herbert"}`, wantType: "BOOK"},
		{name: "artist means cd", raw: `{"title":"Abbey Road","artist":"The Beatles"}`, wantType: "CD"},
		{name: "empty discriminator reinferred", raw: `{"mediaType":"","title":"Kind of Blue","artist":"Miles Davis"}`, wantType: "CD"},
		{name: "lowercase normalized", raw: `{"mediaType":"book","title":"Dune","author":"Herbert","isbn":"111"}`, wantType: "BOOK"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, modified, err := RepairMedia([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, rec.MediaType)
			assert.True(t, modified)
		})
	}
}

func TestRepairMedia_QuantityDefaults(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{name: "missing quantity defaults to one", raw: `{"mediaType":"BOOK","title":"Dune","author":"Herbert","isbn":"111"}`, want: 1},
		{name: "negative clamped to zero", raw: `{"mediaType":"BOOK","title":"Dune","author":"Herbert","isbn":"111","quantity":-3}`, want: 0},
		{name: "non-numeric defaults to one", raw: `{"mediaType":"BOOK","title":"Dune","author":"Herbert","isbn":"111","quantity":"many"}`, want: 1},
		{name: "numeric string parsed", raw: `{"mediaType":"BOOK","title":"Dune","author":"Herbert","isbn":"111","quantity":"4"}`, want: 4},
		{name: "valid untouched", raw: `{"mediaType":"BOOK","title":"Dune","author":"Herbert","isbn":"111","quantity":2}`, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _, err := RepairMedia([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, rec.Quantity)
		})
	}
}

func TestRepairMedia_AssignsStableID(t *testing.T) {
	rec, modified, err := RepairMedia([]byte(`{"mediaType":"BOOK","title":"Dune","author":"Herbert","isbn":"111","quantity":1,"borrowDuration":28}`))
	require.NoError(t, err)
	assert.True(t, modified, "legacy record without id must be marked dirty")

	id, err := uuid.Parse(rec.ID)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	// повторный ремонт сохраняет присвоенный идентификатор
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	again, modified, err := RepairMedia(data)
	require.NoError(t, err)
	assert.False(t, modified)
	assert.Equal(t, rec.ID, again.ID)
}

func TestRepairMedia_DropsUnknownKeys(t *testing.T) {
	raw := `{"mediaType":"CD","title":"Abbey Road","artist":"The Beatles","quantity":1,"borrowDuration":7,"availability":"Available (Qty: 1)"}`
	rec, modified, err := RepairMedia([]byte(raw))
	require.NoError(t, err)
	assert.True(t, modified)

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "availability")
}

func TestRepairMedia_FixedBorrowDuration(t *testing.T) {
	rec, modified, err := RepairMedia([]byte(`{"mediaType":"CD","title":"Abbey Road","artist":"The Beatles","quantity":1,"borrowDuration":30}`))
	require.NoError(t, err)
	assert.True(t, modified)
	assert.Equal(t, 7, rec.BorrowDuration)
}

func TestRepairUser_SanitizesEmail(t *testing.T) {
	rec, modified, err := RepairUser([]byte(`{"username":"dana","password":"x","email":"  Dana K@Example.COM ","fineBalance":0}`))
	require.NoError(t, err)
	assert.True(t, modified)
	assert.Equal(t, "danak@example.com", rec.Email)
}

func TestRepairUser_NegativeBalanceClamped(t *testing.T) {
	rec, _, err := RepairUser([]byte(`{"username":"dana","password":"x","email":"dana@example.com","fineBalance":-20}`))
	require.NoError(t, err)
	assert.Equal(t, 0, rec.FineBalance)
}

func TestRepairLoan_RecomputesDueDate(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantDue string
	}{
		{
			name:    "missing due date",
			raw:     `{"user":{"username":"dana","password":"x","email":"dana@example.com","fineBalance":0},"item":{"mediaType":"BOOK","title":"Dune","author":"Herbert","isbn":"111","quantity":1,"borrowDuration":28},"borrowedDate":"2026-01-01","returned":false,"finePaid":false,"fineAmount":0}`,
			wantDue: "2026-01-29",
		},
		{
			name:    "due date before borrowed date",
			raw:     `{"user":{"username":"dana","password":"x","email":"dana@example.com","fineBalance":0},"item":{"mediaType":"CD","title":"Abbey Road","artist":"The Beatles","quantity":1,"borrowDuration":7},"borrowedDate":"2026-01-10","dueDate":"2026-01-05","returned":false,"finePaid":false,"fineAmount":0}`,
			wantDue: "2026-01-17",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, modified, err := RepairLoan([]byte(tt.raw))
			require.NoError(t, err)
			assert.True(t, modified)
			assert.Equal(t, tt.wantDue, rec.DueDate)
		})
	}
}

func TestRepairLoan_DefaultsFlags(t *testing.T) {
	raw := `{"user":{"username":"dana","password":"x","email":"dana@example.com","fineBalance":0},"item":{"mediaType":"BOOK","title":"Dune","author":"Herbert","isbn":"111","quantity":1,"borrowDuration":28},"borrowedDate":"2026-01-01","dueDate":"2026-01-29"}`
	rec, modified, err := RepairLoan([]byte(raw))
	require.NoError(t, err)
	assert.True(t, modified)
	assert.False(t, rec.Returned)
	assert.False(t, rec.FinePaid)
	assert.Equal(t, 0, rec.FineAmount)
}

func TestRepairLoan_CanonicalUnchanged(t *testing.T) {
	raw := `{"user":{"username":"dana","password":"x","email":"dana@example.com","fineBalance":0},"item":{"mediaType":"BOOK","title":"Dune","author":"Herbert","isbn":"111","quantity":1,"borrowDuration":28},"borrowedDate":"2026-01-01","dueDate":"2026-01-29","returned":false,"finePaid":false,"fineAmount":0}`
	_, modified, err := RepairLoan([]byte(raw))
	require.NoError(t, err)
	assert.False(t, modified, "canonical record must not be marked dirty")
}

func TestSanitizeEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "  Dana@Example.COM ", want: "dana@example.com"},
		{in: "a b c@example.com", want: "abc@example.com"},
		{in: "plain@example.com", want: "plain@example.com"},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeEmail(tt.in))
	}
}

// Ремонт должен сходиться к неподвижной точке: результат повторного ремонта
// канонической записи совпадает с первым и не помечается изменённым.
func TestRepairMedia_FixedPoint(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		obj := map[string]any{}
		if rapid.Bool().Draw(t, "hasType") {
			obj["mediaType"] = rapid.SampledFrom([]string{"BOOK", "CD", "book", "cd", "", "TAPE"}).Draw(t, "mediaType")
		}
		obj["title"] = rapid.StringMatching(`[A-Za-z ]{0,20}`).Draw(t, "title")
		if rapid.Bool().Draw(t, "hasAuthor") {
			obj["author"] = rapid.StringMatching(`[A-Za-z ]{0,15}`).Draw(t, "author")
		}
		if rapid.Bool().Draw(t, "hasIsbn") {
			obj["isbn"] = rapid.StringMatching(`[0-9]{0,13}`).Draw(t, "isbn")
		}
		if rapid.Bool().Draw(t, "hasArtist") {
			obj["artist"] = rapid.StringMatching(`[A-Za-z ]{0,15}`).Draw(t, "artist")
		}
		switch rapid.IntRange(0, 3).Draw(t, "quantityShape") {
		case 0:
			// поле отсутствует
		case 1:
			obj["quantity"] = float64(rapid.IntRange(-5, 10).Draw(t, "quantity"))
		case 2:
			obj["quantity"] = "many"
		case 3:
			obj["quantity"] = float64(rapid.IntRange(0, 5).Draw(t, "quantity"))
		}
		if rapid.Bool().Draw(t, "hasJunk") {
			obj["availability"] = "Available"
		}

		raw, err := json.Marshal(obj)
		require.NoError(t, err)

		first, _, err := RepairMedia(raw)
		require.NoError(t, err)

		canonical, err := json.Marshal(first)
		require.NoError(t, err)

		second, modified, err := RepairMedia(canonical)
		require.NoError(t, err)
		assert.False(t, modified, "second repair must be a no-op")
		assert.Equal(t, first, second)
		assert.GreaterOrEqual(t, second.Quantity, 0)
	})
}
