package report

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharge/library-circulation/internal/models"
	"github.com/shaharge/library-circulation/internal/storage"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T) (*Service, *storage.Catalog, *storage.Ledger) {
	t.Helper()
	dir := t.TempDir()
	log := newNoopLogger()

	catalog, err := storage.OpenCatalog(dir, log)
	require.NoError(t, err)
	ledger, err := storage.OpenLedger(dir, catalog, log)
	require.NoError(t, err)

	return New(ledger, log), catalog, ledger
}

func TestService_Generate(t *testing.T) {
	s, catalog, ledger := newTestService(t)

	book := models.NewBook("Dune", "Frank Herbert", "111")
	cd := models.NewCD("Kind of Blue", "Miles Davis")
	require.NoError(t, catalog.Add(book))
	require.NoError(t, catalog.Add(cd))

	alice := &models.Member{Username: "alice", Password: "h", Email: "a@b.com"}
	borrowed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, ledger.RecordLoan(models.NewLoan(alice, book, borrowed))) // due 2026-01-29
	require.NoError(t, ledger.RecordLoan(models.NewLoan(alice, cd, borrowed)))   // due 2026-01-08

	// книга просрочена на 3 дня, CD на 24
	s.now = func() time.Time { return time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC) }

	rep := s.Generate("alice")
	assert.Equal(t, 1, rep.Books)
	assert.Equal(t, 1, rep.CDs)
	assert.Equal(t, 3*10+24*20, rep.TotalFine)
	require.Len(t, rep.Items, 2)

	text := rep.String()
	assert.Contains(t, text, "--- Overdue Report ---")
	assert.Contains(t, text, "Books overdue: 1")
	assert.Contains(t, text, "Dune | Days late: 3 | Fine: 30 NIS")
	assert.Contains(t, text, "Kind of Blue | Days late: 24 | Fine: 480 NIS")
}

func TestService_GenerateEmpty(t *testing.T) {
	s, _, _ := newTestService(t)

	rep := s.Generate("alice")
	assert.Empty(t, rep.Items)
	assert.Equal(t, 0, rep.TotalFine)
}

func TestService_GenerateAll(t *testing.T) {
	s, catalog, ledger := newTestService(t)

	book1 := models.NewBook("Dune", "Frank Herbert", "111")
	book2 := models.NewBook("Hyperion", "Dan Simmons", "222")
	require.NoError(t, catalog.Add(book1))
	require.NoError(t, catalog.Add(book2))

	alice := &models.Member{Username: "alice", Password: "h", Email: "a@b.com"}
	bob := &models.Member{Username: "bob", Password: "h", Email: "b@b.com"}
	borrowed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, ledger.RecordLoan(models.NewLoan(alice, book1, borrowed)))
	require.NoError(t, ledger.RecordLoan(models.NewLoan(bob, book2, borrowed)))

	s.now = func() time.Time { return borrowed.AddDate(0, 0, 30) }

	reports := s.GenerateAll()
	require.Len(t, reports, 2)
	assert.Equal(t, "alice", reports[0].Username)
	assert.Equal(t, "bob", reports[1].Username)
	assert.Equal(t, 20, reports[0].TotalFine) // 2 дня просрочки книги
}
