package reminder

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shaharge/library-circulation/internal/models"
	"github.com/shaharge/library-circulation/internal/storage"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type ObserverMock struct{ mock.Mock }

func (m *ObserverMock) Notify(member *models.Member, message string) error {
	return m.Called(member, message).Error(0)
}

type env struct {
	catalog *storage.Catalog
	members *storage.Members
	ledger  *storage.Ledger
	service *Service
}

func newTestEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	log := newNoopLogger()

	catalog, err := storage.OpenCatalog(dir, log)
	require.NoError(t, err)
	members, err := storage.OpenMembers(dir, log)
	require.NoError(t, err)
	ledger, err := storage.OpenLedger(dir, catalog, log)
	require.NoError(t, err)

	return &env{
		catalog: catalog,
		members: members,
		ledger:  ledger,
		service: New(ledger, members, log),
	}
}

func TestService_NoUsers(t *testing.T) {
	e := newTestEnv(t)
	assert.Equal(t, NoUsers, e.service.Run())
}

func TestService_NoOverdue(t *testing.T) {
	e := newTestEnv(t)
	require.NoError(t, e.members.Add(&models.Member{Username: "alice", Password: "h", Email: "a@b.com"}))

	book := models.NewBook("Dune", "Frank Herbert", "111")
	require.NoError(t, e.catalog.Add(book))

	alice := e.members.FindByUsername("alice")
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, e.ledger.RecordLoan(models.NewLoan(alice, book, now)))

	e.service.now = func() time.Time { return now.AddDate(0, 0, 5) }
	assert.Equal(t, NoOverdue, e.service.Run())
}

func TestService_SendsAggregatedReminders(t *testing.T) {
	e := newTestEnv(t)
	require.NoError(t, e.members.Add(&models.Member{Username: "alice", Password: "h", Email: "a@b.com"}))
	require.NoError(t, e.members.Add(&models.Member{Username: "bob", Password: "h", Email: "b@b.com"}))

	book1 := models.NewBook("Dune", "Frank Herbert", "111")
	book2 := models.NewBook("Hyperion", "Dan Simmons", "222")
	cd := models.NewCD("Kind of Blue", "Miles Davis")
	require.NoError(t, e.catalog.Add(book1))
	require.NoError(t, e.catalog.Add(book2))
	require.NoError(t, e.catalog.Add(cd))

	alice := e.members.FindByUsername("alice")
	bob := e.members.FindByUsername("bob")
	borrowed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, e.ledger.RecordLoan(models.NewLoan(alice, book1, borrowed)))
	require.NoError(t, e.ledger.RecordLoan(models.NewLoan(alice, cd, borrowed)))
	require.NoError(t, e.ledger.RecordLoan(models.NewLoan(bob, book2, borrowed)))

	// всё просрочено
	e.service.now = func() time.Time { return borrowed.AddDate(0, 0, 60) }

	observer := new(ObserverMock)
	observer.On("Notify", mock.MatchedBy(func(m *models.Member) bool { return m.Username == "alice" }),
		"You have 1 overdue book(s) and 1 overdue CD(s).").Return(nil)
	observer.On("Notify", mock.MatchedBy(func(m *models.Member) bool { return m.Username == "bob" }),
		"You have 1 overdue book(s) and 0 overdue CD(s).").Return(nil)
	e.service.Subscribe(observer)

	assert.Equal(t, Sent, e.service.Run())
	observer.AssertExpectations(t)
}

func TestService_ObserverErrorDoesNotStopRun(t *testing.T) {
	e := newTestEnv(t)
	require.NoError(t, e.members.Add(&models.Member{Username: "alice", Password: "h", Email: "a@b.com"}))

	book := models.NewBook("Dune", "Frank Herbert", "111")
	require.NoError(t, e.catalog.Add(book))

	alice := e.members.FindByUsername("alice")
	borrowed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, e.ledger.RecordLoan(models.NewLoan(alice, book, borrowed)))
	e.service.now = func() time.Time { return borrowed.AddDate(0, 0, 60) }

	failing := new(ObserverMock)
	failing.On("Notify", mock.Anything, mock.Anything).Return(errors.New("smtp down"))
	working := new(ObserverMock)
	working.On("Notify", mock.Anything, mock.Anything).Return(nil)

	e.service.Subscribe(failing)
	e.service.Subscribe(working)

	assert.Equal(t, Sent, e.service.Run())
	working.AssertCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestConsoleObserver(t *testing.T) {
	var buf bytes.Buffer
	o := NewConsoleObserver(&buf)

	err := o.Notify(&models.Member{Username: "alice", Email: "a@b.com"}, Message(2, 1))
	require.NoError(t, err)
	assert.Equal(t, "[reminder] alice <a@b.com>: You have 2 overdue book(s) and 1 overdue CD(s).\n", buf.String())
}
