package kvstore

import (
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type record struct {
	ID   string `json:"id"`
	Body string `json:"body"`
}

func newTestTable(t *testing.T) *Table {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	tbl, err := NewTable(db, "portal_state")
	require.NoError(t, err)

	return tbl
}

func backends(t *testing.T) map[string]fiber.Storage {
	t.Helper()

	return map[string]fiber.Storage{
		"table":  newTestTable(t),
		"memory": NewMemory(),
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	values := []record{
		{ID: "msg_abc123def", Body: "printer broken"},
		{ID: "msg_zzz", Body: "ünïcödé and \"quotes\""},
	}

	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, Save(kv, "sr_messages", values))

			got := Load(kv, "sr_messages", []record{})
			assert.Equal(t, values, got)

			// scalars round trip too
			require.NoError(t, Save(kv, "sr_admin_logged", true))
			assert.True(t, Load(kv, "sr_admin_logged", false))

			// saving again overwrites
			require.NoError(t, Save(kv, "sr_messages", values[:1]))
			assert.Equal(t, values[:1], Load(kv, "sr_messages", []record{}))
		})
	}
}

func TestLoad_Fallback(t *testing.T) {
	fallback := []record{{ID: "fallback"}}

	for name, kv := range backends(t) {
		t.Run(name+" absent key", func(t *testing.T) {
			assert.Equal(t, fallback, Load(kv, "sr_missing", fallback))
		})

		t.Run(name+" corrupt value", func(t *testing.T) {
			require.NoError(t, kv.Set("sr_corrupt", []byte("{not json"), 0))
			assert.Equal(t, fallback, Load(kv, "sr_corrupt", fallback))
		})

		t.Run(name+" wrong shape", func(t *testing.T) {
			require.NoError(t, kv.Set("sr_shape", []byte(`{"id":"x"}`), 0))
			assert.Equal(t, fallback, Load(kv, "sr_shape", fallback))
		})
	}
}

// failingStorage fails every operation.
type failingStorage struct{}

var errBroken = errors.New("broken storage")

func (failingStorage) Get(string) ([]byte, error)              { return nil, errBroken }
func (failingStorage) Set(string, []byte, time.Duration) error { return errBroken }
func (failingStorage) Delete(string) error                     { return errBroken }
func (failingStorage) Reset() error                            { return errBroken }
func (failingStorage) Close() error                            { return nil }

func TestLoad_ReadFailureUsesFallback(t *testing.T) {
	assert.Equal(t, 42, Load[int](failingStorage{}, "k", 42))
}

func TestSave_Errors(t *testing.T) {
	err := Save(failingStorage{}, "k", 1)
	require.ErrorIs(t, err, errBroken)

	err = Save(NewMemory(), "k", func() {})
	require.Error(t, err)
}

func TestTable_Expiry(t *testing.T) {
	tbl := newTestTable(t)

	now := time.Now()
	tbl.now = func() time.Time { return now }

	require.NoError(t, tbl.Set("session", []byte("data"), time.Minute))

	got, err := tbl.Get("session")
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), got)

	// two minutes later the entry is gone
	tbl.now = func() time.Time { return now.Add(2 * time.Minute) }

	n, err := tbl.GC()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err = tbl.Get("session")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTable_DeleteAndReset(t *testing.T) {
	tbl := newTestTable(t)

	require.NoError(t, tbl.Delete("absent"))
	require.NoError(t, tbl.Set("a", []byte("1"), 0))
	require.NoError(t, tbl.Set("b", []byte("2"), 0))
	require.NoError(t, tbl.Delete("a"))

	got, err := tbl.Get("a")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, tbl.Reset())

	got, err = tbl.Get("b")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, tbl.Close())
}
