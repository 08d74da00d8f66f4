package kvstore

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/studentrep/portal/internal/db/controller/entry"
)

// Table is a fiber.Storage backed by a gorm key-value table.
type Table struct {
	db    *gorm.DB
	table string
	now   func() time.Time
}

var _ fiber.Storage = (*Table)(nil)

// NewTable migrates the table and returns a storage on top of it.
func NewTable(db *gorm.DB, table string) (*Table, error) {
	if err := entry.Migrate(db, table); err != nil {
		return nil, err
	}

	return &Table{db: db, table: table, now: time.Now}, nil
}

// Get returns nil, nil for absent or expired keys, like every fiber storage.
func (t *Table) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}

	e, err := entry.Get(t.db, t.table, key)
	if errors.Is(err, entry.ErrEntryNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return e.Value, nil
}

// Set stores val under key. A zero exp never expires.
func (t *Table) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}

	var expiry int64
	if exp > 0 {
		expiry = t.now().Add(exp).Unix()
	}

	_, err := entry.Set(t.db, t.table, key, val, expiry)

	return err
}

// Delete removes key. Deleting an absent key is not an error.
func (t *Table) Delete(key string) error {
	if key == "" {
		return nil
	}

	err := entry.Delete(t.db, t.table, key)
	if errors.Is(err, entry.ErrEntryNotFound) {
		return nil
	}

	return err
}

// Reset removes all keys of the table.
func (t *Table) Reset() error {
	return entry.Reset(t.db, t.table)
}

// Close does nothing, the database is owned by the caller.
func (t *Table) Close() error {
	return nil
}

// GC removes expired keys and returns how many were removed.
func (t *Table) GC() (int64, error) {
	return entry.DeleteExpired(t.db, t.table, t.now().Unix())
}
