// Package entry provides CRUD operations on key-value tables.
// Every function takes the table name, so one model serves several tables.
package entry

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/studentrep/portal/internal/db/models"
)

const (
	keyQueryPattern = "k = ?"
)

var (
	// ErrEntryNotFound is returned when a key is absent or expired.
	ErrEntryNotFound = errors.New("entry not found")
	// ErrKeyEmpty is returned when a key is empty.
	ErrKeyEmpty = errors.New("entry key cannot be empty")
	// ErrTableEmpty is returned when no table name is given.
	ErrTableEmpty = errors.New("entry table cannot be empty")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

func scope(db *gorm.DB, table string) (*gorm.DB, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if table == "" {
		return nil, ErrTableEmpty
	}

	return db.Table(table), nil
}

// Migrate creates or updates the given key-value table.
func Migrate(db *gorm.DB, table string) error {
	tx, err := scope(db, table)
	if err != nil {
		return err
	}

	return tx.AutoMigrate(&models.Entry{})
}

// Get retrieves an entry by key. Expired entries are removed and reported as not found.
func Get(db *gorm.DB, table, key string) (*models.Entry, error) {
	tx, err := scope(db, table)
	if err != nil {
		return nil, err
	}

	if key == "" {
		return nil, ErrKeyEmpty
	}

	var e models.Entry

	result := tx.Where(keyQueryPattern, key).First(&e)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}

		return nil, result.Error
	}

	if e.Expired(time.Now().Unix()) {
		if err = Delete(db, table, key); err != nil && !errors.Is(err, ErrEntryNotFound) {
			return nil, err
		}

		return nil, ErrEntryNotFound
	}

	return &e, nil
}

// GetAll retrieves every entry of a table, expired ones included.
func GetAll(db *gorm.DB, table string) ([]models.Entry, error) {
	tx, err := scope(db, table)
	if err != nil {
		return nil, err
	}

	var entries []models.Entry

	result := tx.Order("k").Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}

	return entries, nil
}

// Set creates or replaces the entry for key. expiry is a unix time, 0 never expires.
func Set(db *gorm.DB, table, key string, value []byte, expiry int64) (*models.Entry, error) {
	tx, err := scope(db, table)
	if err != nil {
		return nil, err
	}

	if key == "" {
		return nil, ErrKeyEmpty
	}

	e := &models.Entry{
		Key:    key,
		Value:  value,
		Expiry: expiry,
	}

	result := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "k"}},
		DoUpdates: clause.AssignmentColumns([]string{"v", "expiry"}),
	}).Create(e)
	if result.Error != nil {
		return nil, result.Error
	}

	return e, nil
}

// Delete deletes the entry for key.
func Delete(db *gorm.DB, table, key string) error {
	tx, err := scope(db, table)
	if err != nil {
		return err
	}

	if key == "" {
		return ErrKeyEmpty
	}

	result := tx.Where(keyQueryPattern, key).Delete(&models.Entry{})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrEntryNotFound
	}

	return nil
}

// DeleteExpired removes all entries expired at unix time now and returns how many were removed.
func DeleteExpired(db *gorm.DB, table string, now int64) (int64, error) {
	tx, err := scope(db, table)
	if err != nil {
		return 0, err
	}

	result := tx.Where("expiry <> 0 AND expiry <= ?", now).Delete(&models.Entry{})

	return result.RowsAffected, result.Error
}

// Reset deletes all entries of a table.
func Reset(db *gorm.DB, table string) error {
	tx, err := scope(db, table)
	if err != nil {
		return err
	}

	return tx.Where("1 = 1").Delete(&models.Entry{}).Error
}
