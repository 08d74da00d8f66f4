package entry

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/studentrep/portal/internal/db/models"
)

const testTable = "portal_state"

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	// every pooled connection would get its own in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, Migrate(db, testTable), "failed to migrate test database")

	return db
}

// seedEntries inserts test data into the database.
func seedEntries(t *testing.T, db *gorm.DB, entries []models.Entry) {
	t.Helper()

	for _, e := range entries {
		_, err := Set(db, testTable, e.Key, e.Value, e.Expiry)
		require.NoError(t, err, "failed to seed test data")
	}
}

func TestGet(t *testing.T) {
	db := setupTestDB(t)

	testCases := []struct {
		name          string
		dbParam       *gorm.DB
		table         string
		key           string
		seedData      []models.Entry
		expectedError error
		expectedValue []byte
	}{
		{
			name:          "nil database",
			dbParam:       nil,
			table:         testTable,
			key:           "sr_messages",
			expectedError: ErrDBNil,
		},
		{
			name:          "empty table",
			dbParam:       db,
			key:           "sr_messages",
			expectedError: ErrTableEmpty,
		},
		{
			name:          "empty key",
			dbParam:       db,
			table:         testTable,
			expectedError: ErrKeyEmpty,
		},
		{
			name:          "entry not found",
			dbParam:       db,
			table:         testTable,
			key:           "nonexistent",
			expectedError: ErrEntryNotFound,
		},
		{
			name:    "expired entry is not found",
			dbParam: db,
			table:   testTable,
			key:     "session-1",
			seedData: []models.Entry{
				{Key: "session-1", Value: []byte(`{}`), Expiry: time.Now().Add(-time.Minute).Unix()},
			},
			expectedError: ErrEntryNotFound,
		},
		{
			name:    "successful get",
			dbParam: db,
			table:   testTable,
			key:     "sr_infos",
			seedData: []models.Entry{
				{Key: "sr_infos", Value: []byte(`[]`)},
			},
			expectedValue: []byte(`[]`),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.dbParam != nil {
				require.NoError(t, Reset(tc.dbParam, testTable))
			}

			if tc.seedData != nil {
				seedEntries(t, tc.dbParam, tc.seedData)
			}

			e, err := Get(tc.dbParam, tc.table, tc.key)

			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				assert.Nil(t, e)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.key, e.Key)
			assert.Equal(t, tc.expectedValue, e.Value)
		})
	}
}

func TestGet_ExpiredEntryIsRemoved(t *testing.T) {
	db := setupTestDB(t)

	seedEntries(t, db, []models.Entry{
		{Key: "old", Value: []byte("x"), Expiry: time.Now().Add(-time.Hour).Unix()},
	})

	_, err := Get(db, testTable, "old")
	require.ErrorIs(t, err, ErrEntryNotFound)

	all, err := GetAll(db, testTable)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSet_Upsert(t *testing.T) {
	db := setupTestDB(t)

	_, err := Set(db, testTable, "sr_messages", []byte(`[1]`), 0)
	require.NoError(t, err)

	_, err = Set(db, testTable, "sr_messages", []byte(`[1,2]`), 0)
	require.NoError(t, err)

	e, err := Get(db, testTable, "sr_messages")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[1,2]`), e.Value)

	all, err := GetAll(db, testTable)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSet_Errors(t *testing.T) {
	db := setupTestDB(t)

	_, err := Set(nil, testTable, "k", nil, 0)
	require.ErrorIs(t, err, ErrDBNil)

	_, err = Set(db, testTable, "", nil, 0)
	require.ErrorIs(t, err, ErrKeyEmpty)

	_, err = Set(db, "", "k", nil, 0)
	require.ErrorIs(t, err, ErrTableEmpty)
}

func TestGetAll(t *testing.T) {
	db := setupTestDB(t)

	_, err := GetAll(nil, testTable)
	require.ErrorIs(t, err, ErrDBNil)

	all, err := GetAll(db, testTable)
	require.NoError(t, err)
	assert.Empty(t, all)

	seedEntries(t, db, []models.Entry{
		{Key: "sr_resources", Value: []byte(`[]`)},
		{Key: "sr_infos", Value: []byte(`[]`)},
		{Key: "sr_messages", Value: []byte(`[]`)},
	})

	all, err = GetAll(db, testTable)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "sr_infos", all[0].Key)
	assert.Equal(t, "sr_resources", all[2].Key)
}

func TestDelete(t *testing.T) {
	db := setupTestDB(t)

	seedEntries(t, db, []models.Entry{{Key: "sr_messages", Value: []byte(`[]`)}})

	require.NoError(t, Delete(db, testTable, "sr_messages"))
	require.ErrorIs(t, Delete(db, testTable, "sr_messages"), ErrEntryNotFound)
	require.ErrorIs(t, Delete(db, testTable, ""), ErrKeyEmpty)
	require.ErrorIs(t, Delete(nil, testTable, "x"), ErrDBNil)
}

func TestDeleteExpired(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now()

	seedEntries(t, db, []models.Entry{
		{Key: "a", Value: []byte("1"), Expiry: now.Add(-time.Hour).Unix()},
		{Key: "b", Value: []byte("2"), Expiry: now.Add(time.Hour).Unix()},
		{Key: "c", Value: []byte("3")},
	})

	n, err := DeleteExpired(db, testTable, now.Unix())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	all, err := GetAll(db, testTable)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestTablesAreSeparate(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, Migrate(db, "sessions"))

	_, err := Set(db, "sessions", "abc", []byte("s"), 0)
	require.NoError(t, err)

	_, err = Get(db, testTable, "abc")
	require.ErrorIs(t, err, ErrEntryNotFound)

	e, err := Get(db, "sessions", "abc")
	require.NoError(t, err)
	assert.Equal(t, []byte("s"), e.Value)
}
