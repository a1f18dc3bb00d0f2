package models

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// AutoMigrate must produce valid DDL on sqlite: no server-side key defaults
// may leak into the column definitions.
func TestAutoMigrate_AllModels(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "models_test.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	require.NoError(t, db.AutoMigrate(
		&User{},
		&Book{},
		&Member{},
		&Transaction{},
	))
}

// Primary keys come from the BeforeCreate hooks, not from the database.
func TestBeforeCreate_AssignsIDs(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "models_test.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&User{}, &Book{}, &Member{}, &Transaction{}))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	user := &User{Username: "reader", IsActive: true}
	require.NoError(t, db.Create(user).Error)
	assert.NotEqual(t, uuid.Nil, user.ID)

	book := &Book{CodeNo: "BK-001", Title: "Sorted Shelves", Author: "A. Librarian", TotalCopies: 1, AvailableCopies: 1}
	require.NoError(t, db.Create(book).Error)
	assert.NotEqual(t, uuid.Nil, book.ID)

	member := &Member{
		UserID:          user.ID,
		MembershipStart: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		MembershipEnd:   time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.Create(member).Error)
	assert.NotEqual(t, uuid.Nil, member.ID)

	tx := &Transaction{
		UserID:    user.ID,
		BookID:    book.ID,
		IssueDate: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		DueDate:   time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC),
		Status:    TransactionStatusIssued,
	}
	require.NoError(t, db.Create(tx).Error)
	assert.NotEqual(t, uuid.Nil, tx.ID)

	// A pre-set ID is kept as-is.
	fixed := uuid.New()
	user2 := &User{ID: fixed, Username: "keeper", IsActive: true}
	require.NoError(t, db.Create(user2).Error)
	assert.Equal(t, fixed, user2.ID)
}
