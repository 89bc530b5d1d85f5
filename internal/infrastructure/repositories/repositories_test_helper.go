package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "open sqlite")
	return db
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

func createUserTables(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		affiliate_id TEXT,
		last_login DATETIME,
		created_at DATETIME
	);`)
	mustExec(t, db, `CREATE TABLE affiliates (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		contact_email TEXT NOT NULL,
		created_at DATETIME
	);`)
}

func createLeadTables(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE leads (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT NOT NULL,
		address TEXT,
		loan_amount REAL NOT NULL,
		notes TEXT,
		status TEXT NOT NULL,
		affiliate_id TEXT NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	);`)
	mustExec(t, db, `CREATE TABLE status_history (
		id TEXT PRIMARY KEY,
		lead_id TEXT NOT NULL,
		status TEXT NOT NULL,
		changed_by TEXT NOT NULL,
		changed_at DATETIME NOT NULL,
		notes TEXT
	);`)
	mustExec(t, db, `CREATE TABLE comments (
		id TEXT PRIMARY KEY,
		lead_id TEXT NOT NULL,
		content TEXT NOT NULL,
		created_by TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);`)
}

func createDocumentTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE documents (
		id TEXT PRIMARY KEY,
		lead_id TEXT NOT NULL,
		file_name TEXT NOT NULL,
		file_type TEXT NOT NULL,
		file_size INTEGER NOT NULL,
		storage_key TEXT NOT NULL UNIQUE,
		uploaded_at DATETIME NOT NULL
	);`)
}
