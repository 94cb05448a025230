package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docguard.db")
	db, err := Open(context.Background(), "sqlite://"+path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDataSourceFor(t *testing.T) {
	tests := []struct {
		url        string
		driver     string
		dataSource string
		wantErr    bool
	}{
		{url: "sqlite://docguard.db", driver: "sqlite3", dataSource: "docguard.db?_busy_timeout=5000"},
		{url: "sqlite:///var/lib/docguard.db", driver: "sqlite3", dataSource: "/var/lib/docguard.db?_busy_timeout=5000"},
		{url: "sqlite://x.db?_busy_timeout=100", driver: "sqlite3", dataSource: "x.db?_busy_timeout=100"},
		{url: "postgres://u:p@db:5432/dg?sslmode=disable", driver: "postgres", dataSource: "postgres://u:p@db:5432/dg?sslmode=disable"},
		{url: "postgresql://db/dg", driver: "postgres", dataSource: "postgresql://db/dg"},
		{url: "mysql://db/dg", wantErr: true},
		{url: "sqlite://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			driver, dataSource, err := dataSourceFor(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.driver, driver)
			assert.Equal(t, tt.dataSource, dataSource)
		})
	}
}

func TestMigrateUp(t *testing.T) {
	db := openTestDB(t)

	require.Error(t, RequireMigrated(db), "fresh database should report pending migrations")

	ran, err := MigrateUp(db)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_initial_schema.sql"}, ran)

	// Second run is a no-op
	ran, err = MigrateUp(db)
	require.NoError(t, err)
	assert.Empty(t, ran)

	require.NoError(t, RequireMigrated(db))

	statuses, err := MigrateStatus(db)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.True(t, statuses[0].Applied)
	assert.NotNil(t, statuses[0].AppliedAt)
	assert.Len(t, statuses[0].Checksum, 64)

	for _, table := range []string{"validation_rules", "documents", "validation_checks", "validation_issues"} {
		var n int
		require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM "+table), table)
	}
}

func TestMigrateUp_ChecksumMismatch(t *testing.T) {
	db := openTestDB(t)
	_, err := MigrateUp(db)
	require.NoError(t, err)

	_, err = db.Exec("UPDATE migrations SET checksum = 'tampered'")
	require.NoError(t, err)

	_, err = MigrateUp(db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checksum mismatch")
}

func TestMigrateUp_UnknownAppliedMigration(t *testing.T) {
	db := openTestDB(t)
	_, err := MigrateUp(db)
	require.NoError(t, err)

	_, err = db.Exec("INSERT INTO migrations (migration_id, checksum, applied_at, execution_ms) VALUES ('999_future.sql', 'x', '2024-01-01T00:00:00Z', 0)")
	require.NoError(t, err)

	_, err = MigrateUp(db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in embedded files")
}

func TestSplitStatements(t *testing.T) {
	script := `-- header comment
CREATE TABLE a (x TEXT);
  -- indented comment
CREATE INDEX i ON a (x);

`
	assert.Equal(t, []string{"CREATE TABLE a (x TEXT)", "CREATE INDEX i ON a (x)"}, splitStatements(script))
}

func TestQueries(t *testing.T) {
	db := openTestDB(t)
	_, err := MigrateUp(db)
	require.NoError(t, err)

	q, err := LoadQueries(db)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = q.Exec(ctx, "upsert-document", "doc-1", "invoice", `{"a":1}`, "2024-01-01T00:00:00Z", "2024-01-01T00:00:00Z")
	require.NoError(t, err)

	var row struct {
		ID           string `db:"document_id"`
		DocumentType string `db:"document_type"`
		Content      string `db:"content"`
		Status       string `db:"status"`
		Flagged      int    `db:"flagged"`
		CreatedAt    string `db:"created_at"`
		UpdatedAt    string `db:"updated_at"`
	}
	require.NoError(t, q.Get(ctx, "get-document", &row, "doc-1"))
	assert.Equal(t, "pending", row.Status)
	assert.Equal(t, `{"a":1}`, row.Content)

	_, err = q.Exec(ctx, "no-such-query")
	assert.EqualError(t, err, "query not found: no-such-query")
}

func TestQueries_InTxRollsBack(t *testing.T) {
	db := openTestDB(t)
	_, err := MigrateUp(db)
	require.NoError(t, err)
	q, err := LoadQueries(db)
	require.NoError(t, err)
	ctx := context.Background()

	err = q.InTx(ctx, func(tx *Queries) error {
		if _, err := tx.Exec(ctx, "upsert-document", "doc-1", "invoice", "{}", "2024-01-01T00:00:00Z", "2024-01-01T00:00:00Z"); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, "no-such-query")
		return err
	})
	require.Error(t, err)

	var n int
	require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM documents"))
	assert.Equal(t, 0, n)
}
