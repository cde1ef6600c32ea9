package postgres_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doctrack/internal/domain"
	"doctrack/internal/repository/postgres"
)

// openTestDB connects to DOCTRACK_TEST_DB_DSN and applies the migrations, or skips.
func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("DOCTRACK_TEST_DB_DSN")
	if dsn == "" {
		t.Skip("DOCTRACK_TEST_DB_DSN not set")
	}
	m, err := migrate.New("file://../../../db/migrations", dsn)
	require.NoError(t, err)
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		require.NoError(t, err)
	}
	_, _ = m.Close()

	db, err := sqlx.Connect("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestAuditLogRepo_AppendNeverPrecedesLastEntry(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := postgres.NewAuditLogRepo(db)
	doc := uuid.New()

	// An entry written by a process whose clock runs an hour ahead.
	ahead := time.Now().Add(time.Hour).UTC().Truncate(time.Microsecond)
	_, err := db.ExecContext(ctx,
		`INSERT INTO audit_log (id, document_id, document_kind, action, remarks, created_at)
		 VALUES ($1, $2, $3, $4, '', $5)`,
		uuid.New(), doc, domain.KindRequest, domain.AuditCreated, ahead)
	require.NoError(t, err)

	next := &domain.AuditEntry{DocumentID: doc, DocumentKind: domain.KindRequest, Action: domain.AuditReceived}
	require.NoError(t, repo.Append(ctx, next))
	assert.False(t, next.CreatedAt.Before(ahead))

	entries, err := repo.ListPage(ctx, doc, nil, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.AuditCreated, entries[0].Action)
	assert.Equal(t, domain.AuditReceived, entries[1].Action)
	assert.Equal(t, next.Seq, entries[1].Seq)
	assert.True(t, next.CreatedAt.Equal(entries[1].CreatedAt))
}
