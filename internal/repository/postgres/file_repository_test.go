package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"filesmanager/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fileColumns = []string{"id", "owner_id", "name", "kind", "parent_id", "is_public", "storage_key", "created_at", "updated_at"}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestFileRepository_Create_Image(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFileRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(`(?s)^INSERT INTO files \(id,owner_id,name,kind,parent_id,is_public,storage_key,created_at,updated_at\).*RETURNING`).
		WithArgs("f1", "u1", "cat.png", "image", "0", false, "blob-1", now, now).
		WillReturnRows(sqlmock.NewRows(fileColumns).
			AddRow("f1", "u1", "cat.png", "image", "0", false, "blob-1", now, now))

	rec, err := repo.Create(context.Background(), &repository.FileRecord{
		ID:         "f1",
		OwnerID:    "u1",
		Name:       "cat.png",
		Kind:       repository.FileKindImage,
		ParentID:   repository.RootParentID,
		StorageKey: "blob-1",
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	require.NoError(t, err)
	assert.Equal(t, "blob-1", rec.StorageKey)
	assert.Equal(t, repository.FileKindImage, rec.Kind)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFileRepository_Create_FolderStoresNullKey(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFileRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(`(?s)^INSERT INTO files`).
		WithArgs("d1", "u1", "docs", "folder", "0", true, sql.NullString{}, now, now).
		WillReturnRows(sqlmock.NewRows(fileColumns).
			AddRow("d1", "u1", "docs", "folder", "0", true, nil, now, now))

	rec, err := repo.Create(context.Background(), &repository.FileRecord{
		ID:        "d1",
		OwnerID:   "u1",
		Name:      "docs",
		Kind:      repository.FileKindFolder,
		ParentID:  repository.RootParentID,
		IsPublic:  true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)
	assert.Empty(t, rec.StorageKey)
	assert.True(t, rec.IsFolder())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFileRepository_GetByOwner_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFileRepository(db)

	mock.ExpectQuery(`SELECT .* FROM files WHERE id = \$1 AND owner_id = \$2`).
		WithArgs("f1", "u2").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByOwner(context.Background(), "f1", "u2")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFileRepository_GetByID_PropagatesDBError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFileRepository(db)
	boom := errors.New("connection reset")

	mock.ExpectQuery(`SELECT .* FROM files WHERE id = \$1$`).
		WithArgs("f1").
		WillReturnError(boom)

	_, err := repo.GetByID(context.Background(), "f1")
	assert.ErrorIs(t, err, boom)
}

func TestFileRepository_List_PaginatesByOwnerAndParent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFileRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(`(?s)SELECT .* FROM files\s+WHERE owner_id = \$1 AND parent_id = \$2\s+ORDER BY created_at, id\s+LIMIT \$3 OFFSET \$4`).
		WithArgs("u1", "d1", 20, 40).
		WillReturnRows(sqlmock.NewRows(fileColumns).
			AddRow("f1", "u1", "a.txt", "file", "d1", false, "k1", now, now).
			AddRow("f2", "u1", "b.txt", "file", "d1", false, "k2", now, now))

	records, err := repo.List(context.Background(), repository.ListFilesParams{
		OwnerID:  "u1",
		ParentID: "d1",
		Limit:    20,
		Offset:   40,
	})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "f2", records[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFileRepository_List_EmptyIsNotNil(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFileRepository(db)

	mock.ExpectQuery(`SELECT .* FROM files`).
		WithArgs("u1", "0", 20, 100).
		WillReturnRows(sqlmock.NewRows(fileColumns))

	records, err := repo.List(context.Background(), repository.ListFilesParams{OwnerID: "u1", ParentID: "0", Offset: 100})
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestFileRepository_SetPublic(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFileRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(`(?s)UPDATE files SET is_public = \$1, updated_at = \$2\s+WHERE id = \$3 AND owner_id = \$4\s+RETURNING`).
		WithArgs(true, sqlmock.AnyArg(), "f1", "u1").
		WillReturnRows(sqlmock.NewRows(fileColumns).
			AddRow("f1", "u1", "a.txt", "file", "0", true, "k1", now, now))

	rec, err := repo.SetPublic(context.Background(), "f1", "u1", true)
	require.NoError(t, err)
	assert.True(t, rec.IsPublic)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFileRepository_SetPublic_NotOwned(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFileRepository(db)

	mock.ExpectQuery(`UPDATE files SET is_public`).
		WithArgs(false, sqlmock.AnyArg(), "f1", "u2").
		WillReturnRows(sqlmock.NewRows(fileColumns))

	_, err := repo.SetPublic(context.Background(), "f1", "u2", false)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestFileRepository_Count(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFileRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM files`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(7)))

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(`(?s)INSERT INTO users`).
		WithArgs("u1", "bob@example.com", "hash", now).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), &repository.UserRecord{
		ID:           "u1",
		Email:        "bob@example.com",
		PasswordHash: "hash",
		CreatedAt:    now,
	})
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestUserRepository_GetByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, email, password_hash, created_at FROM users WHERE email = \$1`).
		WithArgs("bob@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "created_at"}).
			AddRow("u1", "bob@example.com", "hash", now))

	u, err := repo.GetByEmail(context.Background(), "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	mock.ExpectQuery(`FROM users WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err = repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
