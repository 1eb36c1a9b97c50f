package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/vaultsync/internal/common"
	"github.com/dmitrijs2005/vaultsync/internal/dbx"
	"github.com/dmitrijs2005/vaultsync/internal/server/models"
)

const columns = `user_id, path, content_hash, modified_at, synced_at, is_deleted`

type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
}

func NewSQLRepository(db dbx.DBTX, dialect dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

func (r *SQLRepository) ListByUser(ctx context.Context, userID string) ([]models.NoteRecord, error) {
	query := r.dialect.Rebind(
		`SELECT ` + columns + ` FROM notes
		 WHERE user_id = ?
		 ORDER BY path`)

	return r.query(ctx, query, userID)
}

func (r *SQLRepository) Get(ctx context.Context, userID, path string) (*models.NoteRecord, error) {
	query := r.dialect.Rebind(
		`SELECT ` + columns + ` FROM notes
		 WHERE user_id = ? AND path = ?`)

	rec := &models.NoteRecord{}
	err := scan(r.db.QueryRowContext(ctx, query, userID, path), rec)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

func (r *SQLRepository) Upsert(ctx context.Context, rec *models.NoteRecord) error {
	query := r.dialect.Rebind(
		`INSERT INTO notes (` + columns + `)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, path) DO UPDATE SET
		 content_hash = excluded.content_hash,
		 modified_at = excluded.modified_at,
		 synced_at = excluded.synced_at,
		 is_deleted = excluded.is_deleted`)

	_, err := r.db.ExecContext(ctx, query,
		rec.UserID, rec.Path, rec.ContentHash, rec.ModifiedAt.UTC(), rec.SyncedAt.UTC(), rec.IsDeleted)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) List(ctx context.Context, userID string, f Filter) ([]models.NoteRecord, int, error) {
	where := []string{"user_id = ?"}
	args := []any{userID}

	if !f.IncludeDeleted {
		where = append(where, "is_deleted = ?")
		args = append(args, false)
	}
	if f.PathPrefix != "" {
		// substr keeps the match case sensitive on both backends.
		where = append(where, "substr(path, 1, ?) = ?")
		args = append(args, utf8.RuneCountInString(f.PathPrefix), f.PathPrefix)
	}
	if f.ModifiedAfter != nil {
		where = append(where, "modified_at > ?")
		args = append(args, f.ModifiedAfter.UTC())
	}
	if f.ModifiedBefore != nil {
		where = append(where, "modified_at < ?")
		args = append(args, f.ModifiedBefore.UTC())
	}
	cond := strings.Join(where, " AND ")

	var total int
	countQuery := r.dialect.Rebind(`SELECT COUNT(*) FROM notes WHERE ` + cond)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	pageQuery := r.dialect.Rebind(
		`SELECT ` + columns + ` FROM notes WHERE ` + cond + `
		 ORDER BY path
		 LIMIT ? OFFSET ?`)
	recs, err := r.query(ctx, pageQuery, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	return recs, total, nil
}

func (r *SQLRepository) DeleteAllForUser(ctx context.Context, userID string) error {
	query := r.dialect.Rebind(`DELETE FROM notes WHERE user_id = ?`)

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) query(ctx context.Context, query string, args ...any) ([]models.NoteRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	recs := []models.NoteRecord{}
	for rows.Next() {
		var rec models.NoteRecord
		if err := scan(rows, &rec); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return recs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner, rec *models.NoteRecord) error {
	err := s.Scan(&rec.UserID, &rec.Path, &rec.ContentHash, &rec.ModifiedAt, &rec.SyncedAt, &rec.IsDeleted)
	if err != nil {
		return err
	}
	rec.ModifiedAt = rec.ModifiedAt.UTC()
	rec.SyncedAt = rec.SyncedAt.UTC()
	return nil
}
