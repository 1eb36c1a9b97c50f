package attachments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/vaultsync/internal/common"
	"github.com/dmitrijs2005/vaultsync/internal/dbx"
	"github.com/dmitrijs2005/vaultsync/internal/server/models"
)

const columns = `user_id, path, content_hash, size, mime_type, modified_at, synced_at, is_deleted`

type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
}

func NewSQLRepository(db dbx.DBTX, dialect dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

func (r *SQLRepository) ListByUser(ctx context.Context, userID string) ([]models.AttachmentRecord, error) {
	query := r.dialect.Rebind(
		`SELECT ` + columns + ` FROM attachments
		 WHERE user_id = ?
		 ORDER BY path`)

	return r.query(ctx, query, userID)
}

func (r *SQLRepository) Get(ctx context.Context, userID, path string) (*models.AttachmentRecord, error) {
	query := r.dialect.Rebind(
		`SELECT ` + columns + ` FROM attachments
		 WHERE user_id = ? AND path = ?`)

	rec := &models.AttachmentRecord{}
	err := scan(r.db.QueryRowContext(ctx, query, userID, path), rec)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

func (r *SQLRepository) Upsert(ctx context.Context, rec *models.AttachmentRecord) error {
	query := r.dialect.Rebind(
		`INSERT INTO attachments (` + columns + `)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, path) DO UPDATE SET
		 content_hash = excluded.content_hash,
		 size = excluded.size,
		 mime_type = excluded.mime_type,
		 modified_at = excluded.modified_at,
		 synced_at = excluded.synced_at,
		 is_deleted = excluded.is_deleted`)

	var mime sql.NullString
	if rec.MimeType != nil {
		mime = sql.NullString{String: *rec.MimeType, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		rec.UserID, rec.Path, rec.ContentHash, rec.Size, mime,
		rec.ModifiedAt.UTC(), rec.SyncedAt.UTC(), rec.IsDeleted)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) List(ctx context.Context, userID string, includeDeleted bool, limit int) ([]models.AttachmentRecord, error) {
	if includeDeleted {
		query := r.dialect.Rebind(
			`SELECT ` + columns + ` FROM attachments
			 WHERE user_id = ?
			 ORDER BY path
			 LIMIT ?`)
		return r.query(ctx, query, userID, limit)
	}

	query := r.dialect.Rebind(
		`SELECT ` + columns + ` FROM attachments
		 WHERE user_id = ? AND is_deleted = ?
		 ORDER BY path
		 LIMIT ?`)
	return r.query(ctx, query, userID, false, limit)
}

func (r *SQLRepository) DeleteAllForUser(ctx context.Context, userID string) error {
	query := r.dialect.Rebind(`DELETE FROM attachments WHERE user_id = ?`)

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) query(ctx context.Context, query string, args ...any) ([]models.AttachmentRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	recs := []models.AttachmentRecord{}
	for rows.Next() {
		var rec models.AttachmentRecord
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

func scan(s scanner, rec *models.AttachmentRecord) error {
	var mime sql.NullString
	err := s.Scan(&rec.UserID, &rec.Path, &rec.ContentHash, &rec.Size, &mime,
		&rec.ModifiedAt, &rec.SyncedAt, &rec.IsDeleted)
	if err != nil {
		return err
	}
	if mime.Valid {
		rec.MimeType = &mime.String
	}
	rec.ModifiedAt = rec.ModifiedAt.UTC()
	rec.SyncedAt = rec.SyncedAt.UTC()
	return nil
}
