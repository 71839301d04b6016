package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/avikom/catersync/internal/models"
	"github.com/avikom/catersync/internal/server/storage"
	"github.com/avikom/catersync/pkg/api"
)

// CreateEntity inserts a record and returns the authoritative copy
func (s *Storage) CreateEntity(ctx context.Context, kind models.Kind, data json.RawMessage) (*api.Entity, error) {
	now := time.Now().UTC()

	query := `INSERT INTO entities (collection, data, updated_at) VALUES (?, ?, ?)`
	result, err := s.db.ExecContext(ctx, query, string(kind), string(data), now.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("failed to insert entity: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get inserted id: %w", err)
	}

	return &api.Entity{ID: id, Data: data, UpdatedAt: now}, nil
}

// GetEntity retrieves one record
func (s *Storage) GetEntity(ctx context.Context, kind models.Kind, id int64) (*api.Entity, error) {
	query := `SELECT id, data, updated_at FROM entities WHERE collection = ? AND id = ?`
	return scanEntity(s.db.QueryRowContext(ctx, query, string(kind), id))
}

// ListEntities retrieves a collection, narrowed by the query. Search
// matches a case-insensitive substring anywhere in the payload; status
// and the date range filter on the payload's status and delivery_at
// fields.
func (s *Storage) ListEntities(ctx context.Context, kind models.Kind, query api.ListQuery) ([]api.Entity, error) {
	sqlQuery := `SELECT id, data, updated_at FROM entities WHERE collection = ?`
	args := []any{string(kind)}

	if query.Search != "" {
		sqlQuery += ` AND lower(data) LIKE '%' || lower(?) || '%'`
		args = append(args, query.Search)
	}
	if query.Status != "" {
		sqlQuery += ` AND json_extract(data, '$.status') = ?`
		args = append(args, query.Status)
	}
	if !query.From.IsZero() {
		sqlQuery += ` AND datetime(json_extract(data, '$.delivery_at')) >= datetime(?)`
		args = append(args, query.From.UTC().Format(time.RFC3339))
	}
	if !query.To.IsZero() {
		sqlQuery += ` AND datetime(json_extract(data, '$.delivery_at')) <= datetime(?)`
		args = append(args, query.To.UTC().Format(time.RFC3339))
	}

	sqlQuery += ` ORDER BY id`
	if query.Limit > 0 {
		sqlQuery += ` LIMIT ?`
		args = append(args, query.Limit)
	}
	if query.Offset > 0 {
		if query.Limit <= 0 {
			sqlQuery += ` LIMIT -1`
		}
		sqlQuery += ` OFFSET ?`
		args = append(args, query.Offset)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close()

	entities := make([]api.Entity, 0)
	for rows.Next() {
		var (
			entity    api.Entity
			data      string
			updatedAt string
		)
		if err := rows.Scan(&entity.ID, &data, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		entity.Data = json.RawMessage(data)
		entity.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse updated_at: %w", err)
		}
		entities = append(entities, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entities: %w", err)
	}

	return entities, nil
}

// UpdateEntity overwrites a record's payload, enforcing the version
// precondition inside a transaction so concurrent writers serialize.
func (s *Storage) UpdateEntity(ctx context.Context, kind models.Kind, id int64, data json.RawMessage, baseVersion string) (*api.Entity, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var stored string
	row := tx.QueryRowContext(ctx,
		`SELECT updated_at FROM entities WHERE collection = ? AND id = ?`, string(kind), id)
	if err := row.Scan(&stored); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to read current version: %w", err)
	}

	if baseVersion != "" && baseVersion != stored {
		return nil, storage.ErrVersionMismatch
	}

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		`UPDATE entities SET data = ?, updated_at = ? WHERE collection = ? AND id = ?`,
		string(data), now.Format(time.RFC3339Nano), string(kind), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update entity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit update: %w", err)
	}

	return &api.Entity{ID: id, Data: data, UpdatedAt: now}, nil
}

// DeleteEntity removes a record
func (s *Storage) DeleteEntity(ctx context.Context, kind models.Kind, id int64) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM entities WHERE collection = ? AND id = ?`, string(kind), id)
	if err != nil {
		return fmt.Errorf("failed to delete entity: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return storage.ErrEntityNotFound
	}

	return nil
}

func scanEntity(row *sql.Row) (*api.Entity, error) {
	var (
		entity    api.Entity
		data      string
		updatedAt string
	)
	err := row.Scan(&entity.ID, &data, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}

	entity.Data = json.RawMessage(data)
	entity.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return &entity, nil
}
