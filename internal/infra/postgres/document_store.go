package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"pychallenge-service/internal/domain"
)

// DocumentStore keeps documents as JSONB rows of the documents table.
// created_at defaults to now() on the database server.
type DocumentStore struct {
	pool *pgxpool.Pool
}

func NewDocumentStore(pool *pgxpool.Pool) *DocumentStore {
	return &DocumentStore{pool: pool}
}

func (s *DocumentStore) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	data, err := json.Marshal(withoutCreatedAt(fields))
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}
	id := uuid.NewString()
	_, err = s.pool.Exec(ctx,
		`INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)`,
		collection, id, string(data))
	if err != nil {
		return "", fmt.Errorf("insert document: %w", err)
	}
	return id, nil
}

func (s *DocumentStore) Get(ctx context.Context, collection, id string) (domain.Document, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Document{}, domain.ErrDocumentNotFound
	}
	var (
		raw       []byte
		createdAt time.Time
	)
	err := s.pool.QueryRow(ctx,
		`SELECT data, created_at FROM documents WHERE collection=$1 AND id=$2`,
		collection, id).Scan(&raw, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Document{}, domain.ErrDocumentNotFound
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("load document: %w", err)
	}
	return decodeRow(id, raw, createdAt)
}

// QueryBounded returns the limit most recent rows of a collection. The
// ORDER BY only selects the window; ranking stays with the caller.
func (s *DocumentStore) QueryBounded(ctx context.Context, collection string, limit int) ([]domain.Document, error) {
	if limit <= 0 {
		return []domain.Document{}, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, data, created_at FROM documents WHERE collection=$1 ORDER BY created_at DESC LIMIT $2`,
		collection, limit)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Document, 0, limit)
	for rows.Next() {
		var (
			id        string
			raw       []byte
			createdAt time.Time
		)
		if err := rows.Scan(&id, &raw, &createdAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		doc, err := decodeRow(id, raw, createdAt)
		if err != nil {
			continue
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (s *DocumentStore) Delete(ctx context.Context, collection, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrDocumentNotFound
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE collection=$1 AND id=$2`, collection, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func decodeRow(id string, raw []byte, createdAt time.Time) (domain.Document, error) {
	fields := make(map[string]any)
	if err := json.Unmarshal(raw, &fields); err != nil {
		return domain.Document{}, fmt.Errorf("unmarshal document: %w", err)
	}
	fields["createdAt"] = createdAt.UTC()
	return domain.Document{ID: id, Fields: fields}, nil
}

func withoutCreatedAt(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == "createdAt" {
			continue
		}
		out[k] = v
	}
	return out
}
