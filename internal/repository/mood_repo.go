package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"lumora/internal/domain"
)

// MoodRepository define el contrato de persistencia para registros de animo.
type MoodRepository interface {
	Create(ctx context.Context, entry domain.MoodEntry) error
	// ListByUserID devuelve los registros del usuario del mas reciente al mas antiguo.
	ListByUserID(ctx context.Context, userID string) ([]domain.MoodEntry, error)
}

// PgMoodRepository implementa MoodRepository usando pgxpool.
type PgMoodRepository struct {
	pool *pgxpool.Pool
}

func NewPgMoodRepository(pool *pgxpool.Pool) *PgMoodRepository {
	return &PgMoodRepository{pool: pool}
}

func (r *PgMoodRepository) Create(ctx context.Context, entry domain.MoodEntry) error {
	const query = `
		INSERT INTO mood_entries (id, user_id, mood, note, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	var note interface{}
	if entry.Note != "" {
		note = entry.Note
	}

	_, err := r.pool.Exec(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Mood,
		note,
		entry.CreatedAt,
	)
	return err
}

func (r *PgMoodRepository) ListByUserID(ctx context.Context, userID string) ([]domain.MoodEntry, error) {
	const query = `
		SELECT id, user_id, mood, note, created_at
		FROM mood_entries
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.MoodEntry
	for rows.Next() {
		var entry domain.MoodEntry
		var note *string

		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Mood,
			&note,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		if note != nil {
			entry.Note = *note
		}
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
