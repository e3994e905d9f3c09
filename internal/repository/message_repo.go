package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"lumora/internal/domain"
)

// MessageRepository archiva los mensajes de las conversaciones.
type MessageRepository interface {
	Record(ctx context.Context, message domain.Message) error
	ListBySessionID(ctx context.Context, sessionID string) ([]domain.Message, error)
}

type PgMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPgMessageRepository(pool *pgxpool.Pool) *PgMessageRepository {
	return &PgMessageRepository{pool: pool}
}

// Record inserta el mensaje; repetirlo con el mismo ID no duplica filas.
func (r *PgMessageRepository) Record(ctx context.Context, message domain.Message) error {
	const query = `
		INSERT INTO chat_messages (id, session_id, sender, text, safety, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`

	var safety interface{}
	if message.Safety != nil {
		raw, err := json.Marshal(message.Safety)
		if err != nil {
			return fmt.Errorf("marshal safety payload: %w", err)
		}
		safety = raw
	}

	_, err := r.pool.Exec(ctx, query,
		message.ID,
		message.SessionID,
		string(message.Sender),
		message.Text,
		safety,
		message.CreatedAt,
	)
	return err
}

func (r *PgMessageRepository) ListBySessionID(ctx context.Context, sessionID string) ([]domain.Message, error) {
	const query = `
		SELECT id, session_id, sender, text, safety, created_at
		FROM chat_messages
		WHERE session_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		var sender string
		var safety []byte

		err = rows.Scan(
			&msg.ID,
			&msg.SessionID,
			&sender,
			&msg.Text,
			&safety,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		msg.Sender = domain.Sender(sender)
		if len(safety) > 0 {
			var payload domain.SafetyResponse
			if err := json.Unmarshal(safety, &payload); err != nil {
				return nil, fmt.Errorf("unmarshal safety payload: %w", err)
			}
			msg.Safety = &payload
		}
		messages = append(messages, msg)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}
