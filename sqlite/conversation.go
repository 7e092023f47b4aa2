package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fwojciec/parley"
)

var _ parley.ConversationLog = (*ConversationLog)(nil)

// ConversationLog is a parley.ConversationLog storing threads per user.
type ConversationLog struct {
	db *DB
}

// NewConversationLog returns a conversation log backed by db.
func NewConversationLog(db *DB) *ConversationLog {
	return &ConversationLog{db: db}
}

// Append adds records to thread id, creating it with title on first use.
// Appending to a thread owned by another user fails with ErrNotFound.
func (l *ConversationLog) Append(ctx context.Context, uid, id, title string, records ...parley.HistoryRecord) error {
	tx, err := l.db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := l.db.now()
	var owner string
	err = tx.QueryRowContext(ctx, `SELECT uid FROM conversations WHERE id = ?`, id).Scan(&owner)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx,
			`INSERT INTO conversations (id, uid, title, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
			id, uid, title, toUnix(now), toUnix(now),
		)
		if err != nil {
			return fmt.Errorf("insert conversation: %w", err)
		}
	case err != nil:
		return fmt.Errorf("scan conversation owner: %w", err)
	case owner != uid:
		l.db.logger.Warn("append to conversation of another user", "conversation_id", id)
		return fmt.Errorf("conversation %s: %w", id, parley.ErrNotFound)
	}

	var next int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM messages WHERE conversation_id = ?`, id,
	).Scan(&next)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	for i, r := range records {
		ts := r.Timestamp
		if ts.IsZero() {
			ts = now
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO messages (conversation_id, seq, role, content, timestamp) VALUES (?, ?, ?, ?, ?)`,
			id, next+i, r.Role, r.Content, toUnix(ts),
		)
		if err != nil {
			return fmt.Errorf("insert message %d: %w", i, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE conversations SET updated_at = ? WHERE id = ?`, toUnix(now), id,
	); err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Get returns thread id with its records in append order.
func (l *ConversationLog) Get(ctx context.Context, uid, id string) (parley.ConversationHistory, error) {
	h := parley.ConversationHistory{ID: id}
	err := l.db.db.QueryRowContext(ctx,
		`SELECT title FROM conversations WHERE id = ? AND uid = ?`, id, uid,
	).Scan(&h.Title)
	if errors.Is(err, sql.ErrNoRows) {
		return parley.ConversationHistory{}, fmt.Errorf("conversation %s: %w", id, parley.ErrNotFound)
	}
	if err != nil {
		return parley.ConversationHistory{}, fmt.Errorf("scan conversation: %w", err)
	}

	rows, err := l.db.db.QueryContext(ctx,
		`SELECT role, content, timestamp FROM messages WHERE conversation_id = ? ORDER BY seq`, id,
	)
	if err != nil {
		return parley.ConversationHistory{}, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r parley.HistoryRecord
		var ts int64
		if err := rows.Scan(&r.Role, &r.Content, &ts); err != nil {
			return parley.ConversationHistory{}, fmt.Errorf("scan message: %w", err)
		}
		r.Timestamp = fromUnix(ts)
		h.Records = append(h.Records, r)
	}
	if err := rows.Err(); err != nil {
		return parley.ConversationHistory{}, fmt.Errorf("iterate messages: %w", err)
	}
	return h, nil
}

// List returns the threads of uid, most recently updated first.
func (l *ConversationLog) List(ctx context.Context, uid string) ([]parley.ConversationSummary, error) {
	query := `
		SELECT c.id, c.title, c.created_at, c.updated_at,
		       (SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id)
		FROM conversations c
		WHERE c.uid = ?
		ORDER BY c.updated_at DESC, c.id`

	rows, err := l.db.db.QueryContext(ctx, query, uid)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer rows.Close()

	var out []parley.ConversationSummary
	for rows.Next() {
		var s parley.ConversationSummary
		var createdAt, updatedAt int64
		if err := rows.Scan(&s.ID, &s.Title, &createdAt, &updatedAt, &s.MessageCount); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		s.CreatedAt = fromUnix(createdAt)
		s.UpdatedAt = fromUnix(updatedAt)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}
	return out, nil
}
