package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	dbpkg "github.com/seekhealth/seekbot/internal/db"
)

// DefaultHistoryLimit is the number of prior turns loaded for prompt context.
const DefaultHistoryLimit = 5

const (
	insertTokenQuery = `
INSERT INTO chat_tokens (user_id, token)
VALUES ($1, $2)
ON CONFLICT (user_id) DO NOTHING
RETURNING token
`
	selectTokenQuery = `SELECT token FROM chat_tokens WHERE user_id = $1`

	insertMessageQuery = `
INSERT INTO messages (user_id, phone_number, token, role, content)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at
`
	recentHistoryQuery = `
SELECT id, user_id, phone_number, token, role, content, created_at
FROM messages
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2
`
	historyByTokenQuery = `
SELECT id, user_id, phone_number, token, role, content, created_at
FROM messages
WHERE token = $1
ORDER BY created_at ASC
`
)

// Store persists and reads conversation turns.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStore creates a conversation store.
func NewStore(log *slog.Logger, pool *pgxpool.Pool) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		pool:   pool,
		logger: log.With(slog.String("service", "conversation")),
	}
}

// EnsureToken returns the conversation token for a user, minting one on
// first contact. The insert-or-fetch is atomic at the storage layer: the
// unique constraint on user_id guarantees concurrent first-contact requests
// converge on a single token. The second return reports whether this call
// minted it.
func (s *Store) EnsureToken(ctx context.Context, userID string) (string, bool, error) {
	pgUserID, err := dbpkg.ParseUUID(userID)
	if err != nil {
		return "", false, fmt.Errorf("invalid user id: %w", err)
	}

	candidate := uuid.New().String()
	var token pgtype.UUID
	err = s.pool.QueryRow(ctx, insertTokenQuery, pgUserID, candidate).Scan(&token)
	if err == nil {
		return token.String(), true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", false, fmt.Errorf("mint token: %w", err)
	}

	// Conflict: another request won the insert, or the token already existed.
	if err := s.pool.QueryRow(ctx, selectTokenQuery, pgUserID).Scan(&token); err != nil {
		return "", false, fmt.Errorf("fetch token: %w", err)
	}
	return token.String(), false, nil
}

// RecentHistory returns the latest limit turns for a user in chronological
// order, oldest first.
func (s *Store) RecentHistory(ctx context.Context, userID string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	pgUserID, err := dbpkg.ParseUUID(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}

	rows, err := s.pool.Query(ctx, recentHistoryQuery, pgUserID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent history: %w", err)
	}
	defer rows.Close()

	messages, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}
	reverse(messages)
	return messages, nil
}

// Append persists one turn and returns the stored row. The user turn and
// bot turn of an exchange are two independent appends: a crash between them
// can orphan a user turn, which is accepted rather than corrected.
func (s *Store) Append(ctx context.Context, input AppendInput) (Message, error) {
	return appendMessage(ctx, s.pool, input)
}

// HistoryByToken returns every turn bound to a token, oldest first.
// Returns ErrHistoryNotFound when the token matches no messages.
func (s *Store) HistoryByToken(ctx context.Context, token string) ([]Message, error) {
	pgToken, err := dbpkg.ParseUUID(token)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	rows, err := s.pool.Query(ctx, historyByTokenQuery, pgToken)
	if err != nil {
		return nil, fmt.Errorf("history by token: %w", err)
	}
	defer rows.Close()

	messages, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, ErrHistoryNotFound
	}
	return messages, nil
}

func appendMessage(ctx context.Context, pool *pgxpool.Pool, input AppendInput) (Message, error) {
	if input.Role != RoleUser && input.Role != RoleBot {
		return Message{}, fmt.Errorf("invalid role %q", input.Role)
	}

	pgUserID, err := optionalUUID(input.UserID)
	if err != nil {
		return Message{}, fmt.Errorf("invalid user id: %w", err)
	}
	pgToken, err := optionalUUID(input.Token)
	if err != nil {
		return Message{}, fmt.Errorf("invalid token: %w", err)
	}

	var (
		id        pgtype.UUID
		createdAt pgtype.Timestamptz
	)
	err = pool.QueryRow(ctx, insertMessageQuery,
		pgUserID, input.PhoneNumber, pgToken, input.Role, input.Content,
	).Scan(&id, &createdAt)
	if err != nil {
		return Message{}, fmt.Errorf("append message: %w", err)
	}

	return Message{
		ID:          id.String(),
		UserID:      input.UserID,
		PhoneNumber: input.PhoneNumber,
		Token:       input.Token,
		Role:        input.Role,
		Content:     input.Content,
		CreatedAt:   createdAt.Time,
	}, nil
}

func scanMessages(rows pgx.Rows) ([]Message, error) {
	var messages []Message
	for rows.Next() {
		var (
			id, userID, token pgtype.UUID
			phone             string
			role, content     string
			createdAt         pgtype.Timestamptz
		)
		if err := rows.Scan(&id, &userID, &phone, &token, &role, &content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg := Message{
			ID:          id.String(),
			PhoneNumber: phone,
			Role:        role,
			Content:     content,
			CreatedAt:   createdAt.Time,
		}
		if userID.Valid {
			msg.UserID = userID.String()
		}
		if token.Valid {
			msg.Token = token.String()
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read messages: %w", err)
	}
	return messages, nil
}

func optionalUUID(id string) (pgtype.UUID, error) {
	if id == "" {
		return pgtype.UUID{}, nil
	}
	return dbpkg.ParseUUID(id)
}

func reverse(messages []Message) {
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
}
