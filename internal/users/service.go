package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	dbpkg "github.com/seekhealth/seekbot/internal/db"
)

// lookupTimeout bounds the registry read. A slow registry must never stall
// message delivery; past the bound the sender is treated as anonymous.
const lookupTimeout = 2 * time.Second

const byPhoneQuery = `
SELECT id, phone_number, first_name, last_name, date_of_birth, gender,
       diet_type, allergies, user_goals, height, weight, created_at
FROM users
WHERE phone_number = $1
`

// Service resolves user profiles by phone number.
type Service struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewService creates a user resolver backed by the shared registry table.
func NewService(log *slog.Logger, pool *pgxpool.Pool) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		pool:   pool,
		logger: log.With(slog.String("service", "users")),
	}
}

// ByPhone looks up a user by phone number. A miss returns (nil, nil): an
// unregistered sender is a normal outcome, not an error. Lookups that exceed
// the bound degrade to anonymous the same way.
func (s *Service) ByPhone(ctx context.Context, phone string) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	row := s.pool.QueryRow(ctx, byPhoneQuery, phone)

	var (
		id                     pgtype.UUID
		phoneNumber            string
		firstName, lastName    pgtype.Text
		dateOfBirth, gender    pgtype.Text
		dietType               pgtype.Text
		allergiesRaw, goalsRaw []byte
		height, weight         pgtype.Float8
		createdAt              pgtype.Timestamptz
	)
	err := row.Scan(&id, &phoneNumber, &firstName, &lastName, &dateOfBirth,
		&gender, &dietType, &allergiesRaw, &goalsRaw, &height, &weight, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		if errors.Is(err, context.DeadlineExceeded) {
			s.logger.Warn("registry lookup timed out, continuing anonymous",
				slog.String("phone", phone))
			return nil, nil
		}
		return nil, fmt.Errorf("lookup user by phone: %w", err)
	}

	user := &User{
		ID:          id.String(),
		PhoneNumber: phoneNumber,
		FirstName:   dbpkg.TextToString(firstName),
		LastName:    dbpkg.TextToString(lastName),
		DateOfBirth: dbpkg.TextToString(dateOfBirth),
		Gender:      dbpkg.TextToString(gender),
		DietType:    dbpkg.TextToString(dietType),
		Allergies:   parseStringList(allergiesRaw),
		Goals:       parseStringList(goalsRaw),
		CreatedAt:   createdAt.Time,
	}
	if height.Valid {
		user.HeightCm = height.Float64
	}
	if weight.Valid {
		user.WeightKg = weight.Float64
	}
	return user, nil
}

// parseStringList decodes the registry's JSON array columns.
func parseStringList(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		slog.Warn("parseStringList: unmarshal failed", slog.Any("error", err))
		return nil
	}
	return list
}
