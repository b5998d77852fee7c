package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the interface for database operations.
// Methods should accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// UpsertProfile inserts a profile or replaces the existing one for the same user.
	UpsertProfile(ctx context.Context, profile *Profile) error

	// GetProfile retrieves a profile by user ID. Returns nil, nil if not found.
	GetProfile(ctx context.Context, userID int64) (*Profile, error)

	// AppendQuery records a question or risk evaluation together with its answer.
	AppendQuery(ctx context.Context, record *QueryRecord) error

	// ListQueries returns a user's query records, oldest first.
	ListQueries(ctx context.Context, userID int64) ([]QueryRecord, error)

	// AppendMedia records a received photo or voice note.
	AppendMedia(ctx context.Context, record *MediaRecord) error

	// ListMedia returns a user's media records, oldest first.
	ListMedia(ctx context.Context, userID int64) ([]MediaRecord, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// UpsertProfile keeps created_at of an existing row and overwrites everything else.
func (s *sqlxStore) UpsertProfile(ctx context.Context, profile *Profile) error {
	if profile == nil {
		return fmt.Errorf("cannot save nil profile")
	}
	if profile.UserID == 0 {
		return fmt.Errorf("profile must have a non-zero user_id")
	}
	if profile.Age < 1 || profile.Age > 120 {
		return fmt.Errorf("profile age %d out of range 1-120", profile.Age)
	}

	now := s.now()
	profile.CreatedAt = now
	profile.UpdatedAt = now
	if profile.RegisteredAt.IsZero() {
		profile.RegisteredAt = now
	}

	query := `
        INSERT INTO profiles (user_id, name, surname, age, sex, academic_level, residence, email,
                              receive_info, registered_at, created_at, updated_at)
        VALUES (:user_id, :name, :surname, :age, :sex, :academic_level, :residence, :email,
                :receive_info, :registered_at, :created_at, :updated_at)
        ON CONFLICT(user_id) DO UPDATE SET
            name           = excluded.name,
            surname        = excluded.surname,
            age            = excluded.age,
            sex            = excluded.sex,
            academic_level = excluded.academic_level,
            residence      = excluded.residence,
            email          = excluded.email,
            receive_info   = excluded.receive_info,
            registered_at  = excluded.registered_at,
            updated_at     = excluded.updated_at;
    `

	if _, err := s.db.NamedExecContext(ctx, query, profile); err != nil {
		s.logger.ErrorContext(ctx, "Error saving profile", "user_id", profile.UserID, "error", err)
		return fmt.Errorf("failed to save profile for user %d: %w", profile.UserID, err)
	}

	s.logger.DebugContext(ctx, "Profile saved successfully", "user_id", profile.UserID)
	return nil
}

// GetProfile retrieves a profile by user ID. Returns nil, nil if not found.
func (s *sqlxStore) GetProfile(ctx context.Context, userID int64) (*Profile, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user_id cannot be zero")
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var profile Profile
	query := `SELECT id, created_at, updated_at, user_id, name, surname, age, sex, academic_level,
	                 residence, email, receive_info, registered_at
	          FROM profiles WHERE user_id = ?`

	err := s.db.GetContext(ctx, &profile, query, userID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.DebugContext(ctx, "No profile found", "user_id", userID)
		return nil, nil

	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching profile",
			"user_id", userID, "error", err)
		return nil, err

	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting profile by user ID", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get profile for user ID %d: %w", userID, err)
	}

	return &profile, nil
}

// AppendQuery records a question or risk evaluation together with its answer.
func (s *sqlxStore) AppendQuery(ctx context.Context, record *QueryRecord) error {
	if record == nil {
		return fmt.Errorf("cannot save nil query record")
	}
	if record.Kind != QueryKindQuestion && record.Kind != QueryKindRisk {
		return fmt.Errorf("unknown query kind %q", record.Kind)
	}
	record.CreatedAt = s.now()

	query := `
        INSERT INTO queries (user_id, kind, content, response, created_at)
        VALUES (:user_id, :kind, :content, :response, :created_at);
    `

	result, err := s.db.NamedExecContext(ctx, query, record)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving query", "user_id", record.UserID, "kind", record.Kind, "error", err)
		return fmt.Errorf("failed to save %s query for user %d: %w", record.Kind, record.UserID, err)
	}
	if id, err := result.LastInsertId(); err == nil {
		//nolint:gosec // SQLite row IDs are positive
		record.ID = uint(id)
	}

	s.logger.DebugContext(ctx, "Query saved successfully", "user_id", record.UserID, "kind", record.Kind, "id", record.ID)
	return nil
}

// ListQueries returns a user's query records, oldest first.
func (s *sqlxStore) ListQueries(ctx context.Context, userID int64) ([]QueryRecord, error) {
	var records []QueryRecord
	query := `SELECT id, user_id, kind, content, response, created_at
	          FROM queries WHERE user_id = ? ORDER BY id ASC`

	if err := s.db.SelectContext(ctx, &records, query, userID); err != nil {
		s.logger.ErrorContext(ctx, "Error listing queries", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to list queries for user %d: %w", userID, err)
	}
	return records, nil
}

// AppendMedia records a received photo or voice note.
func (s *sqlxStore) AppendMedia(ctx context.Context, record *MediaRecord) error {
	if record == nil {
		return fmt.Errorf("cannot save nil media record")
	}
	if record.Kind != MediaKindPhoto && record.Kind != MediaKindVoice {
		return fmt.Errorf("unknown media kind %q", record.Kind)
	}
	if record.FileID == "" {
		return fmt.Errorf("media record must have a file_id")
	}
	record.CreatedAt = s.now()

	query := `
        INSERT INTO media (user_id, kind, file_id, created_at)
        VALUES (:user_id, :kind, :file_id, :created_at);
    `

	result, err := s.db.NamedExecContext(ctx, query, record)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving media", "user_id", record.UserID, "kind", record.Kind, "error", err)
		return fmt.Errorf("failed to save %s media for user %d: %w", record.Kind, record.UserID, err)
	}
	if id, err := result.LastInsertId(); err == nil {
		//nolint:gosec // SQLite row IDs are positive
		record.ID = uint(id)
	}

	s.logger.DebugContext(ctx, "Media saved successfully", "user_id", record.UserID, "kind", record.Kind, "id", record.ID)
	return nil
}

// ListMedia returns a user's media records, oldest first.
func (s *sqlxStore) ListMedia(ctx context.Context, userID int64) ([]MediaRecord, error) {
	var records []MediaRecord
	query := `SELECT id, user_id, kind, file_id, created_at
	          FROM media WHERE user_id = ? ORDER BY id ASC`

	if err := s.db.SelectContext(ctx, &records, query, userID); err != nil {
		s.logger.ErrorContext(ctx, "Error listing media", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to list media for user %d: %w", userID, err)
	}
	return records, nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		s.logger.WarnContext(ctx, "Failed to set busy timeout", "error", err)
	}

	// VACUUM cannot run inside a transaction.
	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)

	default:
		s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	}

	return nil
}
