package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pressroom/pkg/domain"
	"pressroom/pkg/platform/sentinel"
)

// PostgresStore persists profiles in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed profile store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schema creates the profiles table. Called by main in development and by
// integration tests; production migrations run out-of-band.
const Schema = `
CREATE TABLE IF NOT EXISTS profiles (
	id              UUID PRIMARY KEY,
	email           TEXT NOT NULL,
	role            TEXT NOT NULL,
	full_name       TEXT NOT NULL DEFAULT '',
	avatar_url      TEXT NOT NULL DEFAULT '',
	session_minutes INT,
	last_sign_in    TIMESTAMPTZ,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
)`

func (s *PostgresStore) FindByID(ctx context.Context, id domain.UserID) (*Profile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, role, full_name, avatar_url, session_minutes, last_sign_in, created_at, updated_at
		FROM profiles
		WHERE id = $1`, uuid.UUID(id))

	var (
		p              Profile
		rawID          uuid.UUID
		rawRole        string
		sessionMinutes sql.NullInt64
		lastSignIn     sql.NullTime
	)
	err := row.Scan(&rawID, &p.Email, &rawRole, &p.FullName, &p.AvatarURL,
		&sessionMinutes, &lastSignIn, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}

	p.ID = domain.UserID(rawID)
	role, err := domain.ParseRole(rawRole)
	if err != nil {
		// A row carrying a retired role authorizes nothing, but the
		// profile itself is still a valid record.
		role = ""
	}
	p.Role = role
	if sessionMinutes.Valid {
		minutes := int(sessionMinutes.Int64)
		p.SessionMinutes = &minutes
	}
	if lastSignIn.Valid {
		t := lastSignIn.Time
		p.LastSignIn = &t
	}
	return &p, nil
}

func (s *PostgresStore) Save(ctx context.Context, p *Profile) error {
	var sessionMinutes sql.NullInt64
	if p.SessionMinutes != nil {
		sessionMinutes = sql.NullInt64{Int64: int64(*p.SessionMinutes), Valid: true}
	}
	var lastSignIn sql.NullTime
	if p.LastSignIn != nil {
		lastSignIn = sql.NullTime{Time: *p.LastSignIn, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (id, email, role, full_name, avatar_url, session_minutes, last_sign_in, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			role = EXCLUDED.role,
			full_name = EXCLUDED.full_name,
			avatar_url = EXCLUDED.avatar_url,
			session_minutes = EXCLUDED.session_minutes,
			last_sign_in = EXCLUDED.last_sign_in,
			updated_at = now()`,
		uuid.UUID(p.ID), p.Email, p.Role.String(), p.FullName, p.AvatarURL,
		sessionMinutes, lastSignIn)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecordSignIn(ctx context.Context, id domain.UserID, avatarURL string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE profiles
		SET avatar_url = COALESCE(NULLIF($2, ''), avatar_url),
		    last_sign_in = $3,
		    updated_at = $3
		WHERE id = $1`,
		uuid.UUID(id), avatarURL, at)
	if err != nil {
		return fmt.Errorf("record sign-in: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("record sign-in: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("profile %s: %w", id, sentinel.ErrNotFound)
	}
	return nil
}
