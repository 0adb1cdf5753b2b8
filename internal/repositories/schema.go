package repositories

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS onboarding_sessions (
		id          TEXT PRIMARY KEY,
		user_data   JSONB NOT NULL,
		captcha     TEXT NOT NULL DEFAULT '',
		wizard      JSONB NOT NULL,
		row_version BIGINT NOT NULL DEFAULT 1,
		clear_at    TIMESTAMPTZ,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS onboarding_sessions_clear_at_idx
		ON onboarding_sessions (clear_at) WHERE clear_at IS NOT NULL`,
	`CREATE TABLE IF NOT EXISTS onboarding_themes (
		client_key TEXT PRIMARY KEY,
		theme      TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS onboarding_otp_challenges (
		id          UUID PRIMARY KEY,
		email       TEXT NOT NULL,
		secret      TEXT NOT NULL DEFAULT '',
		fixed_code  TEXT NOT NULL DEFAULT '',
		expires_at  TIMESTAMPTZ NOT NULL,
		attempts    INT NOT NULL DEFAULT 0,
		verified    BOOLEAN NOT NULL DEFAULT FALSE,
		verified_at TIMESTAMPTZ,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// EnsureSchema creates the onboarding tables if they are missing.
func EnsureSchema(ctx context.Context, db DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
