package repositories

import (
	"context"
	"time"

	"github.com/cardpoint/onboarding-service/internal/models"
)

// MutateFunc edits a session in place. Returning an error aborts the
// update and nothing is written.
type MutateFunc func(s *models.Session) error

/* ------------------------------------------------------------------
   Public interfaces
------------------------------------------------------------------ */

// SessionRepository persists onboarding sessions. An unknown or cleared
// id loads as a fresh session on the Login step.
type SessionRepository interface {
	Load(ctx context.Context, id string) (*models.Session, error)

	// Save blindly overwrites the stored session.
	Save(ctx context.Context, s *models.Session) error

	// Update reads the current session, applies mutate and writes the
	// result back atomically. Concurrent updates of the same id never
	// lose each other's fields.
	Update(ctx context.Context, id string, mutate MutateFunc) (*models.Session, error)

	Clear(ctx context.Context, id string) error

	// CleanupExpired removes sessions past their clear time or idle TTL.
	// Backends with native expiry report 0.
	CleanupExpired(ctx context.Context) (int64, error)

	Ping(ctx context.Context) error
}

// ThemeRepository stores the theme preference per client. Preferences
// never expire.
type ThemeRepository interface {
	GetTheme(ctx context.Context, clientKey string) (models.Theme, error)
	SetTheme(ctx context.Context, clientKey string, theme models.Theme) error
}

// sessionExpired reports whether a status-cleared session should be
// treated as gone.
func sessionExpired(s *models.Session, now time.Time) bool {
	return s.Wizard.ClearAt != nil && !now.Before(*s.Wizard.ClearAt)
}
