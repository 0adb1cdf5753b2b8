//go:build integration

package repositories

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardpoint/onboarding-service/internal/models"
)

func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.Connect(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, EnsureSchema(ctx, pool))
	return pool
}

func TestPostgresSessionRepository(t *testing.T) {
	pool := newTestPool(t)
	repo := NewPostgresSessionRepository(pool, 30*time.Minute, nil)
	ctx := context.Background()
	id := uuid.NewString()
	t.Cleanup(func() { _ = repo.Clear(context.Background(), id) })

	fresh, err := repo.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StepLogin, fresh.Wizard.Step)

	setters := []func(*models.Session){
		func(s *models.Session) { s.Record.Mobile = "9876543210" },
		func(s *models.Session) { s.Record.FullName = "Jane Doe" },
		func(s *models.Session) { s.Captcha = "Ab3xYz" },
	}
	var wg sync.WaitGroup
	for _, set := range setters {
		wg.Add(1)
		go func(set func(*models.Session)) {
			defer wg.Done()
			_, err := repo.Update(ctx, id, func(s *models.Session) error {
				set(s)
				return nil
			})
			assert.NoError(t, err)
		}(set)
	}
	wg.Wait()

	got, err := repo.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "9876543210", got.Record.Mobile)
	assert.Equal(t, "Jane Doe", got.Record.FullName)
	assert.Equal(t, "Ab3xYz", got.Captcha)
	assert.Equal(t, int64(1+len(setters)), got.RowVersion)

	_, err = repo.Update(ctx, id, func(s *models.Session) error {
		past := time.Now().Add(-time.Second)
		s.Wizard.Step = models.StepStatus
		s.Wizard.ClearAt = &past
		return nil
	})
	require.NoError(t, err)

	got, err = repo.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StepLogin, got.Wizard.Step)

	n, err := repo.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))
}

func TestPostgresThemeRepository(t *testing.T) {
	pool := newTestPool(t)
	repo := NewPostgresThemeRepository(pool)
	ctx := context.Background()
	key := "ip:" + uuid.NewString()

	theme, err := repo.GetTheme(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, models.ThemeDark, theme)

	require.NoError(t, repo.SetTheme(ctx, key, models.ThemeLight))
	theme, err = repo.GetTheme(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, models.ThemeLight, theme)
}

func TestPostgresOTPChallengeRepository(t *testing.T) {
	pool := newTestPool(t)
	repo := NewPostgresOTPChallengeRepository(pool)
	ctx := context.Background()

	id := uuid.New()
	require.NoError(t, repo.CreateChallenge(ctx, &models.OTPChallenge{
		ID:        id,
		Email:     "jane@example.com",
		Secret:    "JBSWY3DPEHPK3PXP",
		ExpiresAt: time.Now().Add(5 * time.Minute),
	}))
	require.NoError(t, repo.IncrementAttempts(ctx, id))
	require.NoError(t, repo.MarkVerified(ctx, id))

	got, err := repo.GetChallenge(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "jane@example.com", got.Email)
	assert.Equal(t, 1, got.Attempts)
	assert.True(t, got.Verified)
}
