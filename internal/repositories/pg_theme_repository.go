package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"

	"github.com/cardpoint/onboarding-service/internal/models"
)

type pgThemeRepo struct {
	db DB
}

func NewPostgresThemeRepository(db DB) ThemeRepository {
	return &pgThemeRepo{db: db}
}

func (r *pgThemeRepo) GetTheme(ctx context.Context, clientKey string) (models.Theme, error) {
	var theme string
	err := r.db.QueryRow(ctx,
		`SELECT theme FROM onboarding_themes WHERE client_key=$1`, clientKey,
	).Scan(&theme)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.DefaultTheme, nil
	}
	if err != nil {
		return "", err
	}
	t, err := models.ParseTheme(theme)
	if err != nil {
		return models.DefaultTheme, nil
	}
	return t, nil
}

func (r *pgThemeRepo) SetTheme(ctx context.Context, clientKey string, theme models.Theme) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO onboarding_themes (client_key, theme, updated_at)
		VALUES ($1,$2,NOW())
		ON CONFLICT (client_key) DO UPDATE SET theme=EXCLUDED.theme, updated_at=NOW()`,
		clientKey, string(theme),
	)
	return err
}
