package services

import (
	"context"

	"github.com/cardpoint/onboarding-service/internal/models"
	"github.com/cardpoint/onboarding-service/internal/repositories"
)

// ThemeService keeps the dark/light preference per client.
type ThemeService interface {
	GetTheme(ctx context.Context, clientKey string) (models.Theme, error)
	SetTheme(ctx context.Context, clientKey string, theme models.Theme) (models.Theme, error)
	ToggleTheme(ctx context.Context, clientKey string) (models.Theme, error)
}

type themeService struct {
	repo repositories.ThemeRepository
}

func NewThemeService(repo repositories.ThemeRepository) ThemeService {
	return &themeService{repo: repo}
}

func (s *themeService) GetTheme(ctx context.Context, clientKey string) (models.Theme, error) {
	return s.repo.GetTheme(ctx, clientKey)
}

func (s *themeService) SetTheme(ctx context.Context, clientKey string, theme models.Theme) (models.Theme, error) {
	if err := s.repo.SetTheme(ctx, clientKey, theme); err != nil {
		return "", err
	}
	return theme, nil
}

func (s *themeService) ToggleTheme(ctx context.Context, clientKey string) (models.Theme, error) {
	current, err := s.repo.GetTheme(ctx, clientKey)
	if err != nil {
		return "", err
	}
	return s.SetTheme(ctx, clientKey, current.Toggle())
}
