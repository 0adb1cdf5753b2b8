package repositories

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/cardpoint/onboarding-service/internal/models"
)

// OTPChallengeRepository stores issued email verification codes.
// GetChallenge returns (nil, nil) for an unknown id.
type OTPChallengeRepository interface {
	CreateChallenge(ctx context.Context, c *models.OTPChallenge) error
	GetChallenge(ctx context.Context, id uuid.UUID) (*models.OTPChallenge, error)
	IncrementAttempts(ctx context.Context, id uuid.UUID) error
	MarkVerified(ctx context.Context, id uuid.UUID) error
	CleanupExpired(ctx context.Context) (int64, error)
}

// verifiedRetention is how long a used challenge is kept before cleanup.
const verifiedRetention = 15 * time.Minute

/* ------------------------------------------------------------------
   Postgres
------------------------------------------------------------------ */

type pgOTPChallengeRepo struct {
	db DB
}

func NewPostgresOTPChallengeRepository(db DB) OTPChallengeRepository {
	return &pgOTPChallengeRepo{db: db}
}

func (r *pgOTPChallengeRepo) CreateChallenge(ctx context.Context, c *models.OTPChallenge) error {
	q := `
        INSERT INTO onboarding_otp_challenges
            (id, email, secret, fixed_code, expires_at, attempts, verified, created_at)
        VALUES ($1, $2, $3, $4, $5, 0, FALSE, NOW())
    `
	_, err := r.db.Exec(ctx, q, c.ID, c.Email, c.Secret, c.FixedCode, c.ExpiresAt)
	return err
}

func (r *pgOTPChallengeRepo) GetChallenge(ctx context.Context, id uuid.UUID) (*models.OTPChallenge, error) {
	q := `
        SELECT id, email, secret, fixed_code, expires_at, attempts,
               verified, verified_at, created_at
        FROM onboarding_otp_challenges
        WHERE id = $1
    `
	var rec models.OTPChallenge
	err := r.db.QueryRow(ctx, q, id).Scan(
		&rec.ID,
		&rec.Email,
		&rec.Secret,
		&rec.FixedCode,
		&rec.ExpiresAt,
		&rec.Attempts,
		&rec.Verified,
		&rec.VerifiedAt,
		&rec.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *pgOTPChallengeRepo) IncrementAttempts(ctx context.Context, id uuid.UUID) error {
	q := `UPDATE onboarding_otp_challenges SET attempts = attempts + 1 WHERE id = $1`
	_, err := r.db.Exec(ctx, q, id)
	return err
}

func (r *pgOTPChallengeRepo) MarkVerified(ctx context.Context, id uuid.UUID) error {
	q := `
        UPDATE onboarding_otp_challenges
        SET verified = TRUE,
            verified_at = NOW()
        WHERE id = $1
    `
	_, err := r.db.Exec(ctx, q, id)
	return err
}

func (r *pgOTPChallengeRepo) CleanupExpired(ctx context.Context) (int64, error) {
	q := `
        DELETE FROM onboarding_otp_challenges
        WHERE
          (verified = FALSE AND expires_at < NOW())
          OR
          (verified = TRUE AND verified_at + INTERVAL '15 minutes' < NOW())
    `
	tag, err := r.db.Exec(ctx, q)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

/* ------------------------------------------------------------------
   Memory
------------------------------------------------------------------ */

type memoryOTPChallengeRepo struct {
	mu         sync.Mutex
	challenges map[uuid.UUID]models.OTPChallenge
	now        func() time.Time
}

func NewMemoryOTPChallengeRepository(now func() time.Time) OTPChallengeRepository {
	if now == nil {
		now = time.Now
	}
	return &memoryOTPChallengeRepo{
		challenges: make(map[uuid.UUID]models.OTPChallenge),
		now:        now,
	}
}

func (r *memoryOTPChallengeRepo) CreateChallenge(_ context.Context, c *models.OTPChallenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := *c
	rec.CreatedAt = r.now()
	rec.Attempts = 0
	rec.Verified = false
	rec.VerifiedAt = nil
	r.challenges[rec.ID] = rec
	return nil
}

func (r *memoryOTPChallengeRepo) GetChallenge(_ context.Context, id uuid.UUID) (*models.OTPChallenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.challenges[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (r *memoryOTPChallengeRepo) IncrementAttempts(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.challenges[id]; ok {
		rec.Attempts++
		r.challenges[id] = rec
	}
	return nil
}

func (r *memoryOTPChallengeRepo) MarkVerified(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.challenges[id]; ok {
		now := r.now()
		rec.Verified = true
		rec.VerifiedAt = &now
		r.challenges[id] = rec
	}
	return nil
}

func (r *memoryOTPChallengeRepo) CleanupExpired(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	var n int64
	for id, rec := range r.challenges {
		expired := !rec.Verified && rec.ExpiresAt.Before(now)
		used := rec.Verified && rec.VerifiedAt != nil && rec.VerifiedAt.Add(verifiedRetention).Before(now)
		if expired || used {
			delete(r.challenges, id)
			n++
		}
	}
	return n, nil
}
