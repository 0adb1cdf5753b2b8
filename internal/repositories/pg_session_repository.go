package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"github.com/cardpoint/onboarding-service/internal/models"
)

/* ------------------------------------------------------------------
   Implementation
------------------------------------------------------------------ */

type pgSessionRepo struct {
	rows versionedTable[*models.Session]
	db   DB
	ttl  time.Duration
	now  func() time.Time
}

/* ---------- constructor ---------- */

func NewPostgresSessionRepository(db DB, ttl time.Duration, now func() time.Time) SessionRepository {
	if now == nil {
		now = time.Now
	}
	r := &pgSessionRepo{db: db, ttl: ttl, now: now}
	r.rows = newVersionedTable(db, baseSelectSession()+" WHERE id=$1", r.scanSession)
	return r
}

/* ---------- Load ---------- */

func (r *pgSessionRepo) Load(ctx context.Context, id string) (*models.Session, error) {
	s, err := r.rows.byID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.NewSession(id), nil
	}
	if err != nil {
		return nil, err
	}
	if r.gone(s) {
		return models.NewSession(id), nil
	}
	return s, nil
}

/* ---------- Save (blind overwrite) ---------- */

func (r *pgSessionRepo) Save(ctx context.Context, s *models.Session) error {
	userData, wizard, err := encodeSession(s)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO onboarding_sessions (
			id,user_data,captcha,wizard,row_version,clear_at,created_at,updated_at
		) VALUES ($1,$2,$3,$4,1,$5,NOW(),NOW())
		ON CONFLICT (id) DO UPDATE SET
			user_data=EXCLUDED.user_data,
			captcha=EXCLUDED.captcha,
			wizard=EXCLUDED.wizard,
			clear_at=EXCLUDED.clear_at,
			row_version=onboarding_sessions.row_version+1,
			updated_at=NOW()`,
		s.ID, userData, s.Captcha, wizard, s.Wizard.ClearAt,
	)
	return err
}

/* ---------- Update (optimistic lock) ---------- */

func (r *pgSessionRepo) Update(ctx context.Context, id string, mutate MutateFunc) (*models.Session, error) {
	if err := r.ensureRow(ctx, id); err != nil {
		return nil, err
	}
	return r.rows.update(ctx, id, func(s *models.Session) error {
		if r.gone(s) {
			// start over from defaults but keep the row's version
			fresh := models.NewSession(id)
			fresh.RowVersion = s.RowVersion
			fresh.CreatedAt = r.now()
			*s = *fresh
		}
		return mutate(s)
	}, r.updateIfVersion)
}

func (r *pgSessionRepo) ensureRow(ctx context.Context, id string) error {
	userData, wizard, err := encodeSession(models.NewSession(id))
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO onboarding_sessions (id,user_data,captcha,wizard,row_version)
		VALUES ($1,$2,'',$3,1)
		ON CONFLICT (id) DO NOTHING`,
		id, userData, wizard,
	)
	return err
}

func (r *pgSessionRepo) updateIfVersion(ctx context.Context, s *models.Session, expected int64) (pgconn.CommandTag, error) {
	userData, wizard, err := encodeSession(s)
	if err != nil {
		return nil, err
	}
	return r.db.Exec(ctx, `
		UPDATE onboarding_sessions SET
			user_data=$1,
			captcha=$2,
			wizard=$3,
			clear_at=$4,
			row_version=row_version+1,
			updated_at=NOW()
		WHERE id=$5 AND row_version=$6`,
		userData, s.Captcha, wizard, s.Wizard.ClearAt, s.ID, expected,
	)
}

/* ---------- Clear / Cleanup ---------- */

func (r *pgSessionRepo) Clear(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM onboarding_sessions WHERE id=$1`, id)
	return err
}

func (r *pgSessionRepo) CleanupExpired(ctx context.Context) (int64, error) {
	now := r.now()
	tag, err := r.db.Exec(ctx, `
		DELETE FROM onboarding_sessions
		WHERE (clear_at IS NOT NULL AND clear_at <= $1)
		   OR updated_at < $2`,
		now, now.Add(-r.ttl),
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *pgSessionRepo) Ping(ctx context.Context) error {
	var one int
	return r.db.QueryRow(ctx, `SELECT 1`).Scan(&one)
}

/* ------------------------------------------------------------------
   Internal helpers
------------------------------------------------------------------ */

func baseSelectSession() string {
	return `
		SELECT id,user_data,captcha,wizard,row_version,created_at,updated_at
		FROM onboarding_sessions`
}

func (r *pgSessionRepo) scanSession(row pgx.Row) (*models.Session, error) {
	var (
		s        models.Session
		userData []byte
		wizard   []byte
	)
	if err := row.Scan(
		&s.ID, &userData, &s.Captcha, &wizard,
		&s.RowVersion, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	s.Record = models.NewApplicationRecord()
	if err := json.Unmarshal(userData, &s.Record); err != nil {
		return nil, fmt.Errorf("decode user_data for %s: %w", s.ID, err)
	}
	s.Wizard = models.NewWizardState()
	if err := json.Unmarshal(wizard, &s.Wizard); err != nil {
		return nil, fmt.Errorf("decode wizard for %s: %w", s.ID, err)
	}
	return &s, nil
}

func (r *pgSessionRepo) gone(s *models.Session) bool {
	now := r.now()
	if sessionExpired(s, now) {
		return true
	}
	return r.ttl > 0 && !s.UpdatedAt.IsZero() && now.Sub(s.UpdatedAt) > r.ttl
}

func encodeSession(s *models.Session) (userData, wizard string, err error) {
	u, err := json.Marshal(s.Record)
	if err != nil {
		return "", "", err
	}
	w, err := json.Marshal(s.Wizard)
	if err != nil {
		return "", "", err
	}
	return string(u), string(w), nil
}
