package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/cardpoint/onboarding-service/internal/models"
	"github.com/cardpoint/onboarding-service/internal/utils"
)

// Hash fields of a session key.
const (
	fieldUserData   = "userData"
	fieldCaptcha    = "captcha"
	fieldWizard     = "wizard"
	fieldRowVersion = "rowVersion"
	fieldCreatedAt  = "createdAt"
	fieldUpdatedAt  = "updatedAt"
)

// RedisStore keeps each session in a hash that expires after the idle TTL,
// or at the status clear time once one is set.
type RedisStore struct {
	client        redis.UniversalClient
	sessionPrefix string
	themePrefix   string
	ttl           time.Duration
	now           func() time.Time
}

func NewRedisStore(client redis.UniversalClient, ttl time.Duration, now func() time.Time) *RedisStore {
	if now == nil {
		now = time.Now
	}
	return &RedisStore{
		client:        client,
		sessionPrefix: "cp:session:",
		themePrefix:   "cp:theme:",
		ttl:           ttl,
		now:           now,
	}
}

var (
	_ SessionRepository = (*RedisStore)(nil)
	_ ThemeRepository   = (*RedisStore)(nil)
)

func (r *RedisStore) sessionKey(id string) string {
	return fmt.Sprintf("%s%s", r.sessionPrefix, id)
}

func (r *RedisStore) Load(ctx context.Context, id string) (*models.Session, error) {
	return r.read(ctx, r.client, id)
}

func (r *RedisStore) Save(ctx context.Context, s *models.Session) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		return r.write(ctx, pipe, s)
	})
	return err
}

func (r *RedisStore) Update(ctx context.Context, id string, mutate MutateFunc) (*models.Session, error) {
	key := r.sessionKey(id)
	var out *models.Session

	txf := func(tx *redis.Tx) error {
		s, err := r.read(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := mutate(s); err != nil {
			return err
		}
		s.RowVersion++
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			return r.write(ctx, pipe, s)
		})
		if err != nil {
			return err
		}
		out = s
		return nil
	}

	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			// the key changed under us – retry
			continue
		}
		if err != nil {
			return nil, err
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: too much contention updating %q", utils.ErrRowVersionConflict, id)
}

func (r *RedisStore) Clear(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.sessionKey(id)).Err()
}

// CleanupExpired is a no-op; keys expire on their own.
func (r *RedisStore) CleanupExpired(context.Context) (int64, error) {
	return 0, nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) GetTheme(ctx context.Context, clientKey string) (models.Theme, error) {
	v, err := r.client.Get(ctx, r.themePrefix+clientKey).Result()
	if err == redis.Nil {
		return models.DefaultTheme, nil
	}
	if err != nil {
		return "", err
	}
	t, err := models.ParseTheme(v)
	if err != nil {
		utils.Logger.WithError(err).Warn("Stored theme unreadable, using default")
		return models.DefaultTheme, nil
	}
	return t, nil
}

func (r *RedisStore) SetTheme(ctx context.Context, clientKey string, theme models.Theme) error {
	return r.client.Set(ctx, r.themePrefix+clientKey, string(theme), 0).Err()
}

// hashReader is satisfied by both the client and a WATCH transaction.
type hashReader interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

func (r *RedisStore) read(ctx context.Context, c hashReader, id string) (*models.Session, error) {
	fields, err := c.HGetAll(ctx, r.sessionKey(id)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return models.NewSession(id), nil
	}

	s := models.NewSession(id)
	if raw := fields[fieldUserData]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &s.Record); err != nil {
			return nil, fmt.Errorf("decode userData for %s: %w", id, err)
		}
	}
	s.Captcha = fields[fieldCaptcha]
	if raw := fields[fieldWizard]; raw != "" {
		if err := msgpack.Unmarshal([]byte(raw), &s.Wizard); err != nil {
			return nil, fmt.Errorf("decode wizard for %s: %w", id, err)
		}
	}
	s.RowVersion, _ = strconv.ParseInt(fields[fieldRowVersion], 10, 64)
	s.CreatedAt = parseUnixMilli(fields[fieldCreatedAt])
	s.UpdatedAt = parseUnixMilli(fields[fieldUpdatedAt])

	if sessionExpired(s, r.now()) {
		return models.NewSession(id), nil
	}
	return s, nil
}

func (r *RedisStore) write(ctx context.Context, pipe redis.Pipeliner, s *models.Session) error {
	userData, err := json.Marshal(s.Record)
	if err != nil {
		return err
	}
	wizard, err := msgpack.Marshal(&s.Wizard)
	if err != nil {
		return err
	}

	now := r.now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now

	key := r.sessionKey(s.ID)
	pipe.HSet(ctx, key,
		fieldUserData, string(userData),
		fieldCaptcha, s.Captcha,
		fieldWizard, string(wizard),
		fieldRowVersion, s.RowVersion,
		fieldCreatedAt, s.CreatedAt.UnixMilli(),
		fieldUpdatedAt, s.UpdatedAt.UnixMilli(),
	)

	expiry := r.ttl
	if s.Wizard.ClearAt != nil {
		expiry = s.Wizard.ClearAt.Sub(now)
		if expiry <= 0 {
			pipe.Del(ctx, key)
			return nil
		}
	}
	if expiry > 0 {
		pipe.PExpire(ctx, key, expiry)
	}
	return nil
}

func parseUnixMilli(v string) time.Time {
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil || ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
