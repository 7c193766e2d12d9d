package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/ferdian3456/tiergate/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const lookupTimeout = 5 * time.Second

type SubscriptionRepository struct {
	Log      *zap.Logger
	DB       *pgxpool.Pool
	DBCache  *redis.Client
	CacheTTL time.Duration
}

func NewSubscriptionRepository(zap *zap.Logger, db *pgxpool.Pool, dbCache *redis.Client, cacheTTL time.Duration) *SubscriptionRepository {
	return &SubscriptionRepository{
		Log:      zap,
		DB:       db,
		DBCache:  dbCache,
		CacheTTL: cacheTTL,
	}
}

// Lookup queries the registry for the first qualifying record matching the
// identity or a case-insensitive partial match on the handle. Zero rows is
// Inactive; any query failure is Unavailable, never an error return, so that
// fail-open vs fail-closed stays a single policy decision in the engine.
func (repository *SubscriptionRepository) Lookup(ctx context.Context, identity int64, handle string) model.LookupResult {
	cacheKey := repository.cacheKey(identity, handle)

	if cached, ok := repository.fromCache(ctx, cacheKey); ok {
		return model.LookupResult{State: model.LookupActive, Record: cached}
	}

	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	// ORDER BY id makes the "first matching record" tie-break deterministic;
	// the handle match is still a substring match and can collide across
	// usernames. Both identity columns are nullable (handle-only rows exist
	// before the user ever talks to the bot), so they are coalesced to their
	// zero values for the scan.
	query := `SELECT COALESCE(telegram_user_id, 0), COALESCE(telegram_username, ''), amount_paid, payment_status, is_active
			FROM subscriptions
			WHERE (telegram_user_id = $1 OR ($2 <> '' AND telegram_username ILIKE '%' || $2 || '%'))
			AND payment_status = 'completed'
			AND is_active = true
			ORDER BY id
			LIMIT 1`

	record := model.SubscriptionRecord{}
	err := repository.DB.QueryRow(ctx, query, identity, handle).Scan(&record.Identity, &record.Handle, &record.AmountPaid, &record.PaymentStatus, &record.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.LookupResult{State: model.LookupInactive}
		}

		repository.Log.Warn("subscription registry unavailable",
			zap.Int64("identity", identity),
			zap.String("handle", handle),
			zap.Error(err),
		)
		return model.LookupResult{State: model.LookupUnavailable}
	}

	repository.toCache(ctx, cacheKey, &record)

	return model.LookupResult{State: model.LookupActive, Record: &record}
}

// Ping reports registry reachability for the operator /status command.
func (repository *SubscriptionRepository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	return repository.DB.Ping(ctx)
}

func (repository *SubscriptionRepository) cacheKey(identity int64, handle string) string {
	return fmt.Sprintf("tiergate:sub:%d:%s", identity, handle)
}

// Cache failures must never surface as Unavailable, so both cache paths
// swallow redis errors after a debug log.
func (repository *SubscriptionRepository) fromCache(ctx context.Context, key string) (*model.SubscriptionRecord, bool) {
	if repository.CacheTTL <= 0 {
		return nil, false
	}

	raw, err := repository.DBCache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			repository.Log.Debug("subscription cache read failed", zap.Error(err))
		}
		return nil, false
	}

	record := model.SubscriptionRecord{}
	err = sonic.Unmarshal(raw, &record)
	if err != nil {
		repository.Log.Debug("subscription cache entry malformed", zap.Error(err))
		return nil, false
	}

	return &record, true
}

func (repository *SubscriptionRepository) toCache(ctx context.Context, key string, record *model.SubscriptionRecord) {
	if repository.CacheTTL <= 0 {
		return
	}

	raw, err := sonic.Marshal(record)
	if err != nil {
		return
	}

	err = repository.DBCache.Set(ctx, key, raw, repository.CacheTTL).Err()
	if err != nil {
		repository.Log.Debug("subscription cache write failed", zap.Error(err))
	}
}
