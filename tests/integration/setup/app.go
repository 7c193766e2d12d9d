package setup

import (
	"context"
	"net/http"
	"testing"

	"github.com/ferdian3456/tiergate/internal/config"
	deliverytelegram "github.com/ferdian3456/tiergate/internal/delivery/telegram"
	"github.com/ferdian3456/tiergate/internal/telegram"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/knadh/koanf/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Test channel ids referenced by the flow tests. They match the tier table
// wired into SetupTestApp.
const (
	StandardChannelID = "-1001111111111"
	PremiumChannelID  = "-1002222222222"
)

// SetupTestApp wires the dispatcher against real Postgres and Redis
// containers and a fake Bot API server, in long-polling mode (no HTTP
// surface needed for the tests; updates are fed to the dispatcher directly).
func SetupTestApp(t *testing.T, pgURL, redisURL, botURL string) (*deliverytelegram.Dispatcher, *pgxpool.Pool, *redis.Client) {
	t.Log("Setting up test application...")

	ctx := context.Background()

	// 1. Create test config with test infrastructure values
	testConfig := koanf.New(".")
	_ = testConfig.Set("TELEGRAM_BOT_TOKEN", "test-token")
	_ = testConfig.Set("POSTGRES_URL", pgURL)
	_ = testConfig.Set("REDIS_URL", redisURL)
	_ = testConfig.Set("TIER_TABLE", "49:standard,299:standard,79:premium,399:premium")
	_ = testConfig.Set("CHANNEL_STANDARD_ID", StandardChannelID)
	_ = testConfig.Set("CHANNEL_PREMIUM_ID", PremiumChannelID)
	_ = testConfig.Set("REGISTRY_FAIL_MODE", "closed")
	_ = testConfig.Set("SUBSCRIPTION_CACHE_TTL_SECONDS", 2)

	// 2. Connect to PostgreSQL
	t.Log("Connecting to test PostgreSQL...")
	dbPool, err := pgxpool.New(ctx, pgURL)
	if err != nil {
		t.Fatalf("failed to connect to test db: %v", err)
	}

	// 3. Connect to Redis
	t.Log("Connecting to test Redis...")
	redisClient := redis.NewClient(&redis.Options{
		Addr: redisURL,
		DB:   0,
	})

	if err := redisClient.Ping(ctx).Err(); err != nil {
		t.Fatalf("failed to connect to test redis: %v", err)
	}

	// 4. Setup logger (use example config for test)
	zapLogger := zap.NewExample()

	// 5. Telegram client pointed at the fake Bot API
	tgClient := telegram.NewClient(botURL, "test-token", &http.Client{}, zapLogger)

	// 6. Wire the engine the same way main does
	dispatcher := config.Server(&config.ServerConfig{
		DB:          dbPool,
		DBCache:     redisClient,
		Telegram:    tgClient,
		Log:         zapLogger,
		Config:      testConfig,
		WebhookMode: false,
	})

	t.Log("Test application setup completed successfully")

	return dispatcher, dbPool, redisClient
}
