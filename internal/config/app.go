package config

import (
	"time"

	http "github.com/ferdian3456/tiergate/internal/delivery/http"
	"github.com/ferdian3456/tiergate/internal/delivery/http/route"
	deliverytelegram "github.com/ferdian3456/tiergate/internal/delivery/telegram"
	"github.com/ferdian3456/tiergate/internal/repository"
	"github.com/ferdian3456/tiergate/internal/telegram"
	"github.com/ferdian3456/tiergate/internal/usecase"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/knadh/koanf/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type ServerConfig struct {
	Router      *fiber.App
	DB          *pgxpool.Pool
	DBCache     *redis.Client
	Telegram    *telegram.Client
	Log         *zap.Logger
	Config      *koanf.Koanf
	WebhookMode bool
	Secret      string
}

// Server wires repository, engine and delivery together. Everything is an
// explicitly constructed dependency; no component reads ambient globals.
func Server(config *ServerConfig) *deliverytelegram.Dispatcher {
	failMode, err := usecase.ParseFailMode(config.Config.String("REGISTRY_FAIL_MODE"))
	if err != nil {
		config.Log.Fatal("invalid registry fail mode", zap.Error(err))
	}

	cacheTTL := time.Duration(config.Config.Int("SUBSCRIPTION_CACHE_TTL_SECONDS")) * time.Second
	if cacheTTL == 0 {
		cacheTTL = 120 * time.Second
	}

	tiers := usecase.NewTierResolver(usecase.LoadTierTable(config.Config, config.Log))

	subscriptionRepository := repository.NewSubscriptionRepository(config.Log, config.DB, config.DBCache, cacheTTL)
	gateUsecase := usecase.NewGateUsecase(subscriptionRepository, config.Telegram, tiers, failMode, config.Log, config.Config)
	adminUsecase := usecase.NewAdminUsecase(subscriptionRepository, config.Telegram, tiers, failMode, config.WebhookMode, config.Log, config.Config)

	dispatcher := deliverytelegram.NewDispatcher(gateUsecase, adminUsecase, config.Telegram, config.DBCache, config.Log, config.Config)

	if config.WebhookMode {
		webhookController := http.NewWebhookController(dispatcher, config.Secret, config.Log, config.Config)

		routeConfig := route.RouteConfig{
			App:               config.Router,
			WebhookController: webhookController,
		}
		routeConfig.SetupRoute()
	}

	config.Log.Info("membership gate configured",
		zap.Strings("managed_channels", tiers.Channels()),
		zap.String("fail_mode", failMode.String()),
		zap.Bool("webhook_mode", config.WebhookMode),
	)

	return dispatcher
}
