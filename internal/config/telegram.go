package config

import (
	"net/http"

	"github.com/ferdian3456/tiergate/internal/telegram"

	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

const defaultTelegramAPIURL = "https://api.telegram.org"

func NewTelegramClient(config *koanf.Koanf, log *zap.Logger) *telegram.Client {
	token := config.String("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Fatal("missing required environment variable TELEGRAM_BOT_TOKEN")
	}

	baseURL := config.String("TELEGRAM_API_URL")
	if baseURL == "" {
		baseURL = defaultTelegramAPIURL
	}

	// Per-call deadlines live in the client; no global timeout here or the
	// long poll would be cut short.
	httpClient := &http.Client{}

	return telegram.NewClient(baseURL, token, httpClient, log)
}
