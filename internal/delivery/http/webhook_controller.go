package http

import (
	"context"
	"crypto/subtle"

	deliverytelegram "github.com/ferdian3456/tiergate/internal/delivery/telegram"
	"github.com/ferdian3456/tiergate/internal/model"
	"github.com/ferdian3456/tiergate/internal/util"

	"github.com/gofiber/fiber/v2"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

// WebhookController is the push-delivery mode: Telegram posts updates here
// when a public base URL is configured.
type WebhookController struct {
	Dispatcher *deliverytelegram.Dispatcher
	Secret     string
	Log        *zap.Logger
	Config     *koanf.Koanf
}

func NewWebhookController(dispatcher *deliverytelegram.Dispatcher, secret string, zap *zap.Logger, koanf *koanf.Koanf) *WebhookController {
	return &WebhookController{
		Dispatcher: dispatcher,
		Secret:     secret,
		Log:        zap,
		Config:     koanf,
	}
}

func (controller *WebhookController) HandleUpdate(ctx *fiber.Ctx) error {
	token := ctx.Get("X-Telegram-Bot-Api-Secret-Token")
	if subtle.ConstantTimeCompare([]byte(token), []byte(controller.Secret)) != 1 {
		controller.Log.Warn("webhook call with bad secret token", zap.String("ip", ctx.IP()))
		return util.SendErrorResponseUnauthorized(ctx)
	}

	var update model.Update
	err := util.ReadRequestBody(ctx, &update)
	if err != nil {
		controller.Log.Warn("malformed webhook payload", zap.Error(err))
		// 200 regardless: Telegram retries non-2xx responses forever.
		return util.SendSuccessResponseNoData(ctx)
	}

	// Dispatch outside the request lifetime; the platform requires no
	// response body for membership events.
	go controller.Dispatcher.Dispatch(context.Background(), update)

	return util.SendSuccessResponseNoData(ctx)
}
