package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/ferdian3456/tiergate/internal/constant"
	"github.com/ferdian3456/tiergate/internal/model"
	"github.com/ferdian3456/tiergate/internal/telegram"
	"github.com/google/uuid"

	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

// AdminUsecase implements the operator override commands. Every mutating
// command authenticates the caller live against the platform, never from a
// cache, and bypasses the automatic event trigger.
type AdminUsecase struct {
	Subscriptions Lookuper
	Telegram      *telegram.Client
	Tiers         *TierResolver
	FailMode      FailMode
	WebhookMode   bool
	Log           *zap.Logger
	Config        *koanf.Koanf
}

func NewAdminUsecase(subscriptions Lookuper, tg *telegram.Client, tiers *TierResolver, failMode FailMode, webhookMode bool, zap *zap.Logger, koanf *koanf.Koanf) *AdminUsecase {
	return &AdminUsecase{
		Subscriptions: subscriptions,
		Telegram:      tg,
		Tiers:         tiers,
		FailMode:      failMode,
		WebhookMode:   webhookMode,
		Log:           zap,
		Config:        koanf,
	}
}

// isOperator reports whether the user holds administrator or creator status in
// at least one managed channel. Per-channel lookup failures are skipped: a
// single unreachable channel must not lock every operator out.
func (usecase *AdminUsecase) isOperator(ctx context.Context, userID int64) bool {
	for _, channel := range usecase.Tiers.Channels() {
		member, err := usecase.Telegram.GetChatMember(ctx, channel, userID)
		if err != nil {
			continue
		}
		if member.Status == string(model.StatusAdministrator) || member.Status == string(model.StatusCreator) {
			return true
		}
	}
	return false
}

// Approve force-admits the replied-to user in the channel the command was
// issued in, regardless of any lookup result.
func (usecase *AdminUsecase) Approve(ctx context.Context, invoker int64, target model.TgUser, channel string) (string, error) {
	if !usecase.isOperator(ctx, invoker) {
		return constant.MSG_NOT_OPERATOR, nil
	}

	err := usecase.Telegram.UnbanChatMember(ctx, channel, target.ID, true)
	if err != nil {
		return "", err
	}

	usecase.Log.Info("manual approval",
		zap.Int64("identity", target.ID),
		zap.String("channel", channel),
		zap.Int64("operator", invoker),
	)

	return fmt.Sprintf("✅ User @%s has been manually approved.", handleOrFallback(target.Username, target.ID)), nil
}

// Invite resolves the handle's tier through the registry and creates a
// join-request invite link scoped to that tier's channel.
func (usecase *AdminUsecase) Invite(ctx context.Context, invoker int64, handle string) (string, error) {
	if !usecase.isOperator(ctx, invoker) {
		return constant.MSG_NOT_OPERATOR, nil
	}

	handle = strings.TrimPrefix(handle, "@")

	lookup := usecase.Subscriptions.Lookup(ctx, 0, handle)
	tier, ok := usecase.resolveTier(lookup)
	if !ok {
		return fmt.Sprintf("❌ No valid subscription found for @%s.", handle), nil
	}

	label := fmt.Sprintf("Invite for %s (%s)", handle, uuid.NewString()[:8])
	link, err := usecase.Telegram.CreateChatInviteLink(ctx, tier.Channel, label, true)
	if err != nil {
		return "", err
	}

	usecase.Log.Info("invite link generated",
		zap.String("handle", handle),
		zap.String("channel", tier.Channel),
		zap.Int64("operator", invoker),
	)

	return fmt.Sprintf("✅ Invite link for @%s (₹%d):\n%s\n\nThis link will require admin approval when used.", handle, lookup.Record.AmountPaid, link.InviteLink), nil
}

// Check reports the caller's own subscription status. Not operator-gated.
func (usecase *AdminUsecase) Check(ctx context.Context, user model.TgUser) (string, error) {
	lookup := usecase.Subscriptions.Lookup(ctx, user.ID, user.Username)
	tier, ok := usecase.resolveTier(lookup)
	if !ok {
		return constant.MSG_NO_SUBSCRIPTION, nil
	}

	return fmt.Sprintf("✅ Your subscription (₹%d) is active! You have access to the %s channel.", lookup.Record.AmountPaid, tier.Name), nil
}

// Unban lifts bans for a handle across every managed channel. The platform
// keys bans by numeric identity, so the handle is resolved through the
// registry record; when no record carries an identity the command degrades to
// an explicit advisory rather than pretending success.
func (usecase *AdminUsecase) Unban(ctx context.Context, invoker int64, handle string) (string, error) {
	if !usecase.isOperator(ctx, invoker) {
		return constant.MSG_NOT_OPERATOR, nil
	}

	handle = strings.TrimPrefix(handle, "@")

	lookup := usecase.Subscriptions.Lookup(ctx, 0, handle)
	if lookup.State != model.LookupActive || lookup.Record == nil || lookup.Record.Identity == 0 {
		return fmt.Sprintf("⚠️ Cannot resolve a numeric user id for @%s, so no unban was performed. Ask the user to run /check once, or use /approve as a reply to their message.", handle), nil
	}

	identity := lookup.Record.Identity
	lifted := 0
	for _, channel := range usecase.Tiers.Channels() {
		err := usecase.Telegram.UnbanChatMember(ctx, channel, identity, true)
		if err != nil {
			usecase.Log.Warn("unban failed in channel",
				zap.Int64("identity", identity),
				zap.String("channel", channel),
				zap.Error(err),
			)
			continue
		}
		lifted++
	}

	return fmt.Sprintf("✅ Unban requested for @%s in %d channel(s).", handle, lifted), nil
}

// Debug is an operator-only raw lookup report for support triage.
func (usecase *AdminUsecase) Debug(ctx context.Context, invoker int64, handle string) (string, error) {
	if !usecase.isOperator(ctx, invoker) {
		return constant.MSG_NOT_OPERATOR, nil
	}

	handle = strings.TrimPrefix(handle, "@")

	lookup := usecase.Subscriptions.Lookup(ctx, 0, handle)
	switch lookup.State {
	case model.LookupUnavailable:
		return fmt.Sprintf("Registry unavailable while looking up @%s (fail mode: %s).", handle, usecase.FailMode), nil
	case model.LookupInactive:
		return fmt.Sprintf("No completed, active subscription matches @%s.", handle), nil
	}

	record := lookup.Record
	tierName := "unknown amount"
	if tier, ok := usecase.Tiers.Resolve(record.AmountPaid); ok {
		tierName = tier.Name
	}

	return fmt.Sprintf("Matched record for @%s:\n- user id: %d\n- username: %s\n- amount: ₹%d\n- status: %s\n- active: %t\n- tier: %s",
		handle, record.Identity, record.Handle, record.AmountPaid, record.PaymentStatus, record.IsActive, tierName), nil
}

// Status is an operator-only runtime overview.
func (usecase *AdminUsecase) Status(ctx context.Context, invoker int64) (string, error) {
	if !usecase.isOperator(ctx, invoker) {
		return constant.MSG_NOT_OPERATOR, nil
	}

	registry := "reachable"
	if err := usecase.Subscriptions.Ping(ctx); err != nil {
		registry = "unreachable"
	}

	delivery := "long polling"
	if usecase.WebhookMode {
		delivery = "webhook"
	}

	return fmt.Sprintf("Managed channels: %s\nRegistry: %s\nFail mode: %s\nDelivery: %s",
		strings.Join(usecase.Tiers.Channels(), ", "), registry, usecase.FailMode, delivery), nil
}

func (usecase *AdminUsecase) resolveTier(lookup model.LookupResult) (model.Tier, bool) {
	if lookup.State != model.LookupActive || lookup.Record == nil {
		return model.Tier{}, false
	}
	return usecase.Tiers.Resolve(lookup.Record.AmountPaid)
}

func handleOrFallback(handle string, id int64) string {
	if handle != "" {
		return handle
	}
	return fmt.Sprintf("user_%d", id)
}
