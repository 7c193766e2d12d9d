package usecase

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ferdian3456/tiergate/internal/constant"
	"github.com/ferdian3456/tiergate/internal/model"
	"github.com/ferdian3456/tiergate/internal/observability"
	"github.com/ferdian3456/tiergate/internal/telegram"
	"github.com/ferdian3456/tiergate/internal/util"

	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

// Lookuper is the registry read surface the engine depends on.
type Lookuper interface {
	Lookup(ctx context.Context, identity int64, handle string) model.LookupResult
	Ping(ctx context.Context) error
}

type GateUsecase struct {
	Subscriptions Lookuper
	Telegram      *telegram.Client
	Tiers         *TierResolver
	FailMode      FailMode
	Locks         *util.KeyedMutex
	Log           *zap.Logger
	Config        *koanf.Koanf
}

func NewGateUsecase(subscriptions Lookuper, tg *telegram.Client, tiers *TierResolver, failMode FailMode, zap *zap.Logger, koanf *koanf.Koanf) *GateUsecase {
	return &GateUsecase{
		Subscriptions: subscriptions,
		Telegram:      tg,
		Tiers:         tiers,
		FailMode:      failMode,
		Locks:         util.NewKeyedMutex(),
		Log:           zap,
		Config:        koanf,
	}
}

// HandleMemberTransition runs the full pipeline for one normalized event:
// lookup, decide, execute. Events for the same identity are strictly
// serialized so that a stale registry snapshot can never be applied after a
// fresher one; distinct identities proceed in parallel.
func (usecase *GateUsecase) HandleMemberTransition(ctx context.Context, event model.MembershipEvent) model.ExecutionReport {
	usecase.Locks.Lock(event.Identity)
	defer usecase.Locks.Unlock(event.Identity)

	if !usecase.Tiers.Managed(event.Channel) || !event.Joining() {
		return model.ExecutionReport{Action: model.Action{Kind: model.ActionNoOp, Channel: event.Channel}, Completed: true}
	}

	lookup := usecase.Subscriptions.Lookup(ctx, event.Identity, event.Handle)
	action := Decide(event, lookup, usecase.Tiers, usecase.FailMode)

	observability.WithContext(ctx, usecase.Log).Info("membership decision",
		zap.Int64("identity", event.Identity),
		zap.String("handle", event.Handle),
		zap.String("channel", event.Channel),
		zap.String("lookup", lookup.State.String()),
		zap.String("action", action.Kind.String()),
	)

	return usecase.Execute(ctx, event, action)
}

// Execute applies one action against the platform. The irrevocable step (ban
// or unban) always runs first; notifications are best-effort and can never
// block or reverse it, so an unreachable user cannot prevent enforcement.
func (usecase *GateUsecase) Execute(ctx context.Context, event model.MembershipEvent, action model.Action) model.ExecutionReport {
	report := model.ExecutionReport{Action: action}

	switch action.Kind {
	case model.ActionNoOp:
		report.Completed = true

	case model.ActionAdmit:
		// Unban before welcoming, so a previously redirected identity is not
		// greeted while still banned. "Not banned" is not an error.
		err := usecase.Telegram.UnbanChatMember(ctx, action.Channel, event.Identity, true)
		if err != nil {
			usecase.Log.Warn("unban-if-banned failed during admit",
				zap.Int64("identity", event.Identity),
				zap.String("channel", action.Channel),
				zap.Error(err),
			)
		}
		report.Completed = true

		welcome := fmt.Sprintf("Welcome @%s! Your subscription (₹%d) has been verified. Enjoy the channel! 🎉", displayHandle(event), action.Amount)
		if action.Amount == 0 {
			welcome = fmt.Sprintf("Welcome @%s! Enjoy the channel! 🎉", displayHandle(event))
		}
		report.Notified = usecase.notify(ctx, action.Channel, welcome)

	case model.ActionRedirectEvict:
		err := usecase.Telegram.BanChatMember(ctx, action.Channel, event.Identity)
		if err != nil {
			// The identity's access state is now ambiguous; flagged for
			// operator follow-up instead of an uncoordinated retry that could
			// race a platform redelivery.
			usecase.Log.Error("evict failed, access state ambiguous",
				zap.Int64("identity", event.Identity),
				zap.String("channel", action.Channel),
				zap.Error(err),
			)
			report.Err = err
			return report
		}
		report.Completed = true

		text := fmt.Sprintf("You joined the wrong channel. Your subscription (₹%d) is for the %s channel.\n\nPlease join the correct channel for your subscription tier.", action.Amount, action.TierName)
		report.Notified = usecase.notify(ctx, strconv.FormatInt(event.Identity, 10), text)

	case model.ActionDenyEvict:
		err := usecase.Telegram.BanChatMember(ctx, action.Channel, event.Identity)
		if err != nil {
			usecase.Log.Error("evict failed, access state ambiguous",
				zap.Int64("identity", event.Identity),
				zap.String("channel", action.Channel),
				zap.Error(err),
			)
			report.Err = err
			return report
		}
		report.Completed = true

		report.Notified = usecase.notify(ctx, strconv.FormatInt(event.Identity, 10), constant.MSG_ACCESS_DENIED)
	}

	return report
}

func (usecase *GateUsecase) notify(ctx context.Context, chatID string, text string) bool {
	err := usecase.Telegram.SendMessage(ctx, chatID, text)
	if err != nil {
		usecase.Log.Warn("best-effort notification failed",
			zap.String("chat", chatID),
			zap.Error(err),
		)
		return false
	}
	return true
}

func displayHandle(event model.MembershipEvent) string {
	if event.Handle != "" {
		return event.Handle
	}
	return fmt.Sprintf("user_%d", event.Identity)
}
