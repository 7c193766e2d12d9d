package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ferdian3456/tiergate/internal/constant"
	"github.com/ferdian3456/tiergate/internal/model"
	tg "github.com/ferdian3456/tiergate/internal/telegram"
	"github.com/ferdian3456/tiergate/internal/usecase"

	"github.com/knadh/koanf/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const dedupeTTL = 24 * time.Hour

// Dispatcher normalizes raw platform updates and routes them to the decision
// engine or the operator command handlers. It is shared by both delivery
// modes (webhook and long polling).
type Dispatcher struct {
	GateUsecase  *usecase.GateUsecase
	AdminUsecase *usecase.AdminUsecase
	Telegram     *tg.Client
	DBCache      *redis.Client
	Log          *zap.Logger
	Config       *koanf.Koanf
}

func NewDispatcher(gateUsecase *usecase.GateUsecase, adminUsecase *usecase.AdminUsecase, tgClient *tg.Client, dbCache *redis.Client, zap *zap.Logger, koanf *koanf.Koanf) *Dispatcher {
	return &Dispatcher{
		GateUsecase:  gateUsecase,
		AdminUsecase: adminUsecase,
		Telegram:     tgClient,
		DBCache:      dbCache,
		Log:          zap,
		Config:       koanf,
	}
}

// Dispatch handles one update. Callers run it in its own goroutine; ordering
// for the same identity is enforced further down by the engine's keyed mutex.
//
// The dedupe marker is written only after the update was handled to
// completion. An update consumed by a crash or a failed irrevocable step
// stays unmarked, so the platform's redelivery gets to run it again;
// duplicates racing through the unmarked window are harmless because
// execution is idempotent.
func (dispatcher *Dispatcher) Dispatch(ctx context.Context, update model.Update) {
	if dispatcher.seen(ctx, update.UpdateID) {
		dispatcher.Log.Debug("duplicate update skipped", zap.Int64("update_id", update.UpdateID))
		return
	}

	completed := true
	switch {
	case update.ChatMember != nil:
		completed = dispatcher.handleMemberUpdate(ctx, *update.ChatMember)
	case update.Message != nil:
		dispatcher.handleMessage(ctx, *update.Message)
	}

	if completed {
		dispatcher.markSeen(ctx, update.UpdateID)
	}
}

// seen reports whether the update id was already handled to completion.
// Redis being down only disables the cheap dedupe path.
func (dispatcher *Dispatcher) seen(ctx context.Context, updateID int64) bool {
	if dispatcher.DBCache == nil {
		return false
	}

	handled, err := dispatcher.DBCache.Exists(ctx, dedupeKey(updateID)).Result()
	if err != nil {
		dispatcher.Log.Debug("update dedupe unavailable", zap.Error(err))
		return false
	}
	return handled > 0
}

func (dispatcher *Dispatcher) markSeen(ctx context.Context, updateID int64) {
	if dispatcher.DBCache == nil {
		return
	}

	err := dispatcher.DBCache.Set(ctx, dedupeKey(updateID), 1, dedupeTTL).Err()
	if err != nil {
		dispatcher.Log.Debug("update dedupe marker write failed", zap.Error(err))
	}
}

func dedupeKey(updateID int64) string {
	return fmt.Sprintf("tiergate:update:%d", updateID)
}

// handleMemberUpdate reports whether the event was handled to completion;
// an event whose irrevocable step failed must stay eligible for redelivery.
func (dispatcher *Dispatcher) handleMemberUpdate(ctx context.Context, memberUpdate model.ChatMemberUpdated) bool {
	event := normalizeMemberUpdate(memberUpdate)

	// Cheap filter before the engine; the engine re-checks.
	if !dispatcher.GateUsecase.Tiers.Managed(event.Channel) {
		return true
	}

	report := dispatcher.GateUsecase.HandleMemberTransition(ctx, event)
	return report.Err == nil
}

func normalizeMemberUpdate(memberUpdate model.ChatMemberUpdated) model.MembershipEvent {
	return model.MembershipEvent{
		Identity:  memberUpdate.NewChatMember.User.ID,
		Handle:    memberUpdate.NewChatMember.User.Username,
		Channel:   strconv.FormatInt(memberUpdate.Chat.ID, 10),
		OldStatus: model.MemberStatus(memberUpdate.OldChatMember.Status),
		NewStatus: model.MemberStatus(memberUpdate.NewChatMember.Status),
	}
}

func (dispatcher *Dispatcher) handleMessage(ctx context.Context, message model.Message) {
	if message.From == nil || message.From.IsBot {
		return
	}

	command, argument := parseCommand(message.Text)
	if command == "" {
		return
	}

	chatID := strconv.FormatInt(message.Chat.ID, 10)
	invoker := message.From.ID

	var reply string
	var err error

	switch command {
	case "/approve":
		if message.ReplyToMessage == nil || message.ReplyToMessage.From == nil {
			reply = constant.MSG_APPROVE_NEEDS_REPLY
			break
		}
		reply, err = dispatcher.AdminUsecase.Approve(ctx, invoker, *message.ReplyToMessage.From, chatID)

	case "/invite":
		if argument == "" {
			reply = constant.MSG_INVITE_NEEDS_HANDLE
			break
		}
		reply, err = dispatcher.AdminUsecase.Invite(ctx, invoker, argument)

	case "/check":
		reply, err = dispatcher.AdminUsecase.Check(ctx, *message.From)

	case "/unban":
		if argument == "" {
			reply = constant.MSG_UNBAN_NEEDS_HANDLE
			break
		}
		reply, err = dispatcher.AdminUsecase.Unban(ctx, invoker, argument)

	case "/debug":
		if argument == "" {
			reply = constant.MSG_DEBUG_NEEDS_HANDLE
			break
		}
		reply, err = dispatcher.AdminUsecase.Debug(ctx, invoker, argument)

	case "/status":
		reply, err = dispatcher.AdminUsecase.Status(ctx, invoker)

	default:
		return
	}

	if err != nil {
		dispatcher.Log.Error("command handler failed",
			zap.String("command", command),
			zap.Int64("invoker", invoker),
			zap.Error(err),
		)
		reply = constant.MSG_COMMAND_FAILED
	}

	sendErr := dispatcher.Telegram.SendMessage(ctx, chatID, reply)
	if sendErr != nil {
		dispatcher.Log.Warn("command reply failed",
			zap.String("command", command),
			zap.Error(sendErr),
		)
	}
}

// parseCommand splits "/cmd@BotName arg..." into the bare command and its
// first argument.
func parseCommand(text string) (string, string) {
	if !strings.HasPrefix(text, "/") {
		return "", ""
	}

	fields := strings.Fields(text)
	command := fields[0]
	if at := strings.Index(command, "@"); at > 0 {
		command = command[:at]
	}

	argument := ""
	if len(fields) > 1 {
		argument = fields[1]
	}

	return command, argument
}
