package setup

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ferdian3456/tiergate/internal/model"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// TruncateAllTables resets the registry between tests.
func TruncateAllTables(t *testing.T, db *pgxpool.Pool, ctx context.Context) {
	t.Log("Truncating all database tables...")

	_, err := db.Exec(ctx, "TRUNCATE TABLE subscriptions CASCADE")
	require.NoError(t, err, "failed to truncate table subscriptions")

	t.Log("All database tables truncated successfully")
}

// SeedSubscription inserts one registry row.
func SeedSubscription(t *testing.T, db *pgxpool.Pool, ctx context.Context, userID int64, username string, amount int64, status string, active bool) {
	_, err := db.Exec(ctx,
		`INSERT INTO subscriptions (telegram_user_id, telegram_username, amount_paid, payment_status, is_active)
		 VALUES ($1, $2, $3, $4, $5)`,
		userID, username, amount, status, active,
	)
	require.NoError(t, err, "failed to seed subscription for %s", username)
}

// SeedHandleOnlySubscription inserts a registry row with a NULL user id, the
// shape a payment produces before the user has ever talked to the bot.
func SeedHandleOnlySubscription(t *testing.T, db *pgxpool.Pool, ctx context.Context, username string, amount int64) {
	_, err := db.Exec(ctx,
		`INSERT INTO subscriptions (telegram_user_id, telegram_username, amount_paid, payment_status, is_active)
		 VALUES (NULL, $1, $2, 'completed', true)`,
		username, amount,
	)
	require.NoError(t, err, "failed to seed handle-only subscription for %s", username)
}

// SeedIdOnlySubscription inserts a registry row with a NULL username, for
// users without a public handle.
func SeedIdOnlySubscription(t *testing.T, db *pgxpool.Pool, ctx context.Context, userID int64, amount int64) {
	_, err := db.Exec(ctx,
		`INSERT INTO subscriptions (telegram_user_id, telegram_username, amount_paid, payment_status, is_active)
		 VALUES ($1, NULL, $2, 'completed', true)`,
		userID, amount,
	)
	require.NoError(t, err, "failed to seed id-only subscription for %d", userID)
}

// MemberJoinUpdate builds a chat_member transition update the way the
// platform delivers it.
func MemberJoinUpdate(updateID int64, chatID int64, userID int64, username string, oldStatus, newStatus string) model.Update {
	return model.Update{
		UpdateID: updateID,
		ChatMember: &model.ChatMemberUpdated{
			Chat: model.Chat{ID: chatID, Type: "channel"},
			From: model.TgUser{ID: userID, Username: username},
			OldChatMember: model.ChatMemberInfo{
				User:   model.TgUser{ID: userID, Username: username},
				Status: oldStatus,
			},
			NewChatMember: model.ChatMemberInfo{
				User:   model.TgUser{ID: userID, Username: username},
				Status: newStatus,
			},
		},
	}
}

// CommandUpdate builds a text command update from a private chat.
func CommandUpdate(updateID int64, userID int64, username string, text string) model.Update {
	return model.Update{
		UpdateID: updateID,
		Message: &model.Message{
			MessageID: updateID,
			From:      &model.TgUser{ID: userID, Username: username},
			Chat:      model.Chat{ID: userID, Type: "private"},
			Text:      text,
		},
	}
}

// BotCall is one recorded Bot API request.
type BotCall struct {
	Method  string
	Payload map[string]interface{}
}

// FakeBotAPI is an in-process Bot API stand-in that records every call in
// order and serves canned answers, so the flow tests can assert exactly which
// moderation actions the engine took.
type FakeBotAPI struct {
	mu           sync.Mutex
	calls        []BotCall
	failing      map[string]string
	memberStatus map[string]string

	Server *httptest.Server
}

func StartFakeBotAPI(t *testing.T) *FakeBotAPI {
	bot := &FakeBotAPI{
		failing:      map[string]string{},
		memberStatus: map[string]string{},
	}

	bot.Server = httptest.NewServer(http.HandlerFunc(bot.handle))
	t.Cleanup(bot.Server.Close)

	return bot
}

func (bot *FakeBotAPI) URL() string {
	return bot.Server.URL
}

// SetMemberStatus controls getChatMember answers, keyed chatID and userID.
// Used to mark test users as channel administrators.
func (bot *FakeBotAPI) SetMemberStatus(chatID string, userID int64, status string) {
	bot.mu.Lock()
	defer bot.mu.Unlock()
	bot.memberStatus[fmt.Sprintf("%s:%d", chatID, userID)] = status
}

// FailOn makes one API method answer ok:false until ClearFailures.
func (bot *FakeBotAPI) FailOn(method string, description string) {
	bot.mu.Lock()
	defer bot.mu.Unlock()
	bot.failing[method] = description
}

func (bot *FakeBotAPI) ClearFailures() {
	bot.mu.Lock()
	defer bot.mu.Unlock()
	bot.failing = map[string]string{}
}

func (bot *FakeBotAPI) Reset() {
	bot.mu.Lock()
	defer bot.mu.Unlock()
	bot.calls = nil
}

func (bot *FakeBotAPI) Methods() []string {
	bot.mu.Lock()
	defer bot.mu.Unlock()

	methods := make([]string, 0, len(bot.calls))
	for _, call := range bot.calls {
		methods = append(methods, call.Method)
	}
	return methods
}

func (bot *FakeBotAPI) CallsTo(method string) []BotCall {
	bot.mu.Lock()
	defer bot.mu.Unlock()

	matched := []BotCall{}
	for _, call := range bot.calls {
		if call.Method == method {
			matched = append(matched, call)
		}
	}
	return matched
}

func (bot *FakeBotAPI) handle(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(r.URL.Path, "/")
	method := parts[len(parts)-1]

	payload := map[string]interface{}{}
	raw, _ := io.ReadAll(r.Body)
	_ = sonic.Unmarshal(raw, &payload)

	bot.mu.Lock()
	bot.calls = append(bot.calls, BotCall{Method: method, Payload: payload})
	failDescription, failing := bot.failing[method]
	bot.mu.Unlock()

	if failing {
		_, _ = fmt.Fprintf(w, `{"ok":false,"error_code":400,"description":%q}`, failDescription)
		return
	}

	switch method {
	case "getChatMember":
		chatID, _ := payload["chat_id"].(string)
		userID, _ := payload["user_id"].(float64)

		bot.mu.Lock()
		status, ok := bot.memberStatus[fmt.Sprintf("%s:%d", chatID, int64(userID))]
		bot.mu.Unlock()
		if !ok {
			status = "member"
		}

		_, _ = fmt.Fprintf(w, `{"ok":true,"result":{"status":%q,"user":{"id":%d}}}`, status, int64(userID))

	case "createChatInviteLink":
		_, _ = w.Write([]byte(`{"ok":true,"result":{"invite_link":"https://t.me/+fake","creates_join_request":true}}`))

	case "getUpdates":
		_, _ = w.Write([]byte(`{"ok":true,"result":[]}`))

	default:
		_, _ = w.Write([]byte(`{"ok":true,"result":true}`))
	}
}
