package usecase

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/ferdian3456/tiergate/internal/telegram"
	"go.uber.org/zap"
)

type botCall struct {
	Method  string
	Payload map[string]interface{}
}

// fakeBot is an in-process Bot API stand-in that records every call in order.
type fakeBot struct {
	mu           sync.Mutex
	calls        []botCall
	failing      map[string]string
	memberStatus map[string]string
	server       *httptest.Server
}

func newFakeBot(t *testing.T) *fakeBot {
	bot := &fakeBot{
		failing:      map[string]string{},
		memberStatus: map[string]string{},
	}

	bot.server = httptest.NewServer(http.HandlerFunc(bot.handle))
	t.Cleanup(bot.server.Close)

	return bot
}

func (bot *fakeBot) client() *telegram.Client {
	return telegram.NewClient(bot.server.URL, "fake-token", bot.server.Client(), zap.NewNop())
}

// failOn makes one API method answer ok:false.
func (bot *fakeBot) failOn(method string, description string) {
	bot.mu.Lock()
	defer bot.mu.Unlock()
	bot.failing[method] = description
}

// setMemberStatus controls getChatMember answers, keyed "chatID:userID".
func (bot *fakeBot) setMemberStatus(chatID string, userID int64, status string) {
	bot.mu.Lock()
	defer bot.mu.Unlock()
	bot.memberStatus[fmt.Sprintf("%s:%d", chatID, userID)] = status
}

func (bot *fakeBot) methods() []string {
	bot.mu.Lock()
	defer bot.mu.Unlock()

	methods := make([]string, 0, len(bot.calls))
	for _, call := range bot.calls {
		methods = append(methods, call.Method)
	}
	return methods
}

func (bot *fakeBot) callsTo(method string) []botCall {
	bot.mu.Lock()
	defer bot.mu.Unlock()

	matched := []botCall{}
	for _, call := range bot.calls {
		if call.Method == method {
			matched = append(matched, call)
		}
	}
	return matched
}

func (bot *fakeBot) handle(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(r.URL.Path, "/")
	method := parts[len(parts)-1]

	payload := map[string]interface{}{}
	raw, _ := io.ReadAll(r.Body)
	_ = sonic.Unmarshal(raw, &payload)

	bot.mu.Lock()
	bot.calls = append(bot.calls, botCall{Method: method, Payload: payload})
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
