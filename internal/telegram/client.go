package telegram

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/ferdian3456/tiergate/internal/model"
	"go.uber.org/zap"
)

const (
	callTimeout = 10 * time.Second

	// getUpdates long-polls on the server side, so its HTTP deadline has to
	// sit above the poll window.
	pollWindow = 30
)

// APIError is a non-ok Bot API response.
type APIError struct {
	Code        int    `json:"error_code"`
	Description string `json:"description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram api error %d: %s", e.Code, e.Description)
}

// Client is the shared Bot API handle. It holds no per-identity state and is
// safe for concurrent use.
type Client struct {
	Log     *zap.Logger
	HTTP    *http.Client
	BaseURL string
	Token   string
}

func NewClient(baseURL string, token string, httpClient *http.Client, log *zap.Logger) *Client {
	return &Client{
		Log:     log,
		HTTP:    httpClient,
		BaseURL: baseURL,
		Token:   token,
	}
}

type apiEnvelope struct {
	Ok          bool                   `json:"ok"`
	Result      sonic.NoCopyRawMessage `json:"result"`
	ErrorCode   int                    `json:"error_code"`
	Description string                 `json:"description"`
}

func (c *Client) call(ctx context.Context, method string, payload interface{}, result interface{}) error {
	body, err := sonic.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.BaseURL, c.Token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	envelope := apiEnvelope{}
	err = sonic.Unmarshal(raw, &envelope)
	if err != nil {
		return fmt.Errorf("telegram: malformed response for %s: %w", method, err)
	}

	if !envelope.Ok {
		return &APIError{Code: envelope.ErrorCode, Description: envelope.Description}
	}

	if result != nil {
		err = sonic.Unmarshal(envelope.Result, result)
		if err != nil {
			return fmt.Errorf("telegram: malformed result for %s: %w", method, err)
		}
	}

	return nil
}

type getUpdatesRequest struct {
	Offset         int64    `json:"offset,omitempty"`
	Timeout        int      `json:"timeout"`
	AllowedUpdates []string `json:"allowed_updates"`
}

func (c *Client) GetUpdates(ctx context.Context, offset int64) ([]model.Update, error) {
	ctx, cancel := context.WithTimeout(ctx, (pollWindow+5)*time.Second)
	defer cancel()

	updates := []model.Update{}
	err := c.call(ctx, "getUpdates", getUpdatesRequest{
		Offset:         offset,
		Timeout:        pollWindow,
		AllowedUpdates: []string{"message", "chat_member"},
	}, &updates)
	if err != nil {
		return nil, err
	}

	return updates, nil
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

func (c *Client) SendMessage(ctx context.Context, chatID string, text string) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	return c.call(ctx, "sendMessage", sendMessageRequest{ChatID: chatID, Text: text}, nil)
}

type banChatMemberRequest struct {
	ChatID string `json:"chat_id"`
	UserID int64  `json:"user_id"`
}

func (c *Client) BanChatMember(ctx context.Context, chatID string, userID int64) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	return c.call(ctx, "banChatMember", banChatMemberRequest{ChatID: chatID, UserID: userID}, nil)
}

type unbanChatMemberRequest struct {
	ChatID       string `json:"chat_id"`
	UserID       int64  `json:"user_id"`
	OnlyIfBanned bool   `json:"only_if_banned"`
}

func (c *Client) UnbanChatMember(ctx context.Context, chatID string, userID int64, onlyIfBanned bool) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	return c.call(ctx, "unbanChatMember", unbanChatMemberRequest{ChatID: chatID, UserID: userID, OnlyIfBanned: onlyIfBanned}, nil)
}

type createChatInviteLinkRequest struct {
	ChatID             string `json:"chat_id"`
	Name               string `json:"name,omitempty"`
	CreatesJoinRequest bool   `json:"creates_join_request"`
}

func (c *Client) CreateChatInviteLink(ctx context.Context, chatID string, name string, createsJoinRequest bool) (model.ChatInviteLink, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	link := model.ChatInviteLink{}
	err := c.call(ctx, "createChatInviteLink", createChatInviteLinkRequest{
		ChatID:             chatID,
		Name:               name,
		CreatesJoinRequest: createsJoinRequest,
	}, &link)
	if err != nil {
		return link, err
	}

	return link, nil
}

type getChatMemberRequest struct {
	ChatID string `json:"chat_id"`
	UserID int64  `json:"user_id"`
}

func (c *Client) GetChatMember(ctx context.Context, chatID string, userID int64) (model.ChatMemberInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	member := model.ChatMemberInfo{}
	err := c.call(ctx, "getChatMember", getChatMemberRequest{ChatID: chatID, UserID: userID}, &member)
	if err != nil {
		return member, err
	}

	return member, nil
}

type setWebhookRequest struct {
	URL            string   `json:"url"`
	SecretToken    string   `json:"secret_token,omitempty"`
	AllowedUpdates []string `json:"allowed_updates"`
}

func (c *Client) SetWebhook(ctx context.Context, url string, secretToken string) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	return c.call(ctx, "setWebhook", setWebhookRequest{
		URL:            url,
		SecretToken:    secretToken,
		AllowedUpdates: []string{"message", "chat_member"},
	}, nil)
}

type deleteWebhookRequest struct {
	DropPendingUpdates bool `json:"drop_pending_updates"`
}

func (c *Client) DeleteWebhook(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	return c.call(ctx, "deleteWebhook", deleteWebhookRequest{}, nil)
}
