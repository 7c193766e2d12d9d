package model

// Bot API wire types. Only the fields this service reads are declared; the
// rest of each payload is ignored on decode.

type Update struct {
	UpdateID   int64              `json:"update_id"`
	Message    *Message           `json:"message,omitempty"`
	ChatMember *ChatMemberUpdated `json:"chat_member,omitempty"`
}

type Message struct {
	MessageID      int64    `json:"message_id"`
	From           *TgUser  `json:"from,omitempty"`
	Chat           Chat     `json:"chat"`
	Text           string   `json:"text,omitempty"`
	ReplyToMessage *Message `json:"reply_to_message,omitempty"`
}

type Chat struct {
	ID    int64  `json:"id"`
	Type  string `json:"type,omitempty"`
	Title string `json:"title,omitempty"`
}

type TgUser struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot,omitempty"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
}

type ChatMemberUpdated struct {
	Chat          Chat           `json:"chat"`
	From          TgUser         `json:"from"`
	OldChatMember ChatMemberInfo `json:"old_chat_member"`
	NewChatMember ChatMemberInfo `json:"new_chat_member"`
}

type ChatMemberInfo struct {
	User   TgUser `json:"user"`
	Status string `json:"status"`
}

type ChatInviteLink struct {
	InviteLink         string `json:"invite_link"`
	Name               string `json:"name,omitempty"`
	CreatesJoinRequest bool   `json:"creates_join_request,omitempty"`
}
