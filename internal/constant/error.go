package constant

const (
	ERR_INTERNAL_SERVER_ERROR_CODE    = "INTERNAL_SERVER_ERROR"
	ERR_INTERNAL_SERVER_ERROR_MESSAGE = "Something went wrong. If the problem persists, please contact support"
	ERR_UNAUTHORIZED_ERROR            = "UNAUTHORIZED_ERROR"
)

// User-facing replies sent through the Bot API. Internal error detail is
// logged only and never included in these strings.
const (
	MSG_NOT_OPERATOR        = "Only channel admins can use this command."
	MSG_APPROVE_NEEDS_REPLY = "Please reply to a user's message with /approve"
	MSG_INVITE_NEEDS_HANDLE = "Please specify a username: /invite @username"
	MSG_UNBAN_NEEDS_HANDLE  = "Please specify a username: /unban @username"
	MSG_DEBUG_NEEDS_HANDLE  = "Please specify a username: /debug @username"
	MSG_NO_SUBSCRIPTION     = "No active subscription found. Please visit our website to purchase a subscription."
	MSG_ACCESS_DENIED       = "Access denied. You need a valid subscription to join this channel.\n\nPlease purchase a subscription at our website and try again."
	MSG_COMMAND_FAILED      = "Sorry, something went wrong while handling this command. Please try again later."
)
