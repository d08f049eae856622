package bot

import "time"

// Activity types handled by the messaging endpoint.
const (
	ActivityMessage            = "message"
	ActivityConversationUpdate = "conversationUpdate"
)

// Account identifies a user or bot on a channel.
type Account struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Conversation identifies the conversation an activity belongs to.
type Conversation struct {
	ID string `json:"id"`
}

// Activity is the bot channel message envelope.
type Activity struct {
	Type         string       `json:"type"`
	ID           string       `json:"id,omitempty"`
	Timestamp    *time.Time   `json:"timestamp,omitempty"`
	ChannelID    string       `json:"channelId,omitempty"`
	ServiceURL   string       `json:"serviceUrl,omitempty"`
	From         Account      `json:"from"`
	Recipient    Account      `json:"recipient"`
	Conversation Conversation `json:"conversation"`
	Text         string       `json:"text,omitempty"`
	TextFormat   string       `json:"textFormat,omitempty"`
	ReplyToID    string       `json:"replyToId,omitempty"`
}

// RepliesResponse carries the replies produced for one inbound activity.
type RepliesResponse struct {
	Activities []Activity `json:"activities"`
}

// ErrorResponse is the JSON body for non-activity errors.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
