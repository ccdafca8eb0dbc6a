package domain

import "time"

type SessionID string
type MessageID string

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// FeedbackKind is the literal value the webhook expects in the
// feedback query string.
type FeedbackKind string

const (
	FeedbackLike    FeedbackKind = "👍"
	FeedbackDislike FeedbackKind = "👎"
)

type Timestamp = time.Time
