package models

// NoticeLevel classifies a Notice for display.
type NoticeLevel string

// Notice levels.
const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Mutation and refresh operation names carried by notices and errors.
const (
	OpCreate  = "create"
	OpUpdate  = "update"
	OpDelete  = "delete"
	OpRefresh = "refresh"
)

// Notice reports the outcome of a user action to the presentation layer.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Op      string      `json:"op"`
	BookID  string      `json:"book_id,omitempty"`
	Message string      `json:"message"`
}
