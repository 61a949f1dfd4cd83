package domain

import "encoding/json"

// Task names known to the worker registry.
const (
	TaskIndexPost     = "search.index_post"
	TaskRemovePost    = "search.remove_post"
	TaskSendResetMail = "mail.send_reset"
)

// Task is a named unit of work executed outside the request cycle.
// Retry tasks are redelivered until they succeed or exhaust the
// queue's delivery budget. Unique tasks carry an idempotency key: at
// most one instance per key may be queued-but-not-started at a time,
// so bursty enqueues of the same target collapse into one delivery.
type Task struct {
	Name   string
	Args   json.RawMessage
	Retry  bool
	Unique bool
	Key    string
}

// IndexPostArgs carries only the identifier; the task body re-reads
// the current row at execution time so racing writes never index a
// stale payload.
type IndexPostArgs struct {
	PostID int64 `json:"post_id"`
}

// RemovePostArgs identifies the document to delete from the index.
type RemovePostArgs struct {
	PostID int64 `json:"post_id"`
}

// SendResetMailArgs carries everything the mail body needs, since the
// worker runs in a fresh context with no request state.
type SendResetMailArgs struct {
	Recipient string `json:"recipient"`
	Username  string `json:"username"`
	Token     string `json:"token"`
}
