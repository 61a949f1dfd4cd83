package port

import "context"

// Mailer delivers transactional mail. Executed from worker context
// only, never from the request path.
type Mailer interface {
	Send(ctx context.Context, recipient, subject, body string) error
}
