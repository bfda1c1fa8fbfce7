package notify

import "context"

// Transport carries a single message to a recipient. Implementations must
// honor ctx deadlines; the recorder bounds every send with a timeout.
type Transport interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// NoopTransport reports every send as delivered without doing anything.
// Used in development mode when no SMTP host is configured.
type NoopTransport struct{}

func (NoopTransport) Send(context.Context, string, string, string) error { return nil }
