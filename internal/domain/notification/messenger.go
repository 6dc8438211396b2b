package notification

import "context"

// Messenger delivers push notifications to user devices. The service only
// depends on this interface; the FCM client in infrastructure/firebase is
// the production implementation, and a nil Messenger disables push entirely.
type Messenger interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) error
	SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) error
}
