package sms

import "context"

// Client defines an interface for sending a text message to a phone number.
// This decouples the application logic from the concrete SMS provider.
// Sends are fire-and-forget: the core awaits only the provider's immediate
// accept/reject, never a delivery receipt.
type Client interface {
	Send(ctx context.Context, phoneNumber string, body string) error
}
