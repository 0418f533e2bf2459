package sms

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// TwilioClient implements the domain sms.Client interface against the
// Twilio-compatible Messages REST endpoint. One Send is one attempt: the
// caller's context bounds the call, and any non-2xx or transport error is
// returned as a failure without retrying.
type TwilioClient struct {
	httpClient *http.Client
	accountSID string
	authToken  string
	fromNumber string
	baseURL    string
}

func NewTwilioClient(accountSID, authToken, fromNumber, baseURL string) *TwilioClient {
	return &TwilioClient{
		httpClient: &http.Client{},
		accountSID: accountSID,
		authToken:  authToken,
		fromNumber: fromNumber,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Send posts one outbound message. Only the provider's immediate
// accept/reject is awaited; delivery receipts are not tracked.
func (c *TwilioClient) Send(ctx context.Context, phoneNumber string, body string) error {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, c.accountSID)

	form := url.Values{}
	form.Set("To", phoneNumber)
	form.Set("From", c.fromNumber)
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build SMS request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("SMS request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		// Keep a slice of the provider's error body for the failure reason.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("SMS provider rejected send (status %d): %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return nil
}
