package sendgrid

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// apiURL is the fixed v2 mail.send endpoint.
const apiURL = "https://api.sendgrid.com/api/mail.send.json"

// userAgent identifies this client on outbound requests.
const userAgent = "sendgrid-lite"

// SGClient authenticates to the SendGrid API. Its only state is the API
// key, so a single client may be shared across goroutines.
type SGClient struct {
	apiKey     string
	apiURL     string
	httpClient *http.Client
}

// New creates an SGClient with the given API key.
func New(apiKey string) *SGClient {
	return &SGClient{
		apiKey:     apiKey,
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// newWithOverrides creates an SGClient with a custom endpoint and HTTP
// client, used for testing.
func newWithOverrides(apiKey, apiURL string, client *http.Client) *SGClient {
	return &SGClient{apiKey: apiKey, apiURL: apiURL, httpClient: client}
}

// Send delivers the message with a single form-encoded POST and returns
// the raw response body. The body is returned for any transport-level
// success, including non-2xx statuses; callers that care about the
// application-level outcome must inspect the returned JSON themselves.
// There are no retries: encoding failures surface as KindEncoding and
// network failures as KindTransport on the first occurrence.
func (c *SGClient) Send(ctx context.Context, m *Mail) (string, error) {
	const op = "send mail"

	form, err := m.Encode()
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, strings.NewReader(form))
	if err != nil {
		return "", &Error{Kind: KindTransport, Op: op, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &Error{Kind: KindTransport, Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Kind: KindTransport, Op: op, Err: fmt.Errorf("read response: %w", err)}
	}

	slog.Debug("mail.send response", "status", resp.StatusCode, "bytes", len(body))

	return string(body), nil
}
