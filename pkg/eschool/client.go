package eschool

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/reschool/eschool-gateway/pkg/domain"
)

const (
	// DefaultBaseURL is the production eschool API root.
	DefaultBaseURL = "https://app.eschool.center/ec-server"

	userAgent = "eSchoolMobile"
	origin    = "https://app.eschool.center"

	sessionCookieName = "JSESSIONID"

	// The mobile client telemetry the login endpoint expects.
	clientVersion = "7.4.0"
	deviceIDLen   = 16
	pushTokenLen  = 152
)

const randomChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Client performs the authenticated calls against the eschool upstream.
// It is stateless: the session to attach is passed per call.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates an upstream client. A zero timeout falls back to 30s so
// a stalled upstream call cannot hold a request forever.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// devicePayload is the synthetic device descriptor submitted at login. The
// upstream profiles clients by it, so the fields mirror what the official
// mobile app sends.
type devicePayload struct {
	CliType     string `json:"cliType"`
	CliVer      string `json:"cliVer"`
	PushToken   string `json:"pushToken"`
	DeviceID    string `json:"deviceId"`
	DeviceName  string `json:"deviceName"`
	DeviceModel string `json:"deviceModel"`
	CliOs       string `json:"cliOs"`
	CliOsVer    string `json:"cliOsVer"`
}

// Login authenticates with the configured account and returns the session
// cookies the upstream issued. The password crosses the wire as its SHA-256
// hex digest; the device identity is randomized per attempt.
func (c *Client) Login(ctx context.Context, username, password string) (*domain.UpstreamSession, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: missing credentials", domain.ErrLoginFailed)
	}

	device, err := json.Marshal(devicePayload{
		CliType:     "mobile",
		CliVer:      clientVersion,
		PushToken:   randomString(pushTokenLen),
		DeviceID:    strings.ToLower(randomString(deviceIDLen)),
		DeviceName:  "-",
		DeviceModel: randomDeviceModel(),
		CliOs:       "android",
		CliOsVer:    "9",
	})
	if err != nil {
		return nil, err
	}

	form := url.Values{
		"username": {username},
		"password": {sha256Hex(password)},
		"device":   {string(device)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	c.setCommonHeaders(req)
	req.Header.Set("Accept-Language", "ru-RU,en,*")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", domain.ErrLoginFailed, resp.StatusCode)
	}

	cookies := make(map[string]string)
	for _, ck := range resp.Cookies() {
		cookies[ck.Name] = ck.Value
	}

	// The upstream does not reliably set the expected cookie name, so a
	// non-trivial body also counts as success.
	if _, ok := cookies[sessionCookieName]; !ok && len(body) <= 5 {
		return nil, fmt.Errorf("%w: no session in response", domain.ErrLoginFailed)
	}

	return &domain.UpstreamSession{Cookies: cookies}, nil
}

// State fetches the authenticated account state, the cheapest way to prove
// a session is still alive.
func (c *Client) State(ctx context.Context, session *domain.UpstreamSession) (*domain.UpstreamState, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/state", nil)
	if err != nil {
		return nil, err
	}
	c.setCommonHeaders(req)
	attachSession(req, session)

	var state domain.UpstreamState
	if err := c.do(req, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Threads lists the 50 most recently active conversation threads.
func (c *Client) Threads(ctx context.Context, session *domain.UpstreamSession) ([]domain.ThreadSummary, error) {
	u := c.baseURL + "/chat/threads?newOnly=false&row=0&rowsCount=50"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	c.setCommonHeaders(req)
	attachSession(req, session)

	var threads []domain.ThreadSummary
	if err := c.do(req, &threads); err != nil {
		return nil, err
	}
	return threads, nil
}

// ThreadMessages fetches the 50 most recent messages of one thread.
func (c *Client) ThreadMessages(ctx context.Context, session *domain.UpstreamSession, threadID int64) ([]domain.ThreadMessage, error) {
	u := fmt.Sprintf("%s/chat/messages?getNew=false&isSearch=false&rowStart=0&rowsCount=50&threadId=%d", c.baseURL, threadID)
	body := strings.NewReader(`{"msgNums":null,"searchText":null}`)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u, body)
	if err != nil {
		return nil, err
	}
	c.setCommonHeaders(req)
	attachSession(req, session)
	req.Header.Set("Content-Type", "application/json")

	var messages []domain.ThreadMessage
	if err := c.do(req, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// do executes a request and decodes a JSON response into out. A 401 is the
// sole expiry signal the upstream gives.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return domain.ErrUpstreamUnauthorized
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", domain.ErrUpstreamUnavailable, err)
	}
	return nil
}

func (c *Client) setCommonHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Origin", origin)
	req.Header.Set("Referer", origin+"/")
}

func attachSession(req *http.Request, session *domain.UpstreamSession) {
	if session == nil {
		return
	}
	for name, value := range session.Cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func randomString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = randomChars[rand.Intn(len(randomChars))]
	}
	return string(b)
}
