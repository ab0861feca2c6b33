// README: Travel-commerce API client with client-credentials auth, fail-fast state and typed errors.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	tokenPath         = "/v1/security/oauth2/token"
	defaultTimeout    = 30 * time.Second
	defaultTicketing  = "6D"
	defaultFlightsMax = 10
)

// Config configures a Client. An empty ClientID or ClientSecret yields an
// uninitialized client.
type Config struct {
	BaseURL        string
	ClientID       string
	ClientSecret   string
	TicketingDelay string
	Timeout        time.Duration
	// HTTPClient overrides the transport used for both token and API calls.
	HTTPClient *http.Client
}

// State is fixed at construction and never mutated.
type State struct {
	Initialized        bool
	CredentialsPresent bool
}

// Client is safe for concurrent use. Build one per process and share it.
type Client struct {
	baseURL        string
	ticketingDelay string
	state          State
	http           *http.Client
	log            *zap.Logger
	now            func() time.Time

	authDisabled atomic.Bool
}

// New builds a client. It performs no I/O; the first token is fetched on
// the first call.
func New(cfg Config, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		ticketingDelay: cfg.TicketingDelay,
		log:            log.Named("provider"),
		now:            time.Now,
	}
	if c.ticketingDelay == "" {
		c.ticketingDelay = defaultTicketing
	}
	c.state.CredentialsPresent = cfg.ClientID != "" && cfg.ClientSecret != ""
	c.state.Initialized = c.state.CredentialsPresent && c.baseURL != ""
	if !c.state.Initialized {
		c.log.Warn("travel provider not initialized; searches will fall back",
			zap.Bool("credentials_present", c.state.CredentialsPresent))
		return c
	}

	base := cfg.HTTPClient
	if base == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		base = &http.Client{Timeout: timeout}
	}
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     c.baseURL + tokenPath,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	c.http = cc.Client(tokenCtx)
	c.http.Timeout = base.Timeout
	return c
}

// State reports how the client was configured.
func (c *Client) State() State { return c.state }

// AuthDisabled reports whether credentials were rejected since startup.
func (c *Client) AuthDisabled() bool { return c.authDisabled.Load() }

type errorBody struct {
	Errors []struct {
		Status int    `json:"status"`
		Code   int    `json:"code"`
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

// errNotFound marks a 404; callers turn it into an empty result.
var errNotFound = errors.New("provider: not found")

func (c *Client) ready(op string) error {
	if !c.state.Initialized {
		return ErrNotInitialized
	}
	if c.authDisabled.Load() {
		return &RequestError{Kind: KindAuth, Op: op, Err: ErrAuthDisabled}
	}
	return nil
}

// do sends one request and decodes a 2xx body into out. There are no
// retries: booking creation is not idempotent.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	if err := c.ready(op); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &RequestError{Kind: KindBadRequest, Op: op, Err: err}
		}
		reader = bytes.NewReader(payload)
	}
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return &RequestError{Kind: KindBadRequest, Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/vnd.amadeus+json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) {
			status := 0
			if rerr.Response != nil {
				status = rerr.Response.StatusCode
			}
			if credentialsRejected(status, rerr.ErrorCode) {
				return c.authFailure(op, status, err)
			}
			return &RequestError{Kind: KindUpstream, Op: op, StatusCode: status, Err: err}
		}
		return &RequestError{Kind: KindUpstream, Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RequestError{Kind: KindUpstream, Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	c.log.Debug("provider call",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return &RequestError{Kind: KindUpstream, Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
		}
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return errNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return c.authFailure(op, resp.StatusCode, nil)
	}

	re := &RequestError{Kind: KindUpstream, Op: op, StatusCode: resp.StatusCode}
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		re.Kind = KindBadRequest
	}
	var eb errorBody
	if json.Unmarshal(raw, &eb) == nil && len(eb.Errors) > 0 {
		re.Code, re.Title, re.Detail = eb.Errors[0].Code, eb.Errors[0].Title, eb.Errors[0].Detail
	}
	return re
}

// credentialsRejected reports whether a token endpoint failure means the
// credentials are bad, as opposed to the endpoint being unavailable.
func credentialsRejected(status int, code string) bool {
	switch code {
	case "invalid_client", "unauthorized_client":
		return true
	}
	switch status {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		return true
	}
	return false
}

func (c *Client) authFailure(op string, status int, err error) error {
	if c.authDisabled.CompareAndSwap(false, true) {
		c.log.Error("travel provider rejected credentials; disabling further calls",
			zap.String("op", op), zap.Int("status", status))
	}
	return &RequestError{Kind: KindAuth, Op: op, StatusCode: status, Err: err}
}
