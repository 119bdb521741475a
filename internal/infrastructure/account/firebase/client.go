package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/matchpoint/club-rank/internal/domain/user"
	basecache "github.com/matchpoint/club-rank/internal/platform/cache"
	"github.com/matchpoint/club-rank/internal/platform/logging"
	"github.com/matchpoint/club-rank/internal/platform/resilience"
	"github.com/matchpoint/club-rank/internal/usecase"
)

// errFirebaseTransient marks failures that should count against the
// circuit breaker (network errors, 5xx). Invalid tokens do not.
var errFirebaseTransient = errors.New("firebase identity lookup transient failure")

type Config struct {
	LookupURL         string
	APIKey            string
	Timeout           time.Duration
	CircuitBreaker    resilience.CircuitBreakerConfig
	PrincipalCacheTTL time.Duration
}

// Client verifies Firebase ID tokens via the Identity Toolkit
// accounts:lookup endpoint.
type Client struct {
	httpClient *http.Client
	lookupURL  string
	apiKey     string
	logger     *logging.Logger
	breaker    *resilience.CircuitBreaker
	principals *basecache.Store
}

func NewClient(httpClient *http.Client, cfg Config, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 3 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	var breaker *resilience.CircuitBreaker
	if cfg.CircuitBreaker.Enabled {
		normalized := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)
		breaker = resilience.NewCircuitBreaker(normalized.FailureThreshold, normalized.OpenTimeout, normalized.HalfOpenMaxReq)
	}

	var principals *basecache.Store
	if cfg.PrincipalCacheTTL > 0 {
		principals = basecache.NewStore(cfg.PrincipalCacheTTL)
	}

	return &Client{
		httpClient: httpClient,
		lookupURL:  strings.TrimSpace(cfg.LookupURL),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		logger:     logger,
		breaker:    breaker,
		principals: principals,
	}
}

func (c *Client) VerifyAccessToken(ctx context.Context, token string) (user.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return user.Principal{}, errors.Wrap(usecase.ErrUnauthorized, "token is required")
	}

	if c.principals == nil {
		return c.lookup(ctx, token)
	}

	// Tokens are cached under their digest so the raw credential never
	// lands in the store keyspace.
	v, err := c.principals.GetOrLoad(ctx, "principal:"+hashToken(token), func(ctx context.Context) (any, error) {
		return c.lookup(ctx, token)
	})
	if err != nil {
		return user.Principal{}, err
	}

	principal, ok := v.(user.Principal)
	if !ok {
		return user.Principal{}, errors.New("unexpected principal cache entry type")
	}

	return principal, nil
}

func (c *Client) lookup(ctx context.Context, token string) (user.Principal, error) {
	if c.breaker != nil {
		if err := c.breaker.Allow(); err != nil {
			return user.Principal{}, errors.Wrap(usecase.ErrDependencyUnavailable, "identity provider circuit open")
		}
	}

	principal, err := c.doLookup(ctx, token)
	if c.breaker != nil {
		if isCircuitFailure(err) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}

	return principal, err
}

func (c *Client) doLookup(ctx context.Context, token string) (user.Principal, error) {
	payload := lookupRequest{IDToken: token}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return user.Principal{}, errors.Wrap(err, "marshal accounts:lookup request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.requestURL(), bytes.NewReader(encoded))
	if err != nil {
		return user.Principal{}, errors.Wrap(err, "create accounts:lookup request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return user.Principal{}, errors.Mark(errors.Wrap(err, "request accounts:lookup"), errFirebaseTransient)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return user.Principal{}, errors.Mark(errors.Wrap(err, "read accounts:lookup response"), errFirebaseTransient)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusBadRequest,
		resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden:
		// Identity Toolkit reports invalid and expired tokens as 400.
		return user.Principal{}, errors.Wrapf(usecase.ErrUnauthorized, "token rejected: %s", lookupErrorMessage(body))
	default:
		c.logger.WarnContext(ctx, "accounts:lookup non-200",
			"status_code", resp.StatusCode,
		)
		return user.Principal{}, errors.Mark(
			errors.Newf("accounts:lookup failed with status %d", resp.StatusCode),
			errFirebaseTransient,
		)
	}

	var decoded lookupResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return user.Principal{}, errors.Wrap(err, "unmarshal accounts:lookup response")
	}
	if len(decoded.Users) == 0 {
		return user.Principal{}, errors.Wrap(usecase.ErrUnauthorized, "token resolved to no account")
	}

	account := decoded.Users[0]
	if account.Disabled {
		return user.Principal{}, errors.Wrap(usecase.ErrUnauthorized, "account is disabled")
	}
	if strings.TrimSpace(account.LocalID) == "" {
		return user.Principal{}, errors.New("invalid accounts:lookup response: localId is empty")
	}

	return user.Principal{
		UserID: account.LocalID,
		Email:  account.Email,
	}, nil
}

func (c *Client) requestURL() string {
	if c.apiKey == "" {
		return c.lookupURL
	}
	return c.lookupURL + "?key=" + c.apiKey
}

type lookupRequest struct {
	IDToken string `json:"idToken"`
}

type lookupResponse struct {
	Users []lookupAccount `json:"users"`
}

type lookupAccount struct {
	LocalID  string `json:"localId"`
	Email    string `json:"email"`
	Disabled bool   `json:"disabled"`
}

type lookupError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func lookupErrorMessage(body []byte) string {
	var decoded lookupError
	if err := json.Unmarshal(body, &decoded); err != nil || decoded.Error.Message == "" {
		return "invalid id token"
	}
	return decoded.Error.Message
}
