package catalogclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
)

// Client defines the write operations a remote catalog exposes.
type Client interface {
	CreateDirector(ctx context.Context, in domain.DirectorInput) (domain.DirectorView, error)
	CreateMovie(ctx context.Context, in domain.MovieInput) (domain.MovieView, error)
}

// HTTPClient implements Client against the catalog's /v1 API.
type HTTPClient struct {
	baseURL *url.URL
	token   string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPClient constructs a client for the catalog at baseURL. token is sent
// as a bearer credential when non-empty.
func NewHTTPClient(baseURL, token string, timeout time.Duration, logger *zap.Logger) (*HTTPClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse catalog url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("catalog url %q must be absolute", baseURL)
	}
	return &HTTPClient{
		baseURL: parsed,
		token:   token,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		logger: logger,
	}, nil
}

// CreateDirector posts a new director.
func (c *HTTPClient) CreateDirector(ctx context.Context, in domain.DirectorInput) (domain.DirectorView, error) {
	var out domain.DirectorView
	err := c.post(ctx, "/v1/directors", in, &out)
	return out, err
}

// CreateMovie posts a new movie.
func (c *HTTPClient) CreateMovie(ctx context.Context, in domain.MovieInput) (domain.MovieView, error) {
	var out domain.MovieView
	err := c.post(ctx, "/v1/movies", in, &out)
	return out, err
}

func (c *HTTPClient) post(ctx context.Context, path string, body, dst any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	endpoint := c.baseURL.JoinPath(path)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			return fmt.Errorf("decode catalog response: %w", err)
		}
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := decodeAPIError(resp.StatusCode, raw)
	if apiErr.Status >= http.StatusInternalServerError {
		c.logger.Warn("catalog: unexpected status",
			zap.String("path", path),
			zap.Int("status", apiErr.Status),
			zap.String("code", apiErr.Code))
	}
	return apiErr
}
