package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
)

// HTTPSource fetches prices from a JSON HTTP endpoint.
type HTTPSource struct {
	name       string
	url        string
	pricePath  string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures an HTTPSource.
type Option func(*HTTPSource)

// NewHTTPSource creates a source that GETs url and reads the price from the
// gjson path pricePath (e.g. "data.price").
func NewHTTPSource(name, url, pricePath string, opts ...Option) *HTTPSource {
	s := &HTTPSource{
		name:      name,
		url:       url,
		pricePath: pricePath,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *HTTPSource) {
		s.httpClient = hc
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *HTTPSource) {
		s.logger = logger
	}
}

// Name implements Source.
func (s *HTTPSource) Name() string { return s.name }

// FetchPrice implements Source. The per-fetch deadline comes from ctx; the
// client timeout is only a backstop.
func (s *HTTPSource) FetchPrice(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, &FetchError{Source: s.name, Kind: classifyTransportError(err), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, &FetchError{Source: s.name, Kind: classifyTransportError(err), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, &FetchError{
			Source:     s.name,
			Kind:       KindBadStatus,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	value, err := s.extractPrice(body)
	if err != nil {
		return 0, err
	}

	s.logger.Debug("price fetched",
		"source", s.name,
		"price", value,
	)

	return value, nil
}

// extractPrice pulls the configured price field out of the response body.
// Quoted numbers are accepted since several upstreams return prices as
// strings.
func (s *HTTPSource) extractPrice(body []byte) (float64, error) {
	v := gjson.GetBytes(body, s.pricePath)
	switch {
	case !v.Exists():
		return 0, &FetchError{
			Source: s.name,
			Kind:   KindParse,
			Err:    fmt.Errorf("price field %q not found in payload", s.pricePath),
		}
	case v.Type == gjson.Number:
		return v.Num, nil
	case v.Type == gjson.String:
		f, err := strconv.ParseFloat(v.Str, 64)
		if err != nil {
			return 0, &FetchError{
				Source: s.name,
				Kind:   KindParse,
				Err:    fmt.Errorf("price field %q is not numeric: %w", s.pricePath, err),
			}
		}
		return f, nil
	default:
		return 0, &FetchError{
			Source: s.name,
			Kind:   KindParse,
			Err:    fmt.Errorf("price field %q has non-numeric type %s", s.pricePath, v.Type),
		}
	}
}

// classifyTransportError distinguishes timeouts from other transport
// failures.
func classifyTransportError(err error) Kind {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return KindTimeout
	}
	return KindTransport
}
