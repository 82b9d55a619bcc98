package threads

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/blacktop/threadpost/internal/logutil"
	"github.com/dghubble/sling"
	"github.com/google/go-querystring/query"
	"github.com/hashicorp/go-cleanhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Request describes a single call against the API.
type Request struct {
	Method string
	Path   string
	// Query is a struct with `url` tags, encoded with go-querystring.
	Query any
	// Body is encoded as JSON when non-nil.
	Body   any
	Header http.Header
}

// Values returns the encoded query parameters of the request.
func (r Request) Values() (url.Values, error) {
	if r.Query == nil {
		return url.Values{}, nil
	}
	return query.Values(r.Query)
}

// Transport performs authenticated calls against the API. Implementations
// must return a *RemoteError for every failed call.
type Transport interface {
	Do(ctx context.Context, req Request, out any) error
	Close() error
}

// TransportConfig configures an HTTPTransport.
type TransportConfig struct {
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
	// HTTPClient overrides the pooled client built from Timeout.
	HTTPClient *http.Client
}

// HTTPTransport is the default Transport. It is safe for concurrent use.
type HTTPTransport struct {
	api    *sling.Sling
	client *http.Client

	mu    sync.RWMutex
	token string
}

// NewHTTPTransport builds a transport rooted at cfg.BaseURL.
func NewHTTPTransport(cfg TransportConfig) *HTTPTransport {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(cleanhttp.DefaultPooledTransport()),
		}
	}

	base := strings.TrimRight(cfg.BaseURL, "/") + "/"
	return &HTTPTransport{
		api:    sling.New().Client(httpClient).Base(base).Set("Accept", "application/json"),
		client: httpClient,
		token:  cfg.AccessToken,
	}
}

// AccessToken returns the bearer token currently attached to requests.
func (t *HTTPTransport) AccessToken() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.token
}

// SetAccessToken swaps the bearer token for subsequent requests.
func (t *HTTPTransport) SetAccessToken(token string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.token = token
}

// Do sends req and decodes a successful JSON response into out, which may be nil.
func (t *HTTPTransport) Do(ctx context.Context, req Request, out any) error {
	path := strings.TrimLeft(req.Path, "/")

	s := t.api.New().Set("Authorization", "Bearer "+t.AccessToken())
	switch req.Method {
	case http.MethodGet, "":
		s = s.Get(path)
	case http.MethodPost:
		s = s.Post(path)
	case http.MethodPut:
		s = s.Put(path)
	case http.MethodPatch:
		s = s.Patch(path)
	case http.MethodDelete:
		s = s.Delete(path)
	default:
		return &RemoteError{
			Class:  ClassPermanent,
			Method: req.Method,
			Path:   req.Path,
			Err:    fmt.Errorf("unsupported method %q", req.Method),
		}
	}
	if req.Query != nil {
		s = s.QueryStruct(req.Query)
	}
	if req.Body != nil {
		s = s.BodyJSON(req.Body)
	}
	for key, values := range req.Header {
		if http.CanonicalHeaderKey(key) == "Authorization" {
			continue
		}
		for _, value := range values {
			s = s.Add(key, value)
		}
	}

	httpReq, err := s.Request()
	if err != nil {
		return &RemoteError{Class: ClassPermanent, Method: req.Method, Path: req.Path, Err: fmt.Errorf("build request: %w", err)}
	}
	httpReq = httpReq.WithContext(ctx)
	logutil.Debugf("request: method=%s path=%s query=%s", httpReq.Method, httpReq.URL.Path, redactQuery(httpReq.URL.Query()))

	var failure errorEnvelope
	resp, err := s.Do(httpReq, out, &failure)
	if resp == nil {
		return &RemoteError{
			Class:  Classify(0, APIError{}),
			Method: httpReq.Method,
			Path:   req.Path,
			Err:    err,
		}
	}
	logutil.Debugf("response: method=%s path=%s status=%d", httpReq.Method, req.Path, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rerr := &RemoteError{
			Class:      Classify(resp.StatusCode, failure.Error),
			Method:     httpReq.Method,
			Path:       req.Path,
			StatusCode: resp.StatusCode,
			Payload:    failure.Error,
		}
		if err != nil {
			rerr.Err = fmt.Errorf("decode error body: %w", err)
		}
		return rerr
	}
	if err != nil {
		return &RemoteError{
			Class:      ClassPermanent,
			Method:     httpReq.Method,
			Path:       req.Path,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("decode response: %w", err),
		}
	}
	return nil
}

// Query parameters that carry credentials and must never be logged.
var secretParams = []string{"access_token", "client_secret", "code"}

func redactQuery(values url.Values) string {
	for _, key := range secretParams {
		if values.Has(key) {
			values.Set(key, "REDACTED")
		}
	}
	return values.Encode()
}

// Close releases idle connections held by the underlying HTTP client.
func (t *HTTPTransport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}
