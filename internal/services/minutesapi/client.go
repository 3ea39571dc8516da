package minutesapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"minutes/internal/api"
	"minutes/internal/config"
	"minutes/internal/intake"
	"minutes/internal/logging"
	"minutes/internal/services"
)

const component = "minutesapi"

// UploadField is the multipart form field carrying the recording.
const UploadField = "audio"

// RequestIDHeader carries the client correlation id on every request.
const RequestIDHeader = "X-Request-ID"

// HTTPDoer describes the HTTP client used to reach the backend.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the minutes backend.
type Client struct {
	base   *url.URL
	http   HTTPDoer
	logger *slog.Logger
	newID  func() string
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.http = doer
		}
	}
}

// WithLogger attaches a logger for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, component)
	}
}

// WithRequestIDs overrides request id generation.
func WithRequestIDs(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// New constructs a client for the backend at baseURL. A zero timeout leaves
// requests bounded only by the caller's context.
func New(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, component, "init", "server url is empty", nil)
	}
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, component, "init", "parse server url", err)
	}
	base.Path = strings.TrimRight(base.Path, "/")
	base.RawQuery = ""
	base.Fragment = ""

	c := &Client{
		base:   base,
		http:   &http.Client{Timeout: timeout},
		logger: logging.NewComponentLogger(nil, component),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewFromConfig builds a client from the [server] section.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, component, "init", "config is nil", nil)
	}
	return New(cfg.Server.URL, cfg.RequestTimeout(), WithLogger(logger))
}

// BaseURL returns the backend address the client targets.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Upload posts the recording as multipart form data.
func (c *Client) Upload(ctx context.Context, file intake.File) (api.UploadResponse, error) {
	src, err := file.Open()
	if err != nil {
		return api.UploadResponse{}, services.Wrap(services.ErrValidation, component, "upload", "open recording", err)
	}
	defer src.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(UploadField, file.Name)
	if err != nil {
		return api.UploadResponse{}, services.Wrap(services.ErrValidation, component, "upload", "build form", err)
	}
	if _, err := io.Copy(part, src); err != nil {
		return api.UploadResponse{}, services.Wrap(services.ErrValidation, component, "upload", "read recording", err)
	}
	if err := writer.Close(); err != nil {
		return api.UploadResponse{}, services.Wrap(services.ErrValidation, component, "upload", "finish form", err)
	}

	var resp api.UploadResponse
	if err := c.do(ctx, "upload", http.MethodPost, "/upload", writer.FormDataContentType(), &body, &resp); err != nil {
		return api.UploadResponse{}, err
	}
	if strings.TrimSpace(resp.JobID) == "" {
		return api.UploadResponse{}, services.Wrap(services.ErrDecode, component, "upload", "response missing job_id", nil)
	}
	return resp, nil
}

// Process runs transcription and extraction for the job and blocks until the
// backend answers.
func (c *Client) Process(ctx context.Context, jobID string) (api.ProcessResponse, error) {
	var resp api.ProcessResponse
	if err := c.do(ctx, "process", http.MethodPost, jobPath("/process", jobID), "", nil, &resp); err != nil {
		return api.ProcessResponse{}, err
	}
	return resp, nil
}

// Confirm sends the results back unchanged for the job.
func (c *Client) Confirm(ctx context.Context, jobID string, results api.MeetingResults) error {
	payload, err := confirmPayload(results)
	if err != nil {
		return services.Wrap(services.ErrValidation, component, "confirm", "encode results", err)
	}
	return c.do(ctx, "confirm", http.MethodPost, jobPath("/confirm", jobID), "application/json", bytes.NewReader(payload), nil)
}

// Export fetches the markdown document for the job.
func (c *Client) Export(ctx context.Context, jobID string) (api.ExportDocument, error) {
	var doc api.ExportDocument
	if err := c.do(ctx, "export", http.MethodGet, jobPath("/export", jobID), "", nil, &doc); err != nil {
		return api.ExportDocument{}, err
	}
	return doc, nil
}

// Status reports the backend's view of the job.
func (c *Client) Status(ctx context.Context, jobID string) (api.JobStatus, error) {
	var status api.JobStatus
	if err := c.do(ctx, "status", http.MethodGet, jobPath("/status", jobID), "", nil, &status); err != nil {
		return api.JobStatus{}, err
	}
	return status, nil
}

// Results refetches stored results for a processed job.
func (c *Client) Results(ctx context.Context, jobID string) (api.ResultsResponse, error) {
	var resp api.ResultsResponse
	if err := c.do(ctx, "results", http.MethodGet, jobPath("/results", jobID), "", nil, &resp); err != nil {
		return api.ResultsResponse{}, err
	}
	return resp, nil
}

// Ping checks that the backend answers HTTP at its base URL.
func (c *Client) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/", "", nil)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, component, "ping", "build request", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransport, component, "ping", "request failed", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= http.StatusInternalServerError {
		return &StatusError{Operation: "ping", StatusCode: resp.StatusCode, Message: fallbackMessage("ping", resp.StatusCode)}
	}
	return nil
}

func (c *Client) do(ctx context.Context, operation, method, path, contentType string, body io.Reader, out any) error {
	req, err := c.newRequest(ctx, method, path, contentType, body)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, component, operation, "build request", err)
	}
	requestID := req.Header.Get(RequestIDHeader)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("backend request failed",
			logging.String(logging.FieldOperation, operation),
			logging.String(logging.FieldCorrelationID, requestID),
			logging.Error(err),
		)
		return services.Wrap(services.ErrTransport, component, operation, "request failed", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("backend request completed",
		logging.String(logging.FieldOperation, operation),
		logging.String(logging.FieldCorrelationID, requestID),
		logging.Int("status", resp.StatusCode),
		logging.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newStatusError(operation, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrDecode, component, operation, "decode response", err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Request, error) {
	endpoint := *c.base
	endpoint.Path = c.base.Path + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	requestID, ok := services.RequestIDFromContext(ctx)
	if !ok {
		requestID = c.newID()
	}
	req.Header.Set(RequestIDHeader, requestID)
	return req, nil
}

func jobPath(prefix, jobID string) string {
	return prefix + "/" + url.PathEscape(strings.TrimSpace(jobID))
}

// confirmPayload echoes the results the backend sent when they are held,
// and encodes the decoded fields otherwise.
func confirmPayload(results api.MeetingResults) ([]byte, error) {
	if len(results.Raw) > 0 {
		payload := make([]byte, 0, len(results.Raw)+len(`{"results":}`))
		payload = append(payload, `{"results":`...)
		payload = append(payload, results.Raw...)
		return append(payload, '}'), nil
	}
	return json.Marshal(api.ConfirmRequest{Results: normalizeResults(results)})
}

// normalizeResults keeps confirm payloads shaped like the backend output:
// empty lists serialize as [] rather than null.
func normalizeResults(results api.MeetingResults) api.MeetingResults {
	if results.Decisions == nil {
		results.Decisions = []api.Decision{}
	}
	if results.ActionItems == nil {
		results.ActionItems = []api.ActionItem{}
	}
	return results
}

// IsUnavailable reports whether err means the backend could not be reached.
func IsUnavailable(err error) bool {
	return errors.Is(err, services.ErrTransport)
}

// UserMessage returns the text to show a person for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var statusErr *StatusError
	switch {
	case errors.As(err, &statusErr):
		return statusErr.Message
	case errors.Is(err, context.Canceled):
		return "Request cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return "Request timed out"
	case errors.Is(err, services.ErrTransport):
		return "Could not reach the minutes server"
	case errors.Is(err, services.ErrDecode):
		return "Unexpected response from the minutes server"
	default:
		return err.Error()
	}
}
