package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultBaseURL is where the analysis service listens unless overridden.
	DefaultBaseURL = "http://localhost:8080"

	uploadPath = "/upload"
	chatPath   = "/chat"

	maxErrorBodyBytes = 512
)

// RequestIDHeader carries the client-side request token to the backend.
const RequestIDHeader = "X-Request-ID"

// Config describes how to build a backend client.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Client talks to the analysis service.
type Client interface {
	// Upload sends the file and a question about it to the upload endpoint.
	Upload(ctx context.Context, requestID string, file File, question string) (string, error)
	// Chat sends a freeform question to the chat endpoint.
	Chat(ctx context.Context, requestID string, query string) (string, error)
	Name() string
}

// RequestError reports any failure of an endpoint call: transport errors,
// non-2xx statuses, and malformed bodies alike.
type RequestError struct {
	Endpoint   string
	StatusCode int
	Body       string
	Err        error
}

func (e *RequestError) Error() string {
	var b strings.Builder
	b.WriteString(e.Endpoint)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.Body != "" {
		fmt.Fprintf(&b, " (%s)", e.Body)
	}
	return b.String()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

var errMissingAnswer = errors.New("response has no answer field")

// New builds an HTTP client for the given configuration.
func New(cfg Config) Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &httpClient{
		base:   base,
		client: pickHTTPClient(cfg.HTTPClient),
	}
}

func pickHTTPClient(custom *http.Client) *http.Client {
	if custom != nil {
		return custom
	}
	// No client-wide Timeout: the caller's context is the only deadline, so a
	// disabled session timeout really waits forever.
	return &http.Client{}
}

type httpClient struct {
	base   string
	client *http.Client
}

func (c *httpClient) Name() string {
	return c.base
}

func (c *httpClient) Upload(ctx context.Context, requestID string, file File, question string) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", file.Name)
	if err != nil {
		return "", c.fail(uploadPath, fmt.Errorf("create file field: %w", err))
	}
	if _, err := part.Write(file.Data); err != nil {
		return "", c.fail(uploadPath, fmt.Errorf("copy file: %w", err))
	}
	if err := writer.WriteField("question", question); err != nil {
		return "", c.fail(uploadPath, fmt.Errorf("write question field: %w", err))
	}
	if err := writer.Close(); err != nil {
		return "", c.fail(uploadPath, fmt.Errorf("close multipart writer: %w", err))
	}
	return c.post(ctx, uploadPath, requestID, writer.FormDataContentType(), &buf)
}

func (c *httpClient) Chat(ctx context.Context, requestID string, query string) (string, error) {
	buf, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return "", c.fail(chatPath, err)
	}
	return c.post(ctx, chatPath, requestID, "application/json", bytes.NewReader(buf))
}

func (c *httpClient) post(ctx context.Context, path, requestID, contentType string, body io.Reader) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, body)
	if err != nil {
		return "", c.fail(path, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if requestID != "" {
		req.Header.Set(RequestIDHeader, requestID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", c.fail(path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &RequestError{Endpoint: path, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &RequestError{
			Endpoint:   path,
			StatusCode: resp.StatusCode,
			Body:       excerpt(raw),
			Err:        errors.New(resp.Status),
		}
	}

	var parsed struct {
		Answer *string `json:"answer"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &RequestError{Endpoint: path, StatusCode: resp.StatusCode, Body: excerpt(raw), Err: err}
	}
	if parsed.Answer == nil {
		return "", &RequestError{Endpoint: path, StatusCode: resp.StatusCode, Body: excerpt(raw), Err: errMissingAnswer}
	}
	return *parsed.Answer, nil
}

func (c *httpClient) fail(path string, err error) error {
	return &RequestError{Endpoint: path, Err: err}
}

func excerpt(raw []byte) string {
	text := strings.TrimSpace(string(raw))
	if len(text) <= maxErrorBodyBytes {
		return text
	}
	cut := maxErrorBodyBytes
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "…"
}
