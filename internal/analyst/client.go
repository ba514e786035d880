package analyst

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/analystbot/analystbot/internal/observability"
)

const (
	requestIDHeader = "X-Snowflake-Request-Id"
	tokenTypeHeader = "X-Snowflake-Authorization-Token-Type"

	DefaultTokenType = "PROGRAMMATIC_ACCESS_TOKEN"
)

// SemanticModel locates the semantic model file on a warehouse stage.
type SemanticModel struct {
	Database string
	Schema   string
	Stage    string
	File     string
}

// String renders the stage reference, e.g. "@DB.SCHEMA.STAGE/model.yaml".
func (m SemanticModel) String() string {
	return fmt.Sprintf("@%s.%s.%s/%s", m.Database, m.Schema, m.Stage, m.File)
}

func (m SemanticModel) validate() error {
	if strings.TrimSpace(m.Database) == "" || strings.TrimSpace(m.Schema) == "" ||
		strings.TrimSpace(m.Stage) == "" || strings.TrimSpace(m.File) == "" {
		return fmt.Errorf("semantic model database, schema, stage and file are required")
	}
	return nil
}

type Config struct {
	Endpoint  string
	Token     string
	TokenType string
	Model     SemanticModel
	Timeout   time.Duration

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Response is a decoded analyst answer.
type Response struct {
	RequestID string
	Content   []ContentItem
	Warnings  []string
}

// Asker is implemented by Client and by test fakes.
type Asker interface {
	Ask(ctx context.Context, question string) (Response, error)
}

type Client struct {
	endpoint  string
	token     string
	tokenType string
	model     string
	client    *http.Client
	logger    *slog.Logger
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, fmt.Errorf("analyst endpoint is required")
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, fmt.Errorf("analyst token is required")
	}
	if err := cfg.Model.validate(); err != nil {
		return nil, err
	}
	tokenType := strings.TrimSpace(cfg.TokenType)
	if tokenType == "" {
		tokenType = DefaultTokenType
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = observability.DiscardLogger()
	}
	return &Client{
		endpoint:  strings.TrimSpace(cfg.Endpoint),
		token:     strings.TrimSpace(cfg.Token),
		tokenType: tokenType,
		model:     cfg.Model.String(),
		client:    httpClient,
		logger:    logger,
	}, nil
}

type messageRequest struct {
	Messages          []requestMessage `json:"messages"`
	SemanticModelFile string           `json:"semantic_model_file"`
}

type requestMessage struct {
	Role    string           `json:"role"`
	Content []requestContent `json:"content"`
}

type requestContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type messageResponse struct {
	Message struct {
		Role    string            `json:"role"`
		Content []json.RawMessage `json:"content"`
	} `json:"message"`
	Warnings []struct {
		Message string `json:"message"`
	} `json:"warnings"`
}

// Ask sends one question and blocks until the service replies. There is no
// retry; a non-200 reply is returned as *RequestError.
func (c *Client) Ask(ctx context.Context, question string) (Response, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Response{}, fmt.Errorf("question is required")
	}

	payload := messageRequest{
		Messages: []requestMessage{{
			Role:    "user",
			Content: []requestContent{{Type: "text", Text: question}},
		}},
		SemanticModelFile: c.model,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Response{}, fmt.Errorf("marshal analyst request: %w", err)
	}
	c.logger.DebugContext(ctx, "analyst_request",
		slog.String("trace_id", observability.TraceIDFromContext(ctx)),
		slog.String("body", string(body)),
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("build analyst request: %w", err)
	}
	httpReq.Header.Set(tokenTypeHeader, c.tokenType)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		observability.ObserveAnalystRequest(0, time.Since(start))
		return Response{}, fmt.Errorf("request analyst message: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	observability.ObserveAnalystRequest(resp.StatusCode, time.Since(start))

	requestID := resp.Header.Get(requestIDHeader)
	rawRespBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("read analyst response body (request id %s): %w", requestID, err)
	}
	if resp.StatusCode != http.StatusOK {
		return Response{}, &RequestError{
			StatusCode: resp.StatusCode,
			RequestID:  requestID,
			Body:       string(rawRespBody),
		}
	}
	c.logger.DebugContext(ctx, "analyst_response",
		slog.String("trace_id", observability.TraceIDFromContext(ctx)),
		slog.String("request_id", requestID),
		slog.String("body", string(rawRespBody)),
	)

	var parsed messageResponse
	if err := json.Unmarshal(rawRespBody, &parsed); err != nil {
		return Response{}, fmt.Errorf("decode analyst response (request id %s): %w", requestID, err)
	}
	content, err := decodeContent(parsed.Message.Content)
	if err != nil {
		return Response{}, fmt.Errorf("decode analyst response (request id %s): %w", requestID, err)
	}

	warnings := make([]string, 0, len(parsed.Warnings))
	for _, warning := range parsed.Warnings {
		warnings = append(warnings, warning.Message)
	}
	return Response{
		RequestID: requestID,
		Content:   content,
		Warnings:  warnings,
	}, nil
}
