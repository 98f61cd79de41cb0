package groqapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"solacedev/httpmiddleware"
	"solacedev/logger"
)

const (
	ASSISTANT = "assistant"
	SYSTEM    = "system"
	USER      = "user"
)

const (
	MODEL_NAME     = "llama-3.3-70b-versatile"
	MAX_TOKENS     = 2048
	defaultBaseURL = "https://api.groq.com/openai/v1"
)

type ChatCompletionInputMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequestInput struct {
	Model       string                       `json:"model"`
	Messages    []ChatCompletionInputMessage `json:"messages"`
	MaxTokens   int                          `json:"max_tokens,omitempty"`
	Temperature *float64                     `json:"temperature,omitempty"`
	TopP        *float64                     `json:"top_p,omitempty"`
}

type GroqResponse struct {
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
}

type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UpstreamError is any non-success answer from the chat provider: transport
// failure, non-2xx status, or a body we could not decode. Body holds the raw
// provider payload for logs; it is never sent to the browser.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("chat completion request failed: %s", e.Body)
	}
	return fmt.Sprintf("chat completion returned status %d: %s", e.Status, e.Body)
}

type GroqConnectProps struct {
	Logger *logger.LogMiddleware
	// BaseURL overrides the Groq endpoint, used by tests. Empty means production.
	BaseURL string
}

type Groq struct {
	logger    *logger.LogMiddleware
	semaphore *semaphore.Weighted
	baseURL   string
}

func Connect(ctx context.Context, args GroqConnectProps) *Groq {
	tracer := otel.Tracer("groqapi/Connect")
	_, span := tracer.Start(ctx, "Connect")
	defer span.End()

	maxWorkers := 10
	sem := semaphore.NewWeighted(int64(maxWorkers))
	span.SetAttributes(attribute.Int("maxWorkers", maxWorkers))

	baseURL := args.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Groq{logger: args.Logger, semaphore: sem, baseURL: baseURL}
}

type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	History      []ChatCompletionInputMessage
	// Sampling overrides. Nil leaves the provider default in place; the
	// transliteration path pins both to zero for repeatable output.
	Temperature *float64
	TopP        *float64
}

// Complete makes exactly one chat-completion call: system prompt, history
// turns in order, then the new user prompt appended last. No retries. A 2xx
// response with no content comes back as "" and a nil error; callers pick
// their own fallback text.
func (g *Groq) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	tracer := otel.Tracer("groqapi/Complete")
	ctx, span := tracer.Start(ctx, "Complete")
	defer span.End()

	span.SetAttributes(
		attribute.Int("history_length", len(req.History)),
		attribute.Int("user_prompt_length", len(req.UserPrompt)),
	)

	messages := make([]ChatCompletionInputMessage, 0, len(req.History)+2)
	messages = append(messages, ChatCompletionInputMessage{Role: SYSTEM, Content: req.SystemPrompt})
	for _, turn := range req.History {
		if turn.Role != USER && turn.Role != ASSISTANT {
			continue
		}
		messages = append(messages, turn)
	}
	messages = append(messages, ChatCompletionInputMessage{Role: USER, Content: req.UserPrompt})

	requestInput := ChatRequestInput{
		Model:       MODEL_NAME,
		Messages:    messages,
		MaxTokens:   MAX_TOKENS,
		Temperature: req.Temperature,
		TopP:        req.TopP,
	}

	jsonData, err := json.Marshal(requestInput)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("could not generate request body: %w", err)
	}

	if err := g.semaphore.Acquire(ctx, 1); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to acquire semaphore: %w", err)
	}
	defer g.semaphore.Release(1)

	respBody, err := httpmiddleware.HttpRequest(ctx, httpmiddleware.HttpRequestStruct{
		Method: "POST",
		Url:    g.baseURL + "/chat/completions",
		Body:   bytes.NewBuffer(jsonData),
		Headers: map[string]string{
			"authorization": "Bearer " + os.Getenv("GROQ_SECRET_KEY"),
			"content-type":  "application/json",
		},
	})
	if err != nil {
		span.RecordError(err)
		g.logger.Logger(ctx).Error("[Groq-API] Chat completion request failed", zap.Error(err))

		var httpErr *httpmiddleware.HttpError
		if errors.As(err, &httpErr) {
			return "", &UpstreamError{Status: httpErr.StatusCode, Body: string(httpErr.Body)}
		}
		return "", &UpstreamError{Body: err.Error()}
	}

	var messageResponse GroqResponse
	if err := json.Unmarshal(respBody, &messageResponse); err != nil {
		span.RecordError(err)
		g.logger.Logger(ctx).Error(
			"[Groq-API] Could not parse chat completion response",
			zap.Error(err),
			zap.String("response_body", string(respBody)),
		)
		return "", &UpstreamError{Status: 200, Body: string(respBody)}
	}

	if len(messageResponse.Choices) == 0 {
		g.logger.Logger(ctx).Warn("[Groq-API] Chat completion returned no choices")
		span.AddEvent("EmptyResponse")
		return "", nil
	}

	span.AddEvent("Request successful")
	return messageResponse.Choices[0].Message.Content, nil
}
