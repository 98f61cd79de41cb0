package humeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"solacedev/httpmiddleware"
	"solacedev/logger"
)

const defaultBaseURL = "https://api.hume.ai"

// Cloned therapist voices. English is the default; Spanish uses a dedicated
// clone so pronunciation holds up.
const (
	JENNIFER_ENGLISH = "a3d2b3f1-5c7e-4d38-9a34-1b2f80a6d9c1"
	JENNIFER_SPANISH = "c91f26d4-8e0a-4b77-b5d2-4f3a9c517e88"
	VOICE_PROVIDER   = "CUSTOM_VOICE"
)

type Voice struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
}

type Utterance struct {
	Text  string `json:"text"`
	Voice Voice  `json:"voice"`
}

type Format struct {
	Type string `json:"type"`
}

type TTSRequest struct {
	Utterances []Utterance `json:"utterances"`
	Format     Format      `json:"format"`
}

type Generation struct {
	Audio string `json:"audio"`
}

type TTSResponse struct {
	Generations []Generation `json:"generations"`
}

type HumeConnectProps struct {
	Logger *logger.LogMiddleware
	// BaseURL overrides the Hume endpoint, used by tests.
	BaseURL string
}

type Hume struct {
	logger    *logger.LogMiddleware
	semaphore *semaphore.Weighted
	baseURL   string
}

func Connect(ctx context.Context, args HumeConnectProps) *Hume {
	tracer := otel.Tracer("humeapi/Connect")
	_, span := tracer.Start(ctx, "Connect")
	defer span.End()

	maxWorkers := 10
	sem := semaphore.NewWeighted(int64(maxWorkers))
	span.SetAttributes(attribute.Int("maxWorkers", maxWorkers))

	baseURL := args.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Hume{logger: args.Logger, semaphore: sem, baseURL: baseURL}
}

func voiceForLanguage(language string) string {
	if strings.EqualFold(strings.TrimSpace(language), "spanish") {
		return JENNIFER_SPANISH
	}
	return JENNIFER_ENGLISH
}

// GenerateSpeech synthesizes one utterance and returns the base64 MP3 audio
// embedded in the provider's JSON envelope.
func (h *Hume) GenerateSpeech(ctx context.Context, text string, language string) (string, error) {
	tracer := otel.Tracer("humeapi/GenerateSpeech")
	ctx, span := tracer.Start(ctx, "GenerateSpeech")
	defer span.End()

	span.SetAttributes(
		attribute.Int("text_length", len(text)),
		attribute.String("language", language),
	)

	apiKey := os.Getenv("HUME_SECRET_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("HUME_SECRET_KEY environment variable not set")
	}

	if err := h.semaphore.Acquire(ctx, 1); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to acquire semaphore: %w", err)
	}
	defer h.semaphore.Release(1)

	request := TTSRequest{
		Utterances: []Utterance{{
			Text:  text,
			Voice: Voice{ID: voiceForLanguage(language), Provider: VOICE_PROVIDER},
		}},
		Format: Format{Type: "mp3"},
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	respBody, err := httpmiddleware.HttpRequest(ctx, httpmiddleware.HttpRequestStruct{
		Method: "POST",
		Url:    h.baseURL + "/v0/tts",
		Body:   bytes.NewBuffer(jsonData),
		Headers: map[string]string{
			"X-Hume-Api-Key": apiKey,
			"Content-Type":   "application/json",
		},
	})
	if err != nil {
		span.RecordError(err)
		h.logger.Logger(ctx).Error("[Hume-API] Speech generation failed", zap.Error(err))
		return "", err
	}

	var response TTSResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("could not parse speech response: %w", err)
	}

	if len(response.Generations) == 0 || response.Generations[0].Audio == "" {
		return "", fmt.Errorf("speech response contained no audio")
	}

	h.logger.Logger(ctx).Info("[Hume-API] Successfully generated speech",
		zap.Int("audioSize", len(response.Generations[0].Audio)))

	return response.Generations[0].Audio, nil
}
