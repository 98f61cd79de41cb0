package elevenlabsapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"solacedev/httpmiddleware"
	"solacedev/logger"
)

const (
	defaultBaseURL = "https://api.elevenlabs.io"
	// Multilingual voice used for the languages the cloning backend does not cover.
	JENNIFER_MULTILINGUAL = "EXAVITQu4vr4xnSDxMaL"
)

type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Speed           float64 `json:"speed"`
}

type TTSRequest struct {
	Text          string        `json:"text"`
	VoiceSettings VoiceSettings `json:"voice_settings"`
}

type ElevenLabsConnectProps struct {
	Logger *logger.LogMiddleware
	// BaseURL overrides the ElevenLabs endpoint, used by tests.
	BaseURL string
}

type ElevenLabs struct {
	logger    *logger.LogMiddleware
	semaphore *semaphore.Weighted
	baseURL   string
}

func Connect(ctx context.Context, args ElevenLabsConnectProps) *ElevenLabs {
	tracer := otel.Tracer("elevenlabsapi/Connect")
	_, span := tracer.Start(ctx, "Connect")
	defer span.End()

	maxWorkers := 10
	sem := semaphore.NewWeighted(int64(maxWorkers))
	span.SetAttributes(attribute.Int("maxWorkers", maxWorkers))

	baseURL := args.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &ElevenLabs{logger: args.Logger, semaphore: sem, baseURL: baseURL}
}

// credentials returns the ordered key list: primary first, then the backup
// key kept on the account for its independent rate limit.
func credentials() []string {
	return []string{
		os.Getenv("ELEVENLABS_SECRET_KEY"),
		os.Getenv("ELEVENLABS_SECRET_KEY_BACKUP"),
	}
}

// GenerateSpeech synthesizes text to MP3 and returns it base64-encoded. Each
// credential in order gets exactly one attempt; the first success wins.
func (e *ElevenLabs) GenerateSpeech(ctx context.Context, text string, language string) (string, error) {
	tracer := otel.Tracer("elevenlabsapi/GenerateSpeech")
	ctx, span := tracer.Start(ctx, "GenerateSpeech")
	defer span.End()

	span.SetAttributes(
		attribute.Int("text_length", len(text)),
		attribute.String("language", language),
	)

	if err := e.semaphore.Acquire(ctx, 1); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to acquire semaphore: %w", err)
	}
	defer e.semaphore.Release(1)

	request := TTSRequest{
		Text: text,
		VoiceSettings: VoiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
			Speed:           1.0,
		},
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt, apiKey := range credentials() {
		span.AddEvent("Attempt", trace.WithAttributes(attribute.Int("credential", attempt+1)))

		if apiKey == "" {
			lastErr = fmt.Errorf("credential %d not configured", attempt+1)
			continue
		}

		respBody, err := httpmiddleware.HttpRequest(ctx, httpmiddleware.HttpRequestStruct{
			Method: "POST",
			Url:    e.baseURL + "/v1/text-to-speech/" + JENNIFER_MULTILINGUAL,
			Body:   bytes.NewBuffer(jsonData),
			Headers: map[string]string{
				"xi-api-key":   apiKey,
				"Content-Type": "application/json",
				"Accept":       "audio/mpeg",
			},
		})
		if err != nil {
			span.RecordError(err)
			e.logger.Logger(ctx).Warn("[ElevenLabs-API] Speech generation attempt failed",
				zap.Error(err),
				zap.Int("credential", attempt+1))
			lastErr = err
			continue
		}

		e.logger.Logger(ctx).Info("[ElevenLabs-API] Successfully generated speech",
			zap.Int("audioSize", len(respBody)),
			zap.Int("credential", attempt+1))

		return base64.StdEncoding.EncodeToString(respBody), nil
	}

	span.AddEvent("All credentials exhausted")
	return "", fmt.Errorf("all credentials exhausted: %w", lastErr)
}
