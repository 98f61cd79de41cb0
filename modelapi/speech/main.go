package speech

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"solacedev/logger"
)

// VoiceBackend is one synthesis provider: text plus language in, base64 MP3 out.
type VoiceBackend interface {
	GenerateSpeech(ctx context.Context, text string, language string) (string, error)
}

// SynthesisError means every applicable provider and credential was exhausted.
type SynthesisError struct {
	Backend string
	Reason  string
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("speech synthesis failed on %s backend: %s", e.Backend, e.Reason)
}

type SpeechConnectProps struct {
	Logger *logger.LogMiddleware
	// Cloning serves English and Spanish with the cloned therapist voice.
	Cloning VoiceBackend
	// Direct serves every other language, including unrecognized ones.
	Direct VoiceBackend
}

type Speech struct {
	logger  *logger.LogMiddleware
	cloning VoiceBackend
	direct  VoiceBackend
}

func Connect(ctx context.Context, args SpeechConnectProps) *Speech {
	tracer := otel.Tracer("speech/Connect")
	_, span := tracer.Start(ctx, "Connect")
	defer span.End()

	return &Speech{logger: args.Logger, cloning: args.Cloning, direct: args.Direct}
}

// route picks the backend for a language. The cloned voice only exists for
// English and Spanish; everything else, known or not, takes the direct tier.
func (s *Speech) route(language string) (VoiceBackend, string) {
	switch strings.ToLower(strings.TrimSpace(language)) {
	case "english", "spanish":
		return s.cloning, "cloning"
	default:
		return s.direct, "direct"
	}
}

// Synthesize converts reply text into base64 MP3 audio. Success always
// carries non-empty audio; any exhaustion of the routed backend surfaces as
// a SynthesisError.
func (s *Speech) Synthesize(ctx context.Context, text string, language string) (string, error) {
	tracer := otel.Tracer("speech/Synthesize")
	ctx, span := tracer.Start(ctx, "Synthesize")
	defer span.End()

	backend, backendName := s.route(language)
	span.SetAttributes(
		attribute.String("language", language),
		attribute.String("backend", backendName),
		attribute.Int("text_length", len(text)),
	)

	audioData, err := backend.GenerateSpeech(ctx, text, language)
	if err != nil {
		span.RecordError(err)
		s.logger.Logger(ctx).Error("[Speech] Synthesis failed",
			zap.String("backend", backendName),
			zap.String("language", language),
			zap.Error(err))
		return "", &SynthesisError{Backend: backendName, Reason: err.Error()}
	}

	if audioData == "" {
		err := &SynthesisError{Backend: backendName, Reason: "backend returned empty audio"}
		span.RecordError(err)
		return "", err
	}

	s.saveDebugClip(ctx, audioData)

	return audioData, nil
}

// saveDebugClip keeps the latest clip in the scratch dir for local debugging.
// Strictly best effort: failures are logged and swallowed.
func (s *Speech) saveDebugClip(ctx context.Context, audioData string) {
	raw, err := base64.StdEncoding.DecodeString(audioData)
	if err != nil {
		s.logger.Logger(ctx).Debug("[Speech] Could not decode clip for debug copy", zap.Error(err))
		return
	}

	path := filepath.Join(os.TempDir(), "solace-clip-"+uuid.NewString()+".mp3")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		s.logger.Logger(ctx).Debug("[Speech] Could not write debug clip", zap.Error(err))
		return
	}

	s.logger.Logger(ctx).Debug("[Speech] Wrote debug clip", zap.String("path", path))
}
