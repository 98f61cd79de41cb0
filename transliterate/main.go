package transliterate

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"solacedev/logger"
	"solacedev/modelapi/groqapi"
)

// ChatModel is the completion dependency; only the deterministic sampling
// path of it is used here.
type ChatModel interface {
	Complete(ctx context.Context, req groqapi.CompletionRequest) (string, error)
}

const systemInstruction = `You convert Hindi text written in Devanagari script into Romanized Hindi (Hinglish) using standard Latin-script spellings.

The input is a therapy-session transcript. Lines begin with one of two speaker labels, "You:" or "Therapist:". Apply these rules exactly:
1. Transliterate Devanagari words to Romanized Hindi. Do not translate to English.
2. Keep every line break. The output must have exactly the same number of lines as the input.
3. Keep the speaker labels "You:" and "Therapist:" exactly as written, at the start of their lines.
4. Leave lines or words already in Latin script unchanged.
5. Output only the converted transcript. No commentary, no headers, no quotes.`

type TransliterateConnectProps struct {
	Logger *logger.LogMiddleware
	Chat   ChatModel
}

type Transliterator struct {
	logger *logger.LogMiddleware
	chat   ChatModel
}

func Connect(ctx context.Context, args TransliterateConnectProps) *Transliterator {
	tracer := otel.Tracer("transliterate/Connect")
	_, span := tracer.Start(ctx, "Connect")
	defer span.End()

	return &Transliterator{logger: args.Logger, chat: args.Chat}
}

// Transliterate converts a Devanagari transcript to Romanized Hindi while
// keeping line structure and speaker labels intact. Sampling is pinned to
// zero so identical input always converts the same way. Blank input returns
// "" without any network call.
func (t *Transliterator) Transliterate(ctx context.Context, transcript string) (string, error) {
	tracer := otel.Tracer("transliterate/Transliterate")
	ctx, span := tracer.Start(ctx, "Transliterate")
	defer span.End()

	span.SetAttributes(attribute.Int("transcript_length", len(transcript)))

	if strings.TrimSpace(transcript) == "" {
		span.AddEvent("Blank input short-circuit")
		return "", nil
	}

	// Browsers occasionally send decomposed Devanagari; normalize before the
	// model sees it so conversions stay repeatable.
	transcript = norm.NFC.String(transcript)

	zero := 0.0
	output, err := t.chat.Complete(ctx, groqapi.CompletionRequest{
		SystemPrompt: systemInstruction,
		UserPrompt:   transcript,
		Temperature:  &zero,
		TopP:         &zero,
	})
	if err != nil {
		span.RecordError(err)
		t.logger.Logger(ctx).Error("[Transliterate] Conversion failed", zap.Error(err))
		return "", err
	}

	return strings.TrimSpace(output), nil
}
