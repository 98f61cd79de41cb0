package insights

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"solacedev/logger"
	"solacedev/modelapi/groqapi"
	"solacedev/session"
)

type ChatModel interface {
	Complete(ctx context.Context, req groqapi.CompletionRequest) (string, error)
}

const systemFraming = `You are a supportive therapist writing a short, empathetic summary of a completed session. Speak directly to the person in second person. Highlight what they shared, the feelings behind it, and one or two gentle observations or encouragements. Keep it under 150 words and write plain prose with no lists or headings.`

type InsightsConnectProps struct {
	Logger *logger.LogMiddleware
	Chat   ChatModel
}

type Insights struct {
	logger *logger.LogMiddleware
	chat   ChatModel
}

func Connect(ctx context.Context, args InsightsConnectProps) *Insights {
	tracer := otel.Tracer("insights/Connect")
	_, span := tracer.Start(ctx, "Connect")
	defer span.End()

	return &Insights{logger: args.Logger, chat: args.Chat}
}

// Summarize reduces the assessment plus full conversation into one empathetic
// summary. Both are flattened inline into a single user prompt; no history is
// passed to the chat call itself.
func (i *Insights) Summarize(ctx context.Context, answers []session.AssessmentAnswer, history []session.Turn) (string, error) {
	tracer := otel.Tracer("insights/Summarize")
	ctx, span := tracer.Start(ctx, "Summarize")
	defer span.End()

	span.SetAttributes(
		attribute.Int("answer_count", len(answers)),
		attribute.Int("history_length", len(history)),
	)

	var b strings.Builder
	b.WriteString("Here is the assessment the person filled in before the session:\n")
	for _, answer := range answers {
		b.WriteString(fmt.Sprintf("%s: %s\n", answer.Question, answer.Answer))
	}
	b.WriteString("\nHere is the full conversation:\n")
	for _, turn := range history {
		b.WriteString(fmt.Sprintf("%s: %s\n", turn.Role, turn.Content))
	}
	b.WriteString("\nWrite the session summary now.")

	summary, err := i.chat.Complete(ctx, groqapi.CompletionRequest{
		SystemPrompt: systemFraming,
		UserPrompt:   b.String(),
	})
	if err != nil {
		span.RecordError(err)
		i.logger.Logger(ctx).Error("[Insights] Summary generation failed", zap.Error(err))
		return "", err
	}

	return summary, nil
}
