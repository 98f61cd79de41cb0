package conversation

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"solacedev/logger"
	"solacedev/modelapi/groqapi"
	"solacedev/prompts"
	"solacedev/session"
)

// ChatModel produces the assistant reply for one turn.
type ChatModel interface {
	Complete(ctx context.Context, req groqapi.CompletionRequest) (string, error)
}

// Synthesizer turns reply text into base64 MP3 audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, language string) (string, error)
}

const (
	// HistoryWindow is how many trailing turns get forwarded to the chat
	// model. Older turns are dropped, not summarized.
	HistoryWindow = 5

	continuationPrompt = "Please continue our conversation."
	emptyReplyFallback = "…"
)

type TurnRequest struct {
	FirstMessage      bool
	AssessmentAnswers []session.AssessmentAnswer
	Language          string
	Transcript        string
	History           []session.Turn
}

type TurnResponse struct {
	AudioData string `json:"audioData"`
	Text      string `json:"text"`
}

type ConversationConnectProps struct {
	Logger *logger.LogMiddleware
	Chat   ChatModel
	Speech Synthesizer
}

type Conversation struct {
	logger *logger.LogMiddleware
	chat   ChatModel
	speech Synthesizer
}

func Connect(ctx context.Context, args ConversationConnectProps) *Conversation {
	tracer := otel.Tracer("conversation/Connect")
	_, span := tracer.Start(ctx, "Connect")
	defer span.End()

	return &Conversation{logger: args.Logger, chat: args.Chat, speech: args.Speech}
}

// Respond handles one chat turn end to end. A first message is answered from
// the greeting template without touching the chat model; every later turn
// runs prompt build, chat completion, then synthesis. A turn never returns
// text without audio.
func (c *Conversation) Respond(ctx context.Context, req TurnRequest) (*TurnResponse, error) {
	tracer := otel.Tracer("conversation/Respond")
	ctx, span := tracer.Start(ctx, "Respond")
	defer span.End()

	span.SetAttributes(
		attribute.Bool("first_message", req.FirstMessage),
		attribute.String("language", req.Language),
		attribute.Int("history_length", len(req.History)),
	)

	if req.FirstMessage {
		return c.firstMessage(ctx, req)
	}
	return c.continuing(ctx, req)
}

func (c *Conversation) firstMessage(ctx context.Context, req TurnRequest) (*TurnResponse, error) {
	feeling := prompts.FeelingFromAnswers(req.AssessmentAnswers)
	greeting := prompts.FirstMessageTemplate(req.Language, feeling)

	c.logger.Logger(ctx).Info("[Conversation] Rendering first message",
		zap.String("language", req.Language),
		zap.String("feeling", feeling))

	audioData, err := c.speech.Synthesize(ctx, greeting, req.Language)
	if err != nil {
		return nil, fmt.Errorf("first message synthesis failed: %w", err)
	}

	return &TurnResponse{AudioData: audioData, Text: greeting}, nil
}

func (c *Conversation) continuing(ctx context.Context, req TurnRequest) (*TurnResponse, error) {
	transcript := req.Transcript
	if transcript == "" {
		// Deliberate leniency: a dropped transcript keeps the session moving
		// instead of failing the turn.
		transcript = continuationPrompt
	}

	systemPrompt := prompts.BuildSystemPrompt(req.Language, req.AssessmentAnswers)

	reply, err := c.chat.Complete(ctx, groqapi.CompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   transcript,
		History:      boundedHistory(req.History),
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if reply == "" {
		reply = emptyReplyFallback
	}

	audioData, err := c.speech.Synthesize(ctx, reply, req.Language)
	if err != nil {
		return nil, fmt.Errorf("reply synthesis failed: %w", err)
	}

	return &TurnResponse{AudioData: audioData, Text: reply}, nil
}

// boundedHistory maps the trailing HistoryWindow turns into chat messages,
// preserving their original roles and order.
func boundedHistory(history []session.Turn) []groqapi.ChatCompletionInputMessage {
	if len(history) > HistoryWindow {
		history = history[len(history)-HistoryWindow:]
	}

	messages := make([]groqapi.ChatCompletionInputMessage, 0, len(history))
	for _, turn := range history {
		messages = append(messages, groqapi.ChatCompletionInputMessage{
			Role:    turn.Role,
			Content: turn.Content,
		})
	}
	return messages
}
