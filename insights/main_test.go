package insights

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solacedev/logger"
	"solacedev/modelapi/groqapi"
	"solacedev/session"
)

type stubChat struct {
	lastReq groqapi.CompletionRequest
	reply   string
	err     error
}

func (s *stubChat) Complete(ctx context.Context, req groqapi.CompletionRequest) (string, error) {
	s.lastReq = req
	return s.reply, s.err
}

func TestSummarizeFlattensEverythingIntoOnePrompt(t *testing.T) {
	chat := &stubChat{reply: "You showed real courage today."}
	logMiddleware := logger.Connect(logger.LoggerConnectProps{Production: false})
	ins := Connect(context.Background(), InsightsConnectProps{Logger: logMiddleware, Chat: chat})

	answers := []session.AssessmentAnswer{
		{QuestionID: 1, Question: "How are you feeling today", Answer: "anxious"},
		{QuestionID: 2, Question: "What brings you here", Answer: "work stress"},
	}
	history := []session.Turn{
		{Role: session.RoleUser, Content: "I can't sleep."},
		{Role: session.RoleAssistant, Content: "That sounds exhausting."},
	}

	summary, err := ins.Summarize(context.Background(), answers, history)
	require.NoError(t, err)
	assert.Equal(t, "You showed real courage today.", summary)

	// Assessment and history are inline in the user prompt, not sent as
	// chat history.
	assert.Empty(t, chat.lastReq.History)
	assert.Contains(t, chat.lastReq.UserPrompt, "How are you feeling today: anxious")
	assert.Contains(t, chat.lastReq.UserPrompt, "What brings you here: work stress")
	assert.Contains(t, chat.lastReq.UserPrompt, "user: I can't sleep.")
	assert.Contains(t, chat.lastReq.UserPrompt, "assistant: That sounds exhausting.")
	assert.Contains(t, chat.lastReq.SystemPrompt, "supportive therapist")
}

func TestSummarizePropagatesError(t *testing.T) {
	chat := &stubChat{err: &groqapi.UpstreamError{Status: 500, Body: "boom"}}
	logMiddleware := logger.Connect(logger.LoggerConnectProps{Production: false})
	ins := Connect(context.Background(), InsightsConnectProps{Logger: logMiddleware, Chat: chat})

	_, err := ins.Summarize(context.Background(), nil, nil)
	require.Error(t, err)
}
