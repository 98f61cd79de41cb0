package conversation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solacedev/logger"
	"solacedev/modelapi/groqapi"
	"solacedev/session"
)

type stubChat struct {
	calls   int
	lastReq groqapi.CompletionRequest
	reply   string
	err     error
}

func (s *stubChat) Complete(ctx context.Context, req groqapi.CompletionRequest) (string, error) {
	s.calls++
	s.lastReq = req
	return s.reply, s.err
}

type stubSpeech struct {
	calls    int
	lastText string
	lastLang string
	audio    string
	err      error
}

func (s *stubSpeech) Synthesize(ctx context.Context, text string, language string) (string, error) {
	s.calls++
	s.lastText = text
	s.lastLang = language
	return s.audio, s.err
}

func newOrchestrator(t *testing.T, chat ChatModel, synth Synthesizer) *Conversation {
	t.Helper()
	logMiddleware := logger.Connect(logger.LoggerConnectProps{Production: false})
	return Connect(context.Background(), ConversationConnectProps{Logger: logMiddleware, Chat: chat, Speech: synth})
}

func assessment() []session.AssessmentAnswer {
	return []session.AssessmentAnswer{
		{QuestionID: 1, Question: "How are you feeling today", Answer: "anxious"},
		{QuestionID: 2, Question: "What brings you here", Answer: "work stress"},
	}
}

func TestFirstMessageNeverCallsChatModel(t *testing.T) {
	chat := &stubChat{reply: "should not be used"}
	synth := &stubSpeech{audio: "QUJD"}
	orchestrator := newOrchestrator(t, chat, synth)

	resp, err := orchestrator.Respond(context.Background(), TurnRequest{
		FirstMessage:      true,
		AssessmentAnswers: assessment(),
		Language:          "English",
	})
	require.NoError(t, err)

	assert.Equal(t, 0, chat.calls)
	assert.Equal(t, 1, synth.calls)
	assert.Equal(t, "Hi, I am Jennifer your AI Therapist. I see you're feeling anxious. Can you tell me more about that?", resp.Text)
	// Audio is synthesized for exactly the greeting text.
	assert.Equal(t, resp.Text, synth.lastText)
	assert.Equal(t, "QUJD", resp.AudioData)
}

func TestFirstMessageIgnoresTranscriptAndHistory(t *testing.T) {
	chat := &stubChat{}
	synth := &stubSpeech{audio: "QUJD"}
	orchestrator := newOrchestrator(t, chat, synth)

	resp, err := orchestrator.Respond(context.Background(), TurnRequest{
		FirstMessage: true,
		Language:     "English",
		Transcript:   "stale words",
		History:      []session.Turn{{Role: session.RoleUser, Content: "old"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, chat.calls)
	assert.NotContains(t, resp.Text, "stale words")
}

func TestContinuingTruncatesHistoryToLastFive(t *testing.T) {
	chat := &stubChat{reply: "a reply"}
	synth := &stubSpeech{audio: "QUJD"}
	orchestrator := newOrchestrator(t, chat, synth)

	history := make([]session.Turn, 12)
	for i := range history {
		role := session.RoleUser
		if i%2 == 1 {
			role = session.RoleAssistant
		}
		history[i] = session.Turn{Role: role, Content: fmt.Sprintf("turn-%d", i)}
	}

	_, err := orchestrator.Respond(context.Background(), TurnRequest{
		AssessmentAnswers: assessment(),
		Language:          "English",
		Transcript:        "I had a rough day",
		History:           history,
	})
	require.NoError(t, err)

	require.Len(t, chat.lastReq.History, 5)
	assert.Equal(t, "turn-7", chat.lastReq.History[0].Content)
	assert.Equal(t, "turn-11", chat.lastReq.History[4].Content)
	assert.Equal(t, "I had a rough day", chat.lastReq.UserPrompt)
	assert.Contains(t, chat.lastReq.SystemPrompt, "- What brings you here: work stress")
}

func TestContinuingShortHistoryPassedWhole(t *testing.T) {
	chat := &stubChat{reply: "a reply"}
	orchestrator := newOrchestrator(t, chat, &stubSpeech{audio: "QUJD"})

	_, err := orchestrator.Respond(context.Background(), TurnRequest{
		Language:   "English",
		Transcript: "hello",
		History: []session.Turn{
			{Role: session.RoleUser, Content: "only"},
		},
	})
	require.NoError(t, err)
	require.Len(t, chat.lastReq.History, 1)
}

func TestContinuingMissingTranscriptUsesContinuationPrompt(t *testing.T) {
	chat := &stubChat{reply: "a reply"}
	orchestrator := newOrchestrator(t, chat, &stubSpeech{audio: "QUJD"})

	_, err := orchestrator.Respond(context.Background(), TurnRequest{Language: "English"})
	require.NoError(t, err)
	assert.Equal(t, "Please continue our conversation.", chat.lastReq.UserPrompt)
}

func TestContinuingEmptyReplyFallsBackToEllipsis(t *testing.T) {
	chat := &stubChat{reply: ""}
	synth := &stubSpeech{audio: "QUJD"}
	orchestrator := newOrchestrator(t, chat, synth)

	resp, err := orchestrator.Respond(context.Background(), TurnRequest{Language: "English", Transcript: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "…", resp.Text)
	assert.Equal(t, "…", synth.lastText)
}

func TestContinuingChatFailureAbortsBeforeSynthesis(t *testing.T) {
	chat := &stubChat{err: &groqapi.UpstreamError{Status: 500, Body: "boom"}}
	synth := &stubSpeech{audio: "QUJD"}
	orchestrator := newOrchestrator(t, chat, synth)

	_, err := orchestrator.Respond(context.Background(), TurnRequest{Language: "English", Transcript: "hi"})
	require.Error(t, err)
	assert.Equal(t, 0, synth.calls)

	var upstreamErr *groqapi.UpstreamError
	assert.ErrorAs(t, err, &upstreamErr)
}

func TestSynthesisFailureAbortsTurn(t *testing.T) {
	chat := &stubChat{reply: "a reply"}
	synth := &stubSpeech{err: errors.New("synth down")}
	orchestrator := newOrchestrator(t, chat, synth)

	resp, err := orchestrator.Respond(context.Background(), TurnRequest{Language: "English", Transcript: "hi"})
	require.Error(t, err)
	// Never text without audio.
	assert.Nil(t, resp)
}

func TestContinuingSynthesizesInRequestLanguage(t *testing.T) {
	chat := &stubChat{reply: "respuesta"}
	synth := &stubSpeech{audio: "QUJD"}
	orchestrator := newOrchestrator(t, chat, synth)

	_, err := orchestrator.Respond(context.Background(), TurnRequest{Language: "Spanish", Transcript: "hola"})
	require.NoError(t, err)
	assert.Equal(t, "Spanish", synth.lastLang)
	assert.Equal(t, "respuesta", synth.lastText)
}
