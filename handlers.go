package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"solacedev/conversation"
	"solacedev/logger"
	"solacedev/modelapi/groqapi"
	"solacedev/modelapi/speech"
	"solacedev/session"
)

// Upstream calls are bounded so a hung provider resolves to a deterministic
// error instead of hanging the request forever.
const requestTimeout = 90 * time.Second

type turnResponder interface {
	Respond(ctx context.Context, req conversation.TurnRequest) (*conversation.TurnResponse, error)
}

type summarizer interface {
	Summarize(ctx context.Context, answers []session.AssessmentAnswer, history []session.Turn) (string, error)
}

type transliterator interface {
	Transliterate(ctx context.Context, transcript string) (string, error)
}

type apiServer struct {
	logger       *logger.LogMiddleware
	conversation turnResponder
	insights     summarizer
	hinglish     transliterator
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeError sends the short client-facing message only; full upstream
// payloads stay in the logs.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

type chatRequest struct {
	FirstMessage        *bool                      `json:"FirstMessage"`
	AssessmentAnswers   []session.AssessmentAnswer `json:"assessment_question_answers"`
	Language            string                     `json:"language"`
	Transcript          string                     `json:"Transcript"`
	ConversationHistory []session.Turn             `json:"ConversationHistory"`
}

func (s *apiServer) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FirstMessage == nil {
		writeError(w, http.StatusBadRequest, "FirstMessage is required")
		return
	}

	resp, err := s.conversation.Respond(ctx, conversation.TurnRequest{
		FirstMessage:      *req.FirstMessage,
		AssessmentAnswers: req.AssessmentAnswers,
		Language:          req.Language,
		Transcript:        req.Transcript,
		History:           req.ConversationHistory,
	})
	if err != nil {
		s.logger.Logger(ctx).Error("[API] Chat turn failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, upstreamMessage(err))
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

type insightsRequest struct {
	AssessmentAnswers   []session.AssessmentAnswer `json:"assessmentAnswers"`
	ConversationHistory []session.Turn             `json:"conversationHistory"`
}

func (s *apiServer) handleInsights(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req insightsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	summary, err := s.insights.Summarize(ctx, req.AssessmentAnswers, req.ConversationHistory)
	if err != nil {
		s.logger.Logger(ctx).Error("[API] Insights generation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, upstreamMessage(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"summary": summary})
}

type hinglishRequest struct {
	Transcript *string `json:"transcript"`
}

func (s *apiServer) handleHinglish(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req hinglishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Transcript == nil {
		writeError(w, http.StatusBadRequest, "transcript is required")
		return
	}

	converted, err := s.hinglish.Transliterate(ctx, *req.Transcript)
	if err != nil {
		s.logger.Logger(ctx).Error("[API] Transliteration failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, upstreamMessage(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"transcript": converted})
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// upstreamMessage maps internal failures to the short strings the browser is
// allowed to see.
func upstreamMessage(err error) string {
	var synthErr *speech.SynthesisError
	if errors.As(err, &synthErr) {
		return "speech synthesis is unavailable right now"
	}
	var upstreamErr *groqapi.UpstreamError
	if errors.As(err, &upstreamErr) {
		return "the AI service is unavailable right now"
	}
	return "something went wrong, please try again"
}
