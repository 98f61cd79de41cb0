package session

// Entities exchanged with the browser client. Everything here lives for a
// single request; nothing is persisted server-side.

// AssessmentAnswer is one question/answer pair from the pre-chat assessment
// form. Answers arrive ordered, with unique question ids.
type AssessmentAnswer struct {
	QuestionID int    `json:"questionId"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is a single user or assistant message of the running conversation.
// The orchestrator only ever reads a suffix window of the incoming list.
type Turn struct {
	Role             string `json:"role"`
	Content          string `json:"content"`
	Timestamp        string `json:"timestamp"`
	MessageID        string `json:"messageId,omitempty"`
	AudioData        string `json:"audioData,omitempty"`
	DetectedLanguage string `json:"detectedLanguage,omitempty"`
}
