package speech

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solacedev/logger"
)

type stubBackend struct {
	calls int
	audio string
	err   error
}

func (s *stubBackend) GenerateSpeech(ctx context.Context, text string, language string) (string, error) {
	s.calls++
	return s.audio, s.err
}

func testAudio() string {
	return base64.StdEncoding.EncodeToString([]byte("mp3"))
}

func newRouter(t *testing.T, cloning, direct VoiceBackend) *Speech {
	t.Helper()
	logMiddleware := logger.Connect(logger.LoggerConnectProps{Production: false})
	return Connect(context.Background(), SpeechConnectProps{Logger: logMiddleware, Cloning: cloning, Direct: direct})
}

func TestSynthesizeRouting(t *testing.T) {
	tests := []struct {
		language    string
		wantCloning bool
	}{
		{"english", true},
		{"English", true},
		{"SPANISH", true},
		{"french", false},
		{"hindi", false},
		{"Klingon", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.language, func(t *testing.T) {
			cloning := &stubBackend{audio: testAudio()}
			direct := &stubBackend{audio: testAudio()}
			router := newRouter(t, cloning, direct)

			audio, err := router.Synthesize(context.Background(), "hello", tt.language)
			require.NoError(t, err)
			assert.NotEmpty(t, audio)

			if tt.wantCloning {
				assert.Equal(t, 1, cloning.calls)
				assert.Equal(t, 0, direct.calls)
			} else {
				assert.Equal(t, 0, cloning.calls)
				assert.Equal(t, 1, direct.calls)
			}
		})
	}
}

func TestSynthesizeBackendFailureIsSynthesisError(t *testing.T) {
	direct := &stubBackend{err: errors.New("all credentials exhausted: nope")}
	router := newRouter(t, &stubBackend{audio: testAudio()}, direct)

	_, err := router.Synthesize(context.Background(), "bonjour", "french")
	require.Error(t, err)

	var synthErr *SynthesisError
	require.ErrorAs(t, err, &synthErr)
	assert.Equal(t, "direct", synthErr.Backend)
	assert.Contains(t, synthErr.Reason, "exhausted")
}

func TestSynthesizeEmptyAudioIsError(t *testing.T) {
	cloning := &stubBackend{audio: ""}
	router := newRouter(t, cloning, &stubBackend{audio: testAudio()})

	_, err := router.Synthesize(context.Background(), "hello", "english")
	require.Error(t, err)

	var synthErr *SynthesisError
	require.ErrorAs(t, err, &synthErr)
	assert.Equal(t, "cloning", synthErr.Backend)
}
