package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	apperrors "medintake/internal/errors"
)

// fakeProvider serves the upload/submit/poll endpoints, answering every
// status poll with the configured status.
func fakeProvider(t *testing.T, pollStatus, text string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/v2/upload", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(uploadResponse{UploadURL: "https://cdn.example/audio"})
	})
	mux.HandleFunc("/v2/transcript", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(transcriptResponse{ID: "job-1", Status: "queued"})
	})
	mux.HandleFunc("/v2/transcript/job-1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(transcriptResponse{ID: "job-1", Status: pollStatus, Text: text})
	})
	return httptest.NewServer(mux)
}

func writeTestAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recording.wav")
	assert.NoError(t, os.WriteFile(path, []byte("RIFF....WAVE"), 0o644))
	return path
}

func TestTranscribe_CompletedJobReturnsText(t *testing.T) {
	srv := fakeProvider(t, "completed", "my head hurts")
	defer srv.Close()

	tr := NewAssemblyAITranscriber(srv.URL, "key", time.Second)
	tr.pollInterval = 10 * time.Millisecond

	text, err := tr.Transcribe(context.Background(), writeTestAudio(t))

	assert.NoError(t, err)
	assert.Equal(t, "my head hurts", text)
}

func TestTranscribe_ProviderErrorStatus(t *testing.T) {
	srv := fakeProvider(t, "error", "")
	defer srv.Close()

	tr := NewAssemblyAITranscriber(srv.URL, "key", time.Second)
	tr.pollInterval = 10 * time.Millisecond

	_, err := tr.Transcribe(context.Background(), writeTestAudio(t))

	var upstreamErr *apperrors.UpstreamError
	assert.ErrorAs(t, err, &upstreamErr)
}

func TestTranscribe_NeverSettlingJobFailsAtDeadline(t *testing.T) {
	srv := fakeProvider(t, "processing", "")
	defer srv.Close()

	tr := NewAssemblyAITranscriber(srv.URL, "key", 200*time.Millisecond)
	tr.pollInterval = 10 * time.Millisecond

	start := time.Now()
	_, err := tr.Transcribe(context.Background(), writeTestAudio(t))
	elapsed := time.Since(start)

	var upstreamErr *apperrors.UpstreamError
	assert.ErrorAs(t, err, &upstreamErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, elapsed, 2*time.Second, "call must end at the configured timeout")
}

func TestTranscribe_MissingAudioFile(t *testing.T) {
	tr := NewAssemblyAITranscriber("http://localhost:1", "key", time.Second)

	_, err := tr.Transcribe(context.Background(), filepath.Join(t.TempDir(), "absent.wav"))

	assert.Error(t, err)
}
