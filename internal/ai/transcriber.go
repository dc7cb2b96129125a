// Package ai holds the adapters around the external speech-to-text and
// language-model providers, plus the analysis artifact writer. Handlers
// depend on the interfaces so the intake pipeline is testable without live
// network calls.
package ai

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	apperrors "medintake/internal/errors"
)

const transcriptPollInterval = 2 * time.Second

// Transcriber converts a recorded audio file to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// AssemblyAITranscriber transcribes audio through the AssemblyAI v2 API:
// upload the file, submit a transcript job, poll until it settles. The
// whole call is bounded by the configured timeout; a job still processing
// when it expires is a failure.
type AssemblyAITranscriber struct {
	client       *resty.Client
	timeout      time.Duration
	pollInterval time.Duration
}

// NewAssemblyAITranscriber creates a transcriber against the given base URL
// with a bounded overall timeout per call.
func NewAssemblyAITranscriber(baseURL, apiKey string, timeout time.Duration) *AssemblyAITranscriber {
	cli := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Authorization", apiKey).
		SetTimeout(timeout)
	return &AssemblyAITranscriber{
		client:       cli,
		timeout:      timeout,
		pollInterval: transcriptPollInterval,
	}
}

type uploadResponse struct {
	UploadURL string `json:"upload_url"`
}

type transcriptRequest struct {
	AudioURL string `json:"audio_url"`
}

type transcriptResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Text   string `json:"text"`
	Error  string `json:"error"`
}

// Transcribe implements Transcriber. Any provider or network failure is
// wrapped as an UpstreamError; the caller must not persist a visit on error.
func (t *AssemblyAITranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return "", fmt.Errorf("read audio file: %w", err)
	}

	var uploaded uploadResponse
	resp, err := t.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/octet-stream").
		SetBody(audio).
		SetResult(&uploaded).
		Post("/v2/upload")
	if err != nil {
		return "", upstream("transcription", err)
	}
	if resp.IsError() {
		return "", upstream("transcription", fmt.Errorf("upload returned %s", resp.Status()))
	}

	var job transcriptResponse
	resp, err = t.client.R().
		SetContext(ctx).
		SetBody(transcriptRequest{AudioURL: uploaded.UploadURL}).
		SetResult(&job).
		Post("/v2/transcript")
	if err != nil {
		return "", upstream("transcription", err)
	}
	if resp.IsError() {
		return "", upstream("transcription", fmt.Errorf("submit returned %s", resp.Status()))
	}

	return t.poll(ctx, job.ID)
}

// poll waits for the transcript job to settle. The deadline set by
// Transcribe ends the loop when the provider never leaves "processing".
func (t *AssemblyAITranscriber) poll(ctx context.Context, jobID string) (string, error) {
	ticker := time.NewTicker(t.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", upstream("transcription", fmt.Errorf("transcript %s did not settle: %w", jobID, ctx.Err()))
		case <-ticker.C:
		}

		var job transcriptResponse
		resp, err := t.client.R().
			SetContext(ctx).
			SetResult(&job).
			Get("/v2/transcript/" + jobID)
		if err != nil {
			return "", upstream("transcription", err)
		}
		if resp.IsError() {
			return "", upstream("transcription", fmt.Errorf("poll returned %s", resp.Status()))
		}

		switch job.Status {
		case "completed":
			return job.Text, nil
		case "error":
			return "", upstream("transcription", fmt.Errorf("provider error: %s", job.Error))
		}
	}
}

func upstream(provider string, err error) error {
	return &apperrors.UpstreamError{Provider: provider, Err: err}
}
