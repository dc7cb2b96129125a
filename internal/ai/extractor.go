package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	extractionModel = "sonar-pro"

	// The provider is instructed to answer with nothing but this object.
	// Responses still drift, so parsing stays defensive.
	extractionInstruction = "You are an artificial intelligence assistant for hospital patients. " +
		"You need to analyze the patient's symptoms and provide possible causes. " +
		"The response MUST be a valid JSON object with exactly this format: " +
		`{"symptoms": ["symptom 1", "symptom 2", ...], "possible causes": ["cause 1", "cause 2", ...]}. ` +
		"Analyze the symptoms in detail (severity and duration). " +
		"Do not include any explanation or additional text - ONLY the JSON object."
)

// Fallback analysis returned when the model's output cannot be parsed at
// all. The pipeline never dead-ends on a malformed upstream response.
var fallbackAnalysis = Analysis{
	Symptoms:       []string{"Unable to extract clear symptoms from description"},
	PossibleCauses: []string{"Please consult a doctor for accurate diagnosis"},
}

// Analysis is the structured result of symptom extraction. It is advisory
// only, never a diagnosis.
type Analysis struct {
	Symptoms       []string `json:"symptoms"`
	PossibleCauses []string `json:"possible causes"`
}

// Extractor derives a structured symptom analysis from a transcript.
type Extractor interface {
	Extract(ctx context.Context, text string) (*Analysis, error)
}

// PerplexityExtractor sends the transcript to the Perplexity
// chat-completions endpoint with a fixed instruction.
type PerplexityExtractor struct {
	client *resty.Client
}

// NewPerplexityExtractor creates an extractor against the given base URL
// with a bounded timeout per call.
func NewPerplexityExtractor(baseURL, apiKey string, timeout time.Duration) *PerplexityExtractor {
	cli := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetAuthToken(apiKey).
		SetTimeout(timeout)
	return &PerplexityExtractor{client: cli}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Extract implements Extractor. Transport-level failures are upstream
// errors; malformed completion content is not an error and degrades through
// ParseAnalysis instead.
func (e *PerplexityExtractor) Extract(ctx context.Context, text string) (*Analysis, error) {
	req := chatRequest{
		Model: extractionModel,
		Messages: []chatMessage{
			{Role: "system", Content: extractionInstruction},
			{Role: "user", Content: text},
		},
	}

	var completion chatResponse
	resp, err := e.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		SetResult(&completion).
		Post("/chat/completions")
	if err != nil {
		return nil, upstream("symptom extraction", err)
	}
	if resp.IsError() {
		return nil, upstream("symptom extraction", fmt.Errorf("completion returned %s", resp.Status()))
	}
	if len(completion.Choices) == 0 {
		return nil, upstream("symptom extraction", fmt.Errorf("empty completion"))
	}

	analysis := ParseAnalysis(completion.Choices[0].Message.Content)
	return &analysis, nil
}

// ParseAnalysis extracts the structured object from a raw model response.
// It takes the substring between the first '{' and the last '}', normalizes
// single quotes, and parses strictly. Missing keys are fabricated as empty
// lists; a response with no parseable object yields the fixed fallback pair.
func ParseAnalysis(raw string) Analysis {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return fallbackAnalysis
	}

	candidate := strings.ReplaceAll(raw[start:end+1], "'", `"`)

	var parsed map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
		return fallbackAnalysis
	}

	return Analysis{
		Symptoms:       stringList(parsed["symptoms"]),
		PossibleCauses: stringList(parsed["possible causes"]),
	}
}

func stringList(raw json.RawMessage) []string {
	if raw == nil {
		return []string{}
	}
	var values []string
	if err := json.Unmarshal(raw, &values); err != nil {
		return []string{}
	}
	return values
}
