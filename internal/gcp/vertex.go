package gcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Lllllllleong/intakeledger/internal/scoring"
)

// --- Scoring Model Prompts ---
const ScoringSystemPrompt = "You are an experienced technical recruiter. You assess a single candidate resume against an employer's hiring needs and respond only with a JSON object."
const ScoringUserPrompt = `Score the resume below from 0 to 100 for overall fit.

Follow these rules precisely:
1.  If an employer rubric is provided, weigh the resume against it. Otherwise judge general professional quality: relevant experience, clarity, measurable achievements, and skills.
2.  Respond with a single JSON object with exactly these keys:
    - "score": a number between 0 and 100.
    - "summary": two or three sentences describing the candidate.
    - "strengths": an array of short strings.
    - "weaknesses": an array of short strings.
3.  Do not include any text before or after the JSON object.

Resume:
`

// VertexScorer sends resume text to a Gemini model in JSON mode.
type VertexScorer struct {
	model      *genai.GenerativeModel
	baseClient *genai.Client
}

// NewVertexScorer creates a scorer for modelName.
func NewVertexScorer(ctx context.Context, projectID, region, modelName string) (*VertexScorer, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexScorer: projectID and region cannot be empty")
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	model := baseClient.GenerativeModel(modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(ScoringSystemPrompt)},
	}
	model.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.0),
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"score":      {Type: genai.TypeNumber},
				"summary":    {Type: genai.TypeString},
				"strengths":  {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
				"weaknesses": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			},
			Required: []string{"score"},
		},
	}
	model.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockNone},
	}

	return &VertexScorer{model: model, baseClient: baseClient}, nil
}

// Generate returns the model's raw JSON text. A non-empty rubric is sent as
// a second content part.
func (s *VertexScorer) Generate(ctx context.Context, text, rubric string) (string, error) {
	parts := []genai.Part{genai.Text(ScoringUserPrompt + text)}
	if rubric != "" {
		parts = append(parts, genai.Text("Employer rubric:\n"+rubric))
	}

	resp, err := s.model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", classifyVertexError(err)
	}
	out := responseText(resp)
	if out == "" {
		return "", fmt.Errorf("model returned an empty response")
	}
	return out, nil
}

// Close releases the underlying client.
func (s *VertexScorer) Close() error {
	if s.baseClient != nil {
		return s.baseClient.Close()
	}
	return nil
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if txt, ok := p.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(sb.String())
}

// classifyVertexError wraps quota and credential failures in the scoring
// sentinels. gRPC status codes and REST googleapi errors are both recognised.
func classifyVertexError(err error) error {
	switch status.Code(err) {
	case codes.ResourceExhausted:
		return fmt.Errorf("%w: %v", scoring.ErrQuota, err)
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %v", scoring.ErrAuth, err)
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", scoring.ErrQuota, err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %v", scoring.ErrAuth, err)
		}
	}
	return fmt.Errorf("failed to generate content: %w", err)
}
