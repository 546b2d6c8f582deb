// Package llm hosts the Gemini-backed pattern learner.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/clubhousegolfcanada/clubos-pls/internal/application/pls"
	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/pattern"
	infraconfig "github.com/clubhousegolfcanada/clubos-pls/internal/infrastructure/config"
)

// Ensure GeminiLearner implements the learner interface
var _ pls.Learner = (*GeminiLearner)(nil)

// Per-million-token pricing for gemini-2.0-flash, used for cost accounting
// on learn reports. Prices are USD.
var (
	inputPricePerMillion  = decimal.NewFromFloat(0.10)
	outputPricePerMillion = decimal.NewFromFloat(0.40)
	tokensPerMillion      = decimal.NewFromInt(1_000_000)
)

const systemInstruction = `You draft reply templates for a golf simulator facility's customer portal.
You are given a cluster of similar customer messages that no existing pattern answered.
Write one reusable reply template that answers all of them.

Rules:
- The template must be safe to send to a customer verbatim.
- Use {variable_name} placeholders only for details that differ per customer.
- Never invent facility-specific facts (prices, hours, door codes). If the answer
  needs a fact you do not have, do not answer it; set confidence to 0 instead.
- trigger_text is a short canonical phrasing of the customer question.
- confidence is your 0..1 estimate that this template correctly answers the cluster.`

// draftPayload is the JSON shape the model is asked to produce
type draftPayload struct {
	TriggerText  string  `json:"trigger_text"`
	PatternType  string  `json:"pattern_type"`
	TemplateBody string  `json:"template_body"`
	Confidence   float64 `json:"confidence"`
	Rationale    string  `json:"rationale"`
}

// GeminiLearner synthesizes response patterns from message clusters using
// the Gemini API
type GeminiLearner struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewGeminiLearner creates a new Gemini-backed learner from configuration
func NewGeminiLearner(cfg *infraconfig.LearnerConfig, logger *zap.Logger) (*GeminiLearner, error) {
	if cfg == nil {
		return nil, errors.New("learner configuration is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("learner API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiLearner{
		client:  client,
		model:   model,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Synthesize asks the model to draft a pattern for one message cluster
func (l *GeminiLearner) Synthesize(ctx context.Context, candidate pls.LearnCandidate) (*pls.LearnedDraft, error) {
	if len(candidate.SampleMessages) == 0 {
		return nil, errors.New("candidate has no sample messages")
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromText(buildPrompt(candidate), genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    draftSchema(),
		Temperature:       genai.Ptr[float32](0.2),
	}

	resp, err := l.client.Models.GenerateContent(ctx, l.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("generate content failed: %w", err)
	}

	draft, err := parseDraft(resp.Text())
	if err != nil {
		l.logger.Warn("Model returned an unusable draft",
			zap.String("signature_hash", candidate.SignatureHash),
			zap.Error(err))
		return nil, err
	}

	draft.Model = l.model
	if resp.UsageMetadata != nil {
		promptTokens := int64(resp.UsageMetadata.PromptTokenCount)
		outputTokens := int64(resp.UsageMetadata.CandidatesTokenCount)
		draft.TokensUsed = promptTokens + outputTokens
		draft.Cost = tokenCost(promptTokens, outputTokens)
	}

	l.logger.Debug("Draft synthesized",
		zap.String("signature_hash", candidate.SignatureHash),
		zap.String("pattern_type", string(draft.PatternType)),
		zap.Float64("confidence", draft.Confidence),
		zap.Int64("tokens", draft.TokensUsed))
	return draft, nil
}

// buildPrompt renders one cluster as the user message
func buildPrompt(candidate pls.LearnCandidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A cluster of %d similar customer messages arrived between %s and %s.\n",
		candidate.Count,
		candidate.FirstSeen.Format(time.RFC3339),
		candidate.LastSeen.Format(time.RFC3339))
	b.WriteString("Sample messages:\n")
	for i, msg := range candidate.SampleMessages {
		fmt.Fprintf(&b, "%d. %s\n", i+1, msg)
	}
	b.WriteString("\nValid pattern_type values: ")
	for i, t := range pattern.AllPatternTypes() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(t.String())
	}
	b.WriteString("\nDraft one reply template for this cluster.")
	return b.String()
}

// draftSchema constrains the model to the draftPayload shape
func draftSchema() *genai.Schema {
	typeValues := make([]string, 0, len(pattern.AllPatternTypes()))
	for _, t := range pattern.AllPatternTypes() {
		typeValues = append(typeValues, t.String())
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"trigger_text":  {Type: genai.TypeString},
			"pattern_type":  {Type: genai.TypeString, Enum: typeValues},
			"template_body": {Type: genai.TypeString},
			"confidence":    {Type: genai.TypeNumber},
			"rationale":     {Type: genai.TypeString},
		},
		Required: []string{"trigger_text", "pattern_type", "template_body", "confidence"},
	}
}

// parseDraft validates the model's JSON into a learned draft
func parseDraft(text string) (*pls.LearnedDraft, error) {
	var payload draftPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, fmt.Errorf("draft is not valid JSON: %w", err)
	}

	if strings.TrimSpace(payload.TriggerText) == "" {
		return nil, errors.New("draft has no trigger text")
	}
	if strings.TrimSpace(payload.TemplateBody) == "" {
		return nil, errors.New("draft has no template body")
	}
	if payload.Confidence < 0 || payload.Confidence > 1 {
		return nil, fmt.Errorf("draft confidence %v is out of range", payload.Confidence)
	}

	patternType := pattern.PatternType(payload.PatternType)
	if !patternType.IsValid() {
		// An unknown category still answers the cluster; file it as general
		patternType = pattern.TypeGeneral
	}

	return &pls.LearnedDraft{
		TriggerText:  strings.TrimSpace(payload.TriggerText),
		PatternType:  patternType,
		TemplateBody: strings.TrimSpace(payload.TemplateBody),
		Confidence:   payload.Confidence,
		Rationale:    strings.TrimSpace(payload.Rationale),
	}, nil
}

// tokenCost computes the USD cost of one request
func tokenCost(promptTokens, outputTokens int64) decimal.Decimal {
	input := decimal.NewFromInt(promptTokens).Mul(inputPricePerMillion).Div(tokensPerMillion)
	output := decimal.NewFromInt(outputTokens).Mul(outputPricePerMillion).Div(tokensPerMillion)
	return input.Add(output)
}
