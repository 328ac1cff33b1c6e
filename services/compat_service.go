package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"vela_server/models"
	"vela_server/utils"
)

const maxPreviewLen = 200

// CompatService implements CompatibilityScorer on the Gemini API. Every call
// carries its own timeout; callers substitute DefaultCompatibility /
// DefaultOpeners when a call fails, so a flaky model never blocks a batch.
type CompatService struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

var _ CompatibilityScorer = (*CompatService)(nil)

// NewCompatService creates a scorer configured for the Gemini API backend.
func NewCompatService(ctx context.Context, apiKey, model string, timeout time.Duration, logger *zap.Logger) (*CompatService, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &CompatService{client: client, model: model, timeout: timeout, logger: logger}, nil
}

// StaticScorer answers every request with the deterministic fallback. Used
// when no scorer API key is configured.
type StaticScorer struct{}

var _ CompatibilityScorer = StaticScorer{}

func (StaticScorer) Score(context.Context, *models.UserProfile, *models.CandidateLead) (*models.CompatibilityResult, error) {
	return DefaultCompatibility(), nil
}

func (StaticScorer) SuggestOpeners(context.Context, *models.UserProfile, *models.CandidateLead) ([]string, error) {
	return DefaultOpeners(), nil
}

// DefaultCompatibility is the fixed deterministic fallback used when the
// scorer fails for a candidate.
func DefaultCompatibility() *models.CompatibilityResult {
	return &models.CompatibilityResult{
		Score:   70,
		Reasons: []string{"Good overall compatibility"},
	}
}

// DefaultOpeners is the fixed fallback set of conversation openers.
func DefaultOpeners() []string {
	return []string{
		"Hi! Looks like we have some interests in common - happy to meet you!",
	}
}

func (s *CompatService) Score(ctx context.Context, user *models.UserProfile, lead *models.CandidateLead) (*models.CompatibilityResult, error) {
	prompt := buildCompatibilityPrompt(user, lead)

	raw, err := s.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	result, err := parseCompatibility(raw)
	if err != nil {
		s.logger.Warn("unparseable compatibility response",
			zap.String("candidateId", lead.Profile.UserID),
			zap.String("preview", utils.TruncateForLog(raw, maxPreviewLen)),
		)
		return nil, err
	}
	return result, nil
}

func (s *CompatService) SuggestOpeners(ctx context.Context, user *models.UserProfile, lead *models.CandidateLead) ([]string, error) {
	prompt := buildOpenersPrompt(user, lead)

	raw, err := s.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	openers, err := parseOpeners(raw)
	if err != nil {
		return nil, err
	}
	return openers, nil
}

func (s *CompatService) generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), nil)
	if err != nil {
		return "", models.NewExternalServiceError("compatibility-scorer", err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", models.NewExternalServiceError("compatibility-scorer", errors.New("empty response"))
	}
	return output, nil
}

func buildCompatibilityPrompt(user *models.UserProfile, lead *models.CandidateLead) string {
	traits, _ := json.Marshal(user.PersonalityTraits)
	return fmt.Sprintf(`Analyze compatibility between two users for dating:

User 1:
- Interests: %s
- Bio: %s
- Age: %d
- Personality indicators: %s

User 2:
- Interests: %s
- Bio: %s
- Age: %d
- Shared interests: %s
- Shared communities: %s
- Distance: %.0fkm

Calculate a compatibility score (0-100) based on:
1. Shared interests and hobbies (40%%)
2. Personality compatibility (30%%)
3. Life stage alignment (20%%)
4. Geographic proximity (10%%)

Return JSON: {"score": number, "reasons": ["reason1", "reason2", "reason3"]}`,
		strings.Join(user.Interests, ", "), user.Bio, user.Age, traits,
		strings.Join(lead.Profile.Interests, ", "), lead.Profile.Bio, lead.Profile.Age,
		strings.Join(lead.SharedInterests, ", "), strings.Join(lead.SharedCommunities, ", "),
		lead.DistanceKm,
	)
}

func buildOpenersPrompt(user *models.UserProfile, lead *models.CandidateLead) string {
	return fmt.Sprintf(`Create 3 personalized conversation starters for a dating match:

Person 1 interests: %s
Person 2 interests: %s
Shared interests: %s

Guidelines:
- Make them engaging and specific to shared interests
- Avoid generic greetings
- Include open-ended questions
- Keep them casual and friendly

Return as a JSON array of strings.`,
		strings.Join(user.Interests, ", "),
		strings.Join(lead.Profile.Interests, ", "),
		strings.Join(lead.SharedInterests, ", "),
	)
}

func parseCompatibility(raw string) (*models.CompatibilityResult, error) {
	cleaned := extractJSON(raw)

	var result models.CompatibilityResult
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, fmt.Errorf("parse compatibility response: %w", err)
	}

	if result.Score < 0 {
		result.Score = 0
	}
	if result.Score > 100 {
		result.Score = 100
	}
	return &result, nil
}

func parseOpeners(raw string) ([]string, error) {
	cleaned := extractJSON(raw)

	var openers []string
	if err := json.Unmarshal([]byte(cleaned), &openers); err != nil {
		return nil, fmt.Errorf("parse openers response: %w", err)
	}

	trimmed := openers[:0]
	for _, opener := range openers {
		if opener = strings.TrimSpace(opener); opener != "" {
			trimmed = append(trimmed, opener)
		}
	}
	if len(trimmed) == 0 {
		return nil, errors.New("no openers in response")
	}
	return trimmed, nil
}

// extractJSON strips markdown code fences the model sometimes wraps JSON in.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
