package evaluator

import (
	"context"
	"encoding/json"
	"fmt"

	"sectrain/config"
	"sectrain/internal/model"
)

const generatorSystemInstruction = "You are a security-awareness training author. " +
	"Produce training content tailored to the employee's role. Return ONLY valid JSON."

// baselineTopics is the curriculum every role receives; role risk areas are
// appended after it.
var baselineTopics = []string{
	"Phishing and suspicious email",
	"Password hygiene and MFA",
	"Social engineering",
	"Data handling and classification",
}

// ContentGenerator produces per-module training content. It satisfies the
// engine's generator collaborator contract.
type ContentGenerator struct {
	config *config.AIConfig
	client *Client
}

// NewContentGenerator creates a content generator.
func NewContentGenerator(cfg *config.AIConfig) *ContentGenerator {
	return &ContentGenerator{
		config: cfg,
		client: NewClient(cfg),
	}
}

// PlanCurriculum returns the ordered module topics for a profile.
func (g *ContentGenerator) PlanCurriculum(ctx context.Context, tenantID string, profile *model.RoleProfile) ([]string, error) {
	topics := append([]string{}, baselineTopics...)
	seen := make(map[string]bool, len(topics))
	for _, t := range topics {
		seen[t] = true
	}
	for _, area := range profile.RiskAreas {
		if !seen[area] {
			topics = append(topics, area)
			seen[area] = true
		}
	}
	return topics, nil
}

// GenerateModuleContent produces instruction text, scenarios, and quiz
// questions for one module topic. The call may be slow and may fail; the
// caller owns retry semantics.
func (g *ContentGenerator) GenerateModuleContent(ctx context.Context, tenantID string, profile *model.RoleProfile, topic string) (*model.ModuleContent, error) {
	if !g.config.IsEnabled() {
		return localContent(topic), nil
	}

	raw, err := g.client.generate(ctx, g.config.ContentModel, generatorSystemInstruction, buildContentPrompt(profile, topic))
	if err != nil {
		return nil, err
	}

	var content model.ModuleContent
	if err := json.Unmarshal([]byte(raw), &content); err != nil {
		return nil, fmt.Errorf("%w: malformed content: %v", model.ErrAIUnavailable, err)
	}
	if err := validateContent(&content); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrAIUnavailable, err)
	}
	return &content, nil
}

func buildContentPrompt(profile *model.RoleProfile, topic string) string {
	return fmt.Sprintf(`Write one security-awareness training module. Return ONLY valid JSON:
{
  "instruction": "instructional text, 3-5 paragraphs",
  "scenarios": [
    {"id": "s1", "prompt": "...", "responseType": "multiple-choice", "options": ["..."], "answerKey": "..."},
    {"id": "s2", "prompt": "...", "responseType": "free-text", "rubric": "grading guidance"}
  ],
  "quizQuestions": [
    {"id": "q1", "prompt": "...", "responseType": "multiple-choice", "options": ["..."], "answerKey": "..."},
    {"id": "q2", "prompt": "...", "responseType": "free-text", "rubric": "grading guidance"}
  ]
}

Topic: %s
Employee role: %s

Write 2-3 scenarios and 3-5 quiz questions. Multiple-choice items need 3-4
options with answerKey equal to exactly one option. Free-text items need a
concrete rubric. Keep prompts grounded in workplace situations for the role.`,
		topic, profile.Role)
}

func validateContent(c *model.ModuleContent) error {
	if c.Instruction == "" {
		return fmt.Errorf("content has no instruction")
	}
	if len(c.Scenarios) == 0 || len(c.QuizQuestions) == 0 {
		return fmt.Errorf("content missing scenarios or quiz questions")
	}
	for _, s := range c.Scenarios {
		if err := validateItem(s.ID, s.ResponseType, s.Options, s.AnswerKey, s.Rubric); err != nil {
			return fmt.Errorf("scenario %q: %w", s.ID, err)
		}
	}
	for _, q := range c.QuizQuestions {
		if err := validateItem(q.ID, q.ResponseType, q.Options, q.AnswerKey, q.Rubric); err != nil {
			return fmt.Errorf("question %q: %w", q.ID, err)
		}
	}
	return nil
}

func validateItem(id string, rt model.ResponseType, options []string, answerKey, rubric string) error {
	if id == "" {
		return fmt.Errorf("missing id")
	}
	switch rt {
	case model.ResponseMultipleChoice:
		if len(options) < 2 {
			return fmt.Errorf("needs at least 2 options")
		}
		for _, o := range options {
			if o == answerKey {
				return nil
			}
		}
		return fmt.Errorf("answer key not among options")
	case model.ResponseFreeText:
		if rubric == "" {
			return fmt.Errorf("missing rubric")
		}
		return nil
	default:
		return fmt.Errorf("unknown response type %q", rt)
	}
}

// localContent is the deterministic fallback for deployments without an API
// key. Content is templated on the topic so dev sessions remain gradable.
func localContent(topic string) *model.ModuleContent {
	return &model.ModuleContent{
		Instruction: fmt.Sprintf("This module covers %s. Review your organization's "+
			"policy, recognize the warning signs, and know who to report incidents to. "+
			"The exercises below walk through situations you may encounter at work.", topic),
		Scenarios: []model.Scenario{
			{
				ID:           "s1",
				Prompt:       fmt.Sprintf("A colleague asks you to bypass the standard process related to %s. What do you do?", topic),
				ResponseType: model.ResponseMultipleChoice,
				Options:      []string{"Comply to be helpful", "Decline and report it", "Ignore the request"},
				AnswerKey:    "Decline and report it",
			},
			{
				ID:           "s2",
				Prompt:       fmt.Sprintf("Describe how you would respond to a suspected incident involving %s.", topic),
				ResponseType: model.ResponseFreeText,
				Rubric:       "Looks for: not engaging further, preserving evidence, reporting to the security team promptly.",
			},
		},
		QuizQuestions: []model.QuizQuestion{
			{
				ID:           "q1",
				Prompt:       fmt.Sprintf("Which of these is the safest first step when you notice a problem involving %s?", topic),
				ResponseType: model.ResponseMultipleChoice,
				Options:      []string{"Investigate on your own", "Report to the security team", "Wait and see if it recurs"},
				AnswerKey:    "Report to the security team",
			},
			{
				ID:           "q2",
				Prompt:       "Who is responsible for security awareness in your organization?",
				ResponseType: model.ResponseMultipleChoice,
				Options:      []string{"Only the security team", "Only managers", "Everyone"},
				AnswerKey:    "Everyone",
			},
			{
				ID:           "q3",
				Prompt:       fmt.Sprintf("In your own words, why does %s matter for your role?", topic),
				ResponseType: model.ResponseFreeText,
				Rubric:       "Looks for: a concrete connection between the topic and the employee's day-to-day work.",
			},
		},
	}
}
