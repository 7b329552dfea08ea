package quiztutor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Gateway wraps the generative-AI API. Every operation is a single blocking
// call with no automatic retry; a failed call is re-attempted only when the
// user asks again.
type Gateway struct {
	client *openai.Client
	model  string
}

// NewGateway creates a gateway with the default model.
func NewGateway(apiKey string) *Gateway {
	return &Gateway{
		client: openai.NewClient(apiKey),
		model:  openai.GPT4oMini,
	}
}

// complete issues one chat completion and returns the raw response text.
func (g *Gateway) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := g.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: g.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: system},
				{Role: openai.ChatMessageRoleUser, Content: user},
			},
		},
	)
	if err != nil {
		return "", classifyUpstreamError(err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty response from model")
	}
	return resp.Choices[0].Message.Content, nil
}

// classifyUpstreamError distinguishes quota exhaustion and server-side
// failures from generic errors so the caller can word its guidance, without
// changing the no-retry policy.
func classifyUpstreamError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == 429:
			return fmt.Errorf("%w: %v", ErrAIQuotaExceeded, err)
		case apiErr.HTTPStatusCode >= 500:
			return fmt.Errorf("%w: %v", ErrAIServerError, err)
		}
	}
	return fmt.Errorf("AI request failed: %w", err)
}

func formatOptions(q *Question) string {
	var sb strings.Builder
	for _, label := range q.SortedLabels() {
		sb.WriteString(fmt.Sprintf("%s. %s\n", label, q.Options[label]))
	}
	return sb.String()
}

// GenerateExplanation asks the model for a three-part explanation of a
// question and parses it into structured form.
func (g *Gateway) GenerateExplanation(ctx context.Context, q *Question) (*Explanation, error) {
	var sb strings.Builder
	sb.WriteString("Explain the following exam question for a beginner.\n")
	sb.WriteString(fmt.Sprintf("The correct answer is %s.\n", strings.Join(q.Answer, ", ")))
	sb.WriteString("Do not use jargon without explaining it first.\n\n")
	sb.WriteString("Question:\n")
	sb.WriteString(q.Text)
	sb.WriteString("\n\nOptions:\n")
	sb.WriteString(formatOptions(q))
	sb.WriteString("\nStructure your explanation as a JSON object with exactly three string fields:\n")
	sb.WriteString(`1. "analogy": a simple, easy-to-understand analogy.` + "\n")
	sb.WriteString(`2. "visualization": a text-based visualization.` + "\n")
	sb.WriteString(`3. "core_concepts": a summary of the key concepts, explaining why the correct answer is right and the others are wrong.` + "\n\n")
	sb.WriteString("Output strictly this JSON format:\n")
	sb.WriteString(`{"analogy": "...", "visualization": "...", "core_concepts": "..."}`)

	raw, err := g.complete(ctx,
		"You are a patient tutor known for making students feel confident and smart.",
		sb.String())
	if err != nil {
		return nil, err
	}
	return parseExplanation(raw)
}

// parseExplanation requires a parseable JSON object; individually missing
// fields degrade to a placeholder rather than failing the whole request.
func parseExplanation(raw string) (*Explanation, error) {
	var exp Explanation
	if err := ExtractJSONObject(raw, &exp); err != nil {
		return nil, err
	}
	if exp.Analogy == "" {
		exp.Analogy = "not available"
	}
	if exp.Visualization == "" {
		exp.Visualization = "not available"
	}
	if exp.CoreConcepts == "" {
		exp.CoreConcepts = "not available"
	}
	return &exp, nil
}

// GenerateVariant asks the model for a new question testing the same concept
// as the original, with surface details changed.
func (g *Gateway) GenerateVariant(ctx context.Context, q *Question) (*GeneratedQuestion, error) {
	var sb strings.Builder
	sb.WriteString("Based on the provided question, create a new, similar one.\n\n")
	sb.WriteString("Instructions:\n")
	sb.WriteString("- Test the exact same core concept.\n")
	sb.WriteString("- Change surface details like names and values.\n")
	sb.WriteString("- The output MUST be a valid JSON object and nothing else.\n\n")
	sb.WriteString("Expected output format:\n")
	sb.WriteString(`{"question": "...", "options": {"A": "...", "B": "..."}, "answer": ["A"]}` + "\n\n")
	sb.WriteString("Input question:\n")
	sb.WriteString(q.Text)
	sb.WriteString("\n\nOptions:\n")
	sb.WriteString(formatOptions(q))
	sb.WriteString(fmt.Sprintf("\nCorrect answer: %s\n", strings.Join(q.Answer, ", ")))

	raw, err := g.complete(ctx,
		"You are an expert certification-exam question writer.",
		sb.String())
	if err != nil {
		return nil, err
	}
	return parseGeneratedQuestion(raw)
}

// parseGeneratedQuestion enforces the variant contract: question, options
// and answer must all be present; a scalar answer is normalized into a
// one-element list rather than rejected.
func parseGeneratedQuestion(raw string) (*GeneratedQuestion, error) {
	var payload struct {
		Question *string           `json:"question"`
		Options  map[string]string `json:"options"`
		Answer   json.RawMessage   `json:"answer"`
	}
	if err := ExtractJSONObject(raw, &payload); err != nil {
		return nil, err
	}

	var missing []string
	if payload.Question == nil {
		missing = append(missing, "question")
	}
	if payload.Options == nil {
		missing = append(missing, "options")
	}
	if payload.Answer == nil {
		missing = append(missing, "answer")
	}
	if len(missing) > 0 {
		return nil, &IncompleteGeneratedQuestionError{Raw: raw, Missing: missing}
	}

	gq := GeneratedQuestion{
		Question: *payload.Question,
		Options:  payload.Options,
	}
	if err := json.Unmarshal(payload.Answer, &gq.Answer); err != nil {
		var scalar interface{}
		if err := json.Unmarshal(payload.Answer, &scalar); err != nil {
			return nil, &IncompleteGeneratedQuestionError{Raw: raw, Missing: []string{"answer"}}
		}
		gq.Answer = []string{fmt.Sprintf("%v", scalar)}
	}
	return &gq, nil
}

// AnalyzeDifficulty classifies a question's difficulty. Any token other than
// the three expected ones coerces to medium; only upstream call failures are
// reported, and callers are free to fall back to medium on those too.
func (g *Gateway) AnalyzeDifficulty(ctx context.Context, questionText string) (Difficulty, error) {
	var sb strings.Builder
	sb.WriteString("Analyze the difficulty of the following exam question.\n")
	sb.WriteString("Consider the subtlety of the concept, the number of components involved, and the depth of knowledge required.\n\n")
	sb.WriteString(`Classify it as one of three levels: "easy", "medium", "hard".` + "\n")
	sb.WriteString("Your answer must be ONLY ONE of these three words and nothing else.\n\n")
	sb.WriteString("Question:\n---\n")
	sb.WriteString(questionText)
	sb.WriteString("\n---\n")

	raw, err := g.complete(ctx, "You classify exam question difficulty.", sb.String())
	if err != nil {
		return DifficultyMedium, err
	}
	return normalizeDifficulty(raw), nil
}

// normalizeDifficulty maps raw model output onto a difficulty tag. The match
// is exact and case-sensitive after trimming whitespace; anything else is
// medium.
func normalizeDifficulty(raw string) Difficulty {
	if d, ok := ParseDifficulty(strings.TrimSpace(raw)); ok {
		return d
	}
	return DifficultyMedium
}

// ChatReply continues a free-form tutor conversation.
func (g *Gateway) ChatReply(ctx context.Context, history []ChatMessage, message string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: "You are a friendly exam tutor. Answer study questions clearly and encourage the student.",
	})
	for _, msg := range history {
		role := openai.ChatMessageRoleUser
		if msg.Role == ChatRoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    g.model,
		Messages: messages,
	})
	if err != nil {
		return "", classifyUpstreamError(err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty response from model")
	}
	return resp.Choices[0].Message.Content, nil
}
