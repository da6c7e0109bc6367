package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rpupo63/rooms-blog-backend/config"
	"github.com/rpupo63/rooms-blog-backend/errs"
	"github.com/rpupo63/rooms-blog-backend/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	DefaultGeminiModel = "gemini-1.5-flash"
	DefaultOpenAIModel = "gpt-4o-mini"
	minContextLength   = 10
)

// GenerateInput asks for a new draft, or a revision of existingContent when
// a change request is given.
type GenerateInput struct {
	Tone               models.Tone     `json:"tone"`
	Language           models.Language `json:"language"`
	CustomInstructions string          `json:"customInstructions,omitempty"`
	Context            string          `json:"context"`
	ExistingContent    models.Blocks   `json:"existingContent,omitempty"`
	ChangeRequest      string          `json:"changeRequest,omitempty"`
}

func (in GenerateInput) validate() error {
	if !in.Tone.Valid() {
		return errs.NewValidationError("tone", fmt.Sprintf("unsupported tone %q", in.Tone))
	}
	if !in.Language.Valid() {
		return errs.NewValidationError("language", fmt.Sprintf("unsupported language %q", in.Language))
	}
	if utf8.RuneCountInString(strings.TrimSpace(in.Context)) < minContextLength {
		return errs.NewValidationError("context", fmt.Sprintf("context must be at least %d characters", minContextLength))
	}
	return nil
}

// refining reports whether the request revises existing content.
func (in GenerateInput) refining() bool {
	return len(in.ExistingContent) > 0 && strings.TrimSpace(in.ChangeRequest) != ""
}

// GeneratedDraft is what the model returns, already checked against the
// block schema
type GeneratedDraft struct {
	Title   string        `json:"title"`
	Excerpt string        `json:"excerpt"`
	Content models.Blocks `json:"content"`
}

// DraftGenerator writes blog drafts with a language model. A generator
// without a model reports the AI service as unavailable.
type DraftGenerator struct {
	model  llms.Model
	logger zerolog.Logger
}

func NewDraftGenerator(model llms.Model) *DraftGenerator {
	return &DraftGenerator{
		model:  model,
		logger: log.With().Str("component", "draftGenerator").Logger(),
	}
}

// NewDraftGeneratorFromConfig picks the model from AI_PROVIDER: "gemini"
// (default, GEMINI_API_KEY and GEMINI_MODEL) or "openai" (OPENAI_API_KEY and
// OPENAI_MODEL). Without a key the generator is returned unconfigured.
func NewDraftGeneratorFromConfig(ctx context.Context, cfg map[string]string) (*DraftGenerator, error) {
	switch provider := strings.ToLower(config.GetString(cfg, "AI_PROVIDER", "gemini")); provider {
	case "gemini":
		apiKey := config.GetString(cfg, "GEMINI_API_KEY", "")
		if apiKey == "" {
			log.Warn().Msg("GEMINI_API_KEY not set, AI generation disabled")
			return NewDraftGenerator(nil), nil
		}
		model, err := googleai.New(ctx,
			googleai.WithAPIKey(apiKey),
			googleai.WithDefaultModel(config.GetString(cfg, "GEMINI_MODEL", DefaultGeminiModel)),
		)
		if err != nil {
			return nil, errs.NewConfigError("GEMINI_API_KEY", err)
		}
		return NewDraftGenerator(model), nil
	case "openai":
		apiKey := config.GetString(cfg, "OPENAI_API_KEY", "")
		if apiKey == "" {
			log.Warn().Msg("OPENAI_API_KEY not set, AI generation disabled")
			return NewDraftGenerator(nil), nil
		}
		model, err := openai.New(
			openai.WithToken(apiKey),
			openai.WithModel(config.GetString(cfg, "OPENAI_MODEL", DefaultOpenAIModel)),
		)
		if err != nil {
			return nil, errs.NewConfigError("OPENAI_API_KEY", err)
		}
		return NewDraftGenerator(model), nil
	default:
		return nil, errs.NewConfigError("AI_PROVIDER", fmt.Errorf("unknown provider %q", provider))
	}
}

// Generate runs one prompt in JSON mode and parses the reply into a draft.
func (g *DraftGenerator) Generate(ctx context.Context, in GenerateInput) (*GeneratedDraft, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if g == nil || g.model == nil {
		return nil, errs.NewServiceUnavailableError("AI service")
	}

	prompt, err := buildPrompt(in)
	if err != nil {
		return nil, errs.NewInternalError("could not build prompt")
	}

	reply, err := llms.GenerateFromSinglePrompt(ctx, g.model, prompt,
		llms.WithJSONMode(),
		llms.WithTemperature(0.7),
		llms.WithTopK(40),
		llms.WithTopP(0.95),
		llms.WithMaxTokens(8192),
	)
	if err != nil {
		g.logger.Error().Err(err).Msg("model call failed")
		return nil, errs.NewDependencyFailure("AI service", "generate content", err)
	}

	draft, err := parseDraft(reply)
	if err != nil {
		g.logger.Error().Err(err).Int("replyLength", len(reply)).Msg("invalid AI response")
		return nil, errs.NewJSONUnmarshalError("AI response", err)
	}

	g.logger.Info().
		Str("tone", string(in.Tone)).
		Str("language", string(in.Language)).
		Bool("refinement", in.refining()).
		Int("blocks", len(draft.Content)).
		Msg("draft generated")
	return draft, nil
}

const responseFormat = `Your response must be valid JSON with this structure:
{
  "title": "Blog title",
  "excerpt": "Brief 1-2 sentence summary",
  "content": [
    {
      "_type": "block",
      "style": "normal",
      "children": [{"_type": "span", "text": "Paragraph text", "marks": []}]
    }
  ]
}

Use these block styles: normal, h1, h2, h3, h4, blockquote
Use these marks for inline formatting: strong, em, code
Create well-structured, engaging content with proper headings and paragraphs.`

func buildPrompt(in GenerateInput) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are an expert blog writer. Generate high-quality blog content in %s with a %s tone.", in.Language.Name(), in.Tone)
	if instructions := strings.TrimSpace(in.CustomInstructions); instructions != "" {
		fmt.Fprintf(&sb, "\n\nAdditional instructions: %s", instructions)
	}
	sb.WriteString("\n\n")
	sb.WriteString(responseFormat)
	sb.WriteString("\n\n")

	if in.refining() {
		existing, err := json.MarshalIndent(in.ExistingContent, "", "  ")
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, "Here's the existing content:\n%s\n\nUser wants to change: %s\n\n", existing, strings.TrimSpace(in.ChangeRequest))
		sb.WriteString("Modify the content according to the user's request while maintaining the overall structure and quality.")
	} else {
		fmt.Fprintf(&sb, "Context/Topic: %s\n\nGenerate a complete blog post about this topic.", strings.TrimSpace(in.Context))
	}
	return sb.String(), nil
}

func parseDraft(reply string) (*GeneratedDraft, error) {
	reply = strings.TrimSpace(reply)
	// some models wrap JSON mode output in a markdown fence anyway
	if strings.HasPrefix(reply, "```") {
		reply = strings.TrimPrefix(reply, "```json")
		reply = strings.TrimPrefix(reply, "```")
		reply = strings.TrimSuffix(reply, "```")
	}

	var draft GeneratedDraft
	if err := json.Unmarshal([]byte(reply), &draft); err != nil {
		return nil, err
	}
	draft.Title = strings.TrimSpace(draft.Title)
	draft.Excerpt = strings.TrimSpace(draft.Excerpt)

	switch {
	case draft.Title == "":
		return nil, fmt.Errorf("response has no title")
	case draft.Excerpt == "":
		return nil, fmt.Errorf("response has no excerpt")
	case len(draft.Content) == 0:
		return nil, fmt.Errorf("response has no content")
	}
	if err := draft.Content.Validate(); err != nil {
		return nil, err
	}
	return &draft, nil
}
