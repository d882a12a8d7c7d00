package diary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/meteoright00/diary-quest-sub001/internal/character"
	"github.com/meteoright00/diary-quest-sub001/pkg/provider/llm"
)

// ErrEmptyText is returned when a conversion request carries no entry text.
var ErrEmptyText = errors.New("entry text is empty")

// ErrNoCharacter is returned when a conversion request names no character.
var ErrNoCharacter = errors.New("character is required")

// Base rewards for saving an entry, plus a word-count scale: one extra exp
// per 10 words and one extra gold per 20 words.
const (
	baseExpReward   = 50
	expWordDivisor  = 10
	baseGoldReward  = 10
	goldWordDivisor = 20
)

// Narrative conversion favours colour over determinism; emotion analysis is
// the opposite and pins temperature to zero.
const (
	defaultNarrativeTemperature = 0.7
	emotionMaxTokens            = 256
)

// narrativePromptBase is the core of the conversion system prompt. World
// settings and the hero's identity are appended per request.
const narrativePromptBase = `You are the chronicler of a fantasy world. Rewrite the diary entry provided by the user as a short scene from an ongoing RPG adventure, with the diary's author as the hero.

Rules:
- Keep every real event from the entry, reimagined in fantasy terms (work becomes quests, colleagues become companions, difficulties become monsters or obstacles).
- Write in second person, past tense, three paragraphs at most.
- Keep the hero's in-game name and never reveal real-world names.
- Match the emotional tone of the original entry; do not invent triumphs the author did not have.
- Respond with the narrative only, no headers or commentary.`

// ConvertRequest carries one diary entry through conversion.
type ConvertRequest struct {
	// Character is the hero of the narrative; its name mappings drive the
	// real-name substitution.
	Character *character.Character

	// Date is the calendar day the entry describes.
	Date time.Time

	// Title is an optional entry title.
	Title string

	// Text is the raw diary text.
	Text string
}

// Converter turns raw diary text into a fully assembled [Diary] using an
// injected LLM provider. Construct with [NewConverter]; a Converter is safe
// for concurrent use.
type Converter struct {
	llm         llm.Provider
	roller      *EventRoller
	world       string
	temperature float64
	maxTokens   int
}

// ConverterOption is a functional option for [NewConverter].
type ConverterOption func(*Converter)

// WithWorld folds the world-settings document into the narrative prompt.
func WithWorld(content string) ConverterOption {
	return func(c *Converter) { c.world = content }
}

// WithEventRoller replaces the default event roller.
func WithEventRoller(r *EventRoller) ConverterOption {
	return func(c *Converter) { c.roller = r }
}

// WithTemperature overrides the narrative sampling temperature.
// Default: 0.7.
func WithTemperature(t float64) ConverterOption {
	return func(c *Converter) { c.temperature = t }
}

// WithMaxTokens bounds the narrative output length. Zero leaves the
// provider default in place.
func WithMaxTokens(n int) ConverterOption {
	return func(c *Converter) { c.maxTokens = n }
}

// NewConverter creates a [Converter] backed by the given provider.
func NewConverter(provider llm.Provider, opts ...ConverterOption) *Converter {
	c := &Converter{
		llm:         provider,
		temperature: defaultNarrativeTemperature,
	}
	for _, o := range opts {
		o(c)
	}
	if c.roller == nil {
		c.roller = NewEventRoller()
	}
	return c
}

// Convert runs the full conversion for one entry:
//
//  1. Real names are substituted with game names.
//  2. The narrative conversion and the emotion analysis run in parallel;
//     the first failure aborts both and is returned with its stage.
//  3. A random life event is rolled.
//  4. Base rewards are derived from the original word count.
//
// The returned diary is not persisted. Callers store it and then feed
// TotalRewards and the streak flag to the progression engine.
func (c *Converter) Convert(ctx context.Context, req ConvertRequest) (*Diary, error) {
	if req.Character == nil {
		return nil, fmt.Errorf("diary: convert: %w", ErrNoCharacter)
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("diary: convert: %w", ErrEmptyText)
	}

	mapped := NewReplacer(req.Character.NameMappings).Apply(req.Text)

	var (
		narrative string
		emotion   EmotionAnalysis
	)

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		resp, err := c.llm.Complete(egCtx, llm.CompletionRequest{
			SystemPrompt: c.narrativePrompt(req.Character),
			Temperature:  c.temperature,
			MaxTokens:    c.maxTokens,
			Messages: []llm.Message{
				{Role: llm.RoleUser, Content: mapped},
			},
		})
		if err != nil {
			return fmt.Errorf("diary: convert: narrative: %w", err)
		}
		narrative = strings.TrimSpace(resp.Content)
		return nil
	})

	eg.Go(func() error {
		resp, err := c.llm.Complete(egCtx, llm.CompletionRequest{
			SystemPrompt: emotionPrompt,
			Temperature:  0,
			MaxTokens:    emotionMaxTokens,
			Messages: []llm.Message{
				{Role: llm.RoleUser, Content: mapped},
			},
		})
		if err != nil {
			return fmt.Errorf("diary: convert: emotion analysis: %w", err)
		}
		parsed, err := ParseEmotion(resp.Content)
		if err != nil {
			return err
		}
		emotion = parsed
		return nil
	})

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var events []RandomEvent
	if ev := c.roller.Roll(); ev != nil {
		events = []RandomEvent{*ev}
	}

	wordCount := len(strings.Fields(req.Text))

	return &Diary{
		ID:            uuid.NewString(),
		CharacterID:   req.Character.ID,
		Date:          Day(req.Date),
		Title:         req.Title,
		OriginalText:  req.Text,
		ConvertedText: narrative,
		Rewards: Rewards{
			Exp:  baseExpReward + wordCount/expWordDivisor,
			Gold: baseGoldReward + wordCount/goldWordDivisor,
		},
		Metadata:        Metadata{WordCount: wordCount},
		EmotionAnalysis: emotion,
		Events:          events,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

// StreamConvert runs the narrative conversion only and returns the
// provider's chunk stream for live display. Emotion analysis, events and
// rewards are skipped; callers wanting the full entry use [Converter.Convert].
func (c *Converter) StreamConvert(ctx context.Context, req ConvertRequest) (<-chan llm.Chunk, error) {
	if req.Character == nil {
		return nil, fmt.Errorf("diary: stream convert: %w", ErrNoCharacter)
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("diary: stream convert: %w", ErrEmptyText)
	}

	mapped := NewReplacer(req.Character.NameMappings).Apply(req.Text)

	chunks, err := c.llm.StreamCompletion(ctx, llm.CompletionRequest{
		SystemPrompt: c.narrativePrompt(req.Character),
		Temperature:  c.temperature,
		MaxTokens:    c.maxTokens,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: mapped},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("diary: stream convert: %w", err)
	}
	return chunks, nil
}

// narrativePrompt appends the world settings and the hero's identity to the
// base conversion prompt.
func (c *Converter) narrativePrompt(ch *character.Character) string {
	var sb strings.Builder
	sb.WriteString(narrativePromptBase)

	if c.world != "" {
		sb.WriteString("\n\nWorld setting:\n")
		sb.WriteString(c.world)
	}

	fmt.Fprintf(&sb, "\n\nThe hero: %s, level %d", ch.Name, ch.Level.Current)
	if ch.Class != "" {
		fmt.Fprintf(&sb, ", a %s", ch.Class)
	}
	if ch.Guild != "" {
		fmt.Fprintf(&sb, " of the %s", ch.Guild)
	}
	sb.WriteString(".")
	return sb.String()
}
