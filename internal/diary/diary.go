// Package diary models journal entries and converts raw diary text into
// RPG-flavoured narrative.
//
// A [Converter] turns one day's real-world diary text into a [Diary]: it
// substitutes real names with in-game names ([Replacer]), runs the narrative
// conversion and the emotion analysis in parallel against an injected LLM
// provider, rolls an optional random life event ([EventRoller]), and derives
// base rewards from the entry's word count. The converter never persists
// anything; callers store the result and feed the rewards to the
// progression engine.
package diary

import "time"

// Sentiment is the overall emotional polarity of a diary entry.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// IsValid reports whether s is a recognised sentiment.
func (s Sentiment) IsValid() bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	}
	return false
}

// Score maps the sentiment onto a chartable value: positive 1, neutral 0,
// negative -1.
func (s Sentiment) Score() int {
	switch s {
	case SentimentPositive:
		return 1
	case SentimentNegative:
		return -1
	}
	return 0
}

// EmotionAnalysis is the structured result of analysing a diary entry.
type EmotionAnalysis struct {
	// Primary is the dominant emotion tag (e.g. "joy", "frustration").
	Primary string `json:"primary"`

	// OverallSentiment is the entry's polarity.
	OverallSentiment Sentiment `json:"overallSentiment"`

	// Confidence is the model's self-reported confidence in [0,1].
	Confidence float64 `json:"confidence"`
}

// Rewards is experience and gold granted by a diary entry or event.
type Rewards struct {
	Exp  int `json:"exp"`
	Gold int `json:"gold"`
}

// Metadata carries derived facts about the original entry text.
type Metadata struct {
	// WordCount is the number of words in the original text.
	WordCount int `json:"wordCount"`
}

// EventKind classifies a random life event. The set is closed; every
// consumer handles all three kinds.
type EventKind string

const (
	// EventEncounter is a chance meeting woven into the day's narrative.
	EventEncounter EventKind = "encounter"

	// EventTreasure is a lucky find granting extra gold.
	EventTreasure EventKind = "treasure"

	// EventBlessing is a boon granting extra experience.
	EventBlessing EventKind = "blessing"
)

// IsValid reports whether k is a recognised event kind.
func (k EventKind) IsValid() bool {
	switch k {
	case EventEncounter, EventTreasure, EventBlessing:
		return true
	}
	return false
}

// RandomEvent is a surprise woven into a converted diary entry, carrying
// bonus rewards on top of the entry's base rewards.
type RandomEvent struct {
	Kind        EventKind `json:"kind"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Bonus       Rewards   `json:"bonus"`
}

// Diary is one converted journal entry.
type Diary struct {
	// ID is a unique identifier, assigned at creation.
	ID string `json:"id"`

	// CharacterID names the owning character.
	CharacterID string `json:"characterId"`

	// Date is the calendar day the entry describes, at midnight UTC.
	Date time.Time `json:"date"`

	// Title is an optional entry title.
	Title string `json:"title,omitempty"`

	// OriginalText is the user's raw diary text.
	OriginalText string `json:"originalText"`

	// ConvertedText is the RPG-flavoured narrative.
	ConvertedText string `json:"convertedText"`

	// Rewards are the base rewards derived from word count.
	Rewards Rewards `json:"rewards"`

	// Metadata carries derived facts about the original text.
	Metadata Metadata `json:"metadata"`

	// EmotionAnalysis is the structured emotion result.
	EmotionAnalysis EmotionAnalysis `json:"emotionAnalysis"`

	// Events are the random events rolled for this entry, possibly empty.
	Events []RandomEvent `json:"events"`

	// CreatedAt is when the entry was saved.
	CreatedAt time.Time `json:"createdAt"`
}

// TotalRewards sums the base rewards and every event bonus.
func (d *Diary) TotalRewards() Rewards {
	total := d.Rewards
	for _, ev := range d.Events {
		total.Exp += ev.Bonus.Exp
		total.Gold += ev.Bonus.Gold
	}
	return total
}

// Clone returns a deep copy of the diary.
func (d *Diary) Clone() *Diary {
	cp := *d
	if d.Events != nil {
		cp.Events = make([]RandomEvent, len(d.Events))
		copy(cp.Events, d.Events)
	}
	return &cp
}

// Day truncates t to its calendar day at midnight UTC. Diary dates are
// stored in this form so date equality works across entries.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
