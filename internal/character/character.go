// Package character implements the progression engine for DiaryQuest
// characters.
//
// The engine owns character creation, experience accrual and level-up
// resolution, stat growth, currency normalisation, equipment gating, and the
// diary streak counters. All operations are synchronous and deterministic;
// the level curve is injected as a [CostFunc] so progression speed is
// swappable without touching the engine, and the per-level stat increments
// are injected as a [Growth] table.
//
// Operations assume exclusive access to the Character for the duration of a
// call. Callers that share a Character across goroutines must serialise
// engine calls themselves; the engine takes no locks.
package character

import "time"

// Character is the mutable aggregate representing the player's avatar.
// It is created once via [Engine.CreateCharacter], mutated only through
// engine operations, and persisted by a repository collaborator.
type Character struct {
	// ID is a unique identifier, assigned at creation.
	ID string `json:"id"`

	// WorldID names the game world this character lives in.
	WorldID string `json:"worldId"`

	// Name is the character's display name.
	Name string `json:"name"`

	// Class is an optional character class (e.g. "warrior", "scribe").
	Class string `json:"class,omitempty"`

	// Guild is an optional guild affiliation.
	Guild string `json:"guild,omitempty"`

	// Level tracks the current level and relative experience.
	Level Level `json:"level"`

	// Stats holds base stats, before any equipment bonuses.
	Stats Stats `json:"stats"`

	// Equipment holds the three equip slots.
	Equipment Loadout `json:"equipment"`

	// Currency is the character's wallet.
	Currency Currency `json:"currency"`

	// Statistics holds the running journal counters.
	Statistics Statistics `json:"statistics"`

	// Titles earned by the character. Never empty after creation.
	Titles []string `json:"titles"`

	// Skills unlocked by the character.
	Skills []string `json:"skills"`

	// Achievements unlocked by the character.
	Achievements []string `json:"achievements"`

	// Inventory lists owned item IDs (equipped or not).
	Inventory []string `json:"inventory"`

	// QuestLog lists quest IDs attached to this character.
	QuestLog []string `json:"questLog"`

	// NameMappings are real-name to game-name substitutions applied during
	// diary conversion.
	NameMappings []NameMapping `json:"nameMappings"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Level tracks progression state.
//
// Exp is relative: it counts experience accrued within the current level
// only, resetting toward zero on every level-up. ExpToNextLevel is the cost
// to advance from Current to Current+1 under the engine's level curve.
type Level struct {
	Current        int `json:"current"`
	Exp            int `json:"exp"`
	ExpToNextLevel int `json:"expToNextLevel"`
}

// Resource is a depletable stat with a current and maximum value.
// Current never exceeds Max.
type Resource struct {
	Current int `json:"current"`
	Max     int `json:"max"`
}

// Stats holds a character's stat block. HP, MP and Stamina are depletable
// resources; the remaining six are plain combat values.
type Stats struct {
	HP           Resource `json:"hp"`
	MP           Resource `json:"mp"`
	Stamina      Resource `json:"stamina"`
	Attack       int      `json:"attack"`
	Defense      int      `json:"defense"`
	Magic        int      `json:"magic"`
	MagicDefense int      `json:"magicDefense"`
	Agility      int      `json:"agility"`
	Luck         int      `json:"luck"`
}

// Slot identifies one of the three equipment slots.
type Slot string

const (
	// SlotWeapon is the weapon slot.
	SlotWeapon Slot = "weapon"

	// SlotArmor is the armor slot.
	SlotArmor Slot = "armor"

	// SlotAccessory is the accessory slot.
	SlotAccessory Slot = "accessory"
)

// IsValid reports whether s is a recognised equipment slot.
func (s Slot) IsValid() bool {
	switch s {
	case SlotWeapon, SlotArmor, SlotAccessory:
		return true
	}
	return false
}

// Equipment is an immutable item definition. Items are not owned by a single
// character; equip slots reference them by value.
type Equipment struct {
	// ID is a unique identifier for the item definition.
	ID string `json:"id"`

	// Name is the item's display name.
	Name string `json:"name"`

	// Slot determines which equip slot the item occupies.
	Slot Slot `json:"slot"`

	// Bonuses are additive stat deltas granted while equipped.
	Bonuses StatBonuses `json:"bonuses"`

	// RequiredLevel gates equipping: characters below it cannot equip the
	// item. Always >= 1.
	RequiredLevel int `json:"requiredLevel"`
}

// StatBonuses are the additive stat deltas an equipment item grants.
// A zero field contributes nothing. HP and MP bonuses raise the maximum
// value only, never the current one.
type StatBonuses struct {
	HP           int `json:"hp,omitempty"`
	MP           int `json:"mp,omitempty"`
	Attack       int `json:"attack,omitempty"`
	Defense      int `json:"defense,omitempty"`
	Magic        int `json:"magic,omitempty"`
	MagicDefense int `json:"magicDefense,omitempty"`
	Agility      int `json:"agility,omitempty"`
	Luck         int `json:"luck,omitempty"`
}

// Loadout holds the character's equipped items, one per slot.
// A nil slot is empty.
type Loadout struct {
	Weapon    *Equipment `json:"weapon,omitempty"`
	Armor     *Equipment `json:"armor,omitempty"`
	Accessory *Equipment `json:"accessory,omitempty"`
}

// Currency is the character's wallet. Silver auto-converts to gold at 100:1,
// so Silver stays within [0,100) after every mutation.
type Currency struct {
	Gold   int `json:"gold"`
	Silver int `json:"silver"`
}

// Statistics holds running counters over the character's journaling history.
type Statistics struct {
	// TotalDiaries counts every saved diary entry.
	TotalDiaries int `json:"totalDiaries"`

	// ConsecutiveDays is the length of the current writing streak.
	ConsecutiveDays int `json:"consecutiveDays"`

	// LongestStreak is the longest writing streak ever reached.
	LongestStreak int `json:"longestStreak"`

	// TotalWordsWritten sums the word counts of all diary entries.
	TotalWordsWritten int `json:"totalWordsWritten"`

	// TotalExpEarned sums every experience award, across all levels.
	TotalExpEarned int `json:"totalExpEarned"`

	// TimesLeveledUp counts individual level gains.
	TimesLeveledUp int `json:"timesLeveledUp"`

	// SkillsUnlocked counts unlocked skills.
	SkillsUnlocked int `json:"skillsUnlocked"`

	// AchievementsUnlocked counts unlocked achievements.
	AchievementsUnlocked int `json:"achievementsUnlocked"`
}

// NameMapping substitutes a real-world name with an in-game one during
// diary conversion.
type NameMapping struct {
	RealName string `json:"realName"`
	GameName string `json:"gameName"`
}

// Clone returns a deep copy of the character. Mutating the copy never
// affects the original.
func (c *Character) Clone() *Character {
	cp := *c
	cp.Equipment = c.Equipment.clone()
	cp.Titles = cloneStrings(c.Titles)
	cp.Skills = cloneStrings(c.Skills)
	cp.Achievements = cloneStrings(c.Achievements)
	cp.Inventory = cloneStrings(c.Inventory)
	cp.QuestLog = cloneStrings(c.QuestLog)
	if c.NameMappings != nil {
		cp.NameMappings = make([]NameMapping, len(c.NameMappings))
		copy(cp.NameMappings, c.NameMappings)
	}
	return &cp
}

func (l Loadout) clone() Loadout {
	cp := l
	if l.Weapon != nil {
		w := *l.Weapon
		cp.Weapon = &w
	}
	if l.Armor != nil {
		a := *l.Armor
		cp.Armor = &a
	}
	if l.Accessory != nil {
		ac := *l.Accessory
		cp.Accessory = &ac
	}
	return cp
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	cp := make([]string, len(s))
	copy(cp, s)
	return cp
}
