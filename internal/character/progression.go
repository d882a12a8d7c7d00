package character

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNegativeAmount is returned when an experience or currency award is
// negative. The character is left untouched.
var ErrNegativeAmount = errors.New("amount must not be negative")

// ErrUnknownSlot is returned when an equipment slot name is not one of
// weapon, armor, accessory.
var ErrUnknownSlot = errors.New("unknown equipment slot")

// Starting values for a freshly created character.
const (
	startHP      = 100
	startMP      = 50
	startStamina = 80
	startCombat  = 10
	startGold    = 100
)

// DefaultTitle is granted to every newly created character.
const DefaultTitle = "Novice Adventurer"

// Growth is the per-level stat increment table applied on level-up. Each
// field is added once per level gained; HP, MP and Stamina increments raise
// the maximum, with the current value fully restored afterwards.
type Growth struct {
	HPMax        int
	MPMax        int
	StaminaMax   int
	Attack       int
	Defense      int
	Magic        int
	MagicDefense int
	Agility      int
	Luck         int
}

// DefaultGrowth returns the standard per-level increments.
func DefaultGrowth() Growth {
	return Growth{
		HPMax:        10,
		MPMax:        5,
		StaminaMax:   5,
		Attack:       2,
		Defense:      2,
		Magic:        2,
		MagicDefense: 2,
		Agility:      1,
		Luck:         1,
	}
}

// Result describes the outcome of one [Engine.AddExperience] call.
type Result struct {
	// LeveledUp reports whether at least one level was gained.
	LeveledUp bool `json:"leveledUp"`

	// LevelsGained is the number of levels gained, possibly more than one
	// for a large award. Always NewLevel minus the level before the call.
	LevelsGained int `json:"levelsGained"`

	// NewLevel is the character's level after the call.
	NewLevel int `json:"newLevel"`
}

// Engine resolves experience, leveling, currency and equipment operations
// for a Character. The zero value is not usable; construct with [NewEngine].
type Engine struct {
	cost   CostFunc
	growth Growth
}

// Option is a functional option for [NewEngine].
type Option func(*Engine)

// WithCostFunc overrides the level curve. Defaults to
// LinearCost(DefaultCostBase).
func WithCostFunc(cost CostFunc) Option {
	return func(e *Engine) { e.cost = cost }
}

// WithGrowth overrides the per-level stat increments. Defaults to
// [DefaultGrowth].
func WithGrowth(g Growth) Option {
	return func(e *Engine) { e.growth = g }
}

// NewEngine creates an [Engine] with the default level curve and growth
// table. Apply [Option] values to override either.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		cost:   LinearCost(DefaultCostBase),
		growth: DefaultGrowth(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Cost exposes the engine's level curve so collaborators (the report
// aggregator) compute with the same progression the engine applies.
func (e *Engine) Cost() CostFunc {
	return e.cost
}

// CreateOption customises a character at creation time.
type CreateOption func(*Character)

// WithClass sets the character's class.
func WithClass(class string) CreateOption {
	return func(c *Character) { c.Class = class }
}

// WithGuild sets the character's guild affiliation.
func WithGuild(guild string) CreateOption {
	return func(c *Character) { c.Guild = guild }
}

// WithTitle replaces the initial title. Defaults to [DefaultTitle].
func WithTitle(title string) CreateOption {
	return func(c *Character) { c.Titles = []string{title} }
}

// CreateCharacter produces a new level-1 character with fixed starting
// stats, 100 gold and one initial title. Collections start empty.
func (e *Engine) CreateCharacter(name, worldID string, opts ...CreateOption) *Character {
	now := time.Now().UTC()
	ch := &Character{
		ID:      uuid.NewString(),
		WorldID: worldID,
		Name:    name,
		Level: Level{
			Current:        1,
			Exp:            0,
			ExpToNextLevel: e.cost(1),
		},
		Stats: Stats{
			HP:           Resource{Current: startHP, Max: startHP},
			MP:           Resource{Current: startMP, Max: startMP},
			Stamina:      Resource{Current: startStamina, Max: startStamina},
			Attack:       startCombat,
			Defense:      startCombat,
			Magic:        startCombat,
			MagicDefense: startCombat,
			Agility:      startCombat,
			Luck:         startCombat,
		},
		Currency:     Currency{Gold: startGold},
		Titles:       []string{DefaultTitle},
		Skills:       []string{},
		Achievements: []string{},
		Inventory:    []string{},
		QuestLog:     []string{},
		NameMappings: []NameMapping{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, o := range opts {
		o(ch)
	}
	return ch
}

// AddExperience awards expDelta experience and resolves any level-ups.
//
// The delta lands on the character's relative exp; level-ups are then
// resolved by repeated subtraction of the level cost, so one large award can
// gain several levels. On any level gain the growth table is applied once
// per level and HP, MP and Stamina are fully restored. After return,
// Level.Exp < Level.ExpToNextLevel always holds.
//
// A negative delta is rejected with [ErrNegativeAmount] and the character is
// left untouched.
func (e *Engine) AddExperience(ch *Character, expDelta int) (Result, error) {
	if expDelta < 0 {
		return Result{}, fmt.Errorf("character: add experience: delta %d: %w", expDelta, ErrNegativeAmount)
	}

	before := ch.Level.Current
	ch.Level.Exp += expDelta
	ch.Statistics.TotalExpEarned += expDelta

	for {
		c := e.cost(ch.Level.Current)
		// A non-positive cost would never be consumed.
		if c <= 0 || ch.Level.Exp < c {
			break
		}
		ch.Level.Exp -= c
		ch.Level.Current++
	}
	ch.Level.ExpToNextLevel = e.cost(ch.Level.Current)

	gained := ch.Level.Current - before
	if gained > 0 {
		e.applyGrowth(ch, gained)
		ch.Statistics.TimesLeveledUp += gained
	}

	return Result{
		LeveledUp:    gained > 0,
		LevelsGained: gained,
		NewLevel:     ch.Level.Current,
	}, nil
}

// applyGrowth raises base stats by the growth table once per level gained
// and restores all resources to their new maximum.
func (e *Engine) applyGrowth(ch *Character, levels int) {
	g := e.growth
	ch.Stats.HP.Max += g.HPMax * levels
	ch.Stats.MP.Max += g.MPMax * levels
	ch.Stats.Stamina.Max += g.StaminaMax * levels
	ch.Stats.Attack += g.Attack * levels
	ch.Stats.Defense += g.Defense * levels
	ch.Stats.Magic += g.Magic * levels
	ch.Stats.MagicDefense += g.MagicDefense * levels
	ch.Stats.Agility += g.Agility * levels
	ch.Stats.Luck += g.Luck * levels

	ch.Stats.HP.Current = ch.Stats.HP.Max
	ch.Stats.MP.Current = ch.Stats.MP.Max
	ch.Stats.Stamina.Current = ch.Stats.Stamina.Max
}

// AddCurrency awards gold and silver, then normalises silver into gold at
// 100:1 so Currency.Silver stays within [0,100). Negative amounts are
// rejected with [ErrNegativeAmount].
func (e *Engine) AddCurrency(ch *Character, gold, silver int) error {
	if gold < 0 || silver < 0 {
		return fmt.Errorf("character: add currency: gold %d silver %d: %w", gold, silver, ErrNegativeAmount)
	}
	ch.Currency.Gold += gold
	ch.Currency.Silver += silver
	ch.Currency.Gold += ch.Currency.Silver / 100
	ch.Currency.Silver %= 100
	return nil
}

// EquipItem places item into the slot matching its type, displacing any
// previously equipped item. It reports false without mutating the character
// when the character's level is below item.RequiredLevel or the item's slot
// is not recognised. Equipping below the required level is an expected
// outcome, not an error.
func (e *Engine) EquipItem(ch *Character, item Equipment) bool {
	if ch.Level.Current < item.RequiredLevel {
		return false
	}
	it := item
	switch item.Slot {
	case SlotWeapon:
		ch.Equipment.Weapon = &it
	case SlotArmor:
		ch.Equipment.Armor = &it
	case SlotAccessory:
		ch.Equipment.Accessory = &it
	default:
		return false
	}
	return true
}

// UnequipItem clears the given slot unconditionally. An unrecognised slot
// name is rejected with [ErrUnknownSlot].
func (e *Engine) UnequipItem(ch *Character, slot Slot) error {
	switch slot {
	case SlotWeapon:
		ch.Equipment.Weapon = nil
	case SlotArmor:
		ch.Equipment.Armor = nil
	case SlotAccessory:
		ch.Equipment.Accessory = nil
	default:
		return fmt.Errorf("character: unequip %q: %w", slot, ErrUnknownSlot)
	}
	return nil
}

// TotalStats returns a derived stat snapshot: base stats plus the additive
// bonuses of every equipped item. HP and MP bonuses raise the maximum only;
// current values are copied through unchanged. The character is never
// mutated.
func (e *Engine) TotalStats(ch *Character) Stats {
	total := ch.Stats
	for _, item := range []*Equipment{ch.Equipment.Weapon, ch.Equipment.Armor, ch.Equipment.Accessory} {
		if item == nil {
			continue
		}
		b := item.Bonuses
		total.HP.Max += b.HP
		total.MP.Max += b.MP
		total.Attack += b.Attack
		total.Defense += b.Defense
		total.Magic += b.Magic
		total.MagicDefense += b.MagicDefense
		total.Agility += b.Agility
		total.Luck += b.Luck
	}
	return total
}

// UpdateDiaryStatistics records one saved diary entry. isNewStreak extends
// the current streak by a day; otherwise the streak restarts at 1, because
// the entry being recorded is itself day one of the fresh streak. The
// longest streak is raised whenever the current streak passes it.
func (e *Engine) UpdateDiaryStatistics(ch *Character, wordCount int, isNewStreak bool) {
	ch.Statistics.TotalDiaries++
	ch.Statistics.TotalWordsWritten += wordCount

	if isNewStreak {
		ch.Statistics.ConsecutiveDays++
	} else {
		ch.Statistics.ConsecutiveDays = 1
	}
	if ch.Statistics.ConsecutiveDays > ch.Statistics.LongestStreak {
		ch.Statistics.LongestStreak = ch.Statistics.ConsecutiveDays
	}
}
