package diary

import (
	"math/rand/v2"
	"sync"
)

// DefaultEventChance is the probability that saving a diary entry rolls one
// random life event.
const DefaultEventChance = 0.15

// eventKinds lists the tables in roll order.
var eventKinds = []EventKind{EventEncounter, EventTreasure, EventBlessing}

// eventTables holds the built-in random events per kind. Kind is filled in
// from the table key when an entry is rolled.
var eventTables = map[EventKind][]RandomEvent{
	EventEncounter: {
		{Name: "Wandering Merchant", Description: "A travelling merchant crossed your path and shared road gossip over tea.", Bonus: Rewards{Exp: 30, Gold: 10}},
		{Name: "Old Friend", Description: "A familiar face from an earlier chapter of your journey appeared out of nowhere.", Bonus: Rewards{Exp: 40, Gold: 0}},
		{Name: "Lost Traveller", Description: "You guided a lost traveller back to the main road and earned their gratitude.", Bonus: Rewards{Exp: 50, Gold: 15}},
		{Name: "Street Performer", Description: "A bard's song in the market square lifted your spirits for the rest of the day.", Bonus: Rewards{Exp: 25, Gold: 0}},
		{Name: "Curious Cat", Description: "A black cat followed you for an hour and then vanished at a crossroads.", Bonus: Rewards{Exp: 20, Gold: 5}},
		{Name: "Rival Adventurer", Description: "A rival challenged you to a friendly contest of wits. You held your ground.", Bonus: Rewards{Exp: 60, Gold: 0}},
	},
	EventTreasure: {
		{Name: "Forgotten Coin Purse", Description: "Tucked behind a loose stone you found a small purse of coins.", Bonus: Rewards{Exp: 10, Gold: 50}},
		{Name: "Glittering Trinket", Description: "A polished trinket caught the light at the bottom of your pack.", Bonus: Rewards{Exp: 15, Gold: 30}},
		{Name: "Buried Cache", Description: "Your boot struck a buried cache left by some earlier wanderer.", Bonus: Rewards{Exp: 20, Gold: 80}},
		{Name: "Lucky Find", Description: "A silver ring lay in the grass, waiting for a keen eye.", Bonus: Rewards{Exp: 10, Gold: 40}},
		{Name: "Grateful Reward", Description: "A stranger you helped days ago left a reward with the innkeeper.", Bonus: Rewards{Exp: 25, Gold: 60}},
		{Name: "Market Bargain", Description: "You haggled a merchant down to a fraction of the asking price.", Bonus: Rewards{Exp: 15, Gold: 25}},
	},
	EventBlessing: {
		{Name: "Morning Clarity", Description: "You woke with uncommon clarity, and the day's work came easily.", Bonus: Rewards{Exp: 80, Gold: 0}},
		{Name: "Traveller's Blessing", Description: "A passing pilgrim spoke a quiet blessing over your journey.", Bonus: Rewards{Exp: 60, Gold: 10}},
		{Name: "Second Wind", Description: "Just when your strength faded, a second wind carried you through.", Bonus: Rewards{Exp: 70, Gold: 0}},
		{Name: "Starlit Omen", Description: "A falling star crossed the sky the moment you looked up.", Bonus: Rewards{Exp: 100, Gold: 0}},
		{Name: "Hearth Comfort", Description: "A warm meal and good company restored more than your body.", Bonus: Rewards{Exp: 50, Gold: 5}},
		{Name: "Muse's Favour", Description: "The words flowed tonight as if someone else held the pen.", Bonus: Rewards{Exp: 90, Gold: 0}},
	},
}

// EventRoller rolls random life events for converted diary entries.
// Safe for concurrent use.
type EventRoller struct {
	mu     sync.Mutex
	chance float64
	rng    *rand.Rand
}

// EventOption is a functional option for [NewEventRoller].
type EventOption func(*EventRoller)

// WithEventChance overrides the per-entry event probability. Defaults to
// [DefaultEventChance].
func WithEventChance(p float64) EventOption {
	return func(r *EventRoller) { r.chance = p }
}

// WithEventSource injects a deterministic random source for tests.
func WithEventSource(rng *rand.Rand) EventOption {
	return func(r *EventRoller) { r.rng = rng }
}

// NewEventRoller creates an [EventRoller] with the default chance and an
// automatically seeded source.
func NewEventRoller(opts ...EventOption) *EventRoller {
	r := &EventRoller{chance: DefaultEventChance}
	for _, o := range opts {
		o(r)
	}
	if r.rng == nil {
		r.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return r
}

// Roll returns one random event with the configured probability, drawn from
// a uniformly chosen table, or nil when the roll misses.
func (r *EventRoller) Roll() *RandomEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rng.Float64() >= r.chance {
		return nil
	}
	kind := eventKinds[r.rng.IntN(len(eventKinds))]
	entries := eventTables[kind]
	ev := entries[r.rng.IntN(len(entries))]
	ev.Kind = kind
	return &ev
}
