package character

// CostFunc is an injectable level curve. It returns the experience required
// to advance from level to level+1 and must be positive and nondecreasing
// in level.
type CostFunc func(level int) int

// DefaultCostBase is the base step of the default linear curve: advancing
// from level 1 to 2 costs 100 exp, from 2 to 3 costs 200, and so on.
const DefaultCostBase = 100

// LinearCost returns a curve where advancing from level N costs base x N.
func LinearCost(base int) CostFunc {
	return func(level int) int { return base * level }
}

// CumulativeExp converts a (level, relative exp) pair into the total
// experience accumulated since level 1 under the given curve. There is no
// cost to reach level 1, so CumulativeExp(cost, 1, e) == e.
func CumulativeExp(cost CostFunc, level, exp int) int {
	total := exp
	for l := 1; l < level; l++ {
		total += cost(l)
	}
	return total
}

// SplitCumulative converts a cumulative experience total back into a
// (level, relative exp) pair by repeated subtraction starting at level 1.
// A negative total clamps to level 1 with zero exp.
//
// SplitCumulative inverts [CumulativeExp]: for any state where
// exp < cost(level), splitting the cumulative total reproduces the pair
// exactly.
func SplitCumulative(cost CostFunc, total int) (level, exp int) {
	if total < 0 {
		return 1, 0
	}
	level = 1
	for {
		c := cost(level)
		// A non-positive cost would never terminate.
		if c <= 0 || total < c {
			return level, total
		}
		total -= c
		level++
	}
}
