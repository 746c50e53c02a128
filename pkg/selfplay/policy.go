package selfplay

import (
	"math/rand"

	"github.com/yourusername/bgsim/pkg/game"
)

// Policy chooses one action from the legal set. The legal slice is owned by
// the state and must not be retained.
type Policy interface {
	Name() string
	Select(s *game.State, legal []int, rng *rand.Rand) int
}

// RandomPolicy picks uniformly among the legal actions.
type RandomPolicy struct{}

// Name returns "random".
func (RandomPolicy) Name() string { return "random" }

// Select returns a uniformly random legal action.
func (RandomPolicy) Select(_ *game.State, legal []int, rng *rand.Rand) int {
	return legal[rng.Intn(len(legal))]
}

// GreedyPipPolicy races: it plays the checker action that minimizes its own
// pip count, breaking ties by the damage done to the opponent's. It never
// doubles and always takes, so cube games run to checker-play conclusions.
type GreedyPipPolicy struct{}

// Name returns "greedy-pip".
func (GreedyPipPolicy) Name() string { return "greedy-pip" }

// Select returns the pip-greedy choice from the legal set.
func (GreedyPipPolicy) Select(s *game.State, legal []int, _ *rand.Rand) int {
	if game.IsCubeAction(legal[0]) {
		for _, code := range legal {
			if code == game.ActionNoDouble || code == game.ActionTake {
				return code
			}
		}
		return legal[0]
	}

	me := s.Turn()
	best := legal[0]
	bestOwn, bestOpp := 1<<30, -1
	for _, code := range legal {
		c := s.Clone()
		if err := c.ApplyAction(code); err != nil {
			continue
		}
		own := c.PipCount(me)
		opp := c.PipCount(1 - me)
		if own < bestOwn || (own == bestOwn && opp > bestOpp) {
			best, bestOwn, bestOpp = code, own, opp
		}
	}
	return best
}
