package game

import (
	"fmt"
	"math/rand"
)

// Outcome is one of the 21 distinguishable dice rolls.
type Outcome struct {
	High, Low int
	Prob      float64
}

// Outcomes lists the chance outcomes in their fixed order; outcome IDs
// 1..21 index into this table (ID i is Outcomes[i-1]). Doubles carry
// probability 1/36, mixed rolls 2/36; the probabilities sum to 1. The
// order is part of the external contract and must not be re-derived.
var Outcomes = [21]Outcome{
	{1, 1, 1.0 / 36}, {2, 1, 2.0 / 36}, {2, 2, 1.0 / 36},
	{3, 1, 2.0 / 36}, {3, 2, 2.0 / 36}, {3, 3, 1.0 / 36},
	{4, 1, 2.0 / 36}, {4, 2, 2.0 / 36}, {4, 3, 2.0 / 36}, {4, 4, 1.0 / 36},
	{5, 1, 2.0 / 36}, {5, 2, 2.0 / 36}, {5, 3, 2.0 / 36}, {5, 4, 2.0 / 36}, {5, 5, 1.0 / 36},
	{6, 1, 2.0 / 36}, {6, 2, 2.0 / 36}, {6, 3, 2.0 / 36}, {6, 4, 2.0 / 36}, {6, 5, 2.0 / 36}, {6, 6, 1.0 / 36},
}

// OutcomeID returns the 1-based chance outcome identifier for a roll.
func OutcomeID(high, low int) int {
	return high*(high-1)/2 + low
}

// maxAutoPlay bounds the forced-pass resolution loop. A healthy game
// cannot stay blocked for anywhere near this many turns, so hitting the
// cap means the legality generator is broken.
const maxAutoPlay = 64

// SampleChance resolves the pending chance node using the caller-supplied
// RNG: it draws one of the 21 outcomes (or one of the 6 doubles in
// doubles-only mode), sets the dice and the per-turn action budget, and
// auto-resolves any turn whose only legal action is the forced pass by
// applying it and re-rolling for the next player. It returns when the
// state offers a real decision or the game has ended.
func (s *State) SampleChance(rng *rand.Rand) error {
	if s.terminated {
		return nil
	}
	if s.phase != AwaitingRoll {
		return fmt.Errorf("phase %s: %w", s.phase, ErrNotChanceNode)
	}

	for i := 0; i < maxAutoPlay; i++ {
		if s.phase == AwaitingRoll {
			s.rollDice(rng)
		}
		if s.phase != CheckerPlay {
			// A cube decision is a real decision node.
			return nil
		}
		legal := s.LegalActions()
		if len(legal) != 1 || legal[0] != PassAction {
			return nil
		}
		if err := s.ApplyAction(PassAction); err != nil {
			return err
		}
	}
	return ErrAutoPlayLoop
}

// rollDice draws a roll and enters checker play. Doubles grant two actions
// for the turn.
func (s *State) rollDice(rng *rand.Rand) {
	var high, low int
	if s.opts.DoublesOnly {
		high = rng.Intn(6) + 1
		low = high
	} else {
		r := rng.Intn(36)
		a, b := r/6+1, r%6+1
		high, low = a, b
		if low > high {
			high, low = low, high
		}
	}
	s.dice = [2]int{high, low}
	if high == low {
		s.remainingActions = 2
	} else {
		s.remainingActions = 1
	}
	s.phase = CheckerPlay
	s.cacheValid = false
}

// Step composes ApplyAction and SampleChance: it applies the action and,
// when the result is a chance node, immediately resolves the next roll.
func (s *State) Step(code int, rng *rand.Rand) error {
	if err := s.ApplyAction(code); err != nil {
		return err
	}
	if s.IsChanceNode() {
		return s.SampleChance(rng)
	}
	return nil
}
