package game

import "fmt"

// applyCubeAction runs the doubling sub-machine. No-double and double are
// only legal in CubeDecision; take and pass only in CubeResponse.
func (s *State) applyCubeAction(code int) error {
	switch s.phase {
	case CubeDecision:
		switch code {
		case ActionNoDouble:
			s.phase = AwaitingRoll
		case ActionDouble:
			if !s.cubeAvailable(s.turn) {
				return fmt.Errorf("double by player %d: %w", s.turn, ErrIllegalAction)
			}
			// Control passes to the opponent, who must take or pass.
			s.turn = 1 - s.turn
			s.phase = CubeResponse
		default:
			return fmt.Errorf("cube action %d in phase %s: %w", code, s.phase, ErrWrongPhase)
		}
	case CubeResponse:
		switch code {
		case ActionTake:
			s.cubeValue *= 2
			s.cubeOwner = s.turn
			s.turn = 1 - s.turn
			s.phase = AwaitingRoll
		case ActionPass:
			// The doubler wins the pre-double stake; no checker-play
			// multiplier applies.
			doubler := 1 - s.turn
			s.terminated = true
			s.winner = doubler
			r := float64(s.cubeValue)
			if doubler == Player1 {
				r = -r
			}
			s.reward = r
		default:
			return fmt.Errorf("cube action %d in phase %s: %w", code, s.phase, ErrWrongPhase)
		}
	default:
		return fmt.Errorf("cube action %d in phase %s: %w", code, s.phase, ErrWrongPhase)
	}

	s.history = append(s.history, code)
	s.cacheValid = false
	return nil
}
