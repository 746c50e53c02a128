package game

import "fmt"

// snapshot captures every field a checker action can mutate, so a failed
// application can roll back without leaving partial moves behind.
type snapshot struct {
	boards     [2][numSlots]uint8
	terminated bool
	winner     int
	reward     float64
}

func (s *State) save() snapshot {
	return snapshot{
		boards:     s.boards,
		terminated: s.terminated,
		winner:     s.winner,
		reward:     s.reward,
	}
}

func (s *State) restore(sn snapshot) {
	s.boards = sn.boards
	s.terminated = sn.terminated
	s.winner = sn.winner
	s.reward = sn.reward
}

// ApplyAction applies one encoded action (checker or cube) to the state.
// Applying anything to a terminated state is a no-op. An action that is not
// realizable by either ordering of its two sub-moves is an error and leaves
// the state untouched.
func (s *State) ApplyAction(code int) error {
	if s.terminated {
		return nil
	}
	if IsCubeAction(code) {
		return s.applyCubeAction(code)
	}
	if s.phase == CubeDecision || s.phase == CubeResponse {
		return fmt.Errorf("checker action %d in phase %s: %w", code, s.phase, ErrWrongPhase)
	}
	if s.phase == AwaitingRoll {
		return fmt.Errorf("action %d: %w", code, ErrChanceNode)
	}

	loc1, loc2, ok := DecodeAction(code)
	if !ok {
		return fmt.Errorf("action %d: %w", code, ErrInvalidAction)
	}
	high, low := s.dice[0], s.dice[1]

	// Try the high-die move first; if that ordering is not realizable on
	// the live board, roll back and play the low-die move first.
	snap := s.save()
	if !s.tryOrder(loc1, high, loc2, low) {
		s.restore(snap)
		if !s.tryOrder(loc2, low, loc1, high) {
			s.restore(snap)
			return fmt.Errorf("action %d with roll %d-%d: %w", code, high, low, ErrIllegalAction)
		}
	}

	s.history = append(s.history, code)
	s.cacheValid = false
	s.assertInvariants()

	if s.terminated {
		return nil
	}
	s.remainingActions--
	if s.remainingActions == 0 {
		s.endTurn()
	}
	return nil
}

// tryOrder validates and plays the two sub-moves in one specific order.
// It may leave partial moves on the board when it fails; the caller rolls
// back.
func (s *State) tryOrder(locA, dieA, locB, dieB int) bool {
	if !s.moveLegal(s.turn, locA, dieA) {
		return false
	}
	s.playMove(s.turn, locA, dieA)
	if s.terminated {
		// The first sub-move bore off the last checker; only a pass may
		// ride along.
		return locB == LocPass
	}
	if !s.moveLegal(s.turn, locB, dieB) {
		return false
	}
	s.playMove(s.turn, locB, dieB)
	return true
}

// endTurn hands control to the opponent: dice are cleared and the next
// phase is a cube decision when the incoming player holds a live cube,
// otherwise a chance node.
func (s *State) endTurn() {
	s.turn = 1 - s.turn
	s.dice = [2]int{0, 0}
	s.remainingActions = 0
	if s.cubeAvailable(s.turn) {
		s.phase = CubeDecision
	} else {
		s.phase = AwaitingRoll
	}
}

// cubeAvailable reports whether the player may double: the cube must be
// enabled, the game not a Crawford game and not over, the cube centered or
// owned by the player, and in match play the current cube value must still
// be worth something to them.
func (s *State) cubeAvailable(player int) bool {
	if !s.opts.EnableCube || s.opts.Crawford || s.terminated {
		return false
	}
	if s.cubeOwner != NoPlayer && s.cubeOwner != player {
		return false
	}
	if away := s.opts.Away[player]; away > 0 && s.cubeValue >= away {
		// Dead cube: winning at the current value already wins the match.
		return false
	}
	return true
}

// finish records a checker-play win for the given player and computes the
// final reward. Called exactly once, when the 15th checker comes off.
func (s *State) finish(winner int) {
	s.terminated = true
	s.winner = winner
	s.reward = s.checkerReward(winner)
}

// checkerReward computes the signed game value for a checker-play win:
// 1 for a plain win, 2 for a gammon (loser bore off nothing), 3 for a
// backgammon (loser additionally has a checker on the bar or in the
// winner's home board), multiplied by the cube value. Under the Jacoby
// rule in money play an unturned cube voids the gammon multiplier. The
// sign is positive when Player0 wins.
func (s *State) checkerReward(winner int) float64 {
	loser := 1 - winner
	lb := &s.boards[loser]

	magnitude := 1
	if lb[offSlot] == 0 {
		magnitude = 2
		if lb[barSlot] > 0 || s.loserInWinnerHome(loser) {
			magnitude = 3
		}
	}

	moneyPlay := s.opts.Away[0] == 0 && s.opts.Away[1] == 0
	if s.opts.Jacoby && moneyPlay && s.cubeValue == 1 {
		magnitude = 1
	}

	r := float64(magnitude * s.cubeValue)
	if winner == Player1 {
		r = -r
	}
	return r
}

// loserInWinnerHome reports whether the loser still has a checker inside
// the winner's home board, which in the loser's own perspective is the
// farthest quadrant (points 19-24).
func (s *State) loserInWinnerHome(loser int) bool {
	b := &s.boards[loser]
	for i := NumPoints - homeSize; i < NumPoints; i++ {
		if b[i] > 0 {
			return true
		}
	}
	return false
}
