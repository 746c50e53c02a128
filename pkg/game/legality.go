package game

// srcSlot maps an action-space location to the player's board slot.
// The bar behaves as a 25-pip source, one step beyond the 24-point.
func srcSlot(loc int) int {
	if loc == LocBar {
		return barSlot
	}
	return loc - 1
}

// moveLegal reports whether the given player may move one checker from loc
// using die pips. It is a pure predicate: the board is not modified.
//
// Rule order: a pass is always legal; while any checker sits on the bar
// only the bar is a legal source; the source must be occupied; bearing off
// requires every checker in the home board, and over-bearing (die larger
// than the exact distance) is legal only from the farthest occupied point;
// otherwise the target point must not be held by two or more opposing
// checkers.
func (s *State) moveLegal(player, loc, die int) bool {
	if loc == LocPass {
		return true
	}
	if loc < LocBar || loc > NumPoints {
		return false
	}
	me := &s.boards[player]
	if me[barSlot] > 0 && loc != LocBar {
		return false
	}
	src := srcSlot(loc)
	if me[src] == 0 {
		return false
	}

	dest := src - die
	if dest >= 0 {
		// Open, blot or blocked. The same physical point is slot
		// NumPoints-1-dest in the opponent's perspective.
		return s.boards[1-player][NumPoints-1-dest] < 2
	}

	// Bearing off. Bar priority already guarantees the bar is empty when
	// src is a point.
	farthest := s.farthestOccupied(player)
	if farthest >= homeSize {
		return false
	}
	if dest < -1 && src != farthest {
		// Over-bear is only legal from the farthest occupied point.
		return false
	}
	return true
}

// farthestOccupied returns the highest occupied point slot for the player,
// or -1 when all checkers are off or on the bar.
func (s *State) farthestOccupied(player int) int {
	b := &s.boards[player]
	for i := NumPoints - 1; i >= 0; i-- {
		if b[i] > 0 {
			return i
		}
	}
	return -1
}

// anyMoveLegal reports whether the player has any non-pass move for die.
func (s *State) anyMoveLegal(player, die int) bool {
	if s.boards[player][barSlot] > 0 {
		return s.moveLegal(player, LocBar, die)
	}
	for loc := 1; loc <= NumPoints; loc++ {
		if s.moveLegal(player, loc, die) {
			return true
		}
	}
	return false
}

// playMove executes one already-validated sub-move: removes the checker
// from the source, resolves hits and bear-off, and detects termination.
// A pass does nothing.
func (s *State) playMove(player, loc, die int) {
	if loc == LocPass {
		return
	}
	me := &s.boards[player]
	src := srcSlot(loc)
	me[src]--

	dest := src - die
	if dest < 0 {
		me[offSlot]++
		if me[offSlot] == NumCheckers {
			s.finish(player)
		}
		return
	}

	opp := &s.boards[1-player]
	if mirror := NumPoints - 1 - dest; opp[mirror] == 1 {
		// Hit: the blot goes to the opponent's bar.
		opp[mirror] = 0
		opp[barSlot]++
	}
	me[dest]++
}
