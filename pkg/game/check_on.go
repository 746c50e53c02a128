//go:build boardcheck

package game

// assertInvariants panics when the board is corrupt. Compiled in only with
// the boardcheck build tag; it is a development-time guard, not part of the
// runtime path.
func (s *State) assertInvariants() {
	if err := s.Validate(); err != nil {
		panic("board invariant violated: " + err.Error())
	}
}
