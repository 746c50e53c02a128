package match

import (
	"fmt"

	"github.com/yourusername/bgsim/pkg/game"
)

// Recorder builds a transcript from a live game. The caller reports the
// roll after each SampleChance and every action code before it is
// applied, then calls Finish once the game terminates.
type Recorder struct {
	rec *Record
}

// NewRecorder starts a transcript for one game.
func NewRecorder(player1, player2 string, opts game.Options) *Recorder {
	matchLen := 0
	if opts.Away[0] > 0 || opts.Away[1] > 0 {
		matchLen = max(opts.Away[0], opts.Away[1])
	}
	rec := NewRecord(player1, player2, matchLen)
	rec.Crawford = opts.Crawford
	return &Recorder{rec: rec}
}

// Record returns the transcript built so far.
func (r *Recorder) Record() *Record {
	return r.rec
}

// ObserveRoll records the live dice. Call it right after SampleChance;
// forced-pass turns the chance sampler resolved internally are not
// visible afterwards and do not appear in the transcript.
func (r *Recorder) ObserveRoll(s *game.State) {
	high, low := s.Dice()
	if high == 0 {
		return
	}
	r.rec.addRoll(s.Turn(), high, low)
}

// ObserveAction records one action code against the state it is about to
// be applied to. The pre-action state is required to resolve destinations
// and hits.
func (r *Recorder) ObserveAction(s *game.State, code int) error {
	player := s.Turn()
	switch code {
	case game.ActionNoDouble:
		return nil
	case game.ActionDouble:
		r.rec.addDouble(player, s.CubeValue()*2)
		return nil
	case game.ActionTake:
		r.rec.addTake(player)
		return nil
	case game.ActionPass:
		r.rec.addDrop(player)
		return nil
	case game.PassAction:
		if r.continuesMove(player) {
			return nil // dead second half of a doubles turn
		}
		r.rec.addMove(player, nil)
		return nil
	}

	loc1, loc2, ok := game.DecodeAction(code)
	if !ok {
		return fmt.Errorf("record action %d: out of range", code)
	}
	high, low := s.Dice()
	var moves []HalfMove
	if loc1 != game.LocPass {
		moves = append(moves, halfMove(s, loc1, high, moves))
	}
	if loc2 != game.LocPass {
		moves = append(moves, halfMove(s, loc2, low, moves))
	}
	if r.continuesMove(player) {
		// Second action of a doubles turn; MAT shows one play per roll.
		last := &r.rec.Entries[len(r.rec.Entries)-1]
		last.Moves = append(last.Moves, moves...)
		return nil
	}
	r.rec.addMove(player, moves)
	return nil
}

// continuesMove reports whether the last entry is this player's own
// checker play, which only happens between the two actions of a doubles
// turn.
func (r *Recorder) continuesMove(player int) bool {
	n := len(r.rec.Entries)
	if n == 0 {
		return false
	}
	last := r.rec.Entries[n-1]
	return last.Type == EntryMove && last.Player == player
}

// halfMove resolves one checker movement in the mover's numbering. The
// hit test reads the pre-action board, so a blot already taken by an
// earlier half-move of the same action does not count twice.
func halfMove(s *game.State, loc, die int, prior []HalfMove) HalfMove {
	from := loc
	if loc == game.LocBar {
		from = 25
	}
	to := from - die
	if to < 0 {
		to = 0
	}
	hm := HalfMove{From: from, To: to}
	if to >= 1 && to <= game.NumPoints && s.Board(to) == -1 {
		hm.Hit = true
		for _, p := range prior {
			if p.To == to {
				hm.Hit = false
			}
		}
	}
	return hm
}

// Finish stamps the terminal result onto the transcript.
func (r *Recorder) Finish(s *game.State) {
	if !s.Terminated() {
		return
	}
	r.rec.Winner = s.Winner()

	points := int(s.Reward())
	if points < 0 {
		points = -points
	}
	r.rec.Points = points

	n := len(r.rec.Entries)
	if n > 0 && r.rec.Entries[n-1].Type == EntryDrop {
		r.rec.Result = ResultDrop
		return
	}
	switch points / s.CubeValue() {
	case 2:
		r.rec.Result = ResultGammon
	case 3:
		r.rec.Result = ResultBackgammon
	default:
		r.rec.Result = ResultSingle
	}
}
