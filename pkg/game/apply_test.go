package game

import (
	"errors"
	"math/rand"
	"testing"
)

func TestApplyActionHit(t *testing.T) {
	s := blankState(t, 6, 5)
	s.boards[0][9] = 1  // point 10
	s.boards[0][7] = 1  // point 8
	s.boards[1][20] = 1 // blot on the mover's point 4

	// 10/4* 8/3.
	if err := s.ApplyAction(EncodeAction(10, 8)); err != nil {
		t.Fatalf("ApplyAction: %v", err)
	}

	if s.boards[0][3] != 1 || s.boards[0][2] != 1 {
		t.Errorf("mover's board after 10/4 8/3: %v", s.boards[0])
	}
	if s.boards[1][20] != 0 || s.boards[1][barSlot] != 1 {
		t.Errorf("hit blot should be on the bar: %v", s.boards[1])
	}
	if s.Turn() != Player1 || s.Phase() != AwaitingRoll {
		t.Errorf("turn = %d, phase = %s; want player 1 awaiting roll", s.Turn(), s.Phase())
	}
	if h, l := s.Dice(); h != 0 || l != 0 {
		t.Errorf("dice = %d-%d after end of turn, want 0-0", h, l)
	}
}

func TestApplyActionLowDieFirstOrdering(t *testing.T) {
	// 11/6 6/off is only realizable by playing the low die first: the
	// direct 11/5 is blocked. The code still carries the high-die source
	// in the first location.
	s := blankState(t, 6, 5)
	s.boards[0][10] = 1 // point 11
	s.boards[0][3] = 1  // point 4, keeps the game running
	s.boards[1][19] = 2 // blocks the mover's point 5

	if err := s.ApplyAction(EncodeAction(6, 11)); err != nil {
		t.Fatalf("ApplyAction: %v", err)
	}
	if s.boards[0][10] != 0 || s.boards[0][5] != 0 {
		t.Errorf("checker should have moved 11/6/off: %v", s.boards[0])
	}
	if s.boards[0][offSlot] != 1 {
		t.Errorf("off count = %d, want 1", s.boards[0][offSlot])
	}
	if s.Terminated() {
		t.Error("game should not be over with a checker still on the board")
	}
}

func TestApplyActionUnrealizableLeavesStateUntouched(t *testing.T) {
	// Neither ordering works: 11/5 is blocked and 6/off is barred by the
	// checker outside the home board.
	s := blankState(t, 6, 5)
	s.boards[0][10] = 1 // point 11
	s.boards[0][15] = 1 // point 16, outside the home board
	s.boards[1][19] = 2 // blocks the mover's point 5

	before := *s
	err := s.ApplyAction(EncodeAction(6, 11))
	if !errors.Is(err, ErrIllegalAction) {
		t.Fatalf("err = %v, want ErrIllegalAction", err)
	}
	if s.boards != before.boards {
		t.Errorf("boards mutated by a failed action:\nbefore %v\nafter  %v", before.boards, s.boards)
	}
	if s.Turn() != before.turn || s.Phase() != before.phase || len(s.History()) != 0 {
		t.Error("turn, phase or history mutated by a failed action")
	}
}

func TestApplyActionPhaseErrors(t *testing.T) {
	s, err := New(Options{FirstPlayer: Player0}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Checker action at a chance node.
	if err := s.ApplyAction(EncodeAction(24, 13)); !errors.Is(err, ErrChanceNode) {
		t.Errorf("err = %v, want ErrChanceNode", err)
	}
	// Cube action outside a cube phase.
	if err := s.ApplyAction(ActionDouble); !errors.Is(err, ErrWrongPhase) {
		t.Errorf("err = %v, want ErrWrongPhase", err)
	}
	// Code outside the action space.
	s.phase = CheckerPlay
	s.dice = [2]int{3, 1}
	s.remainingActions = 1
	if err := s.ApplyAction(ActionPass + 1); !errors.Is(err, ErrInvalidAction) {
		t.Errorf("err = %v, want ErrInvalidAction", err)
	}
}

func TestApplyActionDoublesTakesTwoActions(t *testing.T) {
	s := rolledStart(t, 6, 6)
	if err := s.ApplyAction(EncodeAction(24, 24)); err != nil {
		t.Fatalf("first doubles action: %v", err)
	}
	if s.Turn() != Player0 || s.RemainingActions() != 1 {
		t.Fatalf("after first doubles action: turn %d, remaining %d; want player 0 with 1 left",
			s.Turn(), s.RemainingActions())
	}
	if err := s.ApplyAction(EncodeAction(13, 13)); err != nil {
		t.Fatalf("second doubles action: %v", err)
	}
	if s.Turn() != Player1 || s.Phase() != AwaitingRoll {
		t.Errorf("after second doubles action: turn %d, phase %s; want player 1 awaiting roll",
			s.Turn(), s.Phase())
	}
}

func TestApplyActionWinningSingle(t *testing.T) {
	s := blankState(t, 6, 5)
	s.boards[0][0] = 1 // final checker on point 1
	s.boards[0][offSlot] = 14
	s.boards[1][0] = 15 // loser bore off nothing, all checkers safe at home

	if err := s.ApplyAction(EncodeAction(1, LocPass)); err != nil {
		t.Fatalf("ApplyAction: %v", err)
	}
	if !s.Terminated() || s.Winner() != Player0 {
		t.Fatalf("terminated = %v, winner = %d; want player 0 win", s.Terminated(), s.Winner())
	}
	if s.Reward() != 2 {
		t.Errorf("reward = %v, want 2 (gammon)", s.Reward())
	}

	// Anything applied after the end of the game is a silent no-op.
	hist := len(s.History())
	if err := s.ApplyAction(EncodeAction(5, 3)); err != nil {
		t.Fatalf("post-game ApplyAction: %v", err)
	}
	if len(s.History()) != hist {
		t.Error("post-game action appended to history")
	}
}

func TestCheckerRewardMagnitudes(t *testing.T) {
	base := func() *State {
		s := blankState(t, 1, 1)
		s.boards[0][offSlot] = 15
		s.boards[1][0] = 15
		return s
	}

	// Plain win: the loser has borne off at least one checker.
	s := base()
	s.boards[1][0] = 14
	s.boards[1][offSlot] = 1
	if got := s.checkerReward(Player0); got != 1 {
		t.Errorf("plain win reward = %v, want 1", got)
	}

	// Gammon: nothing borne off.
	s = base()
	if got := s.checkerReward(Player0); got != 2 {
		t.Errorf("gammon reward = %v, want 2", got)
	}

	// Backgammon: a checker left in the winner's home board.
	s = base()
	s.boards[1][0] = 14
	s.boards[1][20] = 1
	if got := s.checkerReward(Player0); got != 3 {
		t.Errorf("backgammon (home board) reward = %v, want 3", got)
	}

	// Backgammon: a checker still on the bar.
	s = base()
	s.boards[1][0] = 14
	s.boards[1][barSlot] = 1
	if got := s.checkerReward(Player0); got != 3 {
		t.Errorf("backgammon (bar) reward = %v, want 3", got)
	}

	// A player-1 win flips the sign.
	s = blankState(t, 1, 1)
	s.boards[1][offSlot] = 15
	s.boards[0][0] = 15
	if got := s.checkerReward(Player1); got != -2 {
		t.Errorf("player 1 gammon reward = %v, want -2", got)
	}
}

func TestCheckerRewardCubeAndJacoby(t *testing.T) {
	s := blankState(t, 1, 1)
	s.boards[0][offSlot] = 15
	s.boards[1][0] = 15
	s.cubeValue = 4
	if got := s.checkerReward(Player0); got != 8 {
		t.Errorf("gammon at cube 4 = %v, want 8", got)
	}

	// Jacoby in money play: an unturned cube voids the gammon.
	s.cubeValue = 1
	s.opts.Jacoby = true
	if got := s.checkerReward(Player0); got != 1 {
		t.Errorf("Jacoby gammon at cube 1 = %v, want 1", got)
	}

	// Once the cube has been turned the gammon counts again.
	s.cubeValue = 2
	if got := s.checkerReward(Player0); got != 4 {
		t.Errorf("Jacoby gammon at cube 2 = %v, want 4", got)
	}

	// Jacoby does not apply in match play.
	s.cubeValue = 1
	s.opts.Away = [2]int{5, 5}
	if got := s.checkerReward(Player0); got != 2 {
		t.Errorf("match-play gammon under Jacoby flag = %v, want 2", got)
	}
}

// playRandomGame drives a game with uniformly random legal actions,
// checking board health at every ply. Returns the number of plies played.
func playRandomGame(t *testing.T, s *State, rng *rand.Rand, maxPlies int) int {
	t.Helper()
	if err := s.SampleChance(rng); err != nil {
		t.Fatalf("SampleChance: %v", err)
	}
	ply := 0
	for ; ply < maxPlies && !s.Terminated(); ply++ {
		if err := s.Validate(); err != nil {
			t.Fatalf("ply %d (%s): %v", ply, s.PositionID(), err)
		}
		for p := 0; p < 2; p++ {
			total := 0
			for i := 0; i < numSlots; i++ {
				total += int(s.boards[p][i])
			}
			if total != NumCheckers {
				t.Fatalf("ply %d: player %d has %d checkers", ply, p, total)
			}
		}
		legal := s.LegalActions()
		if len(legal) == 0 {
			t.Fatalf("ply %d (%s): empty legal set in phase %s", ply, s.PositionID(), s.Phase())
		}
		if err := s.Step(legal[rng.Intn(len(legal))], rng); err != nil {
			t.Fatalf("ply %d: Step: %v", ply, err)
		}
	}
	return ply
}

func TestRandomGamesPreserveInvariants(t *testing.T) {
	for seed := int64(0); seed < 8; seed++ {
		rng := rand.New(rand.NewSource(seed))
		s, err := New(Options{FirstPlayer: RandomPlayer}, rng)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		playRandomGame(t, s, rng, 400)
		if s.Terminated() {
			if s.Winner() != Player0 && s.Winner() != Player1 {
				t.Errorf("seed %d: winner = %d", seed, s.Winner())
			}
			mag := s.Reward()
			if s.Winner() == Player1 {
				mag = -mag
			}
			if mag != 1 && mag != 2 && mag != 3 {
				t.Errorf("seed %d: |reward| = %v, want 1, 2 or 3", seed, mag)
			}
		}
	}
}

func TestShortGamesTerminate(t *testing.T) {
	// The contact-free layout must always finish quickly, even under
	// random play.
	for seed := int64(0); seed < 8; seed++ {
		rng := rand.New(rand.NewSource(100 + seed))
		s, err := New(Options{FirstPlayer: Player0, ShortGame: true}, rng)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		plies := playRandomGame(t, s, rng, 300)
		if !s.Terminated() {
			t.Errorf("seed %d: short game still running after %d plies", seed, plies)
		}
		if s.Terminated() && s.boards[s.Winner()][offSlot] != NumCheckers {
			t.Errorf("seed %d: winner has %d checkers off", seed, s.boards[s.Winner()][offSlot])
		}
	}
}
