// Package game implements a rules-exact backgammon environment for search
// and reinforcement-learning agents: a packed board representation, legal
// move generation with the full maximize-dice and higher-die rules, action
// application with hit and termination detection, a doubling-cube protocol
// and an explicit dice chance model.
//
// A single State is not safe for concurrent mutation; independent workers
// must use independent instances (Clone forks a position cheaply).
package game

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/yourusername/bgsim/internal/positionid"
)

// Players. RandomPlayer is only valid in Options.FirstPlayer.
const (
	Player0      = 0
	Player1      = 1
	NoPlayer     = -1
	RandomPlayer = -1
)

// Board geometry. Each player's checkers live in their own 28-slot array,
// indexed from that player's perspective: slots 0-23 are points 1-24
// (slot 0 is the last point before bearing off), slot 24 is the bar,
// slot 25 is borne-off storage. Slots 26-27 are reserved so the packed
// layout stays symmetric with the canonical 28-index board accessor.
const (
	NumPoints   = 24
	NumCheckers = 15

	barSlot  = 24
	offSlot  = 25
	numSlots = 28

	homeSize = 6
)

// Phase identifies what kind of decision the state is waiting for.
type Phase int

const (
	// AwaitingRoll is a chance node: dice are zero and SampleChance must
	// resolve the roll before any checker action is legal.
	AwaitingRoll Phase = iota
	// CheckerPlay means dice are live and the player on roll must move.
	CheckerPlay
	// CubeDecision means the player on roll may double before rolling.
	CubeDecision
	// CubeResponse means the opponent has doubled and the player must
	// take or pass.
	CubeResponse
)

// String returns a short name for the phase.
func (p Phase) String() string {
	switch p {
	case AwaitingRoll:
		return "awaiting-roll"
	case CheckerPlay:
		return "checker-play"
	case CubeDecision:
		return "cube-decision"
	case CubeResponse:
		return "cube-response"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Options configures a new game.
type Options struct {
	FirstPlayer  int    // Player0, Player1 or RandomPlayer
	ShortGame    bool   // Contact-free training layout instead of the standard one
	DoublesOnly  bool   // Restrict the chance model to the six doubles
	EnableCube   bool   // Allow doubling
	Jacoby       bool   // Money play: gammons count only after the cube is turned
	Away         [2]int // Points each player needs to win the match; 0,0 = money play
	Crawford     bool   // Crawford game: doubling disabled
	PostCrawford bool   // Game after the Crawford game
}

var (
	// ErrInvalidOptions is returned when game options are inconsistent.
	ErrInvalidOptions = errors.New("invalid game options")
	// ErrIllegalAction is returned when an action is not realizable on the
	// current board by any move ordering.
	ErrIllegalAction = errors.New("illegal action")
	// ErrInvalidAction is returned for action codes outside the action space.
	ErrInvalidAction = errors.New("invalid action code")
	// ErrChanceNode is returned when a deterministic action is applied at a
	// chance node.
	ErrChanceNode = errors.New("state is a chance node")
	// ErrNotChanceNode is returned when chance is resolved on a state that
	// is not awaiting a roll.
	ErrNotChanceNode = errors.New("state is not a chance node")
	// ErrWrongPhase is returned when an action does not belong to the
	// current phase.
	ErrWrongPhase = errors.New("action not valid in current phase")
	// ErrAutoPlayLoop is returned when forced-pass resolution does not
	// converge; it signals a legality-generation bug.
	ErrAutoPlayLoop = errors.New("forced-pass resolution did not converge")
)

// State is the complete game state: both players' packed boards, whose turn
// it is, the live dice, cube and match context, and the termination result.
// All mutation goes through ApplyAction and SampleChance.
type State struct {
	boards [2][numSlots]uint8

	turn             int
	phase            Phase
	dice             [2]int // (high, low); both zero at a chance node
	remainingActions int

	cubeValue int
	cubeOwner int

	opts Options

	terminated bool
	winner     int
	reward     float64

	history []int

	// Scratch buffers reused by the action generator.
	actions     []int
	singleHigh  []int
	singleLow   []int
	cacheValid  bool
	cachedLegal []int
}

// New creates a game in the starting layout described by opts. The RNG is
// required only when FirstPlayer is RandomPlayer.
func New(opts Options, rng *rand.Rand) (*State, error) {
	s := &State{}
	if err := s.Reset(opts, rng); err != nil {
		return nil, err
	}
	return s, nil
}

// Reset reinitializes the state in place so buffers can be reused across
// games.
func (s *State) Reset(opts Options, rng *rand.Rand) error {
	if opts.FirstPlayer != Player0 && opts.FirstPlayer != Player1 && opts.FirstPlayer != RandomPlayer {
		return fmt.Errorf("first player %d: %w", opts.FirstPlayer, ErrInvalidOptions)
	}
	if opts.Away[0] < 0 || opts.Away[1] < 0 {
		return fmt.Errorf("away scores %v: %w", opts.Away, ErrInvalidOptions)
	}
	first := opts.FirstPlayer
	if first == RandomPlayer {
		if rng == nil {
			return fmt.Errorf("random first player requires an RNG: %w", ErrInvalidOptions)
		}
		first = rng.Intn(2)
	}

	s.boards = [2][numSlots]uint8{}
	for p := 0; p < 2; p++ {
		if opts.ShortGame {
			shortLayout(&s.boards[p])
		} else {
			standardLayout(&s.boards[p])
		}
	}

	s.turn = first
	s.phase = AwaitingRoll
	s.dice = [2]int{0, 0}
	s.remainingActions = 0
	s.cubeValue = 1
	s.cubeOwner = NoPlayer
	s.opts = opts
	s.terminated = false
	s.winner = NoPlayer
	s.reward = 0
	s.history = s.history[:0]
	s.cacheValid = false
	return nil
}

// standardLayout places the usual 15 checkers: 2 on the 24-point, 5 on the
// 13-point, 3 on the 8-point and 5 on the 6-point.
func standardLayout(b *[numSlots]uint8) {
	b[5] = 5
	b[7] = 3
	b[12] = 5
	b[23] = 2
}

// shortLayout is a contact-free race used to speed up training games: all
// 15 checkers start past the opponent's, so games converge quickly while
// still exercising bear-off rules.
func shortLayout(b *[numSlots]uint8) {
	b[4] = 5
	b[6] = 5
	b[8] = 3
	b[11] = 2
}

// Clone returns an independent copy with fresh scratch buffers and an
// invalidated action cache.
func (s *State) Clone() *State {
	c := &State{}
	*c = *s
	c.history = append([]int(nil), s.history...)
	c.actions = nil
	c.singleHigh = nil
	c.singleLow = nil
	c.cacheValid = false
	c.cachedLegal = nil
	return c
}

// Turn returns the player on roll (or, in CubeResponse, the player who must
// answer the double).
func (s *State) Turn() int { return s.turn }

// Phase returns the current decision phase.
func (s *State) Phase() Phase { return s.phase }

// Dice returns the current roll as (high, low); both zero at a chance node.
func (s *State) Dice() (high, low int) { return s.dice[0], s.dice[1] }

// RemainingActions returns how many checker actions remain this turn:
// 2 only after a doubles roll, otherwise 1, and 0 between turns.
func (s *State) RemainingActions() int { return s.remainingActions }

// CubeValue returns the current cube value.
func (s *State) CubeValue() int { return s.cubeValue }

// CubeOwner returns the cube owner, or NoPlayer while the cube is centered.
func (s *State) CubeOwner() int { return s.cubeOwner }

// Options returns the options the game was created with.
func (s *State) Options() Options { return s.opts }

// Terminated reports whether the game is over.
func (s *State) Terminated() bool { return s.terminated }

// Winner returns the winning player, or NoPlayer while the game is running.
func (s *State) Winner() int { return s.winner }

// Reward returns the signed game result, set exactly once at termination:
// magnitude 1, 2 (gammon) or 3 (backgammon) times the cube value, positive
// when Player0 won.
func (s *State) Reward() float64 { return s.reward }

// History returns the applied action codes in order. The returned slice is
// owned by the state and must not be modified.
func (s *State) History() []int { return s.history }

// IsChanceNode reports whether the next event is a dice roll.
func (s *State) IsChanceNode() bool { return !s.terminated && s.phase == AwaitingRoll }

// Board returns the signed checker count at canonical index i in 1..28,
// viewed from the player on roll: positive counts are the current player's
// checkers, negative the opponent's. Indices 1-24 are the physical points
// in the current player's direction of travel, 25 is the current player's
// bar, 26 the opponent's bar, 27 the current player's borne-off count and
// 28 the opponent's. This accessor is the wire contract for observation
// encoders and external bridges and is perspective-consistent regardless
// of which absolute player is on roll.
func (s *State) Board(i int) int {
	me, opp := s.turn, 1-s.turn
	switch {
	case i >= 1 && i <= NumPoints:
		if n := s.boards[me][i-1]; n > 0 {
			return int(n)
		}
		return -int(s.boards[opp][NumPoints-i])
	case i == 25:
		return int(s.boards[me][barSlot])
	case i == 26:
		return -int(s.boards[opp][barSlot])
	case i == 27:
		return int(s.boards[me][offSlot])
	case i == 28:
		return -int(s.boards[opp][offSlot])
	}
	return 0
}

// Checkers returns the raw slot count for an absolute player. Slot uses the
// player's own perspective (0-23 points, 24 bar, 25 off).
func (s *State) Checkers(player, slot int) int {
	return int(s.boards[player][slot])
}

// PipCount returns the given player's pip count: the total number of pips
// needed to bear off every remaining checker. Checkers on the bar count
// their full 25-pip journey.
func (s *State) PipCount(player int) int {
	pips := 0
	for i := 0; i < NumPoints; i++ {
		pips += int(s.boards[player][i]) * (i + 1)
	}
	pips += int(s.boards[player][barSlot]) * (NumPoints + 1)
	return pips
}

// keyBoard converts the packed boards to the 25-slot-per-player layout used
// by position keys and IDs (borne-off checkers are implied).
func (s *State) keyBoard() positionid.Board {
	var kb positionid.Board
	for p := 0; p < 2; p++ {
		for i := 0; i <= barSlot; i++ {
			kb[p][i] = s.boards[p][i]
		}
	}
	return kb
}

// Key returns a compact binary key for the checker position, suitable for
// map lookups and duplicate detection.
func (s *State) Key() positionid.Key {
	return positionid.MakeKey(s.keyBoard())
}

// PositionID returns the gnubg-compatible base64 position ID for the
// checker position, used in logs and external bridges.
func (s *State) PositionID() string {
	return positionid.PositionID(s.keyBoard())
}

// Validate checks the board for corruption: no player may exceed 15
// checkers in total and no physical point may hold checkers of both
// players. It returns nil for a healthy board.
func (s *State) Validate() error {
	for p := 0; p < 2; p++ {
		total := 0
		for i := 0; i < numSlots; i++ {
			total += int(s.boards[p][i])
		}
		if total > NumCheckers {
			return fmt.Errorf("player %d has %d checkers", p, total)
		}
	}
	for i := 0; i < NumPoints; i++ {
		if s.boards[0][i] > 0 && s.boards[1][NumPoints-1-i] > 0 {
			return fmt.Errorf("both players occupy point %d of player 0", i+1)
		}
	}
	return nil
}
