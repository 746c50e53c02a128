package external

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yourusername/bgsim/pkg/game"
)

// Board is a parsed FIBS board line.
// See: http://www.fibs.com/fibs_interface.html#board_state
type Board struct {
	Player1      string  // Your name
	Player2      string  // Opponent's name
	MatchLength  int     // Match length (0 = unlimited)
	Score1       int     // Your score
	Score2       int     // Opponent's score
	Points       [26]int // Signed points; 0 = opponent's bar, 25 = your bar
	Turn         int     // 1 = you, -1 = opponent
	Dice         [2]int  // Your dice (0,0 if not rolled)
	OppDice      [2]int  // Opponent's dice
	Cube         int     // Cube value
	CanDouble    bool    // May you double?
	OppCanDouble bool    // May the opponent double?
	Doubled      bool    // Is a double pending?
	Color        int     // Your color (1 or -1)
	Direction    int     // Your direction of travel (1 or -1)
	Home         [2]int  // Borne-off counts (you, opponent)
	Bar          [2]int  // Bar counts (you, opponent)
	Crawford     bool    // Crawford game
}

// FormatBoard renders a state as a FIBS board line with the player on roll
// as "you". The canonical accessor already views the position from that
// player, so your checkers are the positive counts, direction -1 and your
// home board points 1-6.
func FormatBoard(s *game.State, you, opponent string) string {
	opts := s.Options()
	me := s.Turn()

	fields := make([]string, 0, 53)
	add := func(vs ...int) {
		for _, v := range vs {
			fields = append(fields, strconv.Itoa(v))
		}
	}
	fields = append(fields, you, opponent)
	matchLen := 0
	if opts.Away[0] > 0 || opts.Away[1] > 0 {
		matchLen = max(opts.Away[0], opts.Away[1])
	}
	add(matchLen, 0, 0)

	add(-s.Board(26)) // opponent's bar at position 0
	for p := 1; p <= game.NumPoints; p++ {
		add(s.Board(p))
	}
	add(s.Board(25)) // your bar at position 25

	add(1) // player on roll is always "you"

	high, low := s.Dice()
	add(high, low, 0, 0)
	add(s.CubeValue())
	add(boolField(cubeLive(s, me)), boolField(cubeLive(s, 1-me)))
	add(boolField(s.Phase() == game.CubeResponse))
	add(1, -1) // color, direction
	add(0, 25) // home, bar positions
	add(s.Board(27), -s.Board(28))
	add(s.Board(25), -s.Board(26))
	add(playableDice(s))
	add(0) // forced move
	add(boolField(opts.Crawford))
	add(0) // redoubles

	return "board:" + strings.Join(fields, ":")
}

// cubeLive mirrors the doubling precondition: cube enabled, not Crawford,
// centered or owned.
func cubeLive(s *game.State, player int) bool {
	opts := s.Options()
	if !opts.EnableCube || opts.Crawford || s.Terminated() {
		return false
	}
	return s.CubeOwner() == game.NoPlayer || s.CubeOwner() == player
}

// playableDice reports how many dice the current action can use (0-2); the
// generator guarantees every legal action uses the same number.
func playableDice(s *game.State) int {
	if s.Phase() != game.CheckerPlay {
		return 0
	}
	legal := s.LegalActions()
	if len(legal) == 0 {
		return 0
	}
	loc1, loc2, ok := game.DecodeAction(legal[0])
	if !ok {
		return 0
	}
	n := 0
	if loc1 != game.LocPass {
		n++
	}
	if loc2 != game.LocPass {
		n++
	}
	return n
}

func boolField(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ParseBoard parses a FIBS board line.
func ParseBoard(line string) (*Board, error) {
	line = strings.TrimPrefix(strings.TrimSpace(line), "board:")
	parts := strings.Split(line, ":")
	if len(parts) < 46 {
		return nil, fmt.Errorf("fibs board: expected at least 46 fields, got %d", len(parts))
	}

	atoi := func(i int) int {
		n, _ := strconv.Atoi(parts[i])
		return n
	}

	b := &Board{
		Player1:     parts[0],
		Player2:     parts[1],
		MatchLength: atoi(2),
		Score1:      atoi(3),
		Score2:      atoi(4),
	}
	for i := 0; i < 26; i++ {
		b.Points[i] = atoi(5 + i)
	}
	b.Turn = atoi(31)
	b.Dice[0], b.Dice[1] = atoi(32), atoi(33)
	b.OppDice[0], b.OppDice[1] = atoi(34), atoi(35)
	b.Cube = atoi(36)
	b.CanDouble = parts[37] == "1"
	b.OppCanDouble = parts[38] == "1"
	b.Doubled = parts[39] == "1"
	b.Color = atoi(40)
	b.Direction = atoi(41)
	b.Home[0], b.Home[1] = atoi(44), atoi(45)
	if len(parts) > 47 {
		b.Bar[0], b.Bar[1] = atoi(46), atoi(47)
	}
	if len(parts) > 50 {
		b.Crawford = parts[50] == "1"
	}
	return b, nil
}

// ParseMoveReply maps an oracle checker-play reply ("8/5 6/5", "bar/22",
// "13/7(2)", "cannot move") onto this engine's action codes for the given
// state. Doubles replies with more than two half-moves become two
// consecutive actions. Every returned code is validated against the
// engine's own legality; a reply the engine considers illegal is an error,
// since the two rule implementations are supposed to agree.
func ParseMoveReply(s *game.State, reply string) ([]int, error) {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return nil, fmt.Errorf("empty oracle reply")
	}
	if strings.EqualFold(reply, "cannot move") {
		if !s.IsActionValid(game.PassAction) {
			return nil, fmt.Errorf("oracle passed but moves exist at %s", s.PositionID())
		}
		return []int{game.PassAction}, nil
	}

	sources, err := replySources(reply)
	if err != nil {
		return nil, err
	}
	codes, ok := resolveSources(s, sources)
	if !ok {
		return nil, fmt.Errorf("oracle move %q is not legal at %s", reply, s.PositionID())
	}
	return codes, nil
}

// replySources extracts the source location of every half-move in a reply,
// expanding (n) repetition suffixes.
func replySources(reply string) ([]int, error) {
	var sources []int
	for _, tok := range strings.Fields(reply) {
		repeat := 1
		if i := strings.IndexByte(tok, '('); i >= 0 && strings.HasSuffix(tok, ")") {
			n, err := strconv.Atoi(tok[i+1 : len(tok)-1])
			if err != nil || n < 1 {
				return nil, fmt.Errorf("bad repetition in %q", tok)
			}
			repeat = n
			tok = tok[:i]
		}
		from, _, found := strings.Cut(tok, "/")
		if !found {
			return nil, fmt.Errorf("bad half-move %q", tok)
		}
		from = strings.TrimSuffix(from, "*")
		loc := game.LocBar
		if !strings.EqualFold(from, "bar") {
			p, err := strconv.Atoi(from)
			if err != nil || p < 1 || p > game.NumPoints {
				return nil, fmt.Errorf("bad source point %q", from)
			}
			loc = p
		}
		for i := 0; i < repeat; i++ {
			sources = append(sources, loc)
		}
	}
	if len(sources) == 0 || len(sources) > 4 {
		return nil, fmt.Errorf("reply has %d half-moves", len(sources))
	}
	return sources, nil
}

// resolveSources turns a flat list of half-move sources into validated
// action codes, trying both location orders per action since the reply does
// not say which die moved which checker.
func resolveSources(s *game.State, sources []int) ([]int, bool) {
	var chunk []int
	if len(sources) >= 2 {
		chunk = sources[:2]
	} else {
		chunk = sources[:1]
	}

	for _, code := range chunkCandidates(chunk) {
		if !s.IsActionValid(code) {
			continue
		}
		rest := sources[len(chunk):]
		if len(rest) == 0 {
			return []int{code}, true
		}
		next := s.Clone()
		if err := next.ApplyAction(code); err != nil {
			continue
		}
		tail, ok := resolveSources(next, rest)
		if ok {
			return append([]int{code}, tail...), true
		}
	}
	return nil, false
}

// chunkCandidates lists the action codes a one- or two-source chunk could
// encode.
func chunkCandidates(chunk []int) []int {
	if len(chunk) == 1 {
		return []int{
			game.EncodeAction(chunk[0], game.LocPass),
			game.EncodeAction(game.LocPass, chunk[0]),
		}
	}
	a, b := chunk[0], chunk[1]
	if a == b {
		return []int{game.EncodeAction(a, b)}
	}
	return []int{
		game.EncodeAction(a, b),
		game.EncodeAction(b, a),
	}
}
