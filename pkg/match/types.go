// Package match records played games as transcripts and reads and writes
// them in the Jellyfish/gnubg MAT text format, so self-play and
// validation games can be archived and replayed in standard analysis
// tools.
package match

// EntryType classifies one transcript entry.
type EntryType int

const (
	EntryRoll   EntryType = iota // Dice roll
	EntryMove                    // Checker play, possibly empty for a dance
	EntryDouble                  // Cube offered
	EntryTake                    // Cube taken
	EntryDrop                    // Cube dropped
)

// HalfMove is one checker movement in the mover's own numbering: points
// 1-24, 25 for the bar and 0 for borne off.
type HalfMove struct {
	From int
	To   int
	Hit  bool
}

// Entry is a single transcript event.
type Entry struct {
	Type      EntryType
	Player    int
	Dice      [2]int     // (high, low); set for EntryRoll
	Moves     []HalfMove // Set for EntryMove; empty means the roll danced
	CubeValue int        // Offered value; set for EntryDouble
}

// GameResult indicates how a recorded game ended.
type GameResult int

const (
	ResultInProgress GameResult = iota
	ResultSingle
	ResultGammon
	ResultBackgammon
	ResultDrop // Opponent passed a double
)

// Record is the transcript of one game plus its surrounding metadata.
type Record struct {
	Player1     string
	Player2     string
	MatchLength int // 0 = money game
	Date        string
	Event       string
	Place       string
	Annotator   string

	Score    [2]int
	Crawford bool

	Entries []Entry

	Winner int // 0, 1 or -1 while unfinished
	Points int
	Result GameResult
}

// NewRecord creates an empty transcript.
func NewRecord(player1, player2 string, matchLength int) *Record {
	return &Record{
		Player1:     player1,
		Player2:     player2,
		MatchLength: matchLength,
		Winner:      -1,
	}
}

func (r *Record) addRoll(player, high, low int) {
	r.Entries = append(r.Entries, Entry{
		Type:   EntryRoll,
		Player: player,
		Dice:   [2]int{high, low},
	})
}

func (r *Record) addMove(player int, moves []HalfMove) {
	r.Entries = append(r.Entries, Entry{
		Type:   EntryMove,
		Player: player,
		Moves:  moves,
	})
}

func (r *Record) addDouble(player, value int) {
	r.Entries = append(r.Entries, Entry{
		Type:      EntryDouble,
		Player:    player,
		CubeValue: value,
	})
}

func (r *Record) addTake(player int) {
	r.Entries = append(r.Entries, Entry{Type: EntryTake, Player: player})
}

func (r *Record) addDrop(player int) {
	r.Entries = append(r.Entries, Entry{Type: EntryDrop, Player: player})
}
