package match

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// MAT is the Jellyfish/gnubg match format:
//
//	; [Player 1 "name1"]
//	; [Player 2 "name2"]
//	7 point match
//
//	Game 1
//	name1 : 0                      name2 : 0
//	 1) 31: 8/5 6/5                52: 24/22 13/8
//	 2) 43: 24/20 13/10            Doubles => 2
//
// Each column holds one player's roll and play in that player's own
// point numbering, which matches this engine's canonical view of the
// player on roll.

var (
	matchLengthRE = regexp.MustCompile(`(\d+)\s+point\s+match`)
	gameHeaderRE  = regexp.MustCompile(`Game\s+(\d+)`)
	scoreLineRE   = regexp.MustCompile(`^(.+?)\s*:\s*(\d+)\s+(.+?)\s*:\s*(\d+)$`)
	moveLineRE    = regexp.MustCompile(`^\s*(\d+)\)`)
	tagRE         = regexp.MustCompile(`\[([\w ]+)\s+"([^"]+)"\]`)
	columnSplitRE = regexp.MustCompile(`\s{3,}`)
)

const leftColumnWidth = 30

// ExportMAT writes one game transcript in MAT format.
func ExportMAT(w io.Writer, rec *Record) error {
	bw := bufio.NewWriter(w)

	if rec.Place != "" {
		fmt.Fprintf(bw, " ; [Site %q]\n", rec.Place)
	}
	if rec.Event != "" {
		fmt.Fprintf(bw, " ; [Event %q]\n", rec.Event)
	}
	if rec.Date != "" {
		fmt.Fprintf(bw, " ; [Date %q]\n", rec.Date)
	}
	fmt.Fprintf(bw, " ; [Player 1 %q]\n", rec.Player1)
	fmt.Fprintf(bw, " ; [Player 2 %q]\n", rec.Player2)
	if rec.Annotator != "" {
		fmt.Fprintf(bw, " ; [Annotator %q]\n", rec.Annotator)
	}

	if rec.MatchLength > 0 {
		fmt.Fprintf(bw, " %d point match\n\n", rec.MatchLength)
	} else {
		fmt.Fprintf(bw, " Unlimited match\n\n")
	}

	fmt.Fprintf(bw, " Game 1\n")
	fmt.Fprintf(bw, " %s : %d                          %s : %d\n",
		rec.Player1, rec.Score[0], rec.Player2, rec.Score[1])

	mw := &columnWriter{w: bw}
	var roll [2]int
	for _, e := range rec.Entries {
		switch e.Type {
		case EntryRoll:
			roll = e.Dice
		case EntryMove:
			mw.put(e.Player, fmt.Sprintf("%d%d: %s", roll[0], roll[1], formatMoves(e.Moves)))
		case EntryDouble:
			mw.put(e.Player, fmt.Sprintf("Doubles => %d", e.CubeValue))
		case EntryTake:
			mw.put(e.Player, "Takes")
		case EntryDrop:
			mw.put(e.Player, "Drops")
		}
	}
	mw.close()

	fmt.Fprintf(bw, "\n")
	return bw.Flush()
}

// columnWriter lays entries out in the MAT two-column shape: player 0 in
// the numbered left column, player 1 on the right.
type columnWriter struct {
	w        io.Writer
	moveNum  int
	lineOpen bool
}

func (cw *columnWriter) put(player int, text string) {
	if player == 0 {
		if cw.lineOpen {
			fmt.Fprintln(cw.w)
		}
		cw.moveNum++
		fmt.Fprintf(cw.w, "%3d) %s", cw.moveNum, padColumn(text))
		cw.lineOpen = true
		return
	}
	if !cw.lineOpen {
		cw.moveNum++
		fmt.Fprintf(cw.w, "%3d) %s", cw.moveNum, padColumn(""))
	}
	fmt.Fprintln(cw.w, text)
	cw.lineOpen = false
}

// padColumn pads the left cell, always leaving at least the three-space
// separator the importer splits columns on.
func padColumn(text string) string {
	pad := leftColumnWidth - len(text)
	if pad < 3 {
		pad = 3
	}
	return text + strings.Repeat(" ", pad)
}

func (cw *columnWriter) close() {
	if cw.lineOpen {
		fmt.Fprintln(cw.w)
		cw.lineOpen = false
	}
}

// formatMoves renders half-moves as "8/5* 6/5"; an empty play is a dance.
func formatMoves(moves []HalfMove) string {
	if len(moves) == 0 {
		return "Cannot move"
	}
	parts := make([]string, 0, len(moves))
	for _, m := range moves {
		parts = append(parts, formatPoint(m.From)+"/"+formatPoint(m.To)+hitMark(m.Hit))
	}
	return strings.Join(parts, " ")
}

func formatPoint(p int) string {
	switch {
	case p >= 25:
		return "bar"
	case p <= 0:
		return "off"
	}
	return strconv.Itoa(p)
}

func hitMark(hit bool) string {
	if hit {
		return "*"
	}
	return ""
}

// ImportMAT reads the first game of a MAT stream back into a transcript.
func ImportMAT(r io.Reader) (*Record, error) {
	scanner := bufio.NewScanner(r)
	rec := NewRecord("", "", 0)
	inGame := false

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ";") {
			if m := tagRE.FindStringSubmatch(line); m != nil {
				applyTag(rec, strings.ToLower(m[1]), m[2])
			}
			continue
		}
		if m := matchLengthRE.FindStringSubmatch(line); m != nil {
			rec.MatchLength, _ = strconv.Atoi(m[1])
			continue
		}
		if gameHeaderRE.MatchString(line) {
			if inGame {
				break // only the first game
			}
			inGame = true
			continue
		}
		if !inGame {
			continue
		}

		if m := scoreLineRE.FindStringSubmatch(line); m != nil && !moveLineRE.MatchString(line) {
			if rec.Player1 == "" {
				rec.Player1 = strings.TrimSpace(m[1])
			}
			if rec.Player2 == "" {
				rec.Player2 = strings.TrimSpace(m[3])
			}
			rec.Score[0], _ = strconv.Atoi(m[2])
			rec.Score[1], _ = strconv.Atoi(m[4])
			continue
		}
		if moveLineRE.MatchString(line) {
			if err := parseMoveLine(line, rec); err != nil {
				return nil, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading MAT stream: %w", err)
	}
	if !inGame {
		return nil, fmt.Errorf("MAT stream holds no game")
	}
	return rec, nil
}

func applyTag(rec *Record, key, value string) {
	switch key {
	case "player 1", "player1":
		rec.Player1 = value
	case "player 2", "player2":
		rec.Player2 = value
	case "site", "place":
		rec.Place = value
	case "event":
		rec.Event = value
	case "date":
		rec.Date = value
	case "annotator", "transcriber":
		rec.Annotator = value
	}
}

// parseMoveLine splits one numbered line into its player columns.
func parseMoveLine(line string, rec *Record) error {
	_, rest, found := strings.Cut(line, ")")
	if !found {
		return fmt.Errorf("bad move line %q", line)
	}
	// Keep leading spaces: an empty left cell means player 1 acted alone
	// on this line, and the split below then yields an empty first half.
	rest = strings.TrimRight(strings.TrimPrefix(rest, " "), " ")

	halves := columnSplitRE.Split(rest, 2)
	for player, half := range halves {
		if err := parseColumn(strings.TrimSpace(half), player, rec); err != nil {
			return err
		}
	}
	return nil
}

// parseColumn parses one player's cell: a cube word or "31: 8/5* 6/5".
func parseColumn(text string, player int, rec *Record) error {
	if text == "" {
		return nil
	}
	lower := strings.ToLower(text)
	switch {
	case strings.HasPrefix(lower, "doubles"):
		value := 2
		if _, after, found := strings.Cut(text, "=>"); found {
			if v, err := strconv.Atoi(strings.TrimSpace(after)); err == nil {
				value = v
			}
		}
		rec.addDouble(player, value)
		return nil
	case lower == "takes":
		rec.addTake(player)
		return nil
	case lower == "drops" || lower == "passes":
		rec.addDrop(player)
		rec.Winner = 1 - player
		rec.Result = ResultDrop
		return nil
	}

	dice, moveStr, found := strings.Cut(text, ":")
	if !found {
		return fmt.Errorf("bad move cell %q", text)
	}
	dice = strings.TrimSpace(dice)
	if len(dice) != 2 {
		return fmt.Errorf("bad dice %q", dice)
	}
	high := int(dice[0] - '0')
	low := int(dice[1] - '0')
	if high < 1 || high > 6 || low < 1 || low > 6 {
		return fmt.Errorf("bad dice %q", dice)
	}
	rec.addRoll(player, high, low)

	moveStr = strings.TrimSpace(moveStr)
	if strings.Contains(strings.ToLower(moveStr), "cannot") {
		rec.addMove(player, nil)
		return nil
	}
	moves, err := parseMoves(moveStr)
	if err != nil {
		return err
	}
	rec.addMove(player, moves)
	return nil
}

// parseMoves parses notation like "8/5* 6/5" or "24/22(2)" into
// half-moves, expanding repetition suffixes.
func parseMoves(notation string) ([]HalfMove, error) {
	var moves []HalfMove
	for _, part := range strings.Fields(notation) {
		repeat := 1
		if i := strings.IndexByte(part, '('); i >= 0 && strings.HasSuffix(part, ")") {
			n, err := strconv.Atoi(part[i+1 : len(part)-1])
			if err != nil || n < 1 {
				return nil, fmt.Errorf("bad repetition in %q", part)
			}
			repeat = n
			part = part[:i]
		}
		hit := strings.HasSuffix(part, "*")
		part = strings.TrimSuffix(part, "*")

		fromStr, toStr, found := strings.Cut(part, "/")
		if !found {
			return nil, fmt.Errorf("bad half-move %q", part)
		}
		from, err := parsePoint(fromStr)
		if err != nil {
			return nil, err
		}
		to, err := parsePoint(toStr)
		if err != nil {
			return nil, err
		}
		for i := 0; i < repeat; i++ {
			moves = append(moves, HalfMove{From: from, To: to, Hit: hit && i == 0})
		}
	}
	if len(moves) > 4 {
		return nil, fmt.Errorf("%d half-moves in one play", len(moves))
	}
	return moves, nil
}

func parsePoint(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "bar":
		return 25, nil
	case "off", "home":
		return 0, nil
	}
	p, err := strconv.Atoi(s)
	if err != nil || p < 1 || p > 24 {
		return 0, fmt.Errorf("bad point %q", s)
	}
	return p, nil
}
