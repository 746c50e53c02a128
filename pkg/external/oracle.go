// Package external bridges the engine to gnubg-style external players over
// the FIBS board protocol: positions are sent as FIBS board lines on a TCP
// socket and the reply is the oracle's chosen play. The bridge cross-checks
// every reply against this engine's own legality, so a disagreement between
// the two rule implementations surfaces immediately.
package external

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math/rand"
	"net"
	"strings"

	"github.com/yourusername/bgsim/pkg/game"
)

// Oracle is a connection to an external player.
type Oracle struct {
	conn io.ReadWriteCloser
	r    *bufio.Reader
	name string
}

// Dial connects to an external player listening at addr.
func Dial(ctx context.Context, addr string) (*Oracle, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial oracle %s: %w", addr, err)
	}
	return NewOracle(conn), nil
}

// NewOracle wraps an established connection. The caller keeps ownership of
// nothing; Close closes the connection.
func NewOracle(conn io.ReadWriteCloser) *Oracle {
	return &Oracle{conn: conn, r: bufio.NewReader(conn), name: "oracle"}
}

// Close shuts the connection down.
func (o *Oracle) Close() error {
	return o.conn.Close()
}

// roundTrip sends one line and reads one reply line, skipping the prompt
// characters some servers interleave.
func (o *Oracle) roundTrip(line string) (string, error) {
	if _, err := io.WriteString(o.conn, line+"\n"); err != nil {
		return "", fmt.Errorf("write to %s: %w", o.name, err)
	}
	for {
		reply, err := o.r.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("read from %s: %w", o.name, err)
		}
		reply = strings.TrimSpace(strings.TrimPrefix(reply, "> "))
		if reply != "" {
			return reply, nil
		}
	}
}

// Version asks the external player to identify itself.
func (o *Oracle) Version() (string, error) {
	reply, err := o.roundTrip("version")
	if err == nil {
		o.name = reply
	}
	return reply, err
}

// CheckerPlay sends the position and returns the oracle's play as engine
// action codes (two codes on a doubles turn when the oracle moves four
// checkers). The reply is validated against the engine's legal-action set;
// ParseMoveReply rejects plays this engine considers illegal.
func (o *Oracle) CheckerPlay(s *game.State) ([]int, error) {
	if s.Phase() != game.CheckerPlay {
		return nil, fmt.Errorf("oracle checker play in phase %s", s.Phase())
	}
	reply, err := o.roundTrip(FormatBoard(s, "you", "opponent"))
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(reply, "Error") {
		return nil, fmt.Errorf("%s: %s", o.name, reply)
	}
	return ParseMoveReply(s, reply)
}

// CubeAction sends a cube position and maps the oracle's verdict onto the
// engine's cube action codes.
func (o *Oracle) CubeAction(s *game.State) (int, error) {
	phase := s.Phase()
	if phase != game.CubeDecision && phase != game.CubeResponse {
		return 0, fmt.Errorf("oracle cube action in phase %s", phase)
	}
	reply, err := o.roundTrip(FormatBoard(s, "you", "opponent"))
	if err != nil {
		return 0, err
	}

	var code int
	switch strings.ToLower(reply) {
	case "double", "redouble":
		code = game.ActionDouble
	case "no double", "nodouble", "roll":
		code = game.ActionNoDouble
	case "take", "beaver":
		code = game.ActionTake
	case "drop", "pass", "reject":
		code = game.ActionPass
	default:
		return 0, fmt.Errorf("%s: unrecognized cube reply %q", o.name, reply)
	}
	if !s.IsActionValid(code) {
		return 0, fmt.Errorf("%s: cube reply %q not legal in phase %s", o.name, reply, phase)
	}
	return code, nil
}

// ValidateGame plays one complete game taking every decision from the
// oracle, returning the number of decisions cross-checked. Any reply the
// engine disagrees with aborts with an error. rng drives the dice.
func (o *Oracle) ValidateGame(ctx context.Context, s *game.State, rng *rand.Rand, maxPlies int) (int, error) {
	if maxPlies <= 0 {
		maxPlies = 1500
	}
	checked := 0
	if s.IsChanceNode() {
		if err := s.SampleChance(rng); err != nil {
			return checked, err
		}
	}
	for ply := 0; ply < maxPlies && !s.Terminated(); ply++ {
		if err := ctx.Err(); err != nil {
			return checked, err
		}
		var codes []int
		switch s.Phase() {
		case game.CheckerPlay:
			cs, err := o.CheckerPlay(s)
			if err != nil {
				return checked, err
			}
			codes = cs
		case game.CubeDecision, game.CubeResponse:
			c, err := o.CubeAction(s)
			if err != nil {
				return checked, err
			}
			codes = []int{c}
		default:
			return checked, fmt.Errorf("unexpected phase %s", s.Phase())
		}
		for _, code := range codes {
			checked++
			if err := s.Step(code, rng); err != nil {
				return checked, fmt.Errorf("oracle action %d rejected: %w", code, err)
			}
		}
	}
	return checked, nil
}
