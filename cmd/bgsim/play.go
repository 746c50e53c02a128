package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/yourusername/bgsim/pkg/game"
	"github.com/yourusername/bgsim/pkg/match"
	"github.com/yourusername/bgsim/pkg/selfplay"
)

// PlayCmd plays one game between two built-in policies and writes its
// transcript in MAT format.
type PlayCmd struct {
	Seed     int64  `kong:"default='0',help='RNG seed (0 = random)'"`
	MaxPlies int    `kong:"default='1500',help='Abort the game after this many plies'"`
	Short    bool   `kong:"help='Contact-free training layout'"`
	Doubles  bool   `kong:"help='Restrict chance to the six doubles'"`
	Cube     bool   `kong:"help='Enable the doubling cube'"`
	Jacoby   bool   `kong:"help='Jacoby rule (money play)'"`
	Policy0  string `kong:"default='greedy',enum='random,greedy',help='Policy for player 0'"`
	Policy1  string `kong:"default='greedy',enum='random,greedy',help='Policy for player 1'"`
	Output   string `kong:"short='o',help='Write the MAT transcript to this file (default stdout)'"`
	Debug    bool   `kong:"help='Enable debug logging'"`
}

func (c *PlayCmd) Run() error {
	logger := newLogger(c.Debug)

	seed := c.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	opts := game.Options{
		FirstPlayer: game.RandomPlayer,
		ShortGame:   c.Short,
		DoublesOnly: c.Doubles,
		EnableCube:  c.Cube,
		Jacoby:      c.Jacoby,
	}
	s, err := game.New(opts, rng)
	if err != nil {
		return err
	}

	names := [2]string{c.Policy0, c.Policy1}
	if names[0] == names[1] {
		names = [2]string{names[0] + "-0", names[1] + "-1"}
	}
	rec := match.NewRecorder(names[0], names[1], opts)

	var policies [2]selfplay.Policy
	for i, name := range []string{c.Policy0, c.Policy1} {
		p, err := policyByName(name)
		if err != nil {
			return err
		}
		policies[i] = p
	}

	logger.Info("playing", "seed", seed, "first", s.Turn(),
		"policies", c.Policy0+" vs "+c.Policy1)

	for ply := 0; !s.Terminated() && ply < c.MaxPlies; ply++ {
		if s.IsChanceNode() {
			if err := s.SampleChance(rng); err != nil {
				return err
			}
			rec.ObserveRoll(s)
			continue
		}
		legal := s.LegalActions()
		code := policies[s.Turn()].Select(s, legal, rng)
		if err := rec.ObserveAction(s, code); err != nil {
			return err
		}
		if err := s.ApplyAction(code); err != nil {
			return err
		}
	}
	rec.Finish(s)

	if s.Terminated() {
		logger.Info("game over",
			"winner", s.Winner(), "reward", s.Reward(), "plies", len(s.History()))
	} else {
		logger.Warn("ply cap reached before termination")
	}

	out := os.Stdout
	if c.Output != "" {
		f, err := os.Create(c.Output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	if err := match.ExportMAT(out, rec.Record()); err != nil {
		return fmt.Errorf("export transcript: %w", err)
	}
	return nil
}
