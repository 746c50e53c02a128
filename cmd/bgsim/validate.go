package main

import (
	"context"
	"math/rand"
	"os/signal"
	"syscall"
	"time"

	"github.com/yourusername/bgsim/pkg/external"
	"github.com/yourusername/bgsim/pkg/game"
)

// ValidateCmd plays complete games against an external player and aborts
// on the first decision the two rule implementations disagree about.
type ValidateCmd struct {
	Addr     string `kong:"required,help='host:port of the external player socket'"`
	Games    int    `kong:"default='10',help='Number of games to validate'"`
	Seed     int64  `kong:"default='1',help='RNG seed for the dice'"`
	MaxPlies int    `kong:"default='1500',help='Abort a game after this many plies'"`
	Short    bool   `kong:"help='Contact-free training layout'"`
	Cube     bool   `kong:"help='Enable the doubling cube'"`
	Debug    bool   `kong:"help='Enable debug logging'"`
}

func (c *ValidateCmd) Run() error {
	logger := newLogger(c.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	oracle, err := external.Dial(dialCtx, c.Addr)
	if err != nil {
		return err
	}
	defer oracle.Close()

	if ver, err := oracle.Version(); err == nil {
		logger.Info("connected", "addr", c.Addr, "oracle", ver)
	}

	rng := rand.New(rand.NewSource(c.Seed))
	totalChecked := 0
	for n := 0; n < c.Games; n++ {
		opts := game.Options{
			FirstPlayer: n % 2,
			ShortGame:   c.Short,
			EnableCube:  c.Cube,
		}
		s, err := game.New(opts, rng)
		if err != nil {
			return err
		}
		checked, err := oracle.ValidateGame(ctx, s, rng, c.MaxPlies)
		totalChecked += checked
		if err != nil {
			logger.Error("disagreement",
				"game", n, "checked", checked, "position", s.PositionID(), "err", err)
			return err
		}
		logger.Info("game validated",
			"game", n, "decisions", checked, "winner", s.Winner(), "reward", s.Reward())
	}

	logger.Info("validation complete", "games", c.Games, "decisions", totalChecked)
	return nil
}
