package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yourusername/bgsim/pkg/game"
	"github.com/yourusername/bgsim/pkg/selfplay"
)

// SelfplayCmd plays a batch of games between two built-in policies.
type SelfplayCmd struct {
	Games    int    `kong:"default='1000',help='Number of games to play'"`
	Workers  int    `kong:"default='0',help='Worker goroutines (0 = GOMAXPROCS)'"`
	Seed     int64  `kong:"default='0',help='Base RNG seed (0 = random)'"`
	MaxPlies int    `kong:"default='1500',help='Abort a game after this many plies'"`
	Short    bool   `kong:"help='Contact-free training layout'"`
	Doubles  bool   `kong:"help='Restrict chance to the six doubles'"`
	Cube     bool   `kong:"help='Enable the doubling cube'"`
	Jacoby   bool   `kong:"help='Jacoby rule (money play)'"`
	Policy0  string `kong:"default='random',enum='random,greedy',help='Policy for player 0'"`
	Policy1  string `kong:"default='random',enum='random,greedy',help='Policy for player 1'"`
	Debug    bool   `kong:"help='Enable debug logging'"`
}

func (c *SelfplayCmd) Run() error {
	logger := newLogger(c.Debug)

	opts := selfplay.DefaultOptions()
	opts.Games = c.Games
	opts.Workers = c.Workers
	opts.Seed = c.Seed
	opts.MaxPlies = c.MaxPlies
	opts.Game = game.Options{
		FirstPlayer: game.RandomPlayer,
		ShortGame:   c.Short,
		DoublesOnly: c.Doubles,
		EnableCube:  c.Cube,
		Jacoby:      c.Jacoby,
	}
	opts.Logger = logger

	for i, name := range []string{c.Policy0, c.Policy1} {
		p, err := policyByName(name)
		if err != nil {
			return err
		}
		opts.Policies[i] = p
	}

	lastPercent := -10.0
	opts.Progress = func(p selfplay.Progress) {
		if p.Percent-lastPercent < 10 && p.GamesCompleted != p.GamesTotal {
			return
		}
		lastPercent = p.Percent
		logger.Info("progress",
			"completed", p.GamesCompleted,
			"total", p.GamesTotal,
			"mean_reward", fmt.Sprintf("%.3f", p.MeanReward))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting self-play",
		"games", c.Games,
		"policies", c.Policy0+" vs "+c.Policy1,
		"short", c.Short, "cube", c.Cube)

	res, err := selfplay.Run(ctx, opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "games          %d (%d incomplete)\n", res.Games, res.Incomplete)
	fmt.Fprintf(os.Stdout, "wins           %d / %d\n", res.Wins[0], res.Wins[1])
	fmt.Fprintf(os.Stdout, "gammons        %d / %d\n", res.Gammons[0], res.Gammons[1])
	fmt.Fprintf(os.Stdout, "backgammons    %d / %d\n", res.Backgammons[0], res.Backgammons[1])
	if c.Cube {
		fmt.Fprintf(os.Stdout, "cube wins      %d / %d\n", res.CubeWins[0], res.CubeWins[1])
	}
	fmt.Fprintf(os.Stdout, "mean reward    %.4f ± %.4f\n", res.MeanReward, res.RewardCI)
	fmt.Fprintf(os.Stdout, "mean plies     %.1f\n", res.MeanPlies)
	return nil
}

func policyByName(name string) (selfplay.Policy, error) {
	switch name {
	case "random":
		return selfplay.RandomPolicy{}, nil
	case "greedy":
		return selfplay.GreedyPipPolicy{}, nil
	}
	return nil, fmt.Errorf("unknown policy %q", name)
}
