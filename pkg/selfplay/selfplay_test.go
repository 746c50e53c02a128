package selfplay

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/bgsim/pkg/game"
)

func TestRunShortGames(t *testing.T) {
	opts := DefaultOptions()
	opts.Games = 64
	opts.Workers = 4
	opts.Seed = 42
	opts.Game.ShortGame = true

	res, err := Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, 64, res.Games)
	assert.Zero(t, res.Incomplete, "contact-free games must all finish")
	assert.Equal(t, 64, res.Wins[0]+res.Wins[1])
	assert.Positive(t, res.MeanPlies)
	assert.GreaterOrEqual(t, res.RewardCI, 0.0)

	// Rewards are whole game values.
	assert.LessOrEqual(t, res.MeanReward, 3.0)
	assert.GreaterOrEqual(t, res.MeanReward, -3.0)
}

func TestRunReportsProgress(t *testing.T) {
	opts := DefaultOptions()
	opts.Games = 16
	opts.Workers = 2
	opts.Seed = 7
	opts.Game.ShortGame = true

	var last Progress
	calls := 0
	opts.Progress = func(p Progress) {
		calls++
		last = p
	}

	_, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Positive(t, calls)
	assert.Equal(t, 16, last.GamesCompleted)
	assert.Equal(t, 100.0, last.Percent)
}

func TestRunHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := DefaultOptions()
	opts.Games = 10000
	opts.Seed = 1

	_, err := Run(ctx, opts)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGreedyPipBeatsRandomAtRacing(t *testing.T) {
	opts := DefaultOptions()
	opts.Games = 200
	opts.Workers = 4
	opts.Seed = 99
	opts.Game.ShortGame = true
	opts.Policies = [2]Policy{GreedyPipPolicy{}, RandomPolicy{}}

	res, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Greater(t, res.Wins[0], res.Wins[1],
		"the pip minimizer should dominate random play in a pure race")
}

func TestRandomPolicySelectsLegalActions(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	s, err := game.New(game.Options{FirstPlayer: game.Player0}, nil)
	require.NoError(t, err)
	require.NoError(t, s.SampleChance(rng))

	legal := s.LegalActions()
	for i := 0; i < 50; i++ {
		code := RandomPolicy{}.Select(s, legal, rng)
		assert.Contains(t, legal, code)
	}
}

func TestGreedyPipMinimizesOwnPips(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	s, err := game.New(game.Options{FirstPlayer: game.Player0, ShortGame: true}, nil)
	require.NoError(t, err)
	require.NoError(t, s.SampleChance(rng))

	me := s.Turn()
	legal := append([]int(nil), s.LegalActions()...)
	choice := GreedyPipPolicy{}.Select(s, legal, rng)

	chosen := s.Clone()
	require.NoError(t, chosen.ApplyAction(choice))
	for _, code := range legal {
		alt := s.Clone()
		require.NoError(t, alt.ApplyAction(code))
		assert.GreaterOrEqual(t, alt.PipCount(me), chosen.PipCount(me),
			"action %d leaves fewer pips than the greedy choice %d", code, choice)
	}
}

func TestGreedyPipCubeChoices(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	decision := []int{game.ActionNoDouble, game.ActionDouble}
	assert.Equal(t, game.ActionNoDouble, GreedyPipPolicy{}.Select(nil, decision, rng))

	response := []int{game.ActionTake, game.ActionPass}
	assert.Equal(t, game.ActionTake, GreedyPipPolicy{}.Select(nil, response, rng))
}
