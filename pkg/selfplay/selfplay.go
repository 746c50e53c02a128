// Package selfplay drives batches of complete games through the rules
// engine with pluggable per-player policies, spreading the games over a
// worker pool and aggregating result statistics. It is the reference
// harness for sanity-checking the engine and for generating training
// baselines.
package selfplay

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/yourusername/bgsim/pkg/game"
)

// Options controls a self-play run.
type Options struct {
	Games    int          // Number of games to play (default 1000)
	Workers  int          // Parallel workers (0 = GOMAXPROCS)
	Seed     int64        // Base RNG seed (0 = random)
	MaxPlies int          // Per-game safety cap (default 1500)
	Game     game.Options // Passed to every game
	Policies [2]Policy    // Per-player policies (nil = RandomPolicy)
	Progress func(Progress)
	Logger   *log.Logger // Optional progress logging
}

// DefaultOptions returns sensible defaults: random policies for both sides
// and a randomly chosen opening player.
func DefaultOptions() Options {
	return Options{
		Games:    1000,
		MaxPlies: 1500,
		Game:     game.Options{FirstPlayer: game.RandomPlayer},
		Policies: [2]Policy{RandomPolicy{}, RandomPolicy{}},
	}
}

// Progress reports completed work during a run.
type Progress struct {
	GamesCompleted int
	GamesTotal     int
	Percent        float64
	MeanReward     float64
}

// Result aggregates a finished run. Per-player tallies are indexed by
// absolute player.
type Result struct {
	Games      int
	Incomplete int // Games cut off at the ply cap

	Wins        [2]int
	Gammons     [2]int
	Backgammons [2]int
	CubeWins    [2]int // Games decided by a dropped double

	MeanReward   float64
	RewardStdDev float64
	RewardCI     float64 // 95% confidence half-width
	MeanPlies    float64
}

// partial carries one worker batch to the aggregator.
type partial struct {
	rewards     []float64
	plies       int
	wins        [2]int
	gammons     [2]int
	backgammons [2]int
	cubeWins    [2]int
	incomplete  int
}

// Run plays opts.Games games and returns the aggregate. It honors context
// cancellation between games and fails fast on any engine error, since an
// error from the core during self-play is always a bug.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Games <= 0 {
		opts.Games = 1000
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Workers > opts.Games {
		opts.Workers = opts.Games
	}
	if opts.Seed == 0 {
		opts.Seed = rand.Int63()
	}
	if opts.MaxPlies <= 0 {
		opts.MaxPlies = 1500
	}
	for i := range opts.Policies {
		if opts.Policies[i] == nil {
			opts.Policies[i] = RandomPolicy{}
		}
	}

	batchSize := opts.Games / (opts.Workers * 20)
	if batchSize < 1 {
		batchSize = 1
	}

	results := make(chan partial, opts.Workers*4)
	g, ctx := errgroup.WithContext(ctx)

	perWorker := opts.Games / opts.Workers
	extra := opts.Games % opts.Workers
	for i := 0; i < opts.Workers; i++ {
		games := perWorker
		if i < extra {
			games++
		}
		seed := opts.Seed + int64(i)*1000000
		g.Go(func() error {
			return runWorker(ctx, opts, games, seed, batchSize, results)
		})
	}
	go func() {
		g.Wait()
		close(results)
	}()

	res := aggregate(results, opts)
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

// runWorker plays its share of games on a single reused state, reporting a
// partial result per batch.
func runWorker(ctx context.Context, opts Options, games int, seed int64, batchSize int, out chan<- partial) error {
	rng := rand.New(rand.NewSource(seed))
	s, err := game.New(opts.Game, rng)
	if err != nil {
		return err
	}

	pr := partial{}
	for n := 0; n < games; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Reset(opts.Game, rng); err != nil {
			return err
		}
		plies, err := playGame(s, opts, rng)
		if err != nil {
			return err
		}
		pr.plies += plies

		if !s.Terminated() {
			pr.incomplete++
		} else {
			w := s.Winner()
			pr.wins[w]++
			pr.rewards = append(pr.rewards, s.Reward())
			recordWinType(s, w, &pr)
		}

		if (n+1)%batchSize == 0 || n == games-1 {
			select {
			case out <- pr:
			case <-ctx.Done():
				return ctx.Err()
			}
			pr = partial{}
		}
	}
	return nil
}

// playGame runs one game to termination or the ply cap.
func playGame(s *game.State, opts Options, rng *rand.Rand) (int, error) {
	if err := s.SampleChance(rng); err != nil {
		return 0, err
	}
	ply := 0
	for ; ply < opts.MaxPlies && !s.Terminated(); ply++ {
		legal := s.LegalActions()
		if len(legal) == 0 {
			return ply, fmt.Errorf("empty legal set in phase %s at %s", s.Phase(), s.PositionID())
		}
		code := opts.Policies[s.Turn()].Select(s, legal, rng)
		if err := s.Step(code, rng); err != nil {
			return ply, err
		}
	}
	return ply, nil
}

// recordWinType classifies a finished game: a dropped double, or a plain,
// gammon or backgammon checker-play win.
func recordWinType(s *game.State, w int, pr *partial) {
	hist := s.History()
	if len(hist) > 0 && hist[len(hist)-1] == game.ActionPass {
		pr.cubeWins[w]++
		return
	}
	mag := s.Reward()
	if mag < 0 {
		mag = -mag
	}
	switch int(mag) / s.CubeValue() {
	case 2:
		pr.gammons[w]++
	case 3:
		pr.backgammons[w]++
	}
}

// aggregate folds worker batches into the final result, firing the
// progress callback as batches land.
func aggregate(results <-chan partial, opts Options) *Result {
	res := &Result{}
	var rewards []float64
	totalPlies := 0

	for pr := range results {
		rewards = append(rewards, pr.rewards...)
		totalPlies += pr.plies
		res.Incomplete += pr.incomplete
		for p := 0; p < 2; p++ {
			res.Wins[p] += pr.wins[p]
			res.Gammons[p] += pr.gammons[p]
			res.Backgammons[p] += pr.backgammons[p]
			res.CubeWins[p] += pr.cubeWins[p]
		}
		res.Games = res.Wins[0] + res.Wins[1] + res.Incomplete

		if opts.Progress != nil && res.Games > 0 {
			opts.Progress(Progress{
				GamesCompleted: res.Games,
				GamesTotal:     opts.Games,
				Percent:        100 * float64(res.Games) / float64(opts.Games),
				MeanReward:     stat.Mean(rewards, nil),
			})
		}
		if opts.Logger != nil {
			opts.Logger.Debug("selfplay progress",
				"completed", res.Games, "total", opts.Games)
		}
	}

	if res.Games > 0 {
		res.MeanPlies = float64(totalPlies) / float64(res.Games)
	}
	if n := len(rewards); n > 0 {
		res.MeanReward = stat.Mean(rewards, nil)
		if n > 1 {
			res.RewardStdDev = stat.StdDev(rewards, nil)
			res.RewardCI = 1.96 * res.RewardStdDev / math.Sqrt(float64(n))
		}
	}
	return res
}
