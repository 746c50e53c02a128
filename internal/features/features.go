// Package features encodes game states into fixed-size float vectors for
// learning agents. The encoder variant is a closed set resolved once at
// construction; all variants read the state through the canonical signed
// board accessor, so every vector is from the perspective of the player on
// roll.
package features

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/yourusername/bgsim/pkg/game"
)

// Encoder turns a state into a feature vector of fixed size.
type Encoder interface {
	// Name returns the variant name the encoder was constructed with.
	Name() string
	// Size returns the length of the produced vector.
	Size() int
	// Encode writes the features for s into dst and returns it. When dst
	// is too small a new slice is allocated.
	Encode(s *game.State, dst []float64) []float64
}

// ErrUnknownVariant is returned for a variant name outside the closed set.
var ErrUnknownVariant = errors.New("unknown encoder variant")

// Variants lists the supported encoder variants.
func Variants() []string {
	return []string{"minimal", "flat", "full", "biased", "hybrid"}
}

// New resolves a variant name to its encoder. The dispatch happens exactly
// once; the returned encoder is branch-free per call and safe for
// concurrent use.
func New(variant string) (Encoder, error) {
	switch variant {
	case "minimal":
		return minimalEncoder{}, nil
	case "flat":
		return flatEncoder{}, nil
	case "full":
		return fullEncoder{}, nil
	case "biased":
		return biasedEncoder{}, nil
	case "hybrid":
		return hybridEncoder{}, nil
	}
	return nil, fmt.Errorf("%q: %w", variant, ErrUnknownVariant)
}

// prepare returns dst resized to n, reusing its backing array when possible.
func prepare(dst []float64, n int) []float64 {
	if cap(dst) < n {
		return make([]float64, n)
	}
	dst = dst[:n]
	for i := range dst {
		dst[i] = 0
	}
	return dst
}

// minimalEncoder is the raw canonical board: 28 signed checker counts
// scaled to [-1, 1].
type minimalEncoder struct{}

func (minimalEncoder) Name() string { return "minimal" }
func (minimalEncoder) Size() int    { return 28 }

func (minimalEncoder) Encode(s *game.State, dst []float64) []float64 {
	dst = prepare(dst, 28)
	for i := 1; i <= 28; i++ {
		dst[i-1] = float64(s.Board(i))
	}
	floats.Scale(1.0/game.NumCheckers, dst)
	return dst
}

// biasedEncoder is the minimal encoding with a trailing constant one, for
// models without their own bias term.
type biasedEncoder struct{}

func (biasedEncoder) Name() string { return "biased" }
func (biasedEncoder) Size() int    { return 29 }

func (biasedEncoder) Encode(s *game.State, dst []float64) []float64 {
	dst = prepare(dst, 29)
	minimalEncoder{}.Encode(s, dst[:28])
	dst[28] = 1
	return dst
}

// pointvec maps a point's checker count to its four feature values: blot,
// made point, spare marker and the spare count beyond three.
var pointvec = [16][4]float64{
	{0, 0, 0, 0},
	{1, 0, 0, 0},
	{0, 1, 0, 0},
	{0, 0, 1, 0},
	{0, 0, 1, 0.5},
	{0, 0, 1, 1},
	{0, 0, 1, 1.5},
	{0, 0, 1, 2},
	{0, 0, 1, 2.5},
	{0, 0, 1, 3},
	{0, 0, 1, 3.5},
	{0, 0, 1, 4},
	{0, 0, 1, 4.5},
	{0, 0, 1, 5},
	{0, 0, 1, 5.5},
	{0, 0, 1, 6},
}

// barvec is the cumulative variant used for the bar, where every extra
// checker matters on its own.
var barvec = [16][4]float64{
	{0, 0, 0, 0},
	{1, 0, 0, 0},
	{1, 1, 0, 0},
	{1, 1, 1, 0},
	{1, 1, 1, 0.5},
	{1, 1, 1, 1},
	{1, 1, 1, 1.5},
	{1, 1, 1, 2},
	{1, 1, 1, 2.5},
	{1, 1, 1, 3},
	{1, 1, 1, 3.5},
	{1, 1, 1, 4},
	{1, 1, 1, 4.5},
	{1, 1, 1, 5},
	{1, 1, 1, 5.5},
	{1, 1, 1, 6},
}

// halfFlat is the per-side block: 24 points and the bar at four values
// each, plus the borne-off fraction.
const halfFlat = 25*4 + 1

// flatEncoder is the truncated per-point encoding: four values per point
// per side plus bar and off blocks. It separates blots, made points and
// spares, which raw counts conflate.
type flatEncoder struct{}

func (flatEncoder) Name() string { return "flat" }
func (flatEncoder) Size() int    { return 2 * halfFlat }

func (flatEncoder) Encode(s *game.State, dst []float64) []float64 {
	dst = prepare(dst, 2*halfFlat)
	encodeSide(s, dst[:halfFlat], false)
	encodeSide(s, dst[halfFlat:], true)
	return dst
}

// encodeSide fills one halfFlat block for the player on roll or, when opp
// is set, the opponent.
func encodeSide(s *game.State, dst []float64, opp bool) {
	sign := 1
	if opp {
		sign = -1
	}
	for p := 1; p <= game.NumPoints; p++ {
		n := sign * s.Board(p)
		if n < 0 {
			n = 0
		}
		copy(dst[(p-1)*4:], pointvec[n][:])
	}
	bar := 25
	off := 27
	if opp {
		bar, off = 26, 28
	}
	copy(dst[24*4:], barvec[sign*s.Board(bar)][:])
	dst[halfFlat-1] = float64(sign*s.Board(off)) / game.NumCheckers
}

// fullContext is the scalar block appended by the full encoder: dice
// one-hots, the action budget, the cube and the phase.
const fullContext = 6 + 6 + 1 + 1 + 3 + 4

type fullEncoder struct{}

func (fullEncoder) Name() string { return "full" }
func (fullEncoder) Size() int    { return 2*halfFlat + fullContext }

func (fullEncoder) Encode(s *game.State, dst []float64) []float64 {
	dst = prepare(dst, 2*halfFlat+fullContext)
	flatEncoder{}.Encode(s, dst[:2*halfFlat])

	ctx := dst[2*halfFlat:]
	high, low := s.Dice()
	if high > 0 {
		ctx[high-1] = 1
		ctx[6+low-1] = 1
	}
	ctx[12] = float64(s.RemainingActions()) / 2
	ctx[13] = math.Log2(float64(s.CubeValue())) / 6
	switch s.CubeOwner() {
	case game.NoPlayer:
		ctx[14] = 1
	case s.Turn():
		ctx[15] = 1
	default:
		ctx[16] = 1
	}
	ctx[17+int(s.Phase())] = 1
	return dst
}

// maxPips is the worst-case single-player pip count: fifteen checkers on
// the bar.
const maxPips = game.NumCheckers * (game.NumPoints + 1)

// hybridEncoder is the minimal board plus race summary scalars: both pip
// counts and their difference. Cheap enough for rollout filters that need
// more than raw counts but not the flat expansion.
type hybridEncoder struct{}

func (hybridEncoder) Name() string { return "hybrid" }
func (hybridEncoder) Size() int    { return 31 }

func (hybridEncoder) Encode(s *game.State, dst []float64) []float64 {
	dst = prepare(dst, 31)
	minimalEncoder{}.Encode(s, dst[:28])
	me := s.Turn()
	my := float64(s.PipCount(me))
	their := float64(s.PipCount(1 - me))
	dst[28] = my / maxPips
	dst[29] = their / maxPips
	dst[30] = (their - my) / maxPips
	return dst
}
