package features

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/bgsim/pkg/game"
)

func startState(t *testing.T) *game.State {
	t.Helper()
	s, err := game.New(game.Options{FirstPlayer: game.Player0}, nil)
	require.NoError(t, err)
	return s
}

func TestNewResolvesEveryVariant(t *testing.T) {
	for _, v := range Variants() {
		enc, err := New(v)
		require.NoError(t, err, v)
		assert.Equal(t, v, enc.Name())
		assert.Positive(t, enc.Size())
	}

	_, err := New("bogus")
	assert.ErrorIs(t, err, ErrUnknownVariant)
}

func TestEncodeMatchesSize(t *testing.T) {
	s := startState(t)
	for _, v := range Variants() {
		enc, err := New(v)
		require.NoError(t, err)
		vec := enc.Encode(s, nil)
		assert.Len(t, vec, enc.Size(), v)
	}
}

func TestEncodeReusesBuffer(t *testing.T) {
	s := startState(t)
	enc, err := New("minimal")
	require.NoError(t, err)

	buf := make([]float64, enc.Size())
	vec := enc.Encode(s, buf)
	assert.Equal(t, &buf[0], &vec[0], "encoding should reuse a large enough buffer")
}

func TestMinimalEncoding(t *testing.T) {
	s := startState(t)
	enc, err := New("minimal")
	require.NoError(t, err)
	vec := enc.Encode(s, nil)

	// Index i holds canonical board index i+1, scaled by the checker count.
	assert.InDelta(t, 5.0/15, vec[5], 1e-12, "own 6-point")
	assert.InDelta(t, -2.0/15, vec[0], 1e-12, "opposing anchor on point 1")
	assert.InDelta(t, 2.0/15, vec[23], 1e-12, "own back checkers")

	// The starting position is symmetric, so the totals cancel.
	sum := 0.0
	for _, v := range vec {
		sum += v
	}
	assert.InDelta(t, 0, sum, 1e-12)
}

func TestBiasedAppendsConstant(t *testing.T) {
	s := startState(t)
	enc, err := New("biased")
	require.NoError(t, err)
	vec := enc.Encode(s, nil)
	assert.Equal(t, 1.0, vec[len(vec)-1])

	min, err := New("minimal")
	require.NoError(t, err)
	assert.Equal(t, min.Encode(s, nil), vec[:28])
}

func TestFlatSeparatesBlotsAndPoints(t *testing.T) {
	s := startState(t)
	enc, err := New("flat")
	require.NoError(t, err)
	vec := enc.Encode(s, nil)

	// Own 6-point holds five checkers: made point with two spares.
	p6 := vec[5*4 : 5*4+4]
	assert.Equal(t, []float64{0, 0, 1, 1}, p6)

	// Own 24-point holds exactly two: a made point, no spares.
	p24 := vec[23*4 : 23*4+4]
	assert.Equal(t, []float64{0, 1, 0, 0}, p24)

	// The opponent block mirrors the same position.
	opp1 := vec[halfFlat : halfFlat+4]
	assert.Equal(t, []float64{0, 1, 0, 0}, opp1, "opposing anchor on point 1")

	// Nothing borne off or on the bar yet.
	assert.Equal(t, 0.0, vec[halfFlat-1])
	assert.Equal(t, 0.0, vec[2*halfFlat-1])
}

func TestFullContextBlock(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	s := startState(t)
	require.NoError(t, s.SampleChance(rng))

	enc, err := New("full")
	require.NoError(t, err)
	vec := enc.Encode(s, nil)
	ctx := vec[len(vec)-fullContext:]

	high, low := s.Dice()
	assert.Equal(t, 1.0, ctx[high-1], "high die one-hot")
	assert.Equal(t, 1.0, ctx[6+low-1], "low die one-hot")
	assert.Equal(t, float64(s.RemainingActions())/2, ctx[12])
	assert.Equal(t, 0.0, ctx[13], "centered unit cube")
	assert.Equal(t, 1.0, ctx[14], "centered cube one-hot")
	assert.Equal(t, 1.0, ctx[17+int(game.CheckerPlay)], "phase one-hot")
}

func TestHybridPipBlock(t *testing.T) {
	s := startState(t)
	enc, err := New("hybrid")
	require.NoError(t, err)
	vec := enc.Encode(s, nil)

	assert.InDelta(t, 167.0/375, vec[28], 1e-12)
	assert.InDelta(t, 167.0/375, vec[29], 1e-12)
	assert.InDelta(t, 0, vec[30], 1e-12, "equal race at the start")
}

func TestEncodingIsPerspectiveConsistent(t *testing.T) {
	// The symmetric starting position must encode identically whichever
	// player is on roll.
	for _, v := range Variants() {
		enc, err := New(v)
		require.NoError(t, err)

		s0, err := game.New(game.Options{FirstPlayer: game.Player0}, nil)
		require.NoError(t, err)
		s1, err := game.New(game.Options{FirstPlayer: game.Player1}, nil)
		require.NoError(t, err)

		assert.Equal(t, enc.Encode(s0, nil), enc.Encode(s1, nil), v)
	}
}
