package proptest

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Rand Core Tests
// =============================================================================

func TestRand_Deterministic(t *testing.T) {
	// Same seed should produce same sequence
	r1 := NewRand(12345)
	r2 := NewRand(12345)

	for i := 0; i < 100; i++ {
		require.Equal(t, r1.Next(), r2.Next(), "iteration %d", i)
	}
}

func TestRand_DifferentSeeds(t *testing.T) {
	r1 := NewRand(12345)
	r2 := NewRand(54321)

	same := 0
	for i := 0; i < 100; i++ {
		if r1.Intn(1000) == r2.Intn(1000) {
			same++
		}
	}

	// Allow some coincidental matches, but not too many
	assert.LessOrEqual(t, same, 20)
}

func TestRand_KnownSequence(t *testing.T) {
	r := NewRand(1)

	// state_1 = 1*1664525 + 1013904223
	assert.Equal(t, float64(1015568748)/4294967296, r.Next())
	// state_2 = state_1*1664525 + 1013904223 mod 2^32
	assert.Equal(t, float64(1586005467)/4294967296, r.Next())
}

func TestRand_InitialSeed(t *testing.T) {
	r := NewRand(99999)
	r.Next()
	r.Integer(0, 10)
	assert.Equal(t, int64(99999), r.InitialSeed())
}

func TestRand_SeedResets(t *testing.T) {
	r := NewRand(7)
	first := []int{r.Intn(100), r.Intn(100), r.Intn(100)}

	r.Seed(7)
	again := []int{r.Intn(100), r.Intn(100), r.Intn(100)}
	assert.Equal(t, first, again)
}

func TestRand_NextRange(t *testing.T) {
	r := NewRand(42)
	for i := 0; i < 10000; i++ {
		v := r.Next()
		require.GreaterOrEqual(t, v, 0.0)
		require.Less(t, v, 1.0)
	}
}

// =============================================================================
// Integer Tests
// =============================================================================

func TestInteger_Bounds(t *testing.T) {
	r := NewRand(42)
	min, max := 10, 20

	for i := 0; i < 1000; i++ {
		n := r.Integer(min, max)
		require.True(t, n >= min && n <= max, "Integer(%d, %d) = %d", min, max, n)
	}
}

func TestInteger_SingleValue(t *testing.T) {
	r := NewRand(42)
	for i := 0; i < 100; i++ {
		assert.Equal(t, 5, r.Integer(5, 5))
	}
}

func TestInteger_Coverage(t *testing.T) {
	r := NewRand(42)
	seen := make(map[int]bool)
	for i := 0; i < 1000; i++ {
		seen[r.Integer(0, 10)] = true
	}
	for i := 0; i <= 10; i++ {
		assert.True(t, seen[i], "Integer(0, 10) never produced %d", i)
	}
}

func TestInteger_Negative(t *testing.T) {
	r := NewRand(3)
	for i := 0; i < 1000; i++ {
		n := r.Integer(-50, -40)
		require.True(t, n >= -50 && n <= -40, "got %d", n)
	}
}

func TestInteger_WideRange(t *testing.T) {
	r := NewRand(8)
	for i := 0; i < 1000; i++ {
		n := r.Integer(-1<<62, 1<<62)
		require.True(t, n >= -1<<62 && n <= 1<<62)
	}
}

func TestInteger_PanicsOnInvertedRange(t *testing.T) {
	assert.Panics(t, func() { NewRand(1).Integer(5, 4) })
	assert.Panics(t, func() { NewRand(1).Intn(0) })
}

// =============================================================================
// Other Primitive Tests
// =============================================================================

func TestFloat_Bounds(t *testing.T) {
	r := NewRand(42)
	for i := 0; i < 1000; i++ {
		f := r.Float(-2.5, 2.5)
		require.True(t, f >= -2.5 && f < 2.5, "got %v", f)
	}
}

func TestBoolean_BothValues(t *testing.T) {
	r := NewRand(42)
	seen := map[bool]int{}
	for i := 0; i < 1000; i++ {
		seen[r.Boolean()]++
	}
	assert.Greater(t, seen[true], 300)
	assert.Greater(t, seen[false], 300)
}

func TestBoolWithProb_Extremes(t *testing.T) {
	r := NewRand(42)
	for i := 0; i < 100; i++ {
		assert.False(t, r.BoolWithProb(0))
		assert.True(t, r.BoolWithProb(1))
	}
}

func TestString_LengthAndCharset(t *testing.T) {
	r := NewRand(42)
	for i := 0; i < 100; i++ {
		s := r.String(12, CharsetDigits)
		require.Len(t, s, 12)
		require.Empty(t, strings.Trim(s, CharsetDigits), "unexpected characters in %q", s)
	}
	assert.Equal(t, "", r.String(0, CharsetDigits))
	assert.Equal(t, "", r.String(-3, ""))
}

func TestString_DefaultCharset(t *testing.T) {
	s := NewRand(5).String(200, "")
	assert.Empty(t, strings.Trim(s, CharsetAlphaNum))
}

func TestElement(t *testing.T) {
	r := NewRand(42)
	values := []string{"a", "b", "c"}
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		seen[Element(r, values)] = true
	}
	assert.Len(t, seen, 3)
	assert.Panics(t, func() { Element(r, []int{}) })
}

func TestRand_AsMathRandSource(t *testing.T) {
	r1 := rand.New(NewRand(77))
	r2 := rand.New(NewRand(77))
	for i := 0; i < 50; i++ {
		require.Equal(t, r1.Int63(), r2.Int63())
	}
	for i := 0; i < 50; i++ {
		require.GreaterOrEqual(t, r1.Int63(), int64(0))
	}
}

func TestNewSeed_Varies(t *testing.T) {
	assert.NotZero(t, NewSeed())
}
