package topn

import (
	"cmp"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

type rec struct {
	id  int
	key float64
}

func desc(a, b rec) int { return cmp.Compare(b.key, a.key) }

func TestSelectSmallInput(t *testing.T) {
	in := []rec{{1, 3}, {2, 9}, {3, 1}}
	got := Select(in, desc, 10)
	assert.Equal(t, []rec{{2, 9}, {1, 3}, {3, 1}}, got)
	assert.Equal(t, []rec{{1, 3}, {2, 9}, {3, 1}}, in, "input must not be reordered")
}

func TestSelectZeroK(t *testing.T) {
	assert.Empty(t, Select([]rec{{1, 1}}, desc, 0))
}

func TestSelectKeepsStableTies(t *testing.T) {
	in := []rec{{1, 5}, {2, 5}, {3, 7}, {4, 5}, {5, 5}}
	got := Select(in, desc, 3)
	assert.Equal(t, []rec{{3, 7}, {1, 5}, {2, 5}}, got)
}

func TestSelectMatchesFullSort(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for iter := 0; iter < 500; iter++ {
		n := rng.Intn(40)
		k := 1 + rng.Intn(15)
		in := make([]rec, n)
		for i := range in {
			// few distinct keys so ties are common
			in[i] = rec{id: i, key: float64(rng.Intn(8))}
		}
		orig := slices.Clone(in)

		want := slices.Clone(in)
		slices.SortStableFunc(want, desc)
		if len(want) > k {
			want = want[:k]
		}
		got := Select(in, desc, k)
		if !slices.Equal(want, got) {
			t.Fatalf("n=%d k=%d: expected %v got %v", n, k, want, got)
		}
		if !slices.Equal(orig, in) {
			t.Fatalf("input mutated")
		}
	}
}
