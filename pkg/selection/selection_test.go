package selection

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"comma and space", "GeneA, GeneB GeneC", []string{"GeneA", "GeneB", "GeneC"}},
		{"runs of separators", " ,, GeneA\t\n,GeneB ,", []string{"GeneA", "GeneB"}},
		{"case kept", "genea GENEA", []string{"genea", "GENEA"}},
		{"empty", "", nil},
		{"only separators", " , ,\t", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw))
		})
	}
}

func TestAddTokens(t *testing.T) {
	got := AddTokens(nil, Normalize("GeneA, GeneB GeneC"))
	assert.Equal(t, []string{"GeneA", "GeneB", "GeneC"}, got)

	got = AddTokens([]string{"GeneA"}, Normalize("GeneA, GeneD"))
	assert.Equal(t, []string{"GeneA", "GeneD"}, got)
}

func TestAddTokensKeepsEarliest(t *testing.T) {
	var many []string
	for i := 0; i < 15; i++ {
		many = append(many, fmt.Sprintf("G%d", i))
	}

	got := AddTokens([]string{"X"}, many)

	require.Len(t, got, MaxGenes)
	assert.Equal(t, "X", got[0])
	assert.Equal(t, "G8", got[MaxGenes-1])
}

func TestAddTokensDoesNotMutateInput(t *testing.T) {
	existing := make([]string, 1, 8)
	existing[0] = "GeneA"

	_ = AddTokens(existing, []string{"GeneB"})

	assert.Equal(t, []string{"GeneA"}, existing)
	assert.Equal(t, "", existing[:2][1])
}

func TestRemove(t *testing.T) {
	base := []string{"GeneA", "GeneB", "GeneC"}

	assert.Equal(t, []string{"GeneA", "GeneC"}, Remove(base, 1))
	assert.Equal(t, base, Remove(base, 3))
	assert.Equal(t, base, Remove(base, -1))
	assert.Equal(t, []string{"GeneA", "GeneB", "GeneC"}, base)
}

func TestRemainingCapacity(t *testing.T) {
	ten := AddTokens(nil, Normalize("a b c d e f g h i j"))
	seven := AddTokens(nil, Normalize("a b c d e f g"))

	assert.Equal(t, 0, RemainingCapacity(ten))
	assert.Equal(t, 3, RemainingCapacity(seven))
	assert.Equal(t, MaxGenes, RemainingCapacity(nil))
}

// Random add/remove sequences never break the bound or uniqueness.
func TestSelectionInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	pool := []string{"GeneA", "GeneB", "GeneC", "GeneD", "GeneE", "GeneF", "GeneG",
		"GeneH", "GeneI", "GeneJ", "GeneK", "GeneL", "genea", "GENEB"}

	var sel []string
	for step := 0; step < 2000; step++ {
		if rng.Intn(4) == 0 {
			sel = Remove(sel, rng.Intn(MaxGenes+2)-1)
		} else {
			n := rng.Intn(5)
			add := make([]string, n)
			for i := range add {
				add[i] = pool[rng.Intn(len(pool))]
			}
			sel = AddTokens(sel, add)
		}

		require.LessOrEqual(t, len(sel), MaxGenes, "step %d", step)

		seen := map[string]bool{}
		for _, g := range sel {
			require.False(t, seen[g], "duplicate %q at step %d", g, step)
			seen[g] = true
		}
		require.Equal(t, MaxGenes-len(sel), RemainingCapacity(sel))
	}
}
