package similarity

import (
	"math"
	"testing"

	"errgate/internal/model"
)

func sig(code, message string, status int, ctx map[string]any) model.Signal {
	return model.Signal{Code: code, Message: message, StatusCode: status, Context: ctx}
}

func almost(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestScoreIdenticalSignals(t *testing.T) {
	a := sig("DB_ERROR", "Query failed", 500, map[string]any{"host": "db01"})
	if got := Score(a, a); !almost(got, 1) {
		t.Fatalf("identical signals scored %v, want 1", got)
	}
}

func TestScoreComponents(t *testing.T) {
	// Only the code matches.
	a := sig("DB_ERROR", "alpha", 500, nil)
	b := sig("DB_ERROR", "omega", 400, map[string]any{"k": 1})
	got := Score(a, b)
	want := 0.4 + 0.3*messageSimilarity("alpha", "omega")
	if !almost(got, want) {
		t.Fatalf("score %v, want %v", got, want)
	}

	// Only the status matches; contexts both absent contribute 0.1.
	a = sig("DB_ERROR", "alpha", 500, nil)
	b = sig("NET_ERROR", "omega", 500, nil)
	got = Score(a, b)
	want = 0.3*messageSimilarity("alpha", "omega") + 0.2 + 0.1
	if !almost(got, want) {
		t.Fatalf("score %v, want %v", got, want)
	}
}

func TestOneCharDiffAboveThreshold(t *testing.T) {
	// Identical code/status, 20-char messages differing by one char.
	a := sig("DB_ERROR", "Query failed on db01", 500, nil)
	b := sig("DB_ERROR", "Query failed on db02", 500, nil)
	got := Score(a, b)
	if got < DefaultThreshold {
		t.Fatalf("near-duplicate scored %v, want >= %v", got, DefaultThreshold)
	}
}

func TestUnrelatedBelowThreshold(t *testing.T) {
	a := sig("DB_ERROR", "Query failed on db01", 500, nil)
	b := sig("AUTH_FAIL", "token rejected for user zz", 401, nil)
	got := Score(a, b)
	if got >= DefaultThreshold {
		t.Fatalf("unrelated signals scored %v, want < %v", got, DefaultThreshold)
	}
}

func TestMessageSimilarityEmpty(t *testing.T) {
	if got := messageSimilarity("", ""); !almost(got, 1) {
		t.Fatalf("empty/empty scored %v, want 1", got)
	}
	if got := messageSimilarity("", "abcd"); !almost(got, 0) {
		t.Fatalf("empty/nonempty scored %v, want 0", got)
	}
}

func TestEditDistance(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"same", "same", 0},
	}
	for _, tc := range cases {
		if got := editDistance([]rune(tc.a), []rune(tc.b)); got != tc.want {
			t.Fatalf("editDistance(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestContextSimilarity(t *testing.T) {
	if got := contextSimilarity(nil, nil); !almost(got, 1) {
		t.Fatalf("nil/nil context scored %v, want 1", got)
	}
	if got := contextSimilarity(map[string]any{"a": 1}, nil); !almost(got, 0) {
		t.Fatalf("one-sided context scored %v, want 0", got)
	}

	a := map[string]any{"host": "db01", "attempt": 1, "only_a": true}
	b := map[string]any{"host": "db01", "attempt": 2, "only_b": true}
	// Shared keys: host (equal), attempt (different) -> 1/2.
	if got := contextSimilarity(a, b); !almost(got, 0.5) {
		t.Fatalf("context similarity %v, want 0.5", got)
	}

	// Disjoint key sets share nothing.
	if got := contextSimilarity(map[string]any{"a": 1}, map[string]any{"b": 1}); !almost(got, 0) {
		t.Fatalf("disjoint contexts scored %v, want 0", got)
	}
}

func TestContextSimilarityDepthBound(t *testing.T) {
	deep := func() any {
		var v any = "leaf"
		for i := 0; i < 12; i++ {
			v = map[string]any{"nested": v}
		}
		return v
	}
	a := map[string]any{"payload": deep()}
	b := map[string]any{"payload": deep()}
	// Equal beyond the depth bound still compares as dissimilar.
	if got := contextSimilarity(a, b); !almost(got, 0) {
		t.Fatalf("over-deep contexts scored %v, want 0", got)
	}
}
