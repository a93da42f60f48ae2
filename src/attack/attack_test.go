package attack

import (
	"math/big"
	"testing"
)

func TestSolutionEmpty(t *testing.T) {
	if !(Solution{}).Empty() {
		t.Fatalf("zero-value Solution should be Empty")
	}
	if (Solution{D: big.NewInt(1)}).Empty() {
		t.Fatalf("Solution with D set should not be Empty")
	}
}

func TestSolutionMergeUnionsFactorsAndKeepsMaxMultiplicity(t *testing.T) {
	a := Solution{Factors: map[string]int{"61": 1}}
	b := Solution{Factors: map[string]int{"61": 2, "53": 1}}

	merged := a.Merge(b)
	if merged.Factors["61"] != 2 {
		t.Fatalf("expected max multiplicity 2 for 61, got %d", merged.Factors["61"])
	}
	if merged.Factors["53"] != 1 {
		t.Fatalf("expected 53 to carry over, got %d", merged.Factors["53"])
	}
}

func TestSolutionMergePrefersExistingD(t *testing.T) {
	a := Solution{D: big.NewInt(7)}
	b := Solution{D: big.NewInt(9)}
	merged := a.Merge(b)
	if merged.D.Int64() != 7 {
		t.Fatalf("expected first non-nil D to win, got %s", merged.D)
	}
}

func TestSolutionMergePlaintexts(t *testing.T) {
	a := Solution{Plaintexts: map[int]*big.Int{0: big.NewInt(42)}}
	b := Solution{Plaintexts: map[int]*big.Int{1: big.NewInt(7)}}
	merged := a.Merge(b)
	if merged.Plaintexts[0].Int64() != 42 || merged.Plaintexts[1].Int64() != 7 {
		t.Fatalf("expected both plaintexts to survive merge: %v", merged.Plaintexts)
	}
}

func TestSpeedString(t *testing.T) {
	cases := map[Speed]string{Fast: "fast", Medium: "medium", Slow: "slow"}
	for s, want := range cases {
		if got := s.String(); got != want {
			t.Fatalf("Speed(%d).String() = %q, want %q", s, got, want)
		}
	}
}
