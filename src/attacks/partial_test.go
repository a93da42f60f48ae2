package attacks

import (
	"math/big"
	"testing"

	"rsacrack/src/params"
)

func TestBruteforcePatternSuffixWildcards(t *testing.T) {
	// p=61 ("0x3d"), q=53: n = 3233. Hide the last hex digit of p as "0x3?".
	n := big.NewInt(3233)
	pat := &params.PartialPrimePattern{
		Radix:         params.Hex,
		Digits:        []int{3}, // known MSB hex digit of 0x3d
		WildcardCount: 1,
		WildcardAtMSB: false,
	}

	sol, err := bruteforcePattern(n, pat, "p", noopCancel{}, noopProgress{})
	if err != nil {
		t.Fatalf("bruteforcePattern error: %v", err)
	}
	if sol == nil {
		t.Fatalf("expected a solution")
	}
	if sol.Factors["61"] == 0 && sol.Factors["53"] == 0 {
		t.Fatalf("expected 61 or 53 among recovered factors, got %v", sol.Factors)
	}
}

func TestBruteforcePatternRejectsOversizedSpace(t *testing.T) {
	n := big.NewInt(3233)
	pat := &params.PartialPrimePattern{
		Radix:         params.Dec,
		Digits:        []int{1},
		WildcardCount: 30, // 10^30 candidates, far past partialPrimeSpaceCap
		WildcardAtMSB: false,
	}
	_, err := bruteforcePattern(n, pat, "p", noopCancel{}, noopProgress{})
	if err == nil {
		t.Fatalf("expected an error for an oversized enumeration space")
	}
}

func TestKnownValueMSBFirst(t *testing.T) {
	got := knownValue([]int{1, 2, 3}, 16)
	want := int64(0x123)
	if got.Int64() != want {
		t.Fatalf("knownValue = %d, want %d", got.Int64(), want)
	}
}
