package attacks

import (
	"math/big"
	"testing"
)

func TestBabyStepGiantStepSolvesSmallDiscreteLog(t *testing.T) {
	n := big.NewInt(1000000007) // prime modulus
	base := big.NewInt(5)
	x := int64(12345)
	target := new(big.Int).Exp(base, big.NewInt(x), n)

	got, ok := babyStepGiantStep(base, target, n, 1<<20, noopCancel{})
	if !ok {
		t.Fatalf("expected babyStepGiantStep to find x")
	}
	if got.Int64() != x {
		t.Fatalf("babyStepGiantStep = %s, want %d", got, x)
	}
}

func TestSmoothFactorRecognisesFullyFactoredInput(t *testing.T) {
	n := big.NewInt(360) // 2^3 * 3^2 * 5
	factors := smoothFactor(n, 10)
	if factors == nil {
		t.Fatalf("expected 360 to be fully smooth over primes <= 10")
	}
	if factors["2"] != 3 || factors["3"] != 2 || factors["5"] != 1 {
		t.Fatalf("unexpected factorisation: %v", factors)
	}
}

func TestSmoothFactorRejectsNonSmoothInput(t *testing.T) {
	n := big.NewInt(2 * 97) // 97 is not <= bound
	if factors := smoothFactor(n, 10); factors != nil {
		t.Fatalf("expected nil for a non-smooth input, got %v", factors)
	}
}
