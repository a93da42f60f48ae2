package params

import (
	"math/big"
	"testing"
)

func TestCloneIsIndependent(t *testing.T) {
	p := New()
	p.N = big.NewInt(3233)
	p.AddFactor(big.NewInt(61), 1)

	clone := p.Clone()
	clone.N.SetInt64(9999)
	clone.AddFactor(big.NewInt(53), 1)

	if p.N.Int64() != 3233 {
		t.Fatalf("mutating clone.N affected original: got %s", p.N)
	}
	if len(p.Factors) != 1 {
		t.Fatalf("mutating clone.Factors affected original: got %v", p.Factors)
	}
}

func TestAddFactorIgnoresNilAndNonPositive(t *testing.T) {
	p := New()
	p.AddFactor(nil, 1)
	p.AddFactor(big.NewInt(5), 0)
	p.AddFactor(big.NewInt(5), -1)
	if len(p.Factors) != 0 {
		t.Fatalf("expected no factors recorded, got %v", p.Factors)
	}
}

func TestFactorIntsRoundTrips(t *testing.T) {
	p := New()
	p.AddFactor(big.NewInt(61), 1)
	p.AddFactor(big.NewInt(53), 2)

	got := map[string]int{}
	for _, fi := range p.FactorInts() {
		got[fi.F.String()] = fi.M
	}
	if got["61"] != 1 || got["53"] != 2 {
		t.Fatalf("unexpected factor multiplicities: %v", got)
	}
}
