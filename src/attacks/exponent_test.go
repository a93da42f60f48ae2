package attacks

import (
	"math/big"
	"testing"

	"rsacrack/src/params"
)

// weakWienerKey builds a textbook-vulnerable (n,e) pair with a small d, by
// picking d first and solving for the matching e.
func weakWienerKey(t *testing.T) (n, e *big.Int, p, q int64) {
	t.Helper()
	p, q = 10007, 10037
	phi := big.NewInt((p - 1) * (q - 1))
	d := big.NewInt(17) // well under n^(1/4)/3 ~= 33
	dInv := new(big.Int).ModInverse(d, phi)
	if dInv == nil {
		t.Fatalf("no modular inverse for test fixture; pick different d")
	}
	return big.NewInt(p * q), dInv, p, q
}

func TestWienerRecoversSmallD(t *testing.T) {
	n, e, p, q := weakWienerKey(t)

	pm := params.New()
	pm.N = n
	pm.E = e

	res := Wiener.Run(pm, noopCancel{}, noopProgress{})
	if !res.OK {
		t.Fatalf("expected wiener to recover small d, reason: %s", res.Reason)
	}
	got := map[string]bool{}
	for f := range res.Solution.Factors {
		got[f] = true
	}
	if !got[big.NewInt(p).String()] || !got[big.NewInt(q).String()] {
		t.Fatalf("unexpected factors: %v", res.Solution.Factors)
	}
}

func TestCommonModulusRecoversPlaintext(t *testing.T) {
	n := big.NewInt(3233)
	m := big.NewInt(65)
	e1, e2 := big.NewInt(17), big.NewInt(7)
	if new(big.Int).GCD(nil, nil, e1, e2).Int64() != 1 {
		t.Fatalf("test fixture exponents must be coprime")
	}
	c1 := new(big.Int).Exp(m, e1, n)
	c2 := new(big.Int).Exp(m, e2, n)

	a := params.New()
	a.N, a.E, a.C = n, e1, []*big.Int{c1}
	b := params.New()
	b.N, b.E, b.C = n, e2, []*big.Int{c2}

	ps := []params.Parameters{a, b}
	if !CommonModulus.Requirements(ps) {
		t.Fatalf("expected common_modulus requirements to hold")
	}
	results := CommonModulus.Run(ps, noopCancel{}, noopProgress{})
	if len(results) == 0 {
		t.Fatalf("expected at least one cross-solution")
	}
	for _, r := range results {
		if got := r.Solution.Plaintexts[0]; got != nil && got.Cmp(m) != 0 {
			t.Fatalf("recovered plaintext = %s, want %s", got, m)
		}
	}
}

func TestCommonFactorFindsSharedPrime(t *testing.T) {
	a := params.New()
	a.N = big.NewInt(3233) // 61 * 53
	b := params.New()
	b.N = big.NewInt(6161) // 61 * 101

	ps := []params.Parameters{a, b}
	if !CommonFactor.Requirements(ps) {
		t.Fatalf("expected common_factor requirements to hold")
	}
	results := CommonFactor.Run(ps, noopCancel{}, noopProgress{})
	if len(results) != 2 {
		t.Fatalf("expected two cross-solutions (one per key), got %d", len(results))
	}
	for _, r := range results {
		if r.Solution.Factors["61"] == 0 {
			t.Fatalf("expected shared factor 61 in %v", r.Solution.Factors)
		}
	}
}

func TestExtendedGCDSatisfiesBezout(t *testing.T) {
	a, b := big.NewInt(240), big.NewInt(46)
	g, x, y := extendedGCD(a, b)
	check := new(big.Int).Add(new(big.Int).Mul(a, x), new(big.Int).Mul(b, y))
	if check.Cmp(g) != 0 {
		t.Fatalf("a*x+b*y = %s, want gcd %s", check, g)
	}
	if g.Int64() != 2 {
		t.Fatalf("gcd(240,46) = %s, want 2", g)
	}
}
