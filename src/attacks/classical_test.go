package attacks

import (
	"math/big"
	"testing"

	"rsacrack/src/params"
)

func TestFermatFindsCloseFactors(t *testing.T) {
	// 100000980001501 = 10000019 * 10000079, close enough for Fermat.
	n, _ := new(big.Int).SetString("100000980001501", 10)
	p := params.New()
	p.N = n

	res := Fermat.Run(p, noopCancel{}, noopProgress{})
	if !res.OK {
		t.Fatalf("expected fermat to succeed, reason: %s", res.Reason)
	}
	prod := big.NewInt(1)
	for _, fi := range (params.Parameters{Factors: res.Solution.Factors}).FactorInts() {
		prod.Mul(prod, fi.F)
	}
	if prod.Cmp(n) != 0 {
		t.Fatalf("recovered factors do not multiply to n: got %s, want %s", prod, n)
	}
}

func TestPollardRhoFactorsComposite(t *testing.T) {
	p := params.New()
	p.N = big.NewInt(3233) // 61 * 53

	res := PollardRho.Run(p, noopCancel{}, noopProgress{})
	if !res.OK {
		t.Fatalf("expected pollard_rho to succeed, reason: %s", res.Reason)
	}
	if len(res.Solution.Factors) == 0 {
		t.Fatalf("expected at least one factor")
	}
}

func TestCubeRootRecoversUnpaddedCube(t *testing.T) {
	m := big.NewInt(12345)
	c := new(big.Int).Exp(m, big.NewInt(3), nil)

	p := params.New()
	p.E = big.NewInt(3)
	p.C = []*big.Int{c}

	if !CubeRoot.Requirements(p) {
		t.Fatalf("expected CubeRoot requirements to hold for e=3")
	}
	res := CubeRoot.Run(p, noopCancel{}, noopProgress{})
	if !res.OK {
		t.Fatalf("expected cube_root to succeed, reason: %s", res.Reason)
	}
	if res.Solution.Plaintexts[0].Cmp(m) != 0 {
		t.Fatalf("recovered plaintext = %s, want %s", res.Solution.Plaintexts[0], m)
	}
}

func TestIntegerRootExactAndInexact(t *testing.T) {
	n := big.NewInt(15625) // 5^6
	root, ok := integerRoot(n, 6)
	if !ok || root.Int64() != 5 {
		t.Fatalf("integerRoot(15625, 6) = %v, %v; want 5, true", root, ok)
	}
	if _, ok := integerRoot(big.NewInt(100), 3); ok {
		t.Fatalf("expected integerRoot(100, 3) to report inexact")
	}
}
