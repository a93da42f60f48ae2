package integration

import (
	"crypto/rand"
	"math/big"
	"testing"
)

// nextPrime returns the smallest prime strictly greater than n, for
// constructing fixtures with a known prime gap (the Wiener scenario starts
// from nextprime(...) constructions; the Hastad scenario uses randomPrime).
func nextPrime(n *big.Int) *big.Int {
	cand := new(big.Int).Add(n, big.NewInt(1))
	if cand.Bit(0) == 0 {
		cand.Add(cand, big.NewInt(1))
	}
	two := big.NewInt(2)
	for !cand.ProbablyPrime(40) {
		cand.Add(cand, two)
	}
	return cand
}

// randomPrime returns a random prime of the given bit size, for fixtures
// that don't need a deterministic gap from a known starting point.
func randomPrime(t *testing.T, bits int) *big.Int {
	t.Helper()
	p, err := rand.Prime(rand.Reader, bits)
	if err != nil {
		t.Fatalf("rand.Prime: %v", err)
	}
	return p
}
