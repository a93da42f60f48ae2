package integration

import (
	"context"
	"math/big"
	"testing"

	"rsacrack/src/orchestrator"
	"rsacrack/src/params"
)

// TestWienerRecoversSmallD is scenario 3: p, q a 257-bit prime pair (the
// first primes above 2^256), d a 71-bit private exponent (the first prime
// above 2^70 coprime to phi(n)), e its modular inverse. Given
// only n and e the Wiener attack should recover d (and, with it, p and q).
func TestWienerRecoversSmallD(t *testing.T) {
	pVal := nextPrime(new(big.Int).Lsh(big.NewInt(1), 256))
	qVal := nextPrime(new(big.Int).Add(pVal, big.NewInt(2)))
	n := new(big.Int).Mul(pVal, qVal)
	phi := new(big.Int).Mul(new(big.Int).Sub(pVal, big.NewInt(1)), new(big.Int).Sub(qVal, big.NewInt(1)))

	d := nextPrime(new(big.Int).Lsh(big.NewInt(1), 70))
	for new(big.Int).GCD(nil, nil, d, phi).Cmp(big.NewInt(1)) != 0 {
		d = nextPrime(d)
	}
	e := new(big.Int).ModInverse(d, phi)
	if e == nil {
		t.Fatalf("could not compute e = d^-1 mod phi(n)")
	}

	p := params.New()
	p.N = n
	p.E = e

	results, err := orchestrator.Crack(context.Background(), []params.Parameters{p}, orchestrator.Options{
		Include: []string{"wiener"},
	})
	if err != nil {
		t.Fatalf("Crack: %v", err)
	}
	if !results[0].Solved {
		t.Fatalf("expected Wiener to recover d for a 71-bit private exponent")
	}
	if results[0].Params.D == nil || results[0].Params.D.Cmp(d) != 0 {
		t.Fatalf("recovered d = %v, want %s", results[0].Params.D, d)
	}
}
