package integration

import (
	"context"
	"math/big"
	"testing"

	"rsacrack/src/finalize"
	"rsacrack/src/orchestrator"
	"rsacrack/src/params"
)

// TestHastadBroadcastRecoversMessage is scenario 5: the same unpadded
// message broadcast under e=3 to three pairwise-coprime moduli, recovered
// via CRT and an exact cube root.
func TestHastadBroadcastRecoversMessage(t *testing.T) {
	e := big.NewInt(3)
	m := new(big.Int).Lsh(big.NewInt(1), 600) // small relative to each 2048-bit modulus

	var keys []params.Parameters
	for i := 0; i < 3; i++ {
		n := new(big.Int).Mul(randomPrime(t, 1024), randomPrime(t, 1024))
		c := new(big.Int).Exp(m, e, n)
		p := params.New()
		p.N, p.E, p.C = n, e, []*big.Int{c}
		keys = append(keys, p)
	}

	results, err := orchestrator.Crack(context.Background(), keys, orchestrator.Options{
		Include: []string{"hastad_broadcast"},
	})
	if err != nil {
		t.Fatalf("Crack: %v", err)
	}

	for i, r := range results {
		if !r.Solved {
			t.Fatalf("key %d: expected Hastad broadcast to mark the key solved", i)
		}
		key, err := finalize.Finalize(r.Params, finalize.Options{ExtraPlaintexts: r.Plaintexts})
		if err != nil {
			t.Fatalf("Finalize(key %d): %v", i, err)
		}
		got, ok := key.Plaintexts[0]
		if !ok {
			t.Fatalf("key %d: expected a recovered plaintext", i)
		}
		if got.Cmp(m) != 0 {
			t.Fatalf("key %d: recovered m = %s, want %s", i, got, m)
		}
	}
}
