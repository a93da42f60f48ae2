package integration

import (
	"context"
	"math/big"
	"testing"

	"rsacrack/src/finalize"
	"rsacrack/src/orchestrator"
	"rsacrack/src/params"
)

// TestTinyTrialDivision is scenario 1: n=323, e=17, c=3. 323 = 17*19 is
// small enough for small_prime alone to factor it within its trial bound.
func TestTinyTrialDivision(t *testing.T) {
	p := params.New()
	p.N = big.NewInt(323)
	p.E = big.NewInt(17)
	p.C = []*big.Int{big.NewInt(3)}

	results, err := orchestrator.Crack(context.Background(), []params.Parameters{p}, orchestrator.Options{
		Include: []string{"small_prime"},
	})
	if err != nil {
		t.Fatalf("Crack: %v", err)
	}
	if !results[0].Solved {
		t.Fatalf("expected n=323 to be solved by trial division")
	}

	key, err := finalize.Finalize(results[0].Params, finalize.Options{DecryptCiphertexts: true})
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if !key.Complete {
		t.Fatalf("expected a complete key")
	}
	if key.Params.D.Int64() != 17 {
		t.Fatalf("d = %s, want 17", key.Params.D)
	}
	if m := key.Plaintexts[0]; m == nil || m.Int64() != 241 {
		t.Fatalf("expected m=241 (3^17 mod 323 = 241, and 241^17 mod 323 = 3), got %v", m)
	}
}
