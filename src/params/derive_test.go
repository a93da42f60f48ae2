package params

import (
	"math/big"
	"testing"
)

func TestDerivePAndQ(t *testing.T) {
	p := New()
	p.P = big.NewInt(61)
	p.Q = big.NewInt(53)
	p.E = big.NewInt(17)

	derived, err := Derive(p)
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	if derived.N.Int64() != 3233 {
		t.Fatalf("n = %s, want 3233", derived.N)
	}
	if derived.Phi.Int64() != 3120 {
		t.Fatalf("phi = %s, want 3120", derived.Phi)
	}
	if derived.D == nil {
		t.Fatalf("expected d to be derived")
	}
	check := new(big.Int).Mul(p.E, derived.D)
	check.Mod(check, derived.Phi)
	if check.Int64() != 1 {
		t.Fatalf("e*d mod phi = %s, want 1", check)
	}
}

func TestDeriveSumPQ(t *testing.T) {
	p := New()
	p.N = big.NewInt(3233)
	p.SumPQ = big.NewInt(114) // 61 + 53

	derived, err := Derive(p)
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	if derived.P == nil || derived.Q == nil {
		t.Fatalf("expected p,q to be recovered from sum_pq")
	}
	got := map[int64]bool{derived.P.Int64(): true, derived.Q.Int64(): true}
	if !got[61] || !got[53] {
		t.Fatalf("p,q = %s,%s, want {61,53}", derived.P, derived.Q)
	}
}

func TestDeriveDiffPQ(t *testing.T) {
	p := New()
	p.N = big.NewInt(3233)
	p.DiffPQ = big.NewInt(8) // |61-53|

	derived, err := Derive(p)
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	if derived.P == nil || derived.Q == nil {
		t.Fatalf("expected p,q to be recovered from diff_pq")
	}
}

func TestDeriveNAndPYieldsQ(t *testing.T) {
	p := New()
	p.N = big.NewInt(3233)
	p.P = big.NewInt(61)

	derived, err := Derive(p)
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	if derived.Q == nil || derived.Q.Int64() != 53 {
		t.Fatalf("q = %v, want 53", derived.Q)
	}
}

func TestDeriveInconsistentFails(t *testing.T) {
	p := New()
	p.P = big.NewInt(61)
	p.Q = big.NewInt(53)
	p.N = big.NewInt(9999) // wrong, should be 3233

	if _, err := Derive(p); err != ErrInconsistent {
		t.Fatalf("expected ErrInconsistent, got %v", err)
	}
}

func TestDeriveFromEDN(t *testing.T) {
	p := New()
	p.N = big.NewInt(3233)
	p.E = big.NewInt(17)
	p.D = big.NewInt(2753) // e*d = 46801 = 1 + 15*3120

	derived, err := Derive(p)
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	if derived.P == nil || derived.Q == nil {
		t.Fatalf("expected p,q recovered from e,d,n")
	}
	prod := new(big.Int).Mul(derived.P, derived.Q)
	if prod.Cmp(p.N) != 0 {
		t.Fatalf("p*q = %s, want %s", prod, p.N)
	}
}

func TestDeriveCRTComponents(t *testing.T) {
	p := New()
	p.P = big.NewInt(61)
	p.Q = big.NewInt(53)
	p.D = big.NewInt(2753)

	derived, err := Derive(p)
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	if derived.DP == nil || derived.DQ == nil || derived.PInv == nil || derived.QInv == nil {
		t.Fatalf("expected CRT components to be derived: %+v", derived)
	}
	if derived.SumPQ.Int64() != 114 || derived.DiffPQ.Int64() != 8 {
		t.Fatalf("sum/diff = %s/%s, want 114/8", derived.SumPQ, derived.DiffPQ)
	}
}

func TestDeriveIsIdempotent(t *testing.T) {
	p := New()
	p.P = big.NewInt(61)
	p.Q = big.NewInt(53)
	p.E = big.NewInt(17)

	once, err := Derive(p)
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	twice, err := Derive(once)
	if err != nil {
		t.Fatalf("second Derive failed: %v", err)
	}
	if once.N.Cmp(twice.N) != 0 || once.D.Cmp(twice.D) != 0 {
		t.Fatalf("Derive is not idempotent: %+v vs %+v", once, twice)
	}
}
