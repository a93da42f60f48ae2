// Package finalize is the solution finalizer (component G): once an attack
// or the derivation closure has produced enough of a key to be useful, it
// reconciles the recorded factors against n, completes the private-key
// fields via params.Derive, recovers any plaintexts it can, and hands the
// result to src/codec for on-disk export.
package finalize

import (
	"fmt"
	"math/big"

	"rsacrack/src/params"
)

// Key is the fully-reconciled output of a Finalize call: whatever subset of
// the private key and plaintexts ended up recoverable.
type Key struct {
	Params params.Parameters

	// Complete reports whether P, Q and D are all known after
	// reconciliation; Finalize still returns a Key with partial results (and
	// no error) when it is false.
	Complete bool

	// Plaintexts maps ciphertext index (into Params.C) to recovered
	// cleartext integer, from whichever source supplied it: CRT/plain
	// modular exponentiation once D is known, or an attack's direct
	// Solution.Plaintexts (common-modulus, Hastad, discrete log).
	Plaintexts map[int]*big.Int
}

// Options controls how much work Finalize does beyond reconciliation.
type Options struct {
	// DecryptCiphertexts computes m = c^d mod n (CRT-accelerated when p,q
	// are known) for every ciphertext once d is available.
	DecryptCiphertexts bool

	// ExtraPlaintexts are plaintexts an attack already recovered directly
	// (e.g. via a cross-key attack) and that Finalize should fold in
	// without re-deriving them.
	ExtraPlaintexts map[int]*big.Int
}

// Finalize reconciles p's recorded factors against n, completes every
// derivable field, and recovers plaintexts where possible. It returns an
// error only when the recorded factors are inconsistent with n (their
// product does not divide it) or when Derive reports contradictory fields
// (e.g. p·q ≠ n), never merely because the key is incomplete.
func Finalize(p params.Parameters, opts Options) (Key, error) {
	work := p.Clone()

	if len(work.Factors) > 0 && work.N != nil {
		prod := big.NewInt(1)
		for _, fi := range work.FactorInts() {
			prod.Mul(prod, new(big.Int).Exp(fi.F, big.NewInt(int64(fi.M)), nil))
		}
		if prod.Cmp(work.N) != 0 {
			q, r := new(big.Int).QuoRem(work.N, prod, new(big.Int))
			if r.Sign() != 0 {
				return Key{}, fmt.Errorf("finalize: recorded factors do not divide n (product %s, n %s)", prod, work.N)
			}
			_ = q // the cofactor is not checked for primality or recorded as a factor
		}
	}

	derived, err := params.Derive(work)
	if err != nil {
		return Key{}, fmt.Errorf("finalize: %w", err)
	}
	work = derived

	key := Key{
		Params:     work,
		Complete:   work.P != nil && work.Q != nil && work.D != nil,
		Plaintexts: map[int]*big.Int{},
	}

	for i, m := range opts.ExtraPlaintexts {
		key.Plaintexts[i] = m
	}

	if opts.DecryptCiphertexts && work.D != nil {
		for i, c := range work.C {
			if _, already := key.Plaintexts[i]; already {
				continue
			}
			m := decryptOne(work, c)
			if m != nil {
				key.Plaintexts[i] = m
			}
		}
	}

	return key, nil
}

// decryptOne computes c^d mod n, using CRT when p and q are both known.
func decryptOne(p params.Parameters, c *big.Int) *big.Int {
	if p.P != nil && p.Q != nil {
		dp, dq := p.DP, p.DQ
		if dp == nil {
			dp = new(big.Int).Mod(p.D, new(big.Int).Sub(p.P, big1))
		}
		if dq == nil {
			dq = new(big.Int).Mod(p.D, new(big.Int).Sub(p.Q, big1))
		}
		qInv := p.QInv
		if qInv == nil {
			qInv = new(big.Int).ModInverse(p.Q, p.P)
		}
		if qInv != nil {
			m1 := new(big.Int).Exp(c, dp, p.P)
			m2 := new(big.Int).Exp(c, dq, p.Q)
			h := new(big.Int).Sub(m1, m2)
			h.Mul(h, qInv)
			h.Mod(h, p.P)
			if h.Sign() < 0 {
				h.Add(h, p.P)
			}
			m := new(big.Int).Mul(h, p.Q)
			m.Add(m, m2)
			return m
		}
	}
	if p.N == nil {
		return nil
	}
	return new(big.Int).Exp(c, p.D, p.N)
}

var big1 = big.NewInt(1)
