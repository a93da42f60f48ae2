package params

import (
	"crypto/rand"
	"errors"
	"math/big"
)

var (
	big0 = big.NewInt(0)
	big1 = big.NewInt(1)
	big2 = big.NewInt(2)
	big4 = big.NewInt(4)
)

// ErrInconsistent is returned by Derive when user-supplied fields
// contradict each other, e.g. p*q != n.
var ErrInconsistent = errors.New("params: inconsistent fields")

// factorDFromDBudget bounds the number of random bases the probabilistic
// n-from-(e,d) rule tries before giving up on this pass. The rule is
// retried on every subsequent Derive call (e.g. once per fast-attack
// layer), so a bounded budget here does not mean the derivation can never
// succeed — only that it won't stall one pass.
const factorDFromDBudget = 8

// Derive runs the deterministic derivation closure described in
// SPEC_FULL.md §4.1 to a fixed point: every rule whose left-hand side is
// satisfied and right-hand side is still unknown fires, repeatedly, until
// no field changes in a full pass. It is idempotent and never removes or
// overwrites a field the caller already supplied.
func Derive(p Parameters) (Parameters, error) {
	cur := p.Clone()
	for {
		changed, err := derivePass(&cur)
		if err != nil {
			return cur, err
		}
		if !changed {
			return cur, nil
		}
	}
}

func derivePass(p *Parameters) (bool, error) {
	changed := false

	// p ∧ q ⇒ n, φ = (p-1)(q-1), factors ← {p,q}
	if p.P != nil && p.Q != nil {
		if p.N == nil {
			p.N = new(big.Int).Mul(p.P, p.Q)
			changed = true
		} else if new(big.Int).Mul(p.P, p.Q).Cmp(p.N) != 0 && len(p.Factors) == 0 {
			return false, ErrInconsistent
		}
		if p.Phi == nil {
			pm1 := new(big.Int).Sub(p.P, big1)
			qm1 := new(big.Int).Sub(p.Q, big1)
			p.Phi = new(big.Int).Mul(pm1, qm1)
			changed = true
		}
		if _, ok := p.Factors[p.P.String()]; !ok {
			p.AddFactor(p.P, 1)
			changed = true
		}
		if _, ok := p.Factors[p.Q.String()]; !ok {
			p.AddFactor(p.Q, 1)
			changed = true
		}
	}

	// factors with ∏ = n ⇒ φ = ∏(fi-1)·∏fi^(mi-1)
	if p.N != nil && len(p.Factors) > 0 && p.Phi == nil {
		prod := big.NewInt(1)
		phi := big.NewInt(1)
		ok := true
		for _, fi := range p.FactorInts() {
			pw := new(big.Int).Exp(fi.F, big.NewInt(int64(fi.M)), nil)
			prod.Mul(prod, pw)
			fm1 := new(big.Int).Sub(fi.F, big1)
			if fm1.Sign() == 0 {
				ok = false
				break
			}
			phi.Mul(phi, fm1)
			if fi.M > 1 {
				phi.Mul(phi, new(big.Int).Exp(fi.F, big.NewInt(int64(fi.M-1)), nil))
			}
		}
		if ok && prod.Cmp(p.N) == 0 {
			p.Phi = phi
			changed = true
		}
	}

	// n ∧ p ⇒ q = n/p if divisible (also covers n ∧ q ⇒ p)
	if p.N != nil {
		if p.P != nil && p.Q == nil {
			q, r := new(big.Int).QuoRem(p.N, p.P, new(big.Int))
			if r.Sign() == 0 {
				p.Q = q
				changed = true
			}
		}
		if p.Q != nil && p.P == nil {
			q, r := new(big.Int).QuoRem(p.N, p.Q, new(big.Int))
			if r.Sign() == 0 {
				p.P = q
				changed = true
			}
		}
	}

	// n ∧ sum_pq ⇒ discriminant = sum² - 4n; if perfect square solve for p,q
	if p.N != nil && p.SumPQ != nil && (p.P == nil || p.Q == nil) {
		if pp, qq, ok := solveFromSum(p.N, p.SumPQ); ok {
			p.P, p.Q = pp, qq
			changed = true
		}
	}

	// n ∧ diff_pq ⇒ p,q = (√(diff²+4n) ± diff)/2
	if p.N != nil && p.DiffPQ != nil && (p.P == nil || p.Q == nil) {
		if pp, qq, ok := solveFromDiff(p.N, p.DiffPQ); ok {
			p.P, p.Q = pp, qq
			changed = true
		}
	}

	// e ∧ φ ⇒ d = e⁻¹ mod φ
	if p.E != nil && p.Phi != nil && p.D == nil {
		if d := new(big.Int).ModInverse(p.E, p.Phi); d != nil {
			p.D = d
			changed = true
		}
	}

	// e ∧ d ∧ n ⇒ factor n from (e·d − 1) via the Miller-style algorithm
	if p.E != nil && p.D != nil && p.N != nil && (p.P == nil || p.Q == nil) {
		if f := factorFromED(p.E, p.D, p.N); f != nil {
			q, r := new(big.Int).QuoRem(p.N, f, new(big.Int))
			if r.Sign() == 0 && f.Cmp(big1) > 0 && q.Cmp(big1) > 0 {
				p.P, p.Q = f, q
				changed = true
			}
		}
	}

	// dp ∧ dq ∧ e ∧ n ⇒ p = gcd(n, 2^(e·dp) − 2 mod n), q = n/p
	// (e·dp ≡ 1 mod p−1, so 2^(e·dp) ≡ 2 mod p; the CRT coefficient is not needed)
	if p.DP != nil && p.DQ != nil && p.E != nil && p.N != nil && (p.P == nil || p.Q == nil) {
		cand := new(big.Int).Exp(big2, new(big.Int).Mul(p.E, p.DP), p.N)
		cand.Sub(cand, big2)
		g := new(big.Int).GCD(nil, nil, cand, p.N)
		if g.Cmp(big1) > 0 && g.Cmp(p.N) != 0 {
			q, r := new(big.Int).QuoRem(p.N, g, new(big.Int))
			if r.Sign() == 0 {
				p.P, p.Q = g, q
				changed = true
			}
		}
	}

	// dp ∧ e ∧ q ⇒ p = gcd(e·dp − 1, n) then derive d
	if p.DP != nil && p.E != nil && p.Q != nil && p.N != nil && p.P == nil {
		cand := new(big.Int).Sub(new(big.Int).Mul(p.E, p.DP), big1)
		g := new(big.Int).GCD(nil, nil, cand, p.N)
		if g.Cmp(big1) > 0 && g.Cmp(p.N) != 0 {
			p.P = g
			changed = true
		}
	}

	// CRT components, once p and q are known.
	if p.P != nil && p.Q != nil {
		if p.D != nil {
			pm1 := new(big.Int).Sub(p.P, big1)
			qm1 := new(big.Int).Sub(p.Q, big1)
			if p.DP == nil {
				p.DP = new(big.Int).Mod(p.D, pm1)
				changed = true
			}
			if p.DQ == nil {
				p.DQ = new(big.Int).Mod(p.D, qm1)
				changed = true
			}
		}
		if p.QInv == nil {
			if inv := new(big.Int).ModInverse(p.Q, p.P); inv != nil {
				p.QInv = inv
				changed = true
			}
		}
		if p.PInv == nil {
			if inv := new(big.Int).ModInverse(p.P, p.Q); inv != nil {
				p.PInv = inv
				changed = true
			}
		}
		if p.SumPQ == nil {
			p.SumPQ = new(big.Int).Add(p.P, p.Q)
			changed = true
		}
		if p.DiffPQ == nil {
			d := new(big.Int).Sub(p.P, p.Q)
			p.DiffPQ = d.Abs(d)
			changed = true
		}
	}

	return changed, nil
}

// solveFromSum solves x² − sum·x + n = 0 for integer roots.
func solveFromSum(n, sum *big.Int) (p, q *big.Int, ok bool) {
	disc := new(big.Int).Mul(sum, sum)
	disc.Sub(disc, new(big.Int).Mul(big4, n))
	if disc.Sign() < 0 {
		return nil, nil, false
	}
	root := new(big.Int).Sqrt(disc)
	if new(big.Int).Mul(root, root).Cmp(disc) != 0 {
		return nil, nil, false
	}
	num1 := new(big.Int).Add(sum, root)
	num2 := new(big.Int).Sub(sum, root)
	if num1.Bit(0) != 0 || num2.Bit(0) != 0 {
		return nil, nil, false
	}
	p = new(big.Int).Rsh(num1, 1)
	q = new(big.Int).Rsh(num2, 1)
	return p, q, true
}

// solveFromDiff solves p,q = (√(diff²+4n) ± diff)/2.
func solveFromDiff(n, diff *big.Int) (p, q *big.Int, ok bool) {
	t := new(big.Int).Mul(diff, diff)
	t.Add(t, new(big.Int).Mul(big4, n))
	root := new(big.Int).Sqrt(t)
	if new(big.Int).Mul(root, root).Cmp(t) != 0 {
		return nil, nil, false
	}
	num1 := new(big.Int).Add(root, diff)
	num2 := new(big.Int).Sub(root, diff)
	if num1.Bit(0) != 0 || num2.Bit(0) != 0 {
		return nil, nil, false
	}
	p = new(big.Int).Rsh(num1, 1)
	q = new(big.Int).Rsh(num2, 1)
	return p, q, true
}

// factorFromED recovers a non-trivial factor of n given e, d such that
// e·d ≡ 1 (mod φ(n)). Writes k = e·d−1 = 2^t·s and, for random bases a,
// walks a^(k/2^i) looking for a square root of 1 other than ±1; the gcd of
// (that root − 1) and n yields a factor with high probability. Bounded by
// factorDFromDBudget random bases per call.
func factorFromED(e, d, n *big.Int) *big.Int {
	if n.Cmp(big4) < 0 {
		return nil
	}
	k := new(big.Int).Mul(e, d)
	k.Sub(k, big1)
	if k.Sign() <= 0 {
		return nil
	}

	t := 0
	s := new(big.Int).Set(k)
	for s.Bit(0) == 0 {
		s.Rsh(s, 1)
		t++
	}
	if t == 0 {
		return nil
	}

	nMinus1 := new(big.Int).Sub(n, big1)

	for attempt := 0; attempt < factorDFromDBudget; attempt++ {
		a, err := rand.Int(rand.Reader, new(big.Int).Sub(n, big2))
		if err != nil {
			return nil
		}
		a.Add(a, big2) // a in [2, n-1]

		x := new(big.Int).Exp(a, s, n)
		if x.Cmp(big1) == 0 || x.Cmp(nMinus1) == 0 {
			continue
		}

		for i := 0; i < t-1; i++ {
			y := new(big.Int).Exp(x, big2, n)
			if y.Cmp(big1) == 0 {
				g := new(big.Int).GCD(nil, nil, new(big.Int).Sub(x, big1), n)
				if g.Cmp(big1) > 0 && g.Cmp(n) != 0 {
					return g
				}
				break
			}
			if y.Cmp(nMinus1) == 0 {
				break
			}
			x = y
		}
	}
	return nil
}
