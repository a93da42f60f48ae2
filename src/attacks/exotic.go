package attacks

// Exotic attacks: techniques that don't fit the classical/exponent/
// partial-prime families.

import (
	"fmt"
	"math/big"

	"rsacrack/src/attack"
	"rsacrack/src/params"
)

// bsgsBound caps the search space of the fallback baby-step-giant-step
// solver when the group order can't be factored.
const bsgsBound = 1 << 24

// DiscreteLogCipher treats each ciphertext as the discrete-log equation
// e^c ≡ m (mod n) (the --dlog swapped-exponent reading of the cipher) and
// solves for c: Pohlig-Hellman when φ(n) is already factored into small
// primes, baby-step-giant-step up to bsgsBound otherwise.
var DiscreteLogCipher = attack.Attack{
	Name:  "discrete_log_cipher",
	Speed: attack.Slow,
	Requirements: func(p params.Parameters) bool {
		return p.N != nil && p.E != nil && len(p.C) > 0
	},
	Run: func(p params.Parameters, cancel attack.Cancel, progress attack.Progress) attack.Result {
		plains := map[int]*big.Int{}

		var order *big.Int
		var orderFactors map[string]int
		if p.Phi != nil {
			order = p.Phi
			orderFactors = smoothFactor(order, smallPrimeBound)
		}

		for i, m := range p.C {
			if cancel.Cancelled() {
				break
			}
			progress.Report("discrete_log_cipher", float64(i)/float64(len(p.C)), "solving discrete log")

			var c *big.Int
			var ok bool
			if order != nil && orderFactors != nil {
				c, ok = pohligHellman(p.E, m, p.N, order, orderFactors, cancel)
			}
			if !ok {
				c, ok = babyStepGiantStep(p.E, m, p.N, bsgsBound, cancel)
			}
			if ok {
				plains[i] = c
			}
		}

		if len(plains) == 0 {
			return attack.Result{OK: false, Status: attack.Failed, Reason: "discrete log not found within bound"}
		}
		return attack.Result{OK: true, Solution: attack.Solution{Plaintexts: plains}}
	},
}

// babyStepGiantStep finds x in [0,bound) with base^x ≡ target (mod n).
func babyStepGiantStep(base, target, n *big.Int, bound int64, cancel attack.Cancel) (*big.Int, bool) {
	m := int64(1)
	for m*m < bound {
		m++
	}

	table := make(map[string]int64, m)
	cur := big.NewInt(1)
	for j := int64(0); j < m; j++ {
		key := cur.String()
		if _, exists := table[key]; !exists {
			table[key] = j
		}
		cur.Mul(cur, base)
		cur.Mod(cur, n)
	}

	bm := new(big.Int).Exp(base, big.NewInt(m), n)
	factor := new(big.Int).ModInverse(bm, n)
	if factor == nil {
		return nil, false
	}

	gamma := new(big.Int).Set(target)
	for i := int64(0); i*m < bound; i++ {
		if i%4096 == 0 && cancel.Cancelled() {
			return nil, false
		}
		if j, ok := table[gamma.String()]; ok {
			x := new(big.Int).Add(big.NewInt(i*m), big.NewInt(j))
			return x, true
		}
		gamma.Mul(gamma, factor)
		gamma.Mod(gamma, n)
	}
	return nil, false
}

// pohligHellman finds x with base^x ≡ target (mod n), given the group
// order and its (possibly partial) smooth factorisation, by solving the
// discrete log modulo each prime power and combining via CRT.
func pohligHellman(base, target, n, order *big.Int, orderFactors map[string]int, cancel attack.Cancel) (*big.Int, bool) {
	var nums, mods []*big.Int
	for pStr, e := range orderFactors {
		if cancel.Cancelled() {
			return nil, false
		}
		prime, _ := new(big.Int).SetString(pStr, 10)
		pe := new(big.Int).Exp(prime, big.NewInt(int64(e)), nil)

		exp := new(big.Int).Quo(order, pe)
		gi := new(big.Int).Exp(base, exp, n)
		hi := new(big.Int).Exp(target, exp, n)

		xi, ok := babyStepGiantStep(gi, hi, n, pe.Int64(), cancel)
		if !ok {
			return nil, false
		}
		nums = append(nums, xi)
		mods = append(mods, pe)
	}
	if len(nums) == 0 {
		return nil, false
	}
	x, ok := crtCombine(nums, mods)
	if !ok {
		return nil, false
	}
	return x, true
}

// smoothFactor trial-divides n by primes up to bound and returns the
// factor map if n is fully factored that way, or nil if a cofactor larger
// than 1 remains (the caller falls back to plain BSGS in that case).
func smoothFactor(n *big.Int, bound int64) map[string]int {
	rem := new(big.Int).Set(n)
	factors := map[string]int{}
	for _, prime := range primeTable {
		if prime > bound {
			break
		}
		pb := big.NewInt(prime)
		for {
			q, r := new(big.Int).QuoRem(rem, pb, new(big.Int))
			if r.Sign() != 0 {
				break
			}
			factors[fmt.Sprint(prime)]++
			rem.Set(q)
		}
		if rem.Cmp(big1) == 0 {
			break
		}
	}
	if rem.Cmp(big1) != 0 {
		return nil
	}
	return factors
}
