package attacks

// Partial-prime bruteforce: enumerates wildcard digit combinations in the
// hinted radix and tests each candidate prime against n.

import (
	"fmt"
	"math"
	"math/big"

	"rsacrack/src/attack"
	"rsacrack/src/params"
)

// partialPrimeSpaceCap is the maximum enumeration space the bruteforce
// will attempt; beyond this it reports a "too large" failure instead of
// hanging (SPEC_FULL.md §8 scenario 6).
const partialPrimeSpaceCap = 1 << 28

// PartialPrimeBruteforce enumerates the wildcard positions of a partial
// prime pattern for "p" and/or "q", testing each candidate for
// divisibility into n.
var PartialPrimeBruteforce = attack.Attack{
	Name:  "partial_prime_bruteforce",
	Speed: attack.Medium,
	Requirements: func(p params.Parameters) bool {
		return p.N != nil && len(p.PPattern) > 0 && (p.P == nil || p.Q == nil)
	},
	Run: func(p params.Parameters, cancel attack.Cancel, progress attack.Progress) attack.Result {
		for side, pat := range p.PPattern {
			sol, err := bruteforcePattern(p.N, pat, side, cancel, progress)
			if err != nil {
				return attack.Result{OK: false, Status: attack.Failed, Reason: err.Error()}
			}
			if sol != nil {
				return attack.Result{OK: true, Solution: *sol}
			}
		}
		return attack.Result{OK: false, Status: attack.Failed, Reason: "no wildcard combination divides n"}
	},
}

// bruteforcePattern tries every candidate implied by pat against n. The
// ellipsis form doesn't know its own unknown-digit count, so it tries
// k, k-1, k+1, k-2 around the estimate derived from bitlen(n)/2.
func bruteforcePattern(n *big.Int, pat *params.PartialPrimePattern, side string, cancel attack.Cancel, progress attack.Progress) (*attack.Solution, error) {
	radix := int64(pat.Radix)
	known := knownValue(pat.Digits, radix)
	knownLen := len(pat.Digits)

	estBits := float64(n.BitLen()) / 2
	estDigits := int(math.Ceil(estBits / math.Log2(float64(radix))))

	if float64(knownLen) < float64(estDigits)/4 {
		progress.Report("partial_prime_bruteforce", 0, fmt.Sprintf("warning: only %d/%d digits known", knownLen, estDigits))
	}

	var unknownLens []int
	if pat.Ellipsis {
		unknownBits := estBits - float64(knownLen)*math.Log2(float64(radix))
		k := int(math.Ceil(unknownBits / math.Log2(float64(radix))))
		for _, delta := range []int{0, -1, 1, -2} {
			if k+delta > 0 {
				unknownLens = append(unknownLens, k+delta)
			}
		}
	} else {
		unknownLens = []int{pat.WildcardCount}
	}

	for _, unknownLen := range unknownLens {
		space := pow(radix, unknownLen)
		if space < 0 || space > partialPrimeSpaceCap {
			return nil, fmt.Errorf("partial_prime_bruteforce: enumeration space %d exceeds 2^28 limit", space)
		}

		radixPowKnown := new(big.Int).Exp(big.NewInt(radix), big.NewInt(int64(knownLen)), nil)
		radixPowUnknown := new(big.Int).Exp(big.NewInt(radix), big.NewInt(int64(unknownLen)), nil)

		for w := int64(0); w < space; w++ {
			if w%65536 == 0 {
				if cancel.Cancelled() {
					return nil, nil
				}
				progress.Report("partial_prime_bruteforce", float64(w)/float64(space), fmt.Sprintf("enumerating %s (len=%d)", side, unknownLen))
			}

			var candidate *big.Int
			if pat.WildcardAtMSB {
				candidate = new(big.Int).Mul(big.NewInt(w), radixPowKnown)
				candidate.Add(candidate, known)
			} else {
				candidate = new(big.Int).Mul(known, radixPowUnknown)
				candidate.Add(candidate, big.NewInt(w))
			}
			if candidate.Sign() <= 0 || candidate.Bit(0) == 0 {
				continue
			}
			q, r := new(big.Int).QuoRem(n, candidate, new(big.Int))
			if r.Sign() == 0 && candidate.Cmp(big1) > 0 && q.Cmp(big1) > 0 {
				return &attack.Solution{Factors: map[string]int{candidate.String(): 1, q.String(): 1}}, nil
			}
		}
	}
	return nil, nil
}

// knownValue converts MSB-first digits in the given radix to a big.Int.
func knownValue(digits []int, radix int64) *big.Int {
	v := big.NewInt(0)
	r := big.NewInt(radix)
	for _, d := range digits {
		v.Mul(v, r)
		v.Add(v, big.NewInt(int64(d)))
	}
	return v
}

// pow computes radix^exp as an int64, stopping early and returning the
// partial power as soon as it exceeds partialPrimeSpaceCap, so callers can
// detect "too large" (any result above the cap) without risking an actual
// int64 overflow wraparound.
func pow(radix int64, exp int) int64 {
	result := int64(1)
	for i := 0; i < exp; i++ {
		if result > partialPrimeSpaceCap {
			return result
		}
		result *= radix
		if result < 0 {
			return -1
		}
	}
	return result
}
