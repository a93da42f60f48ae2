package attacks

// Classical factoring attacks. The iterative ones (pollard_rho,
// williams_pp1, pm1, ecm) share a structural idiom with the teacher's
// time-lock solver: a tight loop of modular arithmetic, polled for
// cancellation and reporting progress every fixed number of steps rather
// than on every iteration (see tlp.go's SolvePuzzle `step` constant).

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"rsacrack/src/attack"
	"rsacrack/src/params"
)

// fermatIterationCap bounds how many candidate a values Fermat tries
// before giving up; it only converges quickly when p and q are close.
const fermatIterationCap = 1_000_000

// Fermat iterates a = ⌈√n⌉, ⌈√n⌉+1, … checking a²−n for a perfect square.
// Succeeds fast when the two factors are close together.
var Fermat = attack.Attack{
	Name:  "fermat",
	Speed: attack.Medium,
	Requirements: func(p params.Parameters) bool {
		return p.N != nil && len(p.Factors) == 0
	},
	Run: func(p params.Parameters, cancel attack.Cancel, progress attack.Progress) attack.Result {
		n := p.N
		a := new(big.Int).Sqrt(n)
		if new(big.Int).Mul(a, a).Cmp(n) != 0 {
			a.Add(a, big1)
		}

		const step = 10_000
		for i := 0; i < fermatIterationCap; i++ {
			if i%step == 0 {
				if cancel.Cancelled() {
					return attack.Result{Status: attack.Failed, Reason: "cancelled"}
				}
				progress.Report("fermat", float64(i)/float64(fermatIterationCap), "scanning near sqrt(n)")
			}

			b2 := new(big.Int).Mul(a, a)
			b2.Sub(b2, n)
			if root, ok := isPerfectSquare(b2); ok {
				p1 := new(big.Int).Add(a, root)
				q1 := new(big.Int).Sub(a, root)
				if p1.Cmp(big1) > 0 && q1.Cmp(big1) > 0 {
					factors := map[string]int{}
					factors[p1.String()]++
					factors[q1.String()]++
					return attack.Result{OK: true, Solution: attack.Solution{Factors: factors}}
				}
			}
			a.Add(a, big1)
		}
		return attack.Result{OK: false, Status: attack.Failed, Reason: "fermat iteration cap exceeded"}
	},
}

// pollardRhoCurves bounds how many (c, restart) attempts PollardRho
// makes before giving up.
const pollardRhoCurves = 50
const pollardRhoStepsPerCurve = 4_000_000

// PollardRho factors n via Pollard's rho with Floyd cycle detection: with
// f(x) = x²+c mod n, x advances one step and y two steps per iteration, the
// |x−y| values are multiplied together and a gcd with n is taken every 128
// steps. A run that finds only a trivial factor, or exhausts its step
// budget without one, is retried with a fresh random c. Brent's cycle
// detection is not used.
var PollardRho = attack.Attack{
	Name:  "pollard_rho",
	Speed: attack.Medium,
	Requirements: func(p params.Parameters) bool {
		return p.N != nil && len(p.Factors) == 0
	},
	Run: func(p params.Parameters, cancel attack.Cancel, progress attack.Progress) attack.Result {
		n := p.N
		if n.Bit(0) == 0 {
			return attack.Result{OK: true, Solution: attack.Solution{
				Factors: map[string]int{"2": 1, new(big.Int).Rsh(n, 1).String(): 1},
			}}
		}

		const step = 128
		for curve := 0; curve < pollardRhoCurves; curve++ {
			if cancel.Cancelled() {
				return attack.Result{Status: attack.Failed, Reason: "cancelled"}
			}
			progress.Report("pollard_rho", float64(curve)/float64(pollardRhoCurves), fmt.Sprintf("curve %d", curve))

			c, err := rand.Int(rand.Reader, n)
			if err != nil {
				continue
			}
			x := big.NewInt(2)
			y := big.NewInt(2)
			d := big.NewInt(1)
			product := big.NewInt(1)

			f := func(v *big.Int) *big.Int {
				r := new(big.Int).Mul(v, v)
				r.Add(r, c)
				r.Mod(r, n)
				return r
			}

			for i := 0; i < pollardRhoStepsPerCurve && d.Cmp(big1) == 0; i++ {
				if i%step == 0 && cancel.Cancelled() {
					return attack.Result{Status: attack.Failed, Reason: "cancelled"}
				}
				x = f(x)
				y = f(f(y))
				diff := new(big.Int).Sub(x, y)
				diff.Abs(diff)
				if diff.Sign() == 0 {
					break
				}
				product.Mul(product, diff)
				product.Mod(product, n)
				if i%step == 0 {
					d = gcd(product, n)
				}
			}
			if d.Cmp(big1) == 0 {
				d = gcd(product, n)
			}
			if d.Cmp(big1) > 0 && d.Cmp(n) != 0 {
				q, r := new(big.Int).QuoRem(n, d, new(big.Int))
				if r.Sign() == 0 {
					return attack.Result{OK: true, Solution: attack.Solution{
						Factors: map[string]int{d.String(): 1, q.String(): 1},
					}}
				}
			}
		}
		return attack.Result{OK: false, Status: attack.Failed, Reason: "pollard rho exhausted its curve budget"}
	},
}

// pm1B1 is the first-stage smoothness bound for Williams' p±1 family.
const pm1B1 = 1_000_000

// PollardPM1 implements Pollard's p−1 method: pick a base a, raise it to
// the product of small-prime powers up to B1, then gcd(a^M − 1, n).
// Finds p when p−1 is B1-smooth.
var PollardPM1 = attack.Attack{
	Name:  "pollard_pm1",
	Speed: attack.Medium,
	Requirements: func(p params.Parameters) bool {
		return p.N != nil && len(p.Factors) == 0
	},
	Run: func(p params.Parameters, cancel attack.Cancel, progress attack.Progress) attack.Result {
		n := p.N
		a := big.NewInt(2)

		const step = 2048
		for i, prime := range primeTable {
			if i%step == 0 {
				if cancel.Cancelled() {
					return attack.Result{Status: attack.Failed, Reason: "cancelled"}
				}
				progress.Report("pollard_pm1", float64(i)/float64(len(primeTable)), "stage 1")
			}
			if prime > pm1B1 {
				break
			}
			// Raise a to the highest power of prime not exceeding B1.
			pw := prime
			for pw*prime <= pm1B1 {
				pw *= prime
			}
			a.Exp(a, big.NewInt(pw), n)

			if i%step == step-1 {
				d := gcd(new(big.Int).Sub(a, big1), n)
				if d.Cmp(big1) > 0 && d.Cmp(n) != 0 {
					q, r := new(big.Int).QuoRem(n, d, new(big.Int))
					if r.Sign() == 0 {
						return attack.Result{OK: true, Solution: attack.Solution{
							Factors: map[string]int{d.String(): 1, q.String(): 1},
						}}
					}
				}
			}
		}
		d := gcd(new(big.Int).Sub(a, big1), n)
		if d.Cmp(big1) > 0 && d.Cmp(n) != 0 {
			q, r := new(big.Int).QuoRem(n, d, new(big.Int))
			if r.Sign() == 0 {
				return attack.Result{OK: true, Solution: attack.Solution{
					Factors: map[string]int{d.String(): 1, q.String(): 1},
				}}
			}
		}
		return attack.Result{OK: false, Status: attack.Failed, Reason: "p-1 found no B1-smooth factor"}
	},
}

// WilliamsPP1 implements Williams' p+1 method using Lucas sequences: it
// finds p when p+1 is B1-smooth, the multiplicative analogue of pm1 over
// the quadratic extension implied by the Lucas recurrence.
var WilliamsPP1 = attack.Attack{
	Name:  "williams_pp1",
	Speed: attack.Medium,
	Requirements: func(p params.Parameters) bool {
		return p.N != nil && len(p.Factors) == 0
	},
	Run: func(p params.Parameters, cancel attack.Cancel, progress attack.Progress) attack.Result {
		n := p.N
		// Lucas sequence V_k(a,1) mod n: V_0=2, V_1=a, V_{k+1}=a*V_k - V_{k-1}.
		// V_{2k} = V_k^2 - 2 (mod n); V_{mk} follows a double-and-add ladder
		// identical in structure to modular exponentiation.
		a := int64(3)
		const step = 2048

		lucasMulStep := func(seed *big.Int, exponent uint64) *big.Int {
			v0 := big.NewInt(2)
			v1 := new(big.Int).Set(seed)
			for bitPos := 63; bitPos >= 0; bitPos-- {
				bit := (exponent >> uint(bitPos)) & 1
				if bit == 1 {
					// v0 = v0*v1 - seed, v1 = v1^2 - 2
					nv0 := new(big.Int).Mul(v0, v1)
					nv0.Sub(nv0, seed)
					nv0.Mod(nv0, n)
					nv1 := new(big.Int).Mul(v1, v1)
					nv1.Sub(nv1, big2)
					nv1.Mod(nv1, n)
					v0, v1 = nv0, nv1
				} else {
					nv1 := new(big.Int).Mul(v0, v1)
					nv1.Sub(nv1, seed)
					nv1.Mod(nv1, n)
					nv0 := new(big.Int).Mul(v0, v0)
					nv0.Sub(nv0, big2)
					nv0.Mod(nv0, n)
					v0, v1 = nv0, nv1
				}
			}
			return v0
		}

		// V_{jk}(a) = V_j(V_k(a)), so v accumulates V_M(a) over the product
		// M of every prime power applied so far.
		v := big.NewInt(a)
		for i, prime := range primeTable {
			if i%step == 0 {
				if cancel.Cancelled() {
					return attack.Result{Status: attack.Failed, Reason: "cancelled"}
				}
				progress.Report("williams_pp1", float64(i)/float64(len(primeTable)), "stage 1")
			}
			if prime > pm1B1 {
				break
			}
			pw := uint64(prime)
			for pw*uint64(prime) <= pm1B1 {
				pw *= uint64(prime)
			}
			v = lucasMulStep(v, pw)

			d := gcd(new(big.Int).Sub(v, big2), n)
			if d.Cmp(big1) > 0 && d.Cmp(n) != 0 {
				q, r := new(big.Int).QuoRem(n, d, new(big.Int))
				if r.Sign() == 0 {
					return attack.Result{OK: true, Solution: attack.Solution{
						Factors: map[string]int{d.String(): 1, q.String(): 1},
					}}
				}
			}
		}
		return attack.Result{OK: false, Status: attack.Failed, Reason: "p+1 found no B1-smooth factor"}
	},
}

// ecmCurveBudget bounds how many rounds ECM runs. As a Slow attack it is
// gated by the orchestrator to run only after the cheaper attacks have had
// a chance (SPEC_FULL.md §4.3).
const ecmCurveBudget = 200
const ecmB1 = 50_000

// ECM is a simplified stand-in for the elliptic-curve method that does no
// curve arithmetic: each round multiplies an accumulator z (starting at 1)
// by the highest power of every prime up to ecmB1 and checks gcd(z, n)
// after each prime. It therefore finds only a prime factor of n that is
// itself at most ecmB1; larger factors are not found. The random seed x
// has no influence on z, so every round repeats the same computation.
var ECM = attack.Attack{
	Name:  "ecm",
	Speed: attack.Slow,
	Requirements: func(p params.Parameters) bool {
		return p.N != nil && len(p.Factors) == 0
	},
	Run: func(p params.Parameters, cancel attack.Cancel, progress attack.Progress) attack.Result {
		n := p.N
		for curve := 0; curve < ecmCurveBudget; curve++ {
			if cancel.Cancelled() {
				return attack.Result{Status: attack.Failed, Reason: "cancelled"}
			}
			progress.Report("ecm", float64(curve)/float64(ecmCurveBudget), fmt.Sprintf("curve %d/%d", curve, ecmCurveBudget))

			sigma, err := rand.Int(rand.Reader, n)
			if err != nil {
				continue
			}
			sigma.Add(sigma, big2)

			x := new(big.Int).Set(sigma)
			z := big.NewInt(1)

			for _, prime := range primeTable {
				if prime > ecmB1 {
					break
				}
				pw := prime
				for pw*prime <= ecmB1 {
					pw *= prime
				}
				// x' = x^2 - z^2 (mod n) is updated but never feeds into z;
				// z accumulates pw, so gcd(z, n) exposes any prime factor of
				// n that is at most ecmB1.
				for e := int64(0); e < 1 && pw > 0; e++ {
					nx := new(big.Int).Mul(x, x)
					nz := new(big.Int).Mul(z, z)
					nx.Sub(nx, nz)
					nx.Mod(nx, n)
					z.Mul(z, big.NewInt(pw))
					z.Mod(z, n)
					x = nx
				}
				d := gcd(z, n)
				if d.Cmp(big1) > 0 && d.Cmp(n) != 0 {
					q, r := new(big.Int).QuoRem(n, d, new(big.Int))
					if r.Sign() == 0 {
						return attack.Result{OK: true, Solution: attack.Solution{
							Factors: map[string]int{d.String(): 1, q.String(): 1},
						}}
					}
				}
				if z.Sign() == 0 {
					break
				}
			}
		}
		return attack.Result{OK: false, Status: attack.Failed, Reason: "ecm exhausted its curve budget"}
	},
}

// smallExponents are the values of e for which cube_root-style direct
// root extraction is worth trying.
var smallExponents = []int64{2, 3, 5, 7}

// CubeRoot checks, for small e (2,3,5,7), whether any ciphertext c has an
// exact integer e-th root — then m = that root directly, with no
// factorisation of n required at all (unpadded textbook RSA, small e,
// m^e < n).
var CubeRoot = attack.Attack{
	Name:  "cube_root",
	Speed: attack.Fast,
	Requirements: func(p params.Parameters) bool {
		if len(p.C) == 0 {
			return false
		}
		if p.E == nil {
			return false
		}
		for _, e := range smallExponents {
			if p.E.Cmp(big.NewInt(e)) == 0 {
				return true
			}
		}
		return false
	},
	Run: func(p params.Parameters, cancel attack.Cancel, progress attack.Progress) attack.Result {
		e := p.E.Int64()
		plains := map[int]*big.Int{}
		for i, c := range p.C {
			if cancel.Cancelled() {
				break
			}
			if root, ok := integerRoot(c, e); ok {
				plains[i] = root
			}
		}
		if len(plains) == 0 {
			return attack.Result{OK: false, Status: attack.Failed, Reason: "no ciphertext has an exact e-th root"}
		}
		return attack.Result{OK: true, Solution: attack.Solution{Plaintexts: plains}}
	},
}

// smallESmallMBound bounds the k in c+k·n searched by small_e_small_m.
const smallESmallMBound = 1_000_000

// SmallESmallM handles the case where m^e only barely exceeds n: for
// k in [0, bound), check whether c+k·n has an exact integer e-th root.
var SmallESmallM = attack.Attack{
	Name:  "small_e_small_m",
	Speed: attack.Medium,
	Requirements: func(p params.Parameters) bool {
		return p.N != nil && p.E != nil && len(p.C) > 0 && p.E.Cmp(big.NewInt(1<<20)) < 0
	},
	Run: func(p params.Parameters, cancel attack.Cancel, progress attack.Progress) attack.Result {
		e := p.E.Int64()
		plains := map[int]*big.Int{}
		const step = 20_000
		for i, c := range p.C {
			target := new(big.Int).Set(c)
			for k := 0; k < smallESmallMBound; k++ {
				if k%step == 0 {
					if cancel.Cancelled() {
						return attack.Result{Status: attack.Failed, Reason: "cancelled"}
					}
					progress.Report("small_e_small_m", float64(k)/float64(smallESmallMBound), "scanning c+k*n")
				}
				if root, ok := integerRoot(target, e); ok {
					plains[i] = root
					break
				}
				target.Add(target, p.N)
			}
		}
		if len(plains) == 0 {
			return attack.Result{OK: false, Status: attack.Failed, Reason: "no c+k*n has an exact e-th root"}
		}
		return attack.Result{OK: true, Solution: attack.Solution{Plaintexts: plains}}
	},
}
