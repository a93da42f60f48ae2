package attacks

// Key-material derivation attacks: each wraps one of the algebraic
// recoveries in params.Derive (SPEC_FULL.md §4.1) in the uniform attack
// vocabulary so it can be selected, excluded, or listed like any other
// strategy, even though the heavy lifting lives in the derivation closure
// itself.

import (
	"math/big"

	"rsacrack/src/attack"
	"rsacrack/src/params"
)

func deriveSolution(p params.Parameters) (attack.Solution, bool) {
	derived, err := params.Derive(p)
	if err != nil {
		return attack.Solution{}, false
	}
	sol := attack.Solution{Factors: map[string]int{}}
	if derived.P != nil && derived.Q != nil {
		sol.Factors[derived.P.String()] = 1
		sol.Factors[derived.Q.String()] = 1
	}
	if derived.D != nil && p.D == nil {
		sol.D = derived.D
	}
	if derived.Phi != nil && p.Phi == nil {
		sol.Phi = derived.Phi
	}
	return sol, !sol.Empty()
}

// SumPQAttack solves the quadratic x²−sum·x+n=0 for p,q given n and
// sum_pq.
var SumPQAttack = attack.Attack{
	Name:  "sum_pq",
	Speed: attack.Fast,
	Requirements: func(p params.Parameters) bool {
		return p.N != nil && p.SumPQ != nil && (p.P == nil || p.Q == nil)
	},
	Run: func(p params.Parameters, cancel attack.Cancel, progress attack.Progress) attack.Result {
		if sol, ok := deriveSolution(p); ok {
			return attack.Result{OK: true, Solution: sol}
		}
		return attack.Result{OK: false, Status: attack.Failed, Reason: "sum_pq did not yield integer roots"}
	},
}

// DiffPQAttack recovers p,q = (√(diff²+4n) ± diff)/2 given n and diff_pq.
var DiffPQAttack = attack.Attack{
	Name:  "diff_pq",
	Speed: attack.Fast,
	Requirements: func(p params.Parameters) bool {
		return p.N != nil && p.DiffPQ != nil && (p.P == nil || p.Q == nil)
	},
	Run: func(p params.Parameters, cancel attack.Cancel, progress attack.Progress) attack.Result {
		if sol, ok := deriveSolution(p); ok {
			return attack.Result{OK: true, Solution: sol}
		}
		return attack.Result{OK: false, Status: attack.Failed, Reason: "diff_pq did not yield integer roots"}
	},
}

// PPlusQOver2 handles a leaked (p+q)/2 that may be rounded down by one
// when p+q is odd: it tries both 2h and 2h+1 as the true sum.
var PPlusQOver2 = attack.Attack{
	Name:  "p_plus_q_over_2",
	Speed: attack.Fast,
	Requirements: func(p params.Parameters) bool {
		return p.N != nil && p.HalfSumPQ != nil && (p.P == nil || p.Q == nil)
	},
	Run: func(p params.Parameters, cancel attack.Cancel, progress attack.Progress) attack.Result {
		for _, delta := range []int64{0, 1} {
			sum := new(big.Int).Lsh(p.HalfSumPQ, 1)
			sum.Add(sum, big.NewInt(delta))
			pp, qq, ok := solveFromSum(p.N, sum)
			if !ok {
				continue
			}
			return attack.Result{OK: true, Solution: attack.Solution{
				Factors: map[string]int{pp.String(): 1, qq.String(): 1},
			}}
		}
		return attack.Result{OK: false, Status: attack.Failed, Reason: "p_plus_q_over_2 did not yield integer roots"}
	},
}

// DPDQQInv recovers p = gcd(n, 2^(e·dp) − 2 mod n), q = n/p from dp, dq and e.
var DPDQQInv = attack.Attack{
	Name:  "dp_dq_qinv",
	Speed: attack.Fast,
	Requirements: func(p params.Parameters) bool {
		return p.DP != nil && p.DQ != nil && p.E != nil && p.N != nil && (p.P == nil || p.Q == nil)
	},
	Run: func(p params.Parameters, cancel attack.Cancel, progress attack.Progress) attack.Result {
		if sol, ok := deriveSolution(p); ok {
			return attack.Result{OK: true, Solution: sol}
		}
		return attack.Result{OK: false, Status: attack.Failed, Reason: "dp_dq_qinv: gcd(n, 2^(e*dp)-2) was trivial"}
	},
}

// DPEKnown recovers p = gcd(e·dp − 1, n) given dp, e and q.
var DPEKnown = attack.Attack{
	Name:  "dp_e_known",
	Speed: attack.Fast,
	Requirements: func(p params.Parameters) bool {
		return p.DP != nil && p.E != nil && p.Q != nil && p.N != nil && p.P == nil
	},
	Run: func(p params.Parameters, cancel attack.Cancel, progress attack.Progress) attack.Result {
		if sol, ok := deriveSolution(p); ok {
			return attack.Result{OK: true, Solution: sol}
		}
		return attack.Result{OK: false, Status: attack.Failed, Reason: "dp_e_known: gcd(e*dp-1, n) was trivial"}
	},
}

// DQEKnown is DPEKnown's mirror image over dq and p.
var DQEKnown = attack.Attack{
	Name:  "dq_e_known",
	Speed: attack.Fast,
	Requirements: func(p params.Parameters) bool {
		return p.DQ != nil && p.E != nil && p.P != nil && p.N != nil && p.Q == nil
	},
	Run: func(p params.Parameters, cancel attack.Cancel, progress attack.Progress) attack.Result {
		// Reuse the dp/e/q rule by swapping roles: p <-> q, dp <-> dq.
		swapped := p.Clone()
		swapped.DP, swapped.DQ = swapped.DQ, swapped.DP
		swapped.Q, swapped.P = swapped.P, swapped.Q
		derived, err := params.Derive(swapped)
		if err != nil || derived.P == nil {
			return attack.Result{OK: false, Status: attack.Failed, Reason: "dq_e_known: gcd(e*dq-1, n) was trivial"}
		}
		// derived.P here is actually q in the original orientation.
		q := derived.P
		n := p.N
		pp, r := new(big.Int).QuoRem(n, q, new(big.Int))
		if r.Sign() != 0 {
			return attack.Result{OK: false, Status: attack.Failed, Reason: "dq_e_known: recovered factor did not divide n"}
		}
		return attack.Result{OK: true, Solution: attack.Solution{
			Factors: map[string]int{pp.String(): 1, q.String(): 1},
		}}
	},
}
