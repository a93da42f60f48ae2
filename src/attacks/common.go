// Package attacks is the concrete strategy library (component E):
// factorisation and key-recovery techniques, each expressed as an
// attack.Attack or attack.CrossAttack value.
package attacks

import "math/big"

var (
	big0 = big.NewInt(0)
	big1 = big.NewInt(1)
	big2 = big.NewInt(2)
	big3 = big.NewInt(3)
	big4 = big.NewInt(4)
)

// isPerfectSquare reports whether n is a perfect square and, if so,
// returns its integer square root.
func isPerfectSquare(n *big.Int) (*big.Int, bool) {
	if n.Sign() < 0 {
		return nil, false
	}
	root := new(big.Int).Sqrt(n)
	if new(big.Int).Mul(root, root).Cmp(n) == 0 {
		return root, true
	}
	return nil, false
}

// solveFromSum solves x² − sum·x + n = 0 for integer roots.
func solveFromSum(n, sum *big.Int) (p, q *big.Int, ok bool) {
	disc := new(big.Int).Mul(sum, sum)
	disc.Sub(disc, new(big.Int).Mul(big4, n))
	root, ok := isPerfectSquare(disc)
	if !ok {
		return nil, nil, false
	}
	num1 := new(big.Int).Add(sum, root)
	num2 := new(big.Int).Sub(sum, root)
	if num1.Bit(0) != 0 || num2.Bit(0) != 0 {
		return nil, nil, false
	}
	return num1.Rsh(num1, 1), num2.Rsh(num2, 1), true
}

// integerRoot returns ⌊n^(1/k)⌋ and whether it is exact, via Newton's
// method over big.Int (math/big has no generic integer-root routine).
func integerRoot(n *big.Int, k int64) (*big.Int, bool) {
	if n.Sign() == 0 {
		return big.NewInt(0), true
	}
	if n.Sign() < 0 {
		return nil, false
	}
	K := big.NewInt(k)
	// Initial guess: 2^(floor(bitlen(n)/k)+1), always at or above the root
	bits := n.BitLen()
	guessBits := uint(bits/int(k)) + 1
	x := new(big.Int).Lsh(big1, guessBits)

	for {
		// x_next = ((k-1)*x + n/x^(k-1)) / k
		xk1 := new(big.Int).Exp(x, big.NewInt(k-1), nil)
		if xk1.Sign() == 0 {
			break
		}
		term := new(big.Int).Quo(n, xk1)
		num := new(big.Int).Mul(big.NewInt(k-1), x)
		num.Add(num, term)
		xNext := new(big.Int).Quo(num, K)
		if xNext.Cmp(x) >= 0 {
			break
		}
		x = xNext
	}
	// x now under- or over-shoots by at most a couple of units; correct.
	for new(big.Int).Exp(x, K, nil).Cmp(n) > 0 {
		x.Sub(x, big1)
	}
	for new(big.Int).Exp(new(big.Int).Add(x, big1), K, nil).Cmp(n) <= 0 {
		x.Add(x, big1)
	}
	return x, new(big.Int).Exp(x, K, nil).Cmp(n) == 0
}

// gcd is a thin, explicitly-named wrapper over big.Int.GCD for call sites
// that read better without the two throwaway nil arguments inline.
func gcd(a, b *big.Int) *big.Int {
	return new(big.Int).GCD(nil, nil, new(big.Int).Abs(a), new(big.Int).Abs(b))
}
