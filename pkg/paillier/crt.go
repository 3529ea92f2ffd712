package paillier

import "github.com/cronokirby/saferith"

// lambdaPower computes c^λ (mod N²) for units c, using the factorization
// N² = p²⋅q².
//
// The order of a unit modulo p² divides ϕ(p²) = p(p-1), so the exponent is
// reduced modulo p(p-1) before exponentiating modulo p², and likewise for q.
// Both residues are recombined with Garner's formula.
type lambdaPower struct {
	pSquared, qSquared *saferith.Nat
	// lambdaP = λ mod p(p-1), lambdaQ = λ mod q(q-1)
	lambdaP, lambdaQ *saferith.Nat
	// pSquaredInv = (p²)⁻¹ mod q²
	pSquaredInv *saferith.Nat
}

func newLambdaPower(p, q, lambda *saferith.Nat) *lambdaPower {
	pSquared, lambdaP := squareAndReduce(p, lambda)
	qSquared, lambdaQ := squareAndReduce(q, lambda)
	pSquaredInv := new(saferith.Nat).ModInverse(pSquared, saferith.ModulusFromNat(clone(qSquared)))
	return &lambdaPower{
		pSquared:    pSquared,
		qSquared:    qSquared,
		lambdaP:     lambdaP,
		lambdaQ:     lambdaQ,
		pSquaredInv: pSquaredInv,
	}
}

// squareAndReduce returns prime² and λ mod prime⋅(prime-1).
func squareAndReduce(prime, lambda *saferith.Nat) (square, exponent *saferith.Nat) {
	square = new(saferith.Nat).Mul(prime, prime, -1)
	primeMinus1 := new(saferith.Nat).Sub(prime, natOne(), -1)
	order := new(saferith.Nat).Mul(prime, primeMinus1, -1)
	exponent = new(saferith.Nat).Mod(lambda, saferith.ModulusFromNat(order))
	return
}

// exp returns c^λ (mod N²). c must be a unit mod N².
func (l *lambdaPower) exp(c *saferith.Nat) *saferith.Nat {
	pSquared := saferith.ModulusFromNat(clone(l.pSquared))
	qSquared := saferith.ModulusFromNat(clone(l.qSquared))

	// cₚ = c^λ (mod p²)
	cp := new(saferith.Nat).Exp(c, clone(l.lambdaP), pSquared)
	// c_q = c^λ (mod q²)
	cq := new(saferith.Nat).Exp(c, clone(l.lambdaQ), qSquared)

	// h = (c_q - cₚ)⋅(p²)⁻¹ (mod q²)
	h := new(saferith.Nat).ModSub(cq, new(saferith.Nat).Mod(cp, qSquared), qSquared)
	h.ModMul(h, clone(l.pSquaredInv), qSquared)

	// cₚ + p²⋅h < p² + p²⋅(q² - 1) = N²
	u := new(saferith.Nat).Mul(clone(l.pSquared), h, -1)
	return u.Add(u, cp, -1)
}

// clone returns a copy of x.
//
// saferith resizes operands in place, so values stored in keys are only ever
// passed to it through a copy.
func clone(x *saferith.Nat) *saferith.Nat {
	return new(saferith.Nat).SetNat(x)
}

func natOne() *saferith.Nat {
	return new(saferith.Nat).SetUint64(1)
}
