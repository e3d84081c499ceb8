package finance

import (
	"math/big"

	"onda-backend/internal/domain"
)

const (
	SecondsPerDay  int64 = 86_400
	SecondsPerYear int64 = 31_536_000
	BasisPointsMax int64 = 10_000
)

// Interest computes simple annualized interest with a single floor:
// floor(basisPoints * amount * elapsed / (10_000 * secondsPerYear)).
// Negative elapsed clamps to zero. big.Int keeps the triple product exact for
// any lamport-scale principal.
func Interest(amount, basisPoints, elapsedSeconds int64) (int64, error) {
	if amount < 0 || basisPoints < 0 {
		return 0, domain.ErrInvalidParameters
	}
	if elapsedSeconds < 0 {
		elapsedSeconds = 0
	}

	num := new(big.Int).Mul(big.NewInt(basisPoints), big.NewInt(amount))
	num.Mul(num, big.NewInt(elapsedSeconds))
	den := new(big.Int).Mul(big.NewInt(BasisPointsMax), big.NewInt(SecondsPerYear))
	num.Quo(num, den)

	if !num.IsInt64() {
		return 0, domain.ErrNumericalOverflow
	}
	return num.Int64(), nil
}

// FeeFromBasisPoints computes floor(amount * basisPoints / 10_000).
func FeeFromBasisPoints(amount, basisPoints int64) (int64, error) {
	if amount < 0 || basisPoints < 0 || basisPoints > BasisPointsMax {
		return 0, domain.ErrInvalidParameters
	}
	n := new(big.Int).Mul(big.NewInt(amount), big.NewInt(basisPoints))
	n.Quo(n, big.NewInt(BasisPointsMax))
	if !n.IsInt64() {
		return 0, domain.ErrNumericalOverflow
	}
	return n.Int64(), nil
}

// ProRata splits an escrowed balance at now between the earned part (paid to
// the issuer) and the unearned remainder (refunded on default or exercise):
// earned = floor(balance * (now-start) / (end-start)), the full balance once
// now passes end.
func ProRata(balance, start, end, now int64) int64 {
	if balance <= 0 || end <= start {
		return balance
	}
	if now >= end {
		return balance
	}
	if now <= start {
		return 0
	}
	n := new(big.Int).Mul(big.NewInt(balance), big.NewInt(now-start))
	n.Quo(n, big.NewInt(end-start))
	return n.Int64()
}

// CreatorShare computes one creator's cut of a total royalty fee:
// floor(share * totalFee / 100).
func CreatorShare(totalFee int64, share int64) int64 {
	if totalFee <= 0 || share <= 0 {
		return 0
	}
	n := new(big.Int).Mul(big.NewInt(share), big.NewInt(totalFee))
	n.Quo(n, big.NewInt(100))
	return n.Int64()
}
