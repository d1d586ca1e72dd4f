package service

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// allocUnit is one district or school competing for a share of a budget.
type allocUnit struct {
	Name     string
	Students int
}

// splitProportionally divides total (to the cent) across units by student
// count. Each share is floored to the cent and the leftover cents go to the
// unit with the most students, ties broken by the lowest name, so the shares
// always sum to total exactly.
func splitProportionally(total decimal.Decimal, units []allocUnit) ([]decimal.Decimal, error) {
	if !total.IsPositive() {
		return nil, allocationErr("budget must be positive, got %s", total)
	}
	if !total.Equal(total.Truncate(2)) {
		return nil, allocationErr("budget %s has more than 2 decimal places", total)
	}

	totalStudents := int64(0)
	largest := -1
	for i, u := range units {
		if u.Students < 0 {
			return nil, allocationErr("%s has a negative student count", u.Name)
		}
		totalStudents += int64(u.Students)
		if largest < 0 || u.Students > units[largest].Students ||
			(u.Students == units[largest].Students && u.Name < units[largest].Name) {
			largest = i
		}
	}
	if totalStudents == 0 {
		return nil, allocationErr("no students to allocate to")
	}

	cents := total.Shift(2).BigInt()
	denominator := big.NewInt(totalStudents)
	shares := make([]*big.Int, len(units))
	assigned := new(big.Int)
	for i, u := range units {
		share := new(big.Int).Mul(cents, big.NewInt(int64(u.Students)))
		share.Quo(share, denominator)
		shares[i] = share
		assigned.Add(assigned, share)
	}
	remainder := new(big.Int).Sub(cents, assigned)
	shares[largest].Add(shares[largest], remainder)

	out := make([]decimal.Decimal, len(units))
	for i, share := range shares {
		out[i] = decimal.NewFromBigInt(share, -2)
	}
	return out, nil
}
