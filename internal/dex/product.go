// Package dex implements the building-local DEX order book: item
// transfers, bid/ask placement with immediate matching against the
// resting book, and order cancellation refunds (spec.md §4.7).
//
// Grounded on original_source/src/trading.cpp's DexOperation hierarchy
// (TransferOperation, BidOperation, AskOperation, CancelOrderOperation),
// adapted from move-parsed JSON objects into direct Go calls against the
// existing internal/database CRUD tables.
package dex

import (
	"fmt"
	"math/big"
)

// MaxProduct bounds any quantity*price-derived Cubit amount (spec.md §3's
// "arbitrary-precision multiplication before range-checking the
// result"). 2^60 comfortably exceeds MaxCoinAmount while still catching
// the pathological quantity*price combinations MaxQuantity (2^50) times a
// large price would otherwise silently overflow an int64 product.
const MaxProduct = 1 << 60

// Product computes quantity*price with unbounded precision, the
// QuantityProduct of trading.cpp, so that a MaxQuantity-sized order at a
// large price never silently wraps before the range check runs.
type Product struct {
	v *big.Int
}

// NewProduct constructs the exact product of quantity and price.
func NewProduct(quantity, price int64) Product {
	return Product{v: new(big.Int).Mul(big.NewInt(quantity), big.NewInt(price))}
}

// Exceeds reports whether the product is strictly greater than limit.
func (p Product) Exceeds(limit int64) bool {
	return p.v.Cmp(big.NewInt(limit)) > 0
}

// Extract returns the product as an int64, erroring if it is negative or
// exceeds MaxProduct.
func (p Product) Extract() (int64, error) {
	if p.v.Sign() < 0 {
		return 0, fmt.Errorf("dex: negative quantity*price product")
	}
	if p.Exceeds(MaxProduct) {
		return 0, fmt.Errorf("dex: quantity*price product exceeds the %d-bit ceiling", 60)
	}
	return p.v.Int64(), nil
}

// feeSplit computes the protocol/owner/seller split of a Cubit cost
// under totalBps (protocol+owner) and ownerBps, following trading.cpp's
// PayToSellerAndFee: the total fee rounds up to the next Cubit so an
// order can never dodge fees entirely by splitting into small fills, the
// owner's share of that rounds down so splitting never profits the
// owner either, and the seller receives whatever remains.
func feeSplit(cost, totalBps, ownerBps int64) (ownerFee, payout int64, err error) {
	bigCost := big.NewInt(cost)

	total := new(big.Int).Mul(bigCost, big.NewInt(totalBps))
	total.Add(total, big.NewInt(9_999))
	total.Div(total, big.NewInt(10_000))

	owner := new(big.Int).Mul(bigCost, big.NewInt(ownerBps))
	owner.Div(owner, big.NewInt(10_000))

	rem := new(big.Int).Sub(bigCost, total)
	if rem.Sign() < 0 {
		return 0, 0, fmt.Errorf("dex: fee total exceeds cost")
	}
	if !total.IsInt64() || !owner.IsInt64() || !rem.IsInt64() {
		return 0, 0, fmt.Errorf("dex: fee computation overflowed int64")
	}
	return owner.Int64(), rem.Int64(), nil
}
