package model

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Cart is the session-scoped basket. It only ever holds products of a single seller.
type Cart struct {
	SellerID int64         `json:"seller_id,omitempty"`
	Items    map[int64]int `json:"items,omitempty"`
}

func (c *Cart) Empty() bool {
	return c == nil || c.SellerID == 0 || len(c.Items) == 0
}

// ProductIDs returns the ids in the cart in ascending order.
func (c *Cart) ProductIDs() []int64 {
	if c == nil {
		return nil
	}
	ids := make([]int64, 0, len(c.Items))
	for id := range c.Items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (c *Cart) Count() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, q := range c.Items {
		n += q
	}
	return n
}

type CartLine struct {
	Product  Product
	Quantity int
	Subtotal decimal.Decimal
}

// CartView is a reconciled cart: every line is priced and clamped to live stock.
type CartView struct {
	SellerID int64
	Lines    []CartLine
	Total    decimal.Decimal
}

func (v *CartView) Empty() bool {
	return v == nil || len(v.Lines) == 0
}
