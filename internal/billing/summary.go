// Package billing turns denormalized bill/item/addition rows into settlement
// totals and shift-level summary statistics without going back to the store.
package billing

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UnknownWaiter buckets bills that have no serving staff assigned.
const UnknownWaiter = "Unknown"

// tolerance is the largest acceptable gap between total revenue and the sum
// of its payment-method split. Anything larger means the math is broken.
var tolerance = decimal.RequireFromString("0.01")

// Row is one line of the joined bill/order/item/addition result set. ItemID
// is null for bills with no order items; AdditionID is null for items
// without extras.
type Row struct {
	BillID        uuid.UUID
	PaymentMethod string
	Discount      int32
	GuestCount    int32
	Waiter        string
	ItemID        uuid.NullUUID
	ItemPrice     decimal.Decimal
	ItemQuantity  int32
	AdditionID    uuid.NullUUID
	AdditionPrice decimal.Decimal
}

// ItemData is one order item reassembled from its rows.
type ItemData struct {
	Price     decimal.Decimal
	Quantity  int32
	Additions []decimal.Decimal
}

// Total is the line cost: additions are priced per dish, so they scale with
// the quantity the same way the base price does.
func (i ItemData) Total() decimal.Decimal {
	unit := i.Price
	for _, a := range i.Additions {
		unit = unit.Add(a)
	}
	return unit.Mul(decimal.NewFromInt32(i.Quantity))
}

// BillData is one bill reassembled from its rows.
type BillData struct {
	PaymentMethod string
	Discount      int32
	GuestCount    int32
	Waiter        string
	Items         map[uuid.UUID]*ItemData
}

// Revenue applies the discount to the item total. A full discount is exactly
// zero, never a rounding residue.
func (b BillData) Revenue() decimal.Decimal {
	if b.Discount >= 100 {
		return decimal.Zero
	}
	total := decimal.Zero
	for _, item := range b.Items {
		total = total.Add(item.Total())
	}
	factor := decimal.NewFromInt32(100 - b.Discount).Div(decimal.NewFromInt(100))
	return total.Mul(factor)
}

// WaiterStats is one staff member's share of the summary.
type WaiterStats struct {
	Bills   int
	Revenue decimal.Decimal
}

// Summary is the shift roll-up handed to the report endpoints.
type Summary struct {
	Revenue     decimal.Decimal
	RevenueCard decimal.Decimal
	RevenueCash decimal.Decimal
	AvgPerPlate decimal.Decimal
	Guests      int64
	Waiters     map[string]WaiterStats
}

// BillSummary is the parsed row-set, grouped by bill and ready to roll up.
type BillSummary struct {
	Bills    map[uuid.UUID]*BillData
	Warnings []string
}

// Parse groups rows by bill and then by order item. Row order does not
// matter: rows for one item may arrive interleaved with other items as long
// as they carry the same identifiers. A row with a null item id marks a bill
// with no order items; the bill still counts, its revenue is zero.
func Parse(rows []Row) *BillSummary {
	s := &BillSummary{Bills: make(map[uuid.UUID]*BillData)}
	for _, row := range rows {
		bill, ok := s.Bills[row.BillID]
		if !ok {
			bill = &BillData{
				PaymentMethod: row.PaymentMethod,
				Discount:      row.Discount,
				GuestCount:    row.GuestCount,
				Waiter:        row.Waiter,
				Items:         make(map[uuid.UUID]*ItemData),
			}
			s.Bills[row.BillID] = bill
		}
		if !row.ItemID.Valid {
			s.Warnings = append(s.Warnings, fmt.Sprintf("bill %s has no order items", row.BillID))
			continue
		}
		item, ok := bill.Items[row.ItemID.UUID]
		if !ok {
			item = &ItemData{Price: row.ItemPrice, Quantity: row.ItemQuantity}
			bill.Items[row.ItemID.UUID] = item
		}
		if row.AdditionID.Valid {
			item.Additions = append(item.Additions, row.AdditionPrice)
		}
	}
	return s
}

// Summarize rolls the parsed bills up into global totals. The payment-method
// split is checked against total revenue; a mismatch beyond one cent is a
// programming error and is returned, never swallowed.
func (s *BillSummary) Summarize() (Summary, error) {
	out := Summary{
		Revenue:     decimal.Zero,
		RevenueCard: decimal.Zero,
		RevenueCash: decimal.Zero,
		AvgPerPlate: decimal.Zero,
		Waiters:     make(map[string]WaiterStats),
	}
	for _, bill := range s.Bills {
		revenue := bill.Revenue()
		out.Revenue = out.Revenue.Add(revenue)
		switch bill.PaymentMethod {
		case "cash":
			out.RevenueCash = out.RevenueCash.Add(revenue)
		default:
			out.RevenueCard = out.RevenueCard.Add(revenue)
		}
		out.Guests += int64(bill.GuestCount)

		name := bill.Waiter
		if name == "" {
			name = UnknownWaiter
		}
		stats := out.Waiters[name]
		stats.Bills++
		stats.Revenue = stats.Revenue.Add(revenue)
		out.Waiters[name] = stats
	}

	split := out.RevenueCard.Add(out.RevenueCash)
	if out.Revenue.Sub(split).Abs().GreaterThan(tolerance) {
		return Summary{}, fmt.Errorf("billing: revenue %s does not match card %s + cash %s",
			out.Revenue.StringFixed(2), out.RevenueCard.StringFixed(2), out.RevenueCash.StringFixed(2))
	}

	if out.Guests > 0 {
		out.AvgPerPlate = out.Revenue.Div(decimal.NewFromInt(out.Guests)).Round(2)
	}
	return out, nil
}
