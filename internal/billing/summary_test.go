package billing

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func item(id uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: id, Valid: true}
}

func TestItemTotal(t *testing.T) {
	tests := []struct {
		name      string
		price     string
		quantity  int32
		additions []string
		want      string
	}{
		{"no additions", "12.50", 1, nil, "12.50"},
		{"quantity scales price", "12.50", 3, nil, "37.50"},
		{"additions scale with quantity", "25.00", 2, []string{"3.00", "1.50"}, "59.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i := ItemData{Price: dec(tt.price), Quantity: tt.quantity}
			for _, a := range tt.additions {
				i.Additions = append(i.Additions, dec(a))
			}
			if got := i.Total(); !got.Equal(dec(tt.want)) {
				t.Errorf("Total() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestBillRevenueDiscount(t *testing.T) {
	bill := BillData{Items: map[uuid.UUID]*ItemData{
		uuid.New(): {Price: dec("50.00"), Quantity: 2},
	}}

	tests := []struct {
		discount int32
		want     string
	}{
		{0, "100.00"},
		{25, "75.00"},
		{100, "0"},
	}
	for _, tt := range tests {
		bill.Discount = tt.discount
		if got := bill.Revenue(); !got.Equal(dec(tt.want)) {
			t.Errorf("discount %d: Revenue() = %s, want %s", tt.discount, got, tt.want)
		}
	}
}

func TestBillRevenueFullDiscountIsExactlyZero(t *testing.T) {
	bill := BillData{
		Discount: 100,
		Items: map[uuid.UUID]*ItemData{
			uuid.New(): {Price: dec("33.33"), Quantity: 3},
		},
	}
	if got := bill.Revenue(); !got.IsZero() {
		t.Errorf("Revenue() = %s, want exactly 0", got)
	}
}

func TestParseSingleBill(t *testing.T) {
	billID := uuid.New()
	item1, item2, item3 := uuid.New(), uuid.New(), uuid.New()

	rows := []Row{
		{BillID: billID, PaymentMethod: "card", GuestCount: 2, Waiter: "Alice", ItemID: item(item1), ItemPrice: dec("34.00"), ItemQuantity: 1},
		{BillID: billID, PaymentMethod: "card", GuestCount: 2, Waiter: "Alice", ItemID: item(item2), ItemPrice: dec("12.00"), ItemQuantity: 1},
		{BillID: billID, PaymentMethod: "card", GuestCount: 2, Waiter: "Alice", ItemID: item(item3), ItemPrice: dec("25.00"), ItemQuantity: 1,
			AdditionID: item(uuid.New()), AdditionPrice: dec("3.00")},
	}

	summary, err := Parse(rows).Summarize()
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if !summary.Revenue.Equal(dec("94.00")) {
		t.Errorf("Revenue = %s, want 94.00", summary.Revenue)
	}
	if !summary.RevenueCard.Equal(dec("94.00")) {
		t.Errorf("RevenueCard = %s, want 94.00", summary.RevenueCard)
	}
	stats, ok := summary.Waiters["Alice"]
	if !ok {
		t.Fatal("no stats for Alice")
	}
	if stats.Bills != 1 {
		t.Errorf("Bills = %d, want 1", stats.Bills)
	}
	if !stats.Revenue.Equal(dec("94.00")) {
		t.Errorf("waiter revenue = %s, want 94.00", stats.Revenue)
	}
}

func TestParseNonContiguousRows(t *testing.T) {
	billID := uuid.New()
	item1, item2 := uuid.New(), uuid.New()

	// Rows for item1 straddle a row for item2.
	rows := []Row{
		{BillID: billID, PaymentMethod: "cash", Waiter: "Bob", ItemID: item(item1), ItemPrice: dec("10.00"), ItemQuantity: 1,
			AdditionID: item(uuid.New()), AdditionPrice: dec("2.00")},
		{BillID: billID, PaymentMethod: "cash", Waiter: "Bob", ItemID: item(item2), ItemPrice: dec("5.00"), ItemQuantity: 1},
		{BillID: billID, PaymentMethod: "cash", Waiter: "Bob", ItemID: item(item1), ItemPrice: dec("10.00"), ItemQuantity: 1,
			AdditionID: item(uuid.New()), AdditionPrice: dec("1.00")},
	}

	summary, err := Parse(rows).Summarize()
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	// item1 = 10 + 2 + 1 = 13, item2 = 5
	if !summary.Revenue.Equal(dec("18.00")) {
		t.Errorf("Revenue = %s, want 18.00", summary.Revenue)
	}
	if !summary.RevenueCash.Equal(dec("18.00")) {
		t.Errorf("RevenueCash = %s, want 18.00", summary.RevenueCash)
	}
}

func TestParseEmptyBillWarns(t *testing.T) {
	billID := uuid.New()
	rows := []Row{
		{BillID: billID, PaymentMethod: "card", GuestCount: 4, Waiter: "Alice"},
	}

	parsed := Parse(rows)
	if len(parsed.Warnings) != 1 || !strings.Contains(parsed.Warnings[0], billID.String()) {
		t.Fatalf("Warnings = %v, want one naming bill %s", parsed.Warnings, billID)
	}

	summary, err := parsed.Summarize()
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if !summary.Revenue.IsZero() {
		t.Errorf("Revenue = %s, want 0", summary.Revenue)
	}
	stats := summary.Waiters["Alice"]
	if stats.Bills != 1 {
		t.Errorf("empty bill not counted: Bills = %d, want 1", stats.Bills)
	}
	if summary.Guests != 4 {
		t.Errorf("Guests = %d, want 4", summary.Guests)
	}
}

func TestSummarizeUnknownWaiter(t *testing.T) {
	rows := []Row{
		{BillID: uuid.New(), PaymentMethod: "cash", ItemID: item(uuid.New()), ItemPrice: dec("7.00"), ItemQuantity: 1},
	}
	summary, err := Parse(rows).Summarize()
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	stats, ok := summary.Waiters[UnknownWaiter]
	if !ok {
		t.Fatalf("Waiters = %v, want %q bucket", summary.Waiters, UnknownWaiter)
	}
	if stats.Bills != 1 || !stats.Revenue.Equal(dec("7.00")) {
		t.Errorf("unknown bucket = %+v, want 1 bill at 7.00", stats)
	}
}

func TestSummarizeAvgPerPlate(t *testing.T) {
	billID := uuid.New()
	rows := []Row{
		{BillID: billID, PaymentMethod: "card", GuestCount: 3, Waiter: "Alice", ItemID: item(uuid.New()), ItemPrice: dec("10.00"), ItemQuantity: 1},
	}
	summary, err := Parse(rows).Summarize()
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if !summary.AvgPerPlate.Equal(dec("3.33")) {
		t.Errorf("AvgPerPlate = %s, want 3.33", summary.AvgPerPlate)
	}
}

func TestSummarizeZeroGuests(t *testing.T) {
	rows := []Row{
		{BillID: uuid.New(), PaymentMethod: "card", GuestCount: 0, ItemID: item(uuid.New()), ItemPrice: dec("10.00"), ItemQuantity: 1},
	}
	summary, err := Parse(rows).Summarize()
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if !summary.AvgPerPlate.IsZero() {
		t.Errorf("AvgPerPlate = %s, want 0 on zero guests", summary.AvgPerPlate)
	}
}

func TestSummarizeManyBillsOneWaiter(t *testing.T) {
	var rows []Row
	for i := 0; i < 100; i++ {
		rows = append(rows, Row{
			BillID:        uuid.New(),
			PaymentMethod: "card",
			Waiter:        "Alice",
			ItemID:        item(uuid.New()),
			ItemPrice:     dec("10.00"),
			ItemQuantity:  1,
		})
	}
	summary, err := Parse(rows).Summarize()
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	stats := summary.Waiters["Alice"]
	if stats.Bills != 100 {
		t.Errorf("Bills = %d, want 100", stats.Bills)
	}
	if !stats.Revenue.Equal(dec("1000.00")) {
		t.Errorf("waiter revenue = %s, want 1000.00", stats.Revenue)
	}
	if !summary.RevenueCard.Equal(dec("1000.00")) {
		t.Errorf("RevenueCard = %s, want 1000.00", summary.RevenueCard)
	}
}

func TestSummarizeSplitAlwaysMatchesRevenue(t *testing.T) {
	var rows []Row
	methods := []string{"card", "cash"}
	for i := 0; i < 40; i++ {
		rows = append(rows, Row{
			BillID:        uuid.New(),
			PaymentMethod: methods[i%2],
			Discount:      int32(i % 101),
			Waiter:        "Alice",
			ItemID:        item(uuid.New()),
			ItemPrice:     dec("13.37"),
			ItemQuantity:  int32(1 + i%3),
		})
	}
	summary, err := Parse(rows).Summarize()
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	split := summary.RevenueCard.Add(summary.RevenueCash)
	if summary.Revenue.Sub(split).Abs().GreaterThan(dec("0.01")) {
		t.Errorf("split %s does not match revenue %s", split, summary.Revenue)
	}
}
