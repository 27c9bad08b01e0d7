package catalog

import "testing"

func TestStockStatus_ZeroIsNoStock(t *testing.T) {
	for _, min := range []int{0, 1, 5, 100} {
		st := StockStatus(0, min)
		if st.Bucket != NoStock {
			t.Errorf("StockStatus(0, %d) = %s, want no_stock", min, st.Bucket)
		}
		if st.Severity != 3 {
			t.Errorf("StockStatus(0, %d) severity = %d, want 3", min, st.Severity)
		}
	}
}

func TestStockStatus_Buckets(t *testing.T) {
	tests := []struct {
		current, minimum int
		want             Bucket
	}{
		{1, 5, Low},
		{5, 5, Low},
		{6, 5, Medium},
		{10, 5, Medium},
		{11, 5, Normal},
		{1, 1, Low},
		{2, 1, Medium},
		{3, 1, Normal},
		// minimum 0: anything above zero is normal (0 <= 2*0 only at 0,
		// which the first rule already claims)
		{1, 0, Normal},
		{100, 0, Normal},
	}
	for _, tt := range tests {
		got := StockStatus(tt.current, tt.minimum)
		if got.Bucket != tt.want {
			t.Errorf("StockStatus(%d, %d) = %s, want %s", tt.current, tt.minimum, got.Bucket, tt.want)
		}
	}
}

func TestStockStatus_PriorityChainExhaustive(t *testing.T) {
	// Property check over a small grid: buckets partition the domain.
	for c := 0; c <= 30; c++ {
		for m := 0; m <= 10; m++ {
			got := StockStatus(c, m).Bucket
			var want Bucket
			switch {
			case c == 0:
				want = NoStock
			case c <= m:
				want = Low
			case c <= 2*m:
				want = Medium
			default:
				want = Normal
			}
			if got != want {
				t.Fatalf("StockStatus(%d, %d) = %s, want %s", c, m, got, want)
			}
		}
	}
}

func TestCategoryColor(t *testing.T) {
	if got := CategoryColor("brakes"); got != "orange" {
		t.Errorf("CategoryColor(brakes) = %s, want orange", got)
	}
	if got := CategoryColor("Engine"); got != "red" {
		t.Errorf("CategoryColor(Engine) = %s, want red", got)
	}
	if got := CategoryColor("warp-drive"); got != "gray" {
		t.Errorf("CategoryColor(warp-drive) = %s, want gray", got)
	}
	if got := CategoryColor(""); got != "gray" {
		t.Errorf("CategoryColor(\"\") = %s, want gray", got)
	}
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0,00"},
		{5, "$5,00"},
		{999.5, "$999,50"},
		{1000, "$1.000,00"},
		{12500.5, "$12.500,50"},
		{1234567.89, "$1.234.567,89"},
		{-1500.25, "-$1.500,25"},
		// rounding only at display time
		{0.005, "$0,01"},
		{120.0, "$120,00"},
	}
	for _, tt := range tests {
		if got := FormatPrice(tt.in); got != tt.want {
			t.Errorf("FormatPrice(%v) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0min"},
		{45, "45min"},
		{60, "1h"},
		{90, "1h 30min"},
		{120, "2h"},
		{135, "2h 15min"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%d) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
