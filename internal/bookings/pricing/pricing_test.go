package pricing

import "testing"

func TestCompute(t *testing.T) {
	tests := []struct {
		name       string
		actual     string
		selling    string
		wantProfit float64
		wantMargin string
	}{
		{"typical markup", "10000", "15000", 5000, "50.0"},
		{"grouped amounts", "10,000", "₦12,500", 2500, "25.0"},
		{"loss", "20000", "15000", -5000, "-25.0"},
		{"repeating decimal", "30000", "40000", 10000, "33.3"},
		{"zero actual", "0", "15000", 15000, "0"},
		{"negative actual", "-100", "15000", 15100, "0"},
		{"unparseable actual", "abc", "15000", 15000, "0"},
		{"both empty", "", "", 0, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Compute(tt.actual, tt.selling)
			if q.Profit != tt.wantProfit {
				t.Errorf("Compute(%q, %q).Profit = %v, want %v", tt.actual, tt.selling, q.Profit, tt.wantProfit)
			}
			if q.Margin != tt.wantMargin {
				t.Errorf("Compute(%q, %q).Margin = %q, want %q", tt.actual, tt.selling, q.Margin, tt.wantMargin)
			}
		})
	}
}

func TestQuote_ProfitString(t *testing.T) {
	if got := Compute("10000", "15000").ProfitString(); got != "5000" {
		t.Errorf("ProfitString() = %q, want %q", got, "5000")
	}
	if got := Compute("10.5", "12").ProfitString(); got != "1.5" {
		t.Errorf("ProfitString() = %q, want %q", got, "1.5")
	}
}
