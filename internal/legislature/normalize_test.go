package legislature

import "testing"

func TestNormalizeBillNumber(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"S00256", "S256"},
		{"a100", "A100"},
		{"", ""},
		{"  s0256a ", "S256A"},
		{"K00123B", "K123B"},
		{"S0", "S0"},
		{"J-12", "J-12"},
		{"resolution", "RESOLUTION"},
	}
	for _, tt := range tests {
		if got := NormalizeBillNumber(tt.in); got != tt.want {
			t.Errorf("NormalizeBillNumber(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSessionYear(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{2025, 2025},
		{2026, 2025},
		{2024, 2023},
		{2023, 2023},
	}
	for _, tt := range tests {
		if got := SessionYear(tt.in); got != tt.want {
			t.Errorf("SessionYear(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestBillID(t *testing.T) {
	if got := BillID(2025, "S00256"); got != 2025000256 {
		t.Errorf("BillID(2025, S00256) = %d", got)
	}
	if got := BillID(2025, "A100B"); got != 2025000100 {
		t.Errorf("BillID(2025, A100B) = %d", got)
	}
	if got := BillID(2025, "unparsed"); got != 2025000000 {
		t.Errorf("BillID(2025, unparsed) = %d", got)
	}
	if BillID(2025, "S100") != BillID(2025, "A100") {
		t.Error("chamber should not contribute to BillID")
	}
}
