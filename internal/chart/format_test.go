package chart

import "testing"

func TestAbbreviateAxisValue(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{value: 0, want: "0"},
		{value: 999, want: "999"},
		{value: 1000, want: "1.0 K€"},
		{value: 1500, want: "1.5 K€"},
		{value: 250000, want: "250.0 K€"},
		{value: 1000000, want: "1.0 M€"},
		{value: 9604190.61, want: "9.6 M€"},
		{value: -2500, want: "-2.5 K€"},
	}
	for _, tt := range tests {
		if got := AbbreviateAxisValue(tt.value, "€"); got != tt.want {
			t.Fatalf("AbbreviateAxisValue(%v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestAbbreviateAxisValueWithoutCurrency(t *testing.T) {
	if got := AbbreviateAxisValue(3200000, ""); got != "3.2 M" {
		t.Fatalf("AbbreviateAxisValue() = %q, want 3.2 M", got)
	}
}

func TestRendererYFormatterUsesCurrency(t *testing.T) {
	format := Renderer{Currency: "$"}.yFormatter()
	if got := format(12000.0); got != "12.0 K$" {
		t.Fatalf("formatter(12000) = %q", got)
	}
}

func TestPercentLabel(t *testing.T) {
	if got := percentLabel("France", 0.1234); got != "France (12.3%)" {
		t.Fatalf("percentLabel() = %q", got)
	}
}
