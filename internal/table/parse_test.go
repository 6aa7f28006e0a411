package table

import (
	"testing"
	"time"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
		want      float64
	}{
		{name: "positive integer", input: "123", wantValid: true, want: 123},
		{name: "negative integer", input: "-456", wantValid: true, want: -456},
		{name: "decimal number", input: "123.45", wantValid: true, want: 123.45},
		{name: "leading decimal point", input: ".99", wantValid: true, want: 0.99},
		{name: "dollar sign", input: "$1,234.56", wantValid: true, want: 1234.56},
		{name: "euro sign", input: "€1234.56", wantValid: true, want: 1234.56},
		{name: "accounting negative", input: "(1,000.50)", wantValid: true, want: -1000.5},
		{name: "scientific notation", input: "1.5e3", wantValid: true, want: 1500},
		{name: "whitespace", input: "  42  ", wantValid: true, want: 42},
		{name: "empty", input: "", wantValid: false},
		{name: "letters", input: "abc", wantValid: false},
		{name: "mixed", input: "12abc", wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseNumber(tt.input)
			if ok != tt.wantValid {
				t.Fatalf("ParseNumber(%q) valid = %v, want %v", tt.input, ok, tt.wantValid)
			}
			if ok && got != tt.want {
				t.Errorf("ParseNumber(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseInteger(t *testing.T) {
	tests := []struct {
		input     string
		wantValid bool
		want      int64
	}{
		{"12", true, 12},
		{"1,200", true, 1200},
		{"12.0", true, 12},
		{"12.5", false, 0},
		{"x", false, 0},
	}
	for _, tt := range tests {
		got, ok := ParseInteger(tt.input)
		if ok != tt.wantValid || got != tt.want {
			t.Errorf("ParseInteger(%q) = (%d, %v), want (%d, %v)", tt.input, got, ok, tt.want, tt.wantValid)
		}
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
		want      time.Time
	}{
		{name: "ISO date", input: "2024-01-15", wantValid: true, want: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{name: "US date", input: "1/15/2024", wantValid: true, want: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{name: "month name", input: "Jan 15, 2024", wantValid: true, want: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{name: "timestamp", input: "2024-01-15 08:30:00", wantValid: true, want: time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC)},
		{name: "RFC3339", input: "2024-01-15T08:30:00Z", wantValid: true, want: time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC)},
		{name: "compact", input: "20240115", wantValid: true, want: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{name: "empty", input: "", wantValid: false},
		{name: "garbage", input: "not a date", wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTime(tt.input)
			if ok != tt.wantValid {
				t.Fatalf("ParseTime(%q) valid = %v, want %v", tt.input, ok, tt.wantValid)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("ParseTime(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseTime_TwoDigitYear(t *testing.T) {
	got, ok := ParseTime("1/2/99")
	if !ok {
		t.Fatal("ParseTime(1/2/99) not valid")
	}
	if got.Year() != 1999 {
		t.Errorf("year = %d, want 1999", got.Year())
	}
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"true", "YES", "y", "1", " T "} {
		if v, ok := ParseBool(s); !ok || !v {
			t.Errorf("ParseBool(%q) = (%v, %v), want (true, true)", s, v, ok)
		}
	}
	for _, s := range []string{"false", "No", "0"} {
		if v, ok := ParseBool(s); !ok || v {
			t.Errorf("ParseBool(%q) = (%v, %v), want (false, true)", s, v, ok)
		}
	}
	if _, ok := ParseBool("maybe"); ok {
		t.Error("ParseBool(maybe) should be invalid")
	}
}

func TestInfer(t *testing.T) {
	tests := []struct {
		name string
		raw  []string
		want Type
	}{
		{"ints with nulls", []string{"1", "", "3", "NA"}, Int},
		{"floats", []string{"1", "2.5"}, Float},
		{"bools", []string{"True", "false"}, Bool},
		{"currency stays text", []string{"$1", "$2"}, Text},
		{"dates stay text", []string{"2024-01-01"}, Text},
		{"all null", []string{"", "nan"}, Float},
		{"mixed", []string{"1", "x"}, Text},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Infer(tt.raw); got != tt.want {
				t.Errorf("Infer(%v) = %s, want %s", tt.raw, got, tt.want)
			}
		})
	}
}

func TestFromStrings(t *testing.T) {
	c := FromStrings("n", []string{"1", "", "3"})
	if c.Type != Int {
		t.Fatalf("type = %s, want int", c.Type)
	}
	if c.Values[0] != int64(1) || c.Values[1] != nil || c.Values[2] != int64(3) {
		t.Errorf("values = %v", c.Values)
	}

	txt := FromStrings("s", []string{" a ", "NULL"})
	if txt.Values[0] != " a " || txt.Values[1] != nil {
		t.Errorf("text values = %#v", txt.Values)
	}
}
