package ui

import (
	"bytes"
	"strings"
	"testing"
)

func TestDisplayWidth(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"abc", 3},
		{"深淵長劍", 8},
		{"W萬", 3},
		{"", 0},
	}
	for _, tt := range tests {
		if got := DisplayWidth(tt.in); got != tt.want {
			t.Errorf("DisplayWidth(%q): expected %d, got %d", tt.in, tt.want, got)
		}
	}
}

func TestTableAlignsWideRunes(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, true)

	table := w.NewTable("Material", "Cost").AlignRight(1)
	table.AddRow("秘銀礦", "300")
	table.AddRow("ore", "5,000")
	table.Render()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("Expected 4 lines, got %d:\n%s", len(lines), buf.String())
	}
	first := DisplayWidth(lines[2])
	for _, l := range lines[2:] {
		if DisplayWidth(l) != first {
			t.Errorf("Rows have different widths:\n%s", buf.String())
		}
	}
	if !strings.HasSuffix(lines[2], "  300") {
		t.Errorf("Expected right-aligned cost, got %q", lines[2])
	}
}

func TestNoColor(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, true)
	w.Success("done %d", 1)

	if strings.Contains(buf.String(), "\033[") {
		t.Errorf("Expected no escape codes, got %q", buf.String())
	}
}

func TestVerdictWithoutWinner(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, true)

	v := w.NewVerdict()
	v.Problem = "exchange rate undefined"
	v.Warnings = 1
	v.Render()

	out := buf.String()
	if !strings.Contains(out, "No recommendation") || !strings.Contains(out, "exchange rate undefined") {
		t.Errorf("Unexpected verdict output:\n%s", out)
	}
	if !strings.Contains(out, "1 warnings") {
		t.Errorf("Expected warning count, got:\n%s", out)
	}
}
