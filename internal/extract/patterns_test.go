package extract

import (
	"testing"
)

func TestSplitLabel(t *testing.T) {
	tests := []struct {
		label  string
		base   string
		suffix string
	}{
		{"位置波动 (max)", "位置波动", "max"},
		{"位置波动 (min)", "位置波动", "min"},
		{"位置波动（max）", "位置波动", "max"},
		{"平均速度 (rpm)", "平均速度", "rpm"},
		{"速度偏差", "速度偏差", ""},
		{"位置波动 (MAX)", "位置波动", "max"},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			base, suffix := SplitLabel(tt.label)
			if base != tt.base || suffix != tt.suffix {
				t.Errorf("SplitLabel(%q) = %q, %q; want %q, %q",
					tt.label, base, suffix, tt.base, tt.suffix)
			}
		})
	}
}

// A suffixed label must never match a bare base-label row: that is how the
// "(max)" pattern ends up stealing the "(min)" row's value.
func TestPatterns_SuffixedLabelNeverMatchesBareBase(t *testing.T) {
	labels := []string{
		"位置波动 (max)",
		"位置波动 (min)",
		"位置波动（最大）",
		"位置波动（最小）",
	}
	bareRows := []string{
		"位置波动: 99",
		"位置波动 99",
		"位置波动：-12.5",
	}

	for _, label := range labels {
		pats := Patterns(label)
		for _, row := range bareRows {
			if v, ok := matchPatterns(pats, row); ok {
				t.Errorf("label %q matched bare row %q -> %q", label, row, v)
			}
		}
	}
}

func TestPatterns_UnitSuffixKeepsBareBaseVariant(t *testing.T) {
	pats := Patterns("平均速度 (rpm)")

	v, ok := matchPatterns(pats, "平均速度: 606.537")
	if !ok || v != "606.537" {
		t.Errorf("bare-base match: got %q, %v; want 606.537, true", v, ok)
	}
}

func TestPatterns_BracketNormalization(t *testing.T) {
	tests := []struct {
		label string
		text  string
		want  string
	}{
		{"位置波动 (max)", "位置波动（max）：123", "123"},
		{"位置波动 (max)", "位置波动 (max): 123", "123"},
		{"位置波动（max）", "位置波动 (max): 123", "123"},
		{"平均速度 (rpm)", "平均速度（rpm）：606.537", "606.537"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			v, ok := matchPatterns(Patterns(tt.label), tt.text)
			if !ok || v != tt.want {
				t.Errorf("got %q, %v; want %q, true", v, ok, tt.want)
			}
		})
	}
}

func TestPatterns_NegativeValues(t *testing.T) {
	v, ok := matchPatterns(Patterns("速度偏差 (rpm)"), "速度偏差 (rpm): -178")
	if !ok || v != "-178" {
		t.Errorf("got %q, %v; want -178, true", v, ok)
	}
}

func TestPatterns_WidePatternToleratesFiller(t *testing.T) {
	// OCR inserting stray tokens between base label, suffix, and value.
	v, ok := matchPatterns(Patterns("位置波动 (max)"), "位置波动 rpm) max ： 152")
	if !ok || v != "152" {
		t.Errorf("got %q, %v; want 152, true", v, ok)
	}
}

func TestPatterns_Deterministic(t *testing.T) {
	a := Patterns("位置波动 (min)")
	b := Patterns("位置波动 (min)")
	if len(a) != len(b) {
		t.Fatalf("pattern counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].String() != b[i].String() {
			t.Errorf("pattern %d differs: %q vs %q", i, a[i], b[i])
		}
	}
}
