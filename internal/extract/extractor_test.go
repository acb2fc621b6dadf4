package extract

import (
	"reflect"
	"testing"

	"github.com/ironsheep/telemetry-ocr/internal/ocr"
)

func frags(texts ...string) []ocr.Fragment {
	out := make([]ocr.Fragment, len(texts))
	for i, txt := range texts {
		out[i] = ocr.Fragment{Text: txt, Confidence: 0.9, Index: i}
	}
	return out
}

func newTestExtractor() *Extractor {
	return NewExtractor(MaxFirst, Normalizer{}, nil)
}

// The engine misreads "min" as "mix"; the confusion table must still route
// each row to the right label.
func TestExtract_ConfusedSuffix(t *testing.T) {
	e := newTestExtractor()
	fs := frags("位置波动（max）：123", "位置波动（mix）：321")

	if v, ok := e.Extract(fs, "位置波动 (max)"); !ok || v != "123" {
		t.Errorf("max: got %q, %v; want 123, true", v, ok)
	}
	if v, ok := e.Extract(fs, "位置波动 (min)"); !ok || v != "321" {
		t.Errorf("min: got %q, %v; want 321, true", v, ok)
	}
}

// A row split into label, suffix, and value fragments is reassembled.
func TestExtract_CrossFragment(t *testing.T) {
	e := newTestExtractor()
	fs := frags("平均速度", "(rpm):", "527.322")

	if v, ok := e.Extract(fs, "平均速度 (rpm)"); !ok || v != "527.322" {
		t.Errorf("got %q, %v; want 527.322, true", v, ok)
	}
}

// The full fragmented display observed in the field: every row split into
// three fragments, a shared "(rpm)" unit suffix, and one suffix misread as
// "trpm". Every field must resolve to its own row's value.
func TestExtract_FragmentedDisplay(t *testing.T) {
	e := newTestExtractor()
	fs := frags(
		"数据分析:",
		"平均速度", "(rpm):", "527.322",
		"最高速度", "(rpm):", "562.191",
		"最低速度", "(rpm):", "484.407",
		"速度偏差 (trpm):", "38.9814",
		"位置波动", "(max):", "152",
		"位置波动", "(min):", "89",
	)

	want := map[string]string{
		"平均速度 (rpm)": "527.322",
		"最高速度 (rpm)": "562.191",
		"最低速度 (rpm)": "484.407",
		"速度偏差 (rpm)": "38.9814",
		"位置波动 (max)": "152",
		"位置波动 (min)": "89",
	}
	for label, wantValue := range want {
		v, ok := e.Extract(fs, label)
		if !ok || v != wantValue {
			t.Errorf("%s: got %q, %v; want %q", label, v, ok, wantValue)
		}
	}
}

// Two rows carry only the base label; positional inference assigns the first
// occurrence to (max) and the second to (min).
func TestExtract_PositionalInference(t *testing.T) {
	e := newTestExtractor()
	fs := frags("位置波动：15", "位置波动：-3")

	if v, ok := e.Extract(fs, "位置波动 (max)"); !ok || v != "15" {
		t.Errorf("max: got %q, %v; want 15, true", v, ok)
	}
	if v, ok := e.Extract(fs, "位置波动 (min)"); !ok || v != "-3" {
		t.Errorf("min: got %q, %v; want -3, true", v, ok)
	}
}

func TestExtract_PositionalInference_MinFirst(t *testing.T) {
	e := NewExtractor(MinFirst, Normalizer{}, nil)
	fs := frags("位置波动：15", "位置波动：-3")

	if v, ok := e.Extract(fs, "位置波动 (max)"); !ok || v != "-3" {
		t.Errorf("max: got %q, %v; want -3, true", v, ok)
	}
	if v, ok := e.Extract(fs, "位置波动 (min)"); !ok || v != "15" {
		t.Errorf("min: got %q, %v; want 15, true", v, ok)
	}
}

// Positional inference needs exactly two base occurrences; with three the
// pairing is ambiguous and the field stays unmatched.
func TestExtract_PositionalInference_AmbiguousCount(t *testing.T) {
	e := newTestExtractor()
	fs := frags("位置波动：15", "位置波动：-3", "位置波动：7")

	if v, ok := e.Extract(fs, "位置波动 (max)"); ok {
		t.Errorf("three occurrences should not infer, got %q", v)
	}
}

// A '?' glyph replacing the suffix still identifies the carrier when an
// English hint token survives.
func TestExtract_QuestionMarkRepair(t *testing.T) {
	e := newTestExtractor()
	fs := frags("位置波动", "(mi?):", "89")

	if v, ok := e.Extract(fs, "位置波动 (min)"); !ok || v != "89" {
		t.Errorf("got %q, %v; want 89, true", v, ok)
	}
}

func TestExtract_EmptyFragments(t *testing.T) {
	e := newTestExtractor()

	if v, ok := e.Extract(nil, "平均速度 (rpm)"); ok {
		t.Errorf("empty fragments: got %q, want no match", v)
	}
}

func TestExtract_Idempotent(t *testing.T) {
	e := newTestExtractor()
	fs := frags("位置波动（max）：123", "位置波动（mix）：321")

	first, ok1 := e.Extract(fs, "位置波动 (min)")
	second, ok2 := e.Extract(fs, "位置波动 (min)")
	if first != second || ok1 != ok2 {
		t.Errorf("extract not idempotent: %q/%v vs %q/%v", first, ok1, second, ok2)
	}
}

func TestExtractAll_FanOutAndNulls(t *testing.T) {
	e := newTestExtractor()

	var m Mapping
	if err := m.Add("平均速度 (rpm)", []string{"avg_speed", "mean_speed"}); err != nil {
		t.Fatal(err)
	}
	if err := m.Add("最高速度 (rpm)", []string{"max_speed"}); err != nil {
		t.Fatal(err)
	}

	fs := frags("平均速度 (rpm): 606.537")
	out := e.ExtractAll(fs, m)

	if len(out) != 3 {
		t.Fatalf("output keys: got %d, want 3", len(out))
	}
	for _, key := range []string{"avg_speed", "mean_speed"} {
		v := out[key]
		if v == nil || *v != "606.537" {
			t.Errorf("%s: got %v, want 606.537", key, v)
		}
	}
	// The unmatched label's key must be present and nil, never absent.
	v, present := out["max_speed"]
	if !present {
		t.Fatal("max_speed key missing from result")
	}
	if v != nil {
		t.Errorf("max_speed: got %q, want nil", *v)
	}
}

func TestExtractAll_EmptyFragments(t *testing.T) {
	e := newTestExtractor()

	var m Mapping
	if err := m.Add("平均速度 (rpm)", []string{"avg_speed"}); err != nil {
		t.Fatal(err)
	}
	if err := m.Add("位置波动 (max)", []string{"position_deviation_max"}); err != nil {
		t.Fatal(err)
	}

	out := e.ExtractAll(nil, m)
	if !reflect.DeepEqual(out, map[string]*string{
		"avg_speed":              nil,
		"position_deviation_max": nil,
	}) {
		t.Errorf("empty fragments: got %v", out)
	}
}

func TestExtractAll_AppliesNormalization(t *testing.T) {
	e := NewExtractor(MaxFirst, Normalizer{Absolute: true}, nil)

	var m Mapping
	if err := m.Add("速度偏差 (rpm)", []string{"speed_deviation"}); err != nil {
		t.Fatal(err)
	}

	out := e.ExtractAll(frags("速度偏差 (rpm): -178"), m)
	if v := out["speed_deviation"]; v == nil || *v != "178" {
		t.Errorf("got %v, want 178", v)
	}
}
