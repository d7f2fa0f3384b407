package state

import "testing"

func TestParseID(t *testing.T) {
	tests := []struct {
		in   string
		want uint32
		ok   bool
	}{
		{"0x00C00003", 0x00C00003, true},
		{"12582915", 12582915, true},
		{"0x00c00003", 0x00C00003, true},
		{"", 0, false},
		{"-1", 0, false},
		{"0x1FFFFFFFF", 0, false},
		{"focused", 0, false},
		{"12abc", 0, false},
		{"017", 017, true},
		{"0", 0, true},
		{"0X1f", 0x1F, true},
		{"0x", 0, false},
		{"0x00C0_0003", 0, false},
		{"12_582_915", 0, false},
		{"0b11", 0, false},
		{"0o17", 0, false},
		{"018", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseID(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("ParseID(%q) = %#x, %v; want %#x, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseIndex(t *testing.T) {
	if got, ok := ParseIndex("^3"); !ok || got != 3 {
		t.Fatalf("ParseIndex(^3) = %d, %v", got, ok)
	}
	if got, ok := ParseIndex("^0"); !ok || got != 0 {
		t.Fatalf("ParseIndex(^0) = %d, %v", got, ok)
	}
	for _, in := range []string{"^", "3", "^70000", "^x"} {
		if _, ok := ParseIndex(in); ok {
			t.Fatalf("expected ParseIndex(%q) to fail", in)
		}
	}
}

func TestParseDirectionsAndEnums(t *testing.T) {
	if d, ok := ParseCycleDir("prev"); !ok || d != CyclePrev {
		t.Fatalf("ParseCycleDir(prev) = %v, %v", d, ok)
	}
	if _, ok := ParseCycleDir("Next"); ok {
		t.Fatalf("expected case-sensitive cycle tokens")
	}
	if d, ok := ParseHistoryDir("newer"); !ok || d != HistoryNewer {
		t.Fatalf("ParseHistoryDir(newer) = %v, %v", d, ok)
	}
	if s, ok := ParseClientState("pseudo_tiled"); !ok || s.String() != "pseudo_tiled" {
		t.Fatalf("ParseClientState(pseudo_tiled) = %v, %v", s, ok)
	}
	if l, ok := ParseStackLayer("above"); !ok || l != LayerAbove {
		t.Fatalf("ParseStackLayer(above) = %v, %v", l, ok)
	}
}
