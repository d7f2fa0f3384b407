package config

import (
	"strings"
	"testing"
)

func TestDiffSerialized(t *testing.T) {
	oldData := []byte("logLevel: info\nfocusTightness: high\n")
	newData := []byte("logLevel: info\nfocusTightness: low\n")

	diff := DiffSerialized(oldData, newData)
	if diff == "" {
		t.Fatalf("expected diff, got empty string")
	}
	if !strings.Contains(diff, "focusTightness: high") {
		t.Fatalf("expected diff to contain original line, got %s", diff)
	}
	if !strings.Contains(diff, "focusTightness: low") {
		t.Fatalf("expected diff to contain updated line, got %s", diff)
	}
	if DiffSerialized(oldData, oldData) != "" {
		t.Fatalf("identical payloads should not differ")
	}
}

func TestSerializeIgnoresSourceFormatting(t *testing.T) {
	a, err := Parse([]byte("focusTightness: low\nrules:\n  - name: R\n    match: {class: Gimp}\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	b, err := Parse([]byte("# comment\ndirectionalFocusTightness: low\nrules:\n- match:\n    class: Gimp\n  name: R\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	sa, err := Serialize(a)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	sb, err := Serialize(b)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if diff := DiffSerialized(sa, sb); diff != "" {
		t.Fatalf("expected equal serializations, diff:\n%s", diff)
	}
}
