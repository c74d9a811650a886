package codegen

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func fixedGenerator(ms int64, digits string) *Generator {
	return &Generator{
		Now:    func() time.Time { return time.UnixMilli(ms) },
		Digits: func(int) string { return digits },
	}
}

func TestGenerateBarcodeLayout(t *testing.T) {
	g := fixedGenerator(1_760_000_123_456, "042")
	cases := map[string]string{
		"Aviation":   "10" + "0123456" + "042",
		"Mechanical": "20" + "0123456" + "042",
		"Electrical": "30" + "0123456" + "042",
		"Welding":    "90" + "0123456" + "042",
		"":           "90" + "0123456" + "042",
	}
	for w, want := range cases {
		if got := g.GenerateBarcode(w); got != want {
			t.Fatalf("GenerateBarcode(%q) = %q, want %q", w, got, want)
		}
	}
}

func TestGenerateBarcodeLengthIsFixed(t *testing.T) {
	// A digit source that misbehaves must not change the length.
	for _, digits := range []string{"", "7", "12345", "a1b"} {
		g := fixedGenerator(5, digits)
		got := g.GenerateBarcode("Aviation")
		if len(got) != BarcodeLength {
			t.Fatalf("digits %q gave %q (len %d)", digits, got, len(got))
		}
		for _, r := range got {
			if r < '0' || r > '9' {
				t.Fatalf("non-digit in barcode %q", got)
			}
		}
	}
}

func TestDefaultGenerateBarcode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		b := GenerateBarcode("Electrical")
		if len(b) != BarcodeLength || !strings.HasPrefix(b, "30") {
			t.Fatalf("unexpected barcode %q", b)
		}
		seen[b] = true
	}
	if len(seen) < 2 {
		t.Fatalf("expected barcodes to vary across calls")
	}
}

func TestGenerateQRCodeRoundTrip(t *testing.T) {
	g := fixedGenerator(1_760_000_000_000, "000")
	for _, w := range []string{"Aviation", "Mechanical", "Electrical"} {
		payload := g.GenerateQRCode(w)
		if !strings.Contains(payload, w) {
			t.Fatalf("payload %q does not contain %q", payload, w)
		}
		decoded, err := ParseQRCode(payload)
		if err != nil {
			t.Fatalf("ParseQRCode(%q): %v", payload, err)
		}
		if decoded.Workshop != w {
			t.Fatalf("workshop = %q, want %q", decoded.Workshop, w)
		}
		if decoded.CreatedAt.UnixMilli() != 1_760_000_000_000 {
			t.Fatalf("created at = %v", decoded.CreatedAt)
		}
	}
}

func TestDefaultGenerateQRCodeContainsWorkshop(t *testing.T) {
	p := GenerateQRCode("Mechanical")
	if !strings.HasPrefix(p, "QR|Mechanical|") {
		t.Fatalf("unexpected payload %q", p)
	}
}

func TestParseQRCodeRejectsGarbage(t *testing.T) {
	for _, p := range []string{"", "QR-AVT-001", "XX|Aviation|1", "QR|Aviation|soon", "QR|a|b|c"} {
		if _, err := ParseQRCode(p); !errors.Is(err, ErrMalformedQR) {
			t.Fatalf("ParseQRCode(%q) err = %v, want ErrMalformedQR", p, err)
		}
	}
}
