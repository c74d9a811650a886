package codegen

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/zaqqye/toolcrib/internal/utils"
)

const (
	// BarcodeLength is the total number of digits in a generated barcode.
	BarcodeLength = 12

	barcodeTimeDigits   = 7
	barcodeRandomDigits = 3
	barcodeTimeModulo   = 10_000_000

	// QRTag is the fixed leading tag of every QR payload.
	QRTag       = "QR"
	qrDelimiter = "|"
)

// ErrMalformedQR is returned by ParseQRCode for payloads it did not produce.
var ErrMalformedQR = errors.New("malformed qr payload")

var barcodeWorkshopCodes = map[string]string{
	"Aviation":   "10",
	"Mechanical": "20",
	"Electrical": "30",
}

const defaultBarcodeWorkshopCode = "90"

// Generator produces barcode strings and QR payloads from a clock and a
// random digit source. The zero value is not usable; see NewGenerator.
type Generator struct {
	Now    func() time.Time
	Digits func(n int) string
}

// NewGenerator returns a Generator backed by the wall clock and crypto/rand.
func NewGenerator() *Generator {
	return &Generator{Now: time.Now, Digits: randomDigits}
}

var defaultGenerator = NewGenerator()

func randomDigits(n int) string {
	s, err := utils.RandomDigits(n)
	if err == nil {
		return s
	}
	// math/rand fallback; uniqueness is enforced by the database
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte(byte('0' + rand.Intn(10)))
	}
	return b.String()
}

// GenerateBarcode returns a 12-digit barcode: two workshop digits, seven
// digits of the millisecond clock and three random digits. Collisions are
// unlikely but possible, so persisted barcodes need a unique constraint.
func (g *Generator) GenerateBarcode(workshop string) string {
	code, ok := barcodeWorkshopCodes[workshop]
	if !ok {
		code = defaultBarcodeWorkshopCode
	}
	ms := g.Now().UnixMilli() % barcodeTimeModulo
	if ms < 0 {
		ms = -ms
	}
	return fmt.Sprintf("%s%0*d%s", code, barcodeTimeDigits, ms, fixedDigits(g.Digits(barcodeRandomDigits), barcodeRandomDigits))
}

// GenerateQRCode returns "QR|<workshop>|<unix millis>".
func (g *Generator) GenerateQRCode(workshop string) string {
	return strings.Join([]string{QRTag, workshop, strconv.FormatInt(g.Now().UnixMilli(), 10)}, qrDelimiter)
}

// GenerateBarcode uses the default wall-clock generator.
func GenerateBarcode(workshop string) string {
	return defaultGenerator.GenerateBarcode(workshop)
}

// GenerateQRCode uses the default wall-clock generator.
func GenerateQRCode(workshop string) string {
	return defaultGenerator.GenerateQRCode(workshop)
}

// QRPayload is the decoded form of a QR payload string.
type QRPayload struct {
	Workshop  string
	CreatedAt time.Time
}

// ParseQRCode decodes a payload produced by GenerateQRCode.
func ParseQRCode(payload string) (QRPayload, error) {
	parts := strings.Split(payload, qrDelimiter)
	if len(parts) != 3 || parts[0] != QRTag {
		return QRPayload{}, ErrMalformedQR
	}
	ms, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return QRPayload{}, fmt.Errorf("%w: bad timestamp %q", ErrMalformedQR, parts[2])
	}
	return QRPayload{Workshop: parts[1], CreatedAt: time.UnixMilli(ms).UTC()}, nil
}

// fixedDigits forces s to exactly n digits, padding with zeros or truncating,
// so a misbehaving digit source cannot change the barcode length.
func fixedDigits(s string, n int) string {
	var b strings.Builder
	for _, r := range s {
		if b.Len() == n {
			break
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	for b.Len() < n {
		b.WriteByte('0')
	}
	return b.String()
}
