// Package qr renders QR codes as half-block unicode art for terminal
// clients.
package qr

import (
	"errors"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// ErrEmptyPayload reports a render request with nothing to encode.
var ErrEmptyPayload = errors.New("qr: payload is empty")

// Half-block cells indexed by (upper<<1 | lower), where a set bit is a lit
// cell. Colors are inverted relative to the bitmap so the code scans on the
// usual light-on-dark terminal.
var blocks = [4]rune{'█', '▄', '▀', ' '}

// Render encodes payload as a QR code drawn with half-block characters,
// two bitmap rows per text line.
func Render(payload string) (string, error) {
	if payload == "" {
		return "", ErrEmptyPayload
	}

	code, err := qrcode.New(payload, qrcode.Medium)
	if err != nil {
		return "", err
	}

	bitmap := code.Bitmap()
	var sb strings.Builder
	for y := 0; y < len(bitmap); y += 2 {
		for x := 0; x < len(bitmap[y]); x++ {
			var cell int
			if bitmap[y][x] {
				cell |= 2
			}
			if y+1 < len(bitmap) && bitmap[y+1][x] {
				cell |= 1
			}
			sb.WriteRune(blocks[cell])
		}
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}
