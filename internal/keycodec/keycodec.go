// Package keycodec builds the composite row keys used by the games table.
//
// A key is a sequence of decimal ids, each left-padded with '0' to a fixed
// width and joined with ':'. Uniform width makes lexicographic byte order
// agree with numeric order, so a prefix scan on "<tourney>:" yields exactly
// one tournament in game order and a range scan between two tournaments'
// zero-game keys yields whole tournaments, contiguously.
//
// Ids wider than the configured width are rejected, never truncated.
package keycodec

import (
	"errors"
	"fmt"
	"strings"
)

// Width is the padded width of every id component.
const Width = 10

// Delimiter separates key components. It never appears inside an id.
const Delimiter = ":"

var (
	// ErrIDTooWide is returned when an id has more digits than its width.
	ErrIDTooWide = errors.New("id exceeds padded width")

	// ErrNotNumeric is returned when an id contains anything but ASCII digits.
	ErrNotNumeric = errors.New("id is not numeric")

	// ErrMalformedKey is returned by Decode for keys with the wrong shape.
	ErrMalformedKey = errors.New("malformed key")
)

var zeroGame = strings.Repeat("0", Width)

// Pad left-pads id with '0' to width.
func Pad(id string, width int) (string, error) {
	if id == "" {
		return "", fmt.Errorf("empty id: %w", ErrNotNumeric)
	}
	for i := 0; i < len(id); i++ {
		if id[i] < '0' || id[i] > '9' {
			return "", fmt.Errorf("id %q: %w", id, ErrNotNumeric)
		}
	}
	if len(id) > width {
		return "", fmt.Errorf("id %q has %d digits, width is %d: %w", id, len(id), width, ErrIDTooWide)
	}
	return strings.Repeat("0", width-len(id)) + id, nil
}

// Encode pads each field to the matching width and joins the results.
// fields and widths must have equal length.
func Encode(fields []string, widths []int) (string, error) {
	if len(fields) != len(widths) {
		return "", fmt.Errorf("encode: %d fields but %d widths", len(fields), len(widths))
	}
	parts := make([]string, len(fields))
	for i, f := range fields {
		p, err := Pad(f, widths[i])
		if err != nil {
			return "", fmt.Errorf("encode field %d: %w", i, err)
		}
		parts[i] = p
	}
	return strings.Join(parts, Delimiter), nil
}

// Decode splits key into n components and strips their padding.
// An all-zero component decodes to "0".
func Decode(key string, n int) ([]string, error) {
	parts := strings.Split(key, Delimiter)
	if len(parts) != n {
		return nil, fmt.Errorf("key %q has %d components, want %d: %w", key, len(parts), n, ErrMalformedKey)
	}
	for i, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("key %q component %d is empty: %w", key, i, ErrMalformedKey)
		}
		trimmed := strings.TrimLeft(p, "0")
		if trimmed == "" {
			trimmed = "0"
		}
		parts[i] = trimmed
	}
	return parts, nil
}

// GameKey returns the row key of one game: padded tourney id, ':', padded game id.
func GameKey(tourneyID, gameID string) (string, error) {
	return Encode([]string{tourneyID, gameID}, []int{Width, Width})
}

// PrefixFor returns the key prefix shared by every game of a tournament.
func PrefixFor(tourneyID string) (string, error) {
	k, err := Encode([]string{tourneyID}, []int{Width})
	if err != nil {
		return "", err
	}
	return k + Delimiter, nil
}

// RangeBounds returns the zero-game keys of two tournaments. The range is
// half-open, so games of last are not covered by [start, end).
func RangeBounds(first, last string) (start, end string, err error) {
	start, err = PrefixFor(first)
	if err != nil {
		return "", "", fmt.Errorf("first tourney: %w", err)
	}
	end, err = PrefixFor(last)
	if err != nil {
		return "", "", fmt.Errorf("last tourney: %w", err)
	}
	return start + zeroGame, end + zeroGame, nil
}

// TourneyOf extracts the unpadded tourney id from a game key.
func TourneyOf(key string) (string, error) {
	parts, err := Decode(key, 2)
	if err != nil {
		return "", err
	}
	return parts[0], nil
}
