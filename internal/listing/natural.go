package listing

import (
	"strings"

	"golang.org/x/text/cases"
)

var folder = cases.Fold()

// NaturalCompare orders strings the way people read file names: the names
// are split into digit and non-digit chunks, digit chunks compare by
// numeric value and the rest case-insensitively. The result is -1, 0 or +1.
func NaturalCompare(a, b string) int {
	fa, fb := folder.String(a), folder.String(b)
	i, j := 0, 0
	for i < len(fa) && j < len(fb) {
		ea, eb := chunkEnd(fa, i), chunkEnd(fb, j)
		ca, cb := fa[i:ea], fb[j:eb]
		var c int
		if isDigit(ca[0]) && isDigit(cb[0]) {
			c = compareNumbers(ca, cb)
		} else {
			c = strings.Compare(ca, cb)
		}
		if c != 0 {
			return c
		}
		i, j = ea, eb
	}
	switch {
	case len(fa)-i < len(fb)-j:
		return -1
	case len(fa)-i > len(fb)-j:
		return 1
	}
	// equal under folding: raw bytes keep the order total
	return strings.Compare(a, b)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// chunkEnd returns the end of the digit or non-digit run starting at i.
func chunkEnd(s string, i int) int {
	digit := isDigit(s[i])
	for i < len(s) && isDigit(s[i]) == digit {
		i++
	}
	return i
}

// compareNumbers compares two digit strings by value without overflow.
func compareNumbers(a, b string) int {
	ta := strings.TrimLeft(a, "0")
	tb := strings.TrimLeft(b, "0")
	switch {
	case len(ta) < len(tb):
		return -1
	case len(ta) > len(tb):
		return 1
	}
	if c := strings.Compare(ta, tb); c != 0 {
		return c
	}
	// same value: fewer leading zeros first
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}
