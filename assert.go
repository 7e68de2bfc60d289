package lpphot

import (
	"math"
	"testing"
)

// assertBytesEqual checks if two byte slices are equal.
func assertBytesEqual(t *testing.T, expected, actual []byte) {
	t.Helper()
	if len(expected) != len(actual) {
		t.Errorf("Expected length %d, but got %d (% X vs % X)", len(expected), len(actual), expected, actual)
		return
	}
	for i := range expected {
		if expected[i] != actual[i] {
			t.Errorf("Expected % X, but got % X", expected, actual)
			return
		}
	}
}

// assertFloatEqual checks two float64 values with a small tolerance.
func assertFloatEqual(t *testing.T, expected, actual float64) {
	t.Helper()
	if math.Abs(expected-actual) > 0.0001 {
		t.Errorf("Expected %v, but got %v", expected, actual)
	}
}
