package common

import "fmt"

// AddInt64 adds two signed 64-bit integers with overflow checking.
// Returns an OverflowError when the mathematical sum does not fit.
func AddInt64(a, b int64) (int64, error) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, NewOverflowError(fmt.Sprintf("integer overflow adding %d and %d", a, b))
	}
	return sum, nil
}

// SubInt64 subtracts b from a with overflow checking.
func SubInt64(a, b int64) (int64, error) {
	diff := a - b
	if (b > 0 && diff > a) || (b < 0 && diff < a) {
		return 0, NewOverflowError(fmt.Sprintf("integer overflow subtracting %d from %d", b, a))
	}
	return diff, nil
}
