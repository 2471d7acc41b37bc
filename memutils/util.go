package memutils

import (
	"math"

	"github.com/cockroachdb/errors"
)

type Number interface {
	~int | ~uint | ~uintptr
}

func CheckPow2[T Number](number T, name string) error {
	if number == 0 || number&(number-1) != 0 {
		return errors.Wrapf(PowerOfTwoError, "%s is %d", name, number)
	}
	return nil
}

func AlignUp(value int, alignment uint) int {
	return (value + int(alignment) - 1) & int(^(alignment - 1))
}

// CheckedMul multiplies two non-negative ints, failing with OverflowError instead of wrapping
func CheckedMul(a, b int) (int, error) {
	if a < 0 || b < 0 {
		return 0, errors.Wrapf(OverflowError, "%d * %d has a negative operand", a, b)
	}
	if a != 0 && b > math.MaxInt/a {
		return 0, errors.Wrapf(OverflowError, "%d * %d", a, b)
	}
	return a * b, nil
}

// CheckedAdd adds two non-negative ints, failing with OverflowError instead of wrapping
func CheckedAdd(a, b int) (int, error) {
	if a < 0 || b < 0 {
		return 0, errors.Wrapf(OverflowError, "%d + %d has a negative operand", a, b)
	}
	if a > math.MaxInt-b {
		return 0, errors.Wrapf(OverflowError, "%d + %d", a, b)
	}
	return a + b, nil
}
