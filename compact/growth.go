package compact

import "github.com/cockroachdb/errors"

// grownCapacity returns the capacity a full vector relocates to when one more element is appended:
// 1.5x the current capacity rounded down, or 2 when the current capacity is 0 or 1, clamped to
// maxCapacity. It fails with ErrCapacityExceeded rather than returning a capacity that would not
// make room for the new element.
func grownCapacity[S Size](current, maxCapacity S) (S, error) {
	var next S = 2

	if current > 1 {
		half := current / 2
		if half > maxCapacity-current {
			next = maxCapacity
		} else {
			next = current + half
		}
	} else if next > maxCapacity {
		next = maxCapacity
	}

	if next <= current {
		return current, errors.Wrapf(ErrCapacityExceeded, "capacity %d is already at the maximum of %d", current, maxCapacity)
	}

	return next, nil
}

// clampCapacity limits a requested capacity to maxCapacity
func clampCapacity[S Size](requested, maxCapacity S) S {
	if requested > maxCapacity {
		return maxCapacity
	}
	return requested
}
