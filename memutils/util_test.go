package memutils_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/compact/memutils"
)

func TestCheckPow2(t *testing.T) {
	for _, value := range []uint{1, 2, 4, 8, 1 << 20} {
		require.NoError(t, memutils.CheckPow2(value, "value"))
	}

	for _, value := range []uint{0, 3, 6, 12, 1<<20 + 1} {
		err := memutils.CheckPow2(value, "value")
		require.ErrorIs(t, err, memutils.PowerOfTwoError)
	}

	require.NoError(t, memutils.CheckPow2(uintptr(16), "alignment"))
}

func TestAlignUp(t *testing.T) {
	testCases := map[string]struct {
		Value     int
		Alignment uint
		Expected  int
	}{
		"Zero":       {Value: 0, Alignment: 8, Expected: 0},
		"Aligned":    {Value: 16, Alignment: 8, Expected: 16},
		"OneOver":    {Value: 17, Alignment: 8, Expected: 24},
		"OneUnder":   {Value: 15, Alignment: 8, Expected: 16},
		"ByOne":      {Value: 13, Alignment: 1, Expected: 13},
		"HeaderPad":  {Value: 2, Alignment: 8, Expected: 8},
		"LargeAlign": {Value: 100, Alignment: 64, Expected: 128},
	}

	for name, testCase := range testCases {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, testCase.Expected, memutils.AlignUp(testCase.Value, testCase.Alignment))
		})
	}
}

func TestCheckedMul(t *testing.T) {
	product, err := memutils.CheckedMul(1000, 1000)
	require.NoError(t, err)
	require.Equal(t, 1_000_000, product)

	product, err = memutils.CheckedMul(0, math.MaxInt)
	require.NoError(t, err)
	require.Equal(t, 0, product)

	product, err = memutils.CheckedMul(math.MaxInt, 1)
	require.NoError(t, err)
	require.Equal(t, math.MaxInt, product)

	_, err = memutils.CheckedMul(math.MaxInt/2+1, 2)
	require.ErrorIs(t, err, memutils.OverflowError)

	_, err = memutils.CheckedMul(-1, 2)
	require.ErrorIs(t, err, memutils.OverflowError)
}

func TestCheckedAdd(t *testing.T) {
	sum, err := memutils.CheckedAdd(math.MaxInt-5, 5)
	require.NoError(t, err)
	require.Equal(t, math.MaxInt, sum)

	_, err = memutils.CheckedAdd(math.MaxInt-5, 6)
	require.ErrorIs(t, err, memutils.OverflowError)

	_, err = memutils.CheckedAdd(3, -1)
	require.ErrorIs(t, err, memutils.OverflowError)
}
