//go:build debug_mem_utils

package memutils_test

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/compact/memutils"
)

func TestMagicValue(t *testing.T) {
	buf := make([]byte, 3+memutils.DebugMargin+5)
	data := unsafe.Pointer(&buf[0])

	// unaligned on purpose
	memutils.WriteMagicValue(data, 3)
	require.True(t, memutils.ValidateMagicValue(data, 3))
	require.Zero(t, buf[0])
	require.Zero(t, buf[3+memutils.DebugMargin])

	buf[3+memutils.DebugMargin-1] ^= 0xFF
	require.False(t, memutils.ValidateMagicValue(data, 3))
}

func TestDebugHelpersPanic(t *testing.T) {
	require.True(t, memutils.DebugEnabled)

	require.Panics(t, func() { memutils.DebugValidate(failingValidatable{}) })
	require.Panics(t, func() { memutils.DebugCheckPow2(uint(12), "value") })
	require.Panics(t, func() { memutils.DebugAssert(false, "value %d", 1) })

	require.NotPanics(t, func() { memutils.DebugCheckPow2(uint(16), "value") })
	require.NotPanics(t, func() { memutils.DebugAssert(true, "never") })
}
