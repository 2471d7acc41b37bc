//go:build debug_mem_utils

package memutils

import (
	"encoding/binary"
	"unsafe"

	"github.com/cockroachdb/errors"
)

const (
	// DebugMargin is the number of bytes of debug data that should be placed after the live region
	// of blocks managed through memutils
	DebugMargin int = 16
	// corruptionDetectionMagicValue is a 4-byte pattern that should be copied into debug data placed
	// after the live region of blocks managed through memutils
	corruptionDetectionMagicValue uint32 = 0x7F84E666
	// DebugEnabled is true when the debug_mem_utils build tag is present. Assertions on hot paths are
	// wrapped in `if DebugEnabled` so their arguments are never evaluated in release builds.
	DebugEnabled = true
)

const magicValueSize = 4

// WriteMagicValue writes an easy-to-identify marker across DebugMargin bytes at the provided pointer and offset.
// The offset does not need to be aligned.
// This method no-ops unless the debug_mem_utils build tag is present.
func WriteMagicValue(data unsafe.Pointer, offset int) {
	dest := unsafe.Slice((*byte)(unsafe.Add(data, offset)), DebugMargin)
	for i := 0; i+magicValueSize <= DebugMargin; i += magicValueSize {
		binary.LittleEndian.PutUint32(dest[i:], corruptionDetectionMagicValue)
	}
}

// ValidateMagicValue verifies that the easy-to-identify marker written by WriteMagicValue is still present.
// It returns true if the value is still present and false otherwise.
// This method no-ops unless the debug_mem_utils build tag is present.
func ValidateMagicValue(data unsafe.Pointer, offset int) bool {
	source := unsafe.Slice((*byte)(unsafe.Add(data, offset)), DebugMargin)
	for i := 0; i+magicValueSize <= DebugMargin; i += magicValueSize {
		if binary.LittleEndian.Uint32(source[i:]) != corruptionDetectionMagicValue {
			return false
		}
	}

	return true
}

// DebugValidate will call Validate on the provided object and panics if any errors are returned. This
// method no-ops unless the debug_mem_utils build tag is present
func DebugValidate(validatable Validatable) {
	err := validatable.Validate()
	if err != nil {
		panic(err)
	}
}

// DebugCheckPow2 will verify that the numerical value passed in is a power of two, and panics if it is not.
// This method no-ops unless the debug_mem_utils build tag is present.
func DebugCheckPow2[T Number](value T, name string) {
	err := CheckPow2[T](value, name)
	if err != nil {
		panic(err)
	}
}

// DebugAssert panics with an assertion failure built from format and args when condition is false.
// This method no-ops unless the debug_mem_utils build tag is present, so callers must treat the
// checked condition as a contract rather than a recoverable error.
func DebugAssert(condition bool, format string, args ...any) {
	if !condition {
		panic(errors.AssertionFailedf(format, args...))
	}
}
