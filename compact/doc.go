// Package compact provides Vector, a growable contiguous array that is a single pointer wide.
//
// A conventional Go slice header is three words: a data pointer, a length and a capacity. A Vector
// keeps only the data pointer and stores its size and capacity in a small header at the front of
// the same allocation, directly before the first element:
//
//	[ capacity | size ][ e0 | e1 | ... | e(capacity-1) ]
//	                   ^
//	                   Vector
//
// This halves the footprint of every instance, which matters when millions of mostly-small arrays
// are embedded in other structures. The price is that size and capacity cost an extra indirection,
// and that storage is managed explicitly through a memory.Allocator and must be Released.
//
// Elements are restricted to Relocatable types so that relocation is a raw byte copy and blocks
// may live outside the Go heap.
package compact
