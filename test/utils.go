package test

import (
	"math/rand"
)

var (
	// TestKeys - test data
	TestKeys [][]byte = [][]byte{[]byte("Key1"), []byte("Key2"), []byte("Key3"), []byte("Key4"), []byte("Key5")}

	// TestValues - test data
	TestValues [][]byte = [][]byte{[]byte("Value1"), []byte("Value2"), []byte("Value3"), []byte("Value4"), []byte("Value5")}
)

// NewRand returns a deterministic generator so byte-level test corpora
// are reproducible across runs.
func NewRand() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

// RandomBytes returns n random bytes drawn from r.
func RandomBytes(r *rand.Rand, n int) []byte {
	b := make([]byte, n)
	r.Read(b)
	return b
}
