package bloomgo

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasher_PositionsInRange(t *testing.T) {
	h := newHasher(10, 144)

	for i := 0; i < 100; i++ {
		key := []byte(fmt.Sprintf("key-%d", i))

		var n uint64
		for pos := range h.positions(key) {
			assert.Less(t, pos, uint64(144))
			n++
		}
		assert.Equal(t, uint64(10), n, "one position per slice")
	}
}

func TestHasher_Deterministic(t *testing.T) {
	h1 := newHasher(10, 144)
	h2 := newHasher(10, 144)

	key := []byte("determinism")

	var first []uint64
	for pos := range h1.positions(key) {
		first = append(first, pos)
	}

	var second []uint64
	for pos := range h1.positions(key) {
		second = append(second, pos)
	}
	assert.Equal(t, first, second, "same hasher must be restartable")

	var other []uint64
	for pos := range h2.positions(key) {
		other = append(other, pos)
	}
	assert.Equal(t, first, other, "equally parameterized hashers must agree")
}

func TestHasher_KeysDiffer(t *testing.T) {
	h := newHasher(10, 144)

	collect := func(key string) []uint64 {
		var out []uint64
		for pos := range h.positions([]byte(key)) {
			out = append(out, pos)
		}
		return out
	}

	assert.NotEqual(t, collect("alpha"), collect("beta"))
}

func TestHasher_ChunkAndDigestSelection(t *testing.T) {
	tests := []struct {
		name          string
		numSlices     uint64
		bitsPerSlice  uint64
		wantChunkSize int
		wantDigestLen int
	}{
		// 8 slices x 2 bytes = 128 bits -> MD5
		{"SmallMD5", 8, 144, 2, md5.Size},
		// 10 slices x 2 bytes = 160 bits -> SHA-1
		{"MediumSHA1", 10, 144, 2, sha1.Size},
		// 10 slices x 4 bytes = 320 bits -> SHA-384
		{"WideSlicesSHA384", 10, 1 << 16, 4, sha512.Size384},
		// 14 slices x 2 bytes = 224 bits -> SHA-256
		{"ManySlicesSHA256", 14, 100, 2, sha256.Size},
		// 20 slices x 4 bytes = 640 bits -> SHA-512
		{"LargeSHA512", 20, 1 << 20, 4, sha512.Size},
		// Huge slices force 8-byte chunks: 4 x 8 bytes = 256 bits -> SHA-256
		{"HugeSlices", 4, 1 << 32, 8, sha256.Size},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHasher(tt.numSlices, tt.bitsPerSlice)
			assert.Equal(t, tt.wantChunkSize, h.chunkSize)
			assert.Equal(t, tt.wantDigestLen, h.newDigest().Size())
		})
	}
}

func TestHasher_SaltsDistinct(t *testing.T) {
	// 64 slices of 2-byte chunks need multiple salted digests
	h := newHasher(64, 1000)
	require.Greater(t, len(h.salts), 1)

	seen := make(map[string]bool)
	for _, salt := range h.salts {
		require.False(t, seen[string(salt)], "salts must be pairwise distinct")
		seen[string(salt)] = true
	}
}
