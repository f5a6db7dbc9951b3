package common

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"
)

// Keccak256 computes the legacy Keccak-256 hash of the given data. This is the
// same primitive the anchoring contract uses, so digests computed here can be
// compared against chain-derived hashes byte for byte.
func Keccak256(data []byte) Hash {
	hash := sha3.NewLegacyKeccak256()
	hash.Write(data)
	h := hash.Sum(nil)
	return BytesToHash(h)
}

// Keccak256Concat hashes the concatenation of the given byte slices without
// materializing the joined buffer.
func Keccak256Concat(parts ...[]byte) Hash {
	hash := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		hash.Write(p)
	}
	return BytesToHash(hash.Sum(nil))
}

func Uint64ToBytes(val uint64) []byte {
	bytes := make([]byte, 8)
	binary.BigEndian.PutUint64(bytes, val)
	return bytes
}

func Uint32ToBytes(val uint32) []byte {
	bytes := make([]byte, 4)
	binary.BigEndian.PutUint32(bytes, val)
	return bytes
}

func BytesToUint64(data []byte) uint64 {
	if len(data) < 8 {
		panic("BytesToUint64: byte slice too short")
	}
	return binary.BigEndian.Uint64(data)
}

func IsNilHash(h Hash) bool {
	return h == Hash{}
}
