package transform

import (
	"fmt"
	"hash/crc32"
	"math/bits"

	"github.com/google/uuid"
)

// stableUUID generates a deterministic UUID-formatted string from a
// byte seed and index. The first segment derives from a CRC-32 of the
// seed XORed with the index; the trailing segment encodes the 1-based
// index. Middle segments stay zero since only uniqueness within a
// single config file is needed, not RFC 4122 compliance.
func stableUUID(seed []byte, idx int) string {
	return fmt.Sprintf("%08x-%04x-%04x-%04x-%012x",
		crc32.ChecksumIEEE(seed)^uint32(idx), 0, 0, 0, uint64(idx)+1)
}

// mixedUUID derives a v4-formatted UUID by mixing seed bytes into a
// 16-byte accumulator with position-dependent rotation, then folding
// in the index so identical seeds at different positions stay
// distinct. Content-addressed rather than random, which keeps repeated
// conversions byte-identical.
func mixedUUID(seed []byte, idx int) string {
	var b [16]byte
	for i, c := range seed {
		b[i%16] = bits.RotateLeft8(b[i%16]+c, i%7)
	}
	for j := range b {
		b[j] += bits.RotateLeft8(byte(idx+j), idx%5)
	}
	b[6] = (b[6] & 0x0f) | 0x40 // version 4
	b[8] = (b[8] & 0x3f) | 0x80 // RFC 4122 variant
	return uuid.UUID(b).String()
}
