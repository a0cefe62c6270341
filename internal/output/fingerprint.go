package output

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/bimmerbailey/clog/internal/learner"
	"github.com/zeebo/blake3"
)

// fingerprintSize is the number of hash bytes kept in a fingerprint.
const fingerprintSize = 8

// Fingerprint returns a short BLAKE3 digest of a template's structure. Equal
// slot lists give equal fingerprints across runs, so templates can be
// compared between dumps even though their IDs depend on input order.
func Fingerprint(slots []learner.Slot) string {
	hasher := blake3.New()
	var scratch [binary.MaxVarintLen64]byte

	writeLen := func(n int) {
		k := binary.PutUvarint(scratch[:], uint64(n))
		hasher.Write(scratch[:k])
	}

	writeLen(len(slots))
	for _, slot := range slots {
		writeLen(len(slot))
		for _, alt := range slot {
			writeLen(len(alt))
			hasher.Write([]byte(alt))
		}
	}

	sum := hasher.Sum(nil)
	return hex.EncodeToString(sum[:fingerprintSize])
}
