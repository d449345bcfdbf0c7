package ledger

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"time"

	"kanakku/internal/core"
)

// Fingerprint returns a SHA256 digest of the transaction set's content. Equal
// sets in equal order share a fingerprint. Any edit, reordering, addition or
// removal changes it, as does moving a date into another zone offset.
func Fingerprint(txns []core.Transaction) string {
	h := sha256.New()
	var buf [8]byte

	writeString := func(s string) {
		binary.BigEndian.PutUint64(buf[:], uint64(len(s)))
		h.Write(buf[:])
		h.Write([]byte(s))
	}

	// The binary form keeps the zone offset and covers the full time range.
	writeDate := func(d time.Time) {
		b, err := d.MarshalBinary()
		if err != nil {
			b, _ = d.UTC().MarshalBinary()
		}
		writeString(string(b))
	}

	binary.BigEndian.PutUint64(buf[:], uint64(len(txns)))
	h.Write(buf[:])
	for _, t := range txns {
		writeString(t.ID)
		writeDate(t.Date)
		writeString(string(t.Type))
		writeString(t.Amount.String())
		writeString(t.Category)
		writeString(t.Description)
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
