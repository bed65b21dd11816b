package event

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewRecordID returns a spool record name unique under rapid repeated
// calls. A nanosecond timestamp alone can collide within one clock tick,
// so a random suffix is always appended.
func NewRecordID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failure is effectively unheard of; fall back to a
		// uuid so the name stays unique rather than merely time-derived.
		return fmt.Sprintf("%d-%s", time.Now().UnixNano(), uuid.NewString())
	}
	return fmt.Sprintf("%d-%s", time.Now().UnixNano(), hex.EncodeToString(b))
}
