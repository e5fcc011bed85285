// Package ref generates ledger references. A reference doubles as the
// idempotency key the gateway echoes back in webhooks, so it must be unique
// and lexicographically sortable for reconciliation; ULIDs give both.
package ref

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	PrefixDeposit    = "dep"
	PrefixWithdrawal = "wd"
	PrefixBooking    = "bk"
	PrefixPayout     = "po"
	PrefixFinal      = "final"
	PrefixTip        = "tip"
	PrefixRefund     = "rfd"
	PrefixReferral   = "ref"
)

// New returns "<prefix>_<ulid>".
func New(prefix string) string {
	id := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader)
	return fmt.Sprintf("%s_%s", prefix, id.String())
}
