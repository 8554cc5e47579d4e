package chaincfg

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
)

// Display-only currency unit defaults. Neither flag changes storage or
// consensus semantics, only how amounts are rendered.
const (
	DefaultECash = false
	DefaultXEC   = false
)

// satoshisPerXEC is the base-unit ratio of the XEC display denomination.
const satoshisPerXEC = 100

// FormatAmount renders a satoshi amount in the configured display unit.
func FormatAmount(satoshis int64, ecash bool) string {
	if ecash {
		return fmt.Sprintf("%d.%02d XEC", satoshis/satoshisPerXEC, satoshis%satoshisPerXEC)
	}
	return btcutil.Amount(satoshis).String()
}
