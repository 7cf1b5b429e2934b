package indy

import (
	"fmt"

	"github.com/ayanworks/arnima-agent-go/agent/ssi"
)

var (
	_ ssi.Crypto    = Crypto{}
	_ ssi.Wallet    = Wallet{}
	_ ssi.Anoncreds = Anoncreds{}
	_ ssi.Ledger    = Ledger{}
	_ ssi.Pool      = Pool{}
)

// providerErr tags a failed libindy call so callers can detect the outage
// with errors.Is(err, ssi.ErrProvider).
func providerErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ssi.ErrProvider, err)
}
