package edge

import (
	"github.com/ayanworks/arnima-agent-go/indy"
	"github.com/hyperledger/aries-framework-go/spi/storage"
)

// IndyProviders binds the libindy wrapper as the wallet/crypto provider.
// The record store stays pluggable; mobile embedders bring their own.
func IndyProviders(store storage.Provider) Providers {
	return Providers{
		Storage:   store,
		Crypto:    indy.Crypto{},
		Wallet:    indy.Wallet{},
		Anoncreds: indy.Anoncreds{},
		Ledger:    indy.Ledger{},
		Pool:      indy.Pool{},
	}
}
