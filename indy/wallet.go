package indy

import (
	"github.com/ayanworks/arnima-agent-go/agent/ssi"
	"github.com/findy-network/findy-wrapper-go/anoncreds"
	"github.com/findy-network/findy-wrapper-go/did"
	"github.com/findy-network/findy-wrapper-go/wallet"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

const walletAlreadyExistsError = 203

// Wallet implements ssi.Wallet. Keys use RAW derivation; the caller is
// responsible for generating proper wallet keys.
type Wallet struct{}

func cfgOf(cfg ssi.WalletCfg) (wallet.Config, wallet.Credentials) {
	return wallet.Config{ID: cfg.Name},
		wallet.Credentials{
			Key:                 cfg.Key,
			KeyDerivationMethod: "RAW",
		}
}

func (Wallet) Create(cfg ssi.WalletCfg) (err error) {
	defer err2.Handle(&err, "create wallet")

	wCfg, wCreds := cfgOf(cfg)
	r := <-wallet.Create(wCfg, wCreds)
	if r.Err() != nil && r.ErrCode() == walletAlreadyExistsError {
		return nil
	}
	try.To(providerErr(r.Err()))
	return nil
}

func (Wallet) Open(cfg ssi.WalletCfg) (handle int, err error) {
	defer err2.Handle(&err, "open wallet")

	wCfg, wCreds := cfgOf(cfg)
	r := <-wallet.Open(wCfg, wCreds)
	try.To(providerErr(r.Err()))
	return r.Handle(), nil
}

func (Wallet) Close(handle int) (err error) {
	defer err2.Handle(&err, "close wallet")

	r := <-wallet.Close(handle)
	try.To(providerErr(r.Err()))
	return nil
}

func (Wallet) Export(handle int, path, key string) (err error) {
	defer err2.Handle(&err, "export wallet")

	r := <-wallet.Export(handle, wallet.Credentials{
		Path:                path,
		Key:                 key,
		KeyDerivationMethod: "RAW",
	})
	try.To(providerErr(r.Err()))
	return nil
}

func (Wallet) Import(cfg ssi.WalletCfg, path, key string) (err error) {
	defer err2.Handle(&err, "import wallet")

	wCfg, wCreds := cfgOf(cfg)
	r := <-wallet.Import(wCfg, wCreds, wallet.Credentials{
		Path: path,
		Key:  key,
	})
	try.To(providerErr(r.Err()))
	return nil
}

func (Wallet) CreateDID(handle int, seed string) (d, verKey string, err error) {
	defer err2.Handle(&err, "create DID")

	r := <-did.CreateAndStore(handle, did.Did{Seed: seed})
	try.To(providerErr(r.Err()))
	return r.Str1(), r.Str2(), nil
}

func (Wallet) CreateMasterSecret(handle int, id string) (s string, err error) {
	defer err2.Handle(&err, "create master secret")

	r := <-anoncreds.ProverCreateMasterSecret(handle, id)
	try.To(providerErr(r.Err()))
	return r.Str1(), nil
}
