package indy

import (
	"github.com/findy-network/findy-wrapper-go/ledger"
	"github.com/findy-network/findy-wrapper-go/pool"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// Ledger implements ssi.Ledger for the read operations the holder needs.
type Ledger struct{}

func (Ledger) ReadSchema(poolH int, submitterDID, id string) (data string, err error) {
	defer err2.Handle(&err, "read schema")

	_, data, err = ledger.ReadSchema(poolH, submitterDID, id)
	try.To(providerErr(err))
	return data, nil
}

func (Ledger) ReadCredDef(poolH int, submitterDID, id string) (data string, err error) {
	defer err2.Handle(&err, "read cred def")

	_, data, err = ledger.ReadCredDef(poolH, submitterDID, id)
	try.To(providerErr(err))
	return data, nil
}

func (Ledger) ReadRevRegDef(int, string, string) (string, error) {
	return "", ErrRevocationNotSupported
}

func (Ledger) ReadRevRegDelta(int, string, string, int64, int64) (string, int64, error) {
	return "", 0, ErrRevocationNotSupported
}

func (Ledger) ReadRevReg(int, string, string, int64) (string, int64, error) {
	return "", 0, ErrRevocationNotSupported
}

// Pool implements ssi.Pool.
type Pool struct{}

func (Pool) CreateConfig(name, genesisPath string) (err error) {
	defer err2.Handle(&err, "create pool config")

	r := <-pool.CreateConfig(name, pool.Config{GenesisTxn: genesisPath})
	try.To(providerErr(r.Err()))
	return nil
}

func (Pool) Open(name string) (handle int, err error) {
	defer err2.Handle(&err, "open pool")

	r := <-pool.OpenLedger(name)
	try.To(providerErr(r.Err()))
	return r.Handle(), nil
}

func (Pool) Close(handle int) (err error) {
	defer err2.Handle(&err, "close pool")

	r := <-pool.CloseLedger(handle)
	try.To(providerErr(r.Err()))
	return nil
}
