// Package psm persists the protocol state machine records. Records are
// opaque, tagged key/value entries in the external store; this package owns
// their shape and lifecycle, not their storage mechanism.
package psm

import (
	"encoding/json"
	"errors"

	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// store names
const (
	StoreConnection   = "connections"
	StoreCredential   = "credentials"
	StorePresentation = "presentations"
	StoreTrustPing    = "trustpings"
	StoreInbox        = "inbox"
	StoreMediator     = "mediator"
	StorePool         = "pools"
	StoreProvision    = "provision"
)

// tag names
const (
	TagVerKey        = "verkey"
	TagTheirKey      = "theirKey"
	TagConnection    = "connectionId"
	TagState         = "state"
	TagAutoProcessed = "autoProcessed"
	TagIsProcessed   = "isProcessed"
	TagThread        = "thId"
	TagSelected      = "isSelected"
)

var (
	ErrNotFound           = errors.New("record not found")
	ErrConnectionNotFound = errors.New("connection not found")
)

var storeConfigs = map[string][]string{
	StoreConnection:   {TagVerKey, TagTheirKey, TagState},
	StoreCredential:   {TagConnection, TagState},
	StorePresentation: {TagConnection, TagState},
	StoreTrustPing:    {TagConnection},
	StoreInbox:        {TagAutoProcessed, TagIsProcessed, TagThread},
	StoreMediator:     {},
	StorePool:         {TagSelected},
	StoreProvision:    {},
}

// DB gives typed access to the record stores of one agent.
type DB struct {
	stores map[string]storage.Store
}

// Open opens and configures every record store on the given provider.
func Open(provider storage.Provider) (db *DB, err error) {
	defer err2.Handle(&err, "open record stores")

	db = &DB{stores: make(map[string]storage.Store, len(storeConfigs))}
	for name, tags := range storeConfigs {
		s := try.To1(provider.OpenStore(name))
		if len(tags) > 0 {
			try.To(provider.SetStoreConfig(name,
				storage.StoreConfiguration{TagNames: tags}))
		}
		db.stores[name] = s
	}
	return db, nil
}

func (db *DB) put(store, id string, v interface{}, tags ...storage.Tag) (err error) {
	defer err2.Handle(&err, "store record")

	data := try.To1(json.Marshal(v))
	try.To(db.stores[store].Put(id, data, tags...))
	return nil
}

func (db *DB) get(store, id string, v interface{}) (found bool, err error) {
	defer err2.Handle(&err, "load record")

	data, err := db.stores[store].Get(id)
	if errors.Is(err, storage.ErrDataNotFound) {
		return false, nil
	}
	try.To(err)
	try.To(json.Unmarshal(data, v))
	return true, nil
}

func (db *DB) delete(store, id string) error {
	return db.stores[store].Delete(id)
}

// queryAll feeds every record matching `tag:value` to each, in iterator
// order.
func (db *DB) queryAll(store, tag, value string, each func(id string, data []byte) error) (err error) {
	defer err2.Handle(&err, "query records")

	it := try.To1(db.stores[store].Query(tag + ":" + value))
	defer it.Close()

	for try.To1(it.Next()) {
		id := try.To1(it.Key())
		data := try.To1(it.Value())
		try.To(each(id, data))
	}
	return nil
}

func (db *DB) queryFirst(store, tag, value string, v interface{}) (found bool, err error) {
	defer err2.Handle(&err, "query record")

	it := try.To1(db.stores[store].Query(tag + ":" + value))
	defer it.Close()

	if !try.To1(it.Next()) {
		return false, nil
	}
	data := try.To1(it.Value())
	try.To(json.Unmarshal(data, v))
	return true, nil
}
