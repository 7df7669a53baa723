package storage

import (
	"bytes"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/meverselabs/coinnet/common/bin"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	lvstorage "github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// storage errors
var (
	ErrNotExistAddress = errors.New("not exist address")
	ErrClosedAddrBook  = errors.New("closed address book")
)

var addrPrefix = []byte("addr:")

// AddrEntry is a known address of the network
type AddrEntry struct {
	Address  string
	Services uint64
	LastSeen int64
	Good     bool
}

// WriteTo is a serialization function
func (e *AddrEntry) WriteTo(w io.Writer) (int64, error) {
	sw := bin.NewSumWriter()
	if sum, err := sw.VarString(w, e.Address); err != nil {
		return sum, err
	}
	if sum, err := sw.Uint64(w, e.Services); err != nil {
		return sum, err
	}
	if sum, err := sw.Int64(w, e.LastSeen); err != nil {
		return sum, err
	}
	if sum, err := sw.Bool(w, e.Good); err != nil {
		return sum, err
	}
	return sw.Sum(), nil
}

// ReadFrom is a deserialization function
func (e *AddrEntry) ReadFrom(r io.Reader) (int64, error) {
	sr := bin.NewSumReader()
	if sum, err := sr.VarString(r, &e.Address); err != nil {
		return sum, err
	}
	if sum, err := sr.Uint64(r, &e.Services); err != nil {
		return sum, err
	}
	if sum, err := sr.Int64(r, &e.LastSeen); err != nil {
		return sum, err
	}
	if sum, err := sr.Bool(r, &e.Good); err != nil {
		return sum, err
	}
	return sr.Sum(), nil
}

// AddrBook persists the known addresses in a leveldb
type AddrBook struct {
	sync.Mutex
	db *leveldb.DB
}

// NewAddrBook opens the address book at the path. An empty path keeps it in memory.
func NewAddrBook(path string) (*AddrBook, error) {
	var db *leveldb.DB
	var err error
	if len(path) == 0 {
		db, err = leveldb.Open(lvstorage.NewMemStorage(), nil)
	} else {
		db, err = leveldb.OpenFile(path, nil)
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &AddrBook{
		db: db,
	}, nil
}

func addrKey(addr string) []byte {
	return append(append([]byte{}, addrPrefix...), addr...)
}

func (ab *AddrBook) load(addr string) (*AddrEntry, error) {
	if ab.db == nil {
		return nil, errors.WithStack(ErrClosedAddrBook)
	}
	value, err := ab.db.Get(addrKey(addr), nil)
	if err == leveldb.ErrNotFound {
		return nil, errors.WithStack(ErrNotExistAddress)
	} else if err != nil {
		return nil, errors.WithStack(err)
	}
	e := &AddrEntry{}
	if _, err := bin.ReadFromBytes(e, value); err != nil {
		return nil, err
	}
	return e, nil
}

func (ab *AddrBook) store(e *AddrEntry) error {
	if ab.db == nil {
		return errors.WithStack(ErrClosedAddrBook)
	}
	var buffer bytes.Buffer
	if _, err := e.WriteTo(&buffer); err != nil {
		return err
	}
	if err := ab.db.Put(addrKey(e.Address), buffer.Bytes(), nil); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// Put adds the address or refreshes its last seen time. It returns true for a new address.
func (ab *AddrBook) Put(addr string, services uint64, lastSeen time.Time) (bool, error) {
	ab.Lock()
	defer ab.Unlock()

	e, err := ab.load(addr)
	isNew := false
	if errors.Cause(err) == ErrNotExistAddress {
		e = &AddrEntry{Address: addr}
		isNew = true
	} else if err != nil {
		return false, err
	}
	e.Services = services
	if ts := lastSeen.Unix(); ts > e.LastSeen {
		e.LastSeen = ts
	}
	if err := ab.store(e); err != nil {
		return false, err
	}
	return isNew, nil
}

// MarkGood records a completed handshake with the address
func (ab *AddrBook) MarkGood(addr string, at time.Time) error {
	ab.Lock()
	defer ab.Unlock()

	e, err := ab.load(addr)
	if errors.Cause(err) == ErrNotExistAddress {
		e = &AddrEntry{Address: addr}
	} else if err != nil {
		return err
	}
	e.Good = true
	if ts := at.Unix(); ts > e.LastSeen {
		e.LastSeen = ts
	}
	return ab.store(e)
}

// Get returns the entry of the address
func (ab *AddrBook) Get(addr string) (*AddrEntry, error) {
	ab.Lock()
	defer ab.Unlock()

	return ab.load(addr)
}

// Delete removes the address
func (ab *AddrBook) Delete(addr string) error {
	ab.Lock()
	defer ab.Unlock()

	if ab.db == nil {
		return errors.WithStack(ErrClosedAddrBook)
	}
	if err := ab.db.Delete(addrKey(addr), nil); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// List returns at most max entries, good addresses first and then the most recently seen
func (ab *AddrBook) List(max int) ([]*AddrEntry, error) {
	ab.Lock()
	defer ab.Unlock()

	if ab.db == nil {
		return nil, errors.WithStack(ErrClosedAddrBook)
	}
	list := []*AddrEntry{}
	iter := ab.db.NewIterator(util.BytesPrefix(addrPrefix), nil)
	for iter.Next() {
		e := &AddrEntry{}
		if _, err := bin.ReadFromBytes(e, iter.Value()); err != nil {
			iter.Release()
			return nil, err
		}
		list = append(list, e)
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return nil, errors.WithStack(err)
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Good != list[j].Good {
			return list[i].Good
		}
		if list[i].LastSeen != list[j].LastSeen {
			return list[i].LastSeen > list[j].LastSeen
		}
		return list[i].Address < list[j].Address
	})
	if max > 0 && len(list) > max {
		list = list[:max]
	}
	return list, nil
}

// Close closes the leveldb
func (ab *AddrBook) Close() error {
	ab.Lock()
	defer ab.Unlock()

	if ab.db == nil {
		return nil
	}
	err := ab.db.Close()
	ab.db = nil
	return errors.WithStack(err)
}
