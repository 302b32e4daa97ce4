// Package store keeps named datasets in a leveldb database, one CBOR record
// per dataset.
package store

import (
	"math/big"
	"os"
	"sort"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	lerrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

const (
	// minCache is the minimum amount of memory in megabytes
	// to allocate to leveldb.
	minCache = 16

	// minHandles is the minimum number of files handles to
	// allocate to the open database files.
	minHandles = 32

	datasetPrefix = "dataset/"
)

var (
	ErrNotFound    = errors.New("store: dataset not found")
	ErrInvalidName = errors.New("store: invalid dataset name")
)

// record is the stored form of a dataset. Elements are decimal strings so
// values of any size survive the round trip.
type record struct {
	Name     string   `cbor:"1,keyasint"`
	Elements []string `cbor:"2,keyasint"`
	Created  int64    `cbor:"3,keyasint"`
}

// Info describes a stored dataset without its elements.
type Info struct {
	Name    string
	Size    int
	Created time.Time
}

type Store struct {
	db *leveldb.DB
}

// Open opens or creates the database at path. memory is the cache size in
// megabytes and handles the number of open files; both have floors.
func Open(path string, memory, handles int) (*Store, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, errors.Wrap(err, "create store directory")
	}
	options := configureOptions(memory, handles)
	db, err := leveldb.OpenFile(path, options)
	if _, corrupted := err.(*lerrors.ErrCorrupted); corrupted {
		db, err = leveldb.RecoverFile(path, nil)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "open store %s", path)
	}
	return &Store{db: db}, nil
}

// OpenStorage opens a store on an existing leveldb storage, such as
// storage.NewMemStorage().
func OpenStorage(stor storage.Storage) (*Store, error) {
	db, err := leveldb.Open(stor, configureOptions(0, 0))
	if err != nil {
		return nil, errors.Wrap(err, "open store")
	}
	return &Store{db: db}, nil
}

func configureOptions(cache int, handles int) *opt.Options {
	options := &opt.Options{
		Filter:                 filter.NewBloomFilter(10),
		DisableSeeksCompaction: true,
	}
	if cache < minCache {
		cache = minCache
	}
	if handles < minHandles {
		handles = minHandles
	}
	options.OpenFilesCacheCapacity = handles
	options.BlockCacheCapacity = cache / 2 * opt.MiB
	options.WriteBuffer = cache / 4 * opt.MiB
	return options
}

func (s *Store) Close() error {
	return s.db.Close()
}

func datasetKey(name string) []byte {
	return []byte(datasetPrefix + name)
}

// PutDataset stores values under name, replacing any previous dataset.
func (s *Store) PutDataset(name string, values []*big.Int) error {
	if name == "" {
		return ErrInvalidName
	}
	rec := record{Name: name, Elements: make([]string, len(values)), Created: time.Now().Unix()}
	for i, v := range values {
		if v == nil {
			return errors.Errorf("store: element %d of %s is nil", i, name)
		}
		rec.Elements[i] = v.String()
	}
	data, err := cbor.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "encode dataset")
	}
	return s.db.Put(datasetKey(name), data, nil)
}

func (s *Store) get(name string) (*record, error) {
	data, err := s.db.Get(datasetKey(name), nil)
	if err == leveldb.ErrNotFound {
		return nil, errors.Wrapf(ErrNotFound, "%q", name)
	}
	if err != nil {
		return nil, err
	}
	var rec record
	if err := cbor.Unmarshal(data, &rec); err != nil {
		return nil, errors.Wrapf(err, "decode dataset %q", name)
	}
	return &rec, nil
}

// GetDataset returns the elements stored under name.
func (s *Store) GetDataset(name string) ([]*big.Int, error) {
	rec, err := s.get(name)
	if err != nil {
		return nil, err
	}
	values := make([]*big.Int, len(rec.Elements))
	for i, e := range rec.Elements {
		v, ok := new(big.Int).SetString(e, 10)
		if !ok {
			return nil, errors.Errorf("store: dataset %q has bad element %q", name, e)
		}
		values[i] = v
	}
	return values, nil
}

// ListDatasets describes every stored dataset, sorted by name.
func (s *Store) ListDatasets() ([]Info, error) {
	iter := s.db.NewIterator(util.BytesPrefix([]byte(datasetPrefix)), nil)
	defer iter.Release()
	var infos []Info
	for iter.Next() {
		var rec record
		if err := cbor.Unmarshal(iter.Value(), &rec); err != nil {
			return nil, errors.Wrapf(err, "decode %s", iter.Key())
		}
		infos = append(infos, Info{Name: rec.Name, Size: len(rec.Elements), Created: time.Unix(rec.Created, 0)})
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// DeleteDataset removes name; a missing dataset is ErrNotFound.
func (s *Store) DeleteDataset(name string) error {
	ok, err := s.db.Has(datasetKey(name), nil)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(ErrNotFound, "%q", name)
	}
	return s.db.Delete(datasetKey(name), nil)
}
