package geosite

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/kerneld-io/kerneld/internal/kerrors"
)

var overlayBucket = []byte("geosite_overlay")

// overlay records a tag's user edits on top of the parsed base database:
// domains added that the base list doesn't carry, and base domains the
// user has suppressed.
type overlay struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

// Store serves matcher lookups for "geosite:<tag>" targets, combining an
// in-memory base database (parsed once at startup) with a bbolt-persisted,
// user-editable overlay, using the same JSON-in-bucket storage shape bbolt
// callers commonly use for small mutable records.
type Store struct {
	db   *bolt.DB
	base map[string][]string
}

// Open opens (creating if needed) the overlay database at path and indexes
// list's sites by lowercased country code into the in-memory base map.
func Open(path string, list *SiteGroupList) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, kerrors.Wrap(err, "geosite: opening store %s", path)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(overlayBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, kerrors.Wrap(err, "geosite: initializing overlay bucket")
	}

	base := make(map[string][]string)
	if list != nil {
		for _, site := range list.Sites {
			tag := strings.ToLower(site.CountryCode)
			for _, d := range site.Domains {
				base[tag] = append(base[tag], d.Value)
			}
		}
	}
	return &Store{db: db, base: base}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Lookup resolves tag into the union of the base database's entries and
// the overlay's additions, minus the overlay's removals. Its signature
// matches proxy.GeositeLookup so a Store can be passed straight into
// CompileMatcher.
func (s *Store) Lookup(tag string) ([]string, error) {
	tag = strings.ToLower(tag)
	ov, err := s.readOverlay(tag)
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{})
	for _, d := range s.base[tag] {
		set[d] = struct{}{}
	}
	for _, d := range ov.Added {
		set[d] = struct{}{}
	}
	for _, d := range ov.Removed {
		delete(set, d)
	}

	out := make([]string, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sort.Strings(out)
	return out, nil
}

// AddTarget adds domain to tag's overlay, undoing any prior removal of it.
func (s *Store) AddTarget(tag, domain string) error {
	return s.update(tag, func(ov *overlay) {
		ov.Added = appendUnique(ov.Added, domain)
		ov.Removed = removeString(ov.Removed, domain)
	})
}

// RemoveTarget suppresses domain from tag, whether it came from the base
// database or a prior AddTarget.
func (s *Store) RemoveTarget(tag, domain string) error {
	return s.update(tag, func(ov *overlay) {
		ov.Removed = appendUnique(ov.Removed, domain)
		ov.Added = removeString(ov.Added, domain)
	})
}

func (s *Store) readOverlay(tag string) (overlay, error) {
	var ov overlay
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(overlayBucket).Get([]byte(tag))
		if v == nil {
			return nil
		}
		return json.Unmarshal(v, &ov)
	})
	if err != nil {
		return overlay{}, kerrors.Wrap(err, "geosite: reading overlay for %q", tag)
	}
	return ov, nil
}

func (s *Store) update(tag string, mutate func(*overlay)) error {
	tag = strings.ToLower(tag)
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(overlayBucket)
		var ov overlay
		if v := b.Get([]byte(tag)); v != nil {
			if err := json.Unmarshal(v, &ov); err != nil {
				return err
			}
		}
		mutate(&ov)
		encoded, err := json.Marshal(ov)
		if err != nil {
			return err
		}
		return b.Put([]byte(tag), encoded)
	})
	if err != nil {
		return kerrors.Wrap(err, "geosite: updating overlay for %q", tag)
	}
	return nil
}

func appendUnique(list []string, v string) []string {
	for _, e := range list {
		if e == v {
			return list
		}
	}
	return append(list, v)
}

func removeString(list []string, v string) []string {
	out := list[:0]
	for _, e := range list {
		if e != v {
			out = append(out, e)
		}
	}
	return out
}
