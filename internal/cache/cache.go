// Package cache stores compiled SPIR-V modules by content key.
//
// Modules are zstd-compressed files under {dir}/blobs, indexed by an sqlite
// database at {dir}/index.db.
package cache

import (
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"lukechampine.com/blake3"
	_ "modernc.org/sqlite"
	"tlog.app/go/errors"

	"github.com/gogpu/shadergraph/spirv"
)

// Key identifies a compilation: the graph document and the settings it was
// compiled with.
type Key [32]byte

// KeyOf computes the key of graph compiled with s. Settings.Trace does not
// affect the output and is not hashed.
func KeyOf(graph []byte, s spirv.Settings) Key {
	h := blake3.New(32, nil)

	var b []byte
	b = append(b, s.Version.Major, s.Version.Minor, byte(s.Stage))
	if s.Debug {
		b = append(b, 1)
	} else {
		b = append(b, 0)
	}

	for _, w := range []uint32{
		s.WorkgroupSize[0], s.WorkgroupSize[1], s.WorkgroupSize[2],
		s.UniformSet, s.UniformBinding, s.SamplerSet, s.Generator,
	} {
		b = binary.LittleEndian.AppendUint32(b, w)
	}

	_, _ = h.Write(b)
	_, _ = h.Write(graph)

	var k Key
	h.Sum(k[:0])

	return k
}

func (k Key) String() string { return hex.EncodeToString(k[:]) }

// ParseKey parses the hex form printed by String.
func ParseKey(s string) (k Key, err error) {
	if len(s) != hex.EncodedLen(len(k)) {
		return k, errors.New("key: %d hex digits", len(s))
	}

	if _, err = hex.Decode(k[:], []byte(s)); err != nil {
		return k, errors.Wrap(err, "key")
	}

	return k, nil
}

// Cache is safe for concurrent use.
type Cache struct {
	db  *sql.DB
	dir string

	enc *zstd.Encoder
	dec *zstd.Decoder

	now func() time.Time
}

// Stats describes the cache contents.
type Stats struct {
	Entries int64
	// Size is the total uncompressed size of cached modules.
	Size int64
	Hits int64
}

const schema = `
CREATE TABLE IF NOT EXISTS modules (
	key TEXT PRIMARY KEY,
	size INTEGER NOT NULL,
	created INTEGER NOT NULL,
	hits INTEGER NOT NULL DEFAULT 0
);
`

// Open opens or creates a cache in dir.
func Open(dir string) (c *Cache, err error) {
	if err = os.MkdirAll(filepath.Join(dir, "blobs"), 0o755); err != nil {
		return nil, errors.Wrap(err, "create cache dir")
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "index.db"))
	if err != nil {
		return nil, errors.Wrap(err, "open index")
	}

	defer func() {
		if err != nil {
			_ = db.Close()
		}
	}()

	// one writer at a time; sqlite would report SQLITE_BUSY otherwise
	db.SetMaxOpenConns(1)

	if _, err = db.Exec(schema); err != nil {
		return nil, errors.Wrap(err, "apply schema")
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, errors.Wrap(err, "zstd encoder")
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, errors.Wrap(err, "zstd decoder")
	}

	return &Cache{
		db:  db,
		dir: dir,
		enc: enc,
		dec: dec,
		now: time.Now,
	}, nil
}

// Close closes the index.
func (c *Cache) Close() error {
	c.dec.Close()
	_ = c.enc.Close()

	return c.db.Close()
}

func (c *Cache) blobPath(k Key) string {
	s := k.String()
	return filepath.Join(c.dir, "blobs", s[:2], s[2:]+".spv.zst")
}

// Get returns the module stored under k. A missing entry is not an error.
func (c *Cache) Get(k Key) ([]byte, bool, error) {
	var size int64

	err := c.db.QueryRow("SELECT size FROM modules WHERE key = ?", k.String()).Scan(&size)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "query")
	}

	compressed, err := os.ReadFile(c.blobPath(k))
	if os.IsNotExist(err) {
		if _, err = c.db.Exec("DELETE FROM modules WHERE key = ?", k.String()); err != nil {
			return nil, false, errors.Wrap(err, "drop stale entry")
		}

		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "read blob")
	}

	data, err := c.dec.DecodeAll(compressed, make([]byte, 0, size))
	if err != nil {
		return nil, false, errors.Wrap(err, "decompress %v", k)
	}

	if int64(len(data)) != size {
		return nil, false, errors.New("%v: size %d, index says %d", k, len(data), size)
	}

	if _, err = c.db.Exec("UPDATE modules SET hits = hits + 1 WHERE key = ?", k.String()); err != nil {
		return nil, false, errors.Wrap(err, "count hit")
	}

	return data, true, nil
}

// Put stores data under k, replacing any previous entry.
func (c *Cache) Put(k Key, data []byte) error {
	path := c.blobPath(k)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create blob dir")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "tmp-*")
	if err != nil {
		return errors.Wrap(err, "create blob")
	}

	defer os.Remove(tmp.Name())

	_, err = tmp.Write(c.enc.EncodeAll(data, nil))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return errors.Wrap(err, "write blob")
	}

	if err = os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(err, "rename blob")
	}

	_, err = c.db.Exec(
		`INSERT OR REPLACE INTO modules (key, size, created, hits)
		 VALUES (?, ?, ?, 0)`,
		k.String(), len(data), c.now().Unix(),
	)
	if err != nil {
		return errors.Wrap(err, "index")
	}

	return nil
}

// Stats returns cache statistics.
func (c *Cache) Stats() (Stats, error) {
	var s Stats

	err := c.db.QueryRow("SELECT COUNT(*), COALESCE(SUM(size), 0), COALESCE(SUM(hits), 0) FROM modules").
		Scan(&s.Entries, &s.Size, &s.Hits)
	if err != nil {
		return s, errors.Wrap(err, "stats")
	}

	return s, nil
}

// Prune removes entries created at or before t and returns how many were
// removed.
func (c *Cache) Prune(t time.Time) (int, error) {
	rows, err := c.db.Query("SELECT key FROM modules WHERE created <= ?", t.Unix())
	if err != nil {
		return 0, errors.Wrap(err, "query")
	}

	var keys []Key

	for rows.Next() {
		var s string
		if err = rows.Scan(&s); err != nil {
			break
		}

		var k Key

		k, err = ParseKey(s)
		if err != nil {
			break
		}

		keys = append(keys, k)
	}

	if cerr := rows.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = rows.Err()
	}
	if err != nil {
		return 0, errors.Wrap(err, "scan")
	}

	for _, k := range keys {
		if err := os.Remove(c.blobPath(k)); err != nil && !os.IsNotExist(err) {
			return 0, errors.Wrap(err, "remove blob")
		}

		if _, err := c.db.Exec("DELETE FROM modules WHERE key = ?", k.String()); err != nil {
			return 0, errors.Wrap(err, "remove entry")
		}
	}

	return len(keys), nil
}
