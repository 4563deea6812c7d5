package backend

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// cacheEntry holds HTTP cache metadata for a single backend URL.
type cacheEntry struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// diskCache stores the last good body per URL so a flaky backend still yields data.
// A zero diskCache (empty dir) is disabled.
type diskCache struct {
	dir string
}

func (c diskCache) enabled() bool {
	return c.dir != ""
}

func (c diskCache) pathFor(url string) (string, error) {
	if url == "" {
		return "", errors.New("empty url")
	}
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:8])), nil
}

func (c diskCache) load(url string) (cacheEntry, []byte) {
	var meta cacheEntry
	if !c.enabled() {
		return meta, nil
	}
	p, err := c.pathFor(url)
	if err != nil {
		return meta, nil
	}
	if data, err := os.ReadFile(filepath.Join(p, "meta.json")); err == nil {
		_ = json.Unmarshal(data, &meta)
	}
	body, _ := os.ReadFile(filepath.Join(p, "body.json"))
	return meta, body
}

func (c diskCache) save(meta cacheEntry, body []byte) error {
	if !c.enabled() {
		return nil
	}
	p, err := c.pathFor(meta.URL)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(p, 0o700); err != nil {
		return err
	}

	// Write body first so meta never points at a missing body.
	if err := writeFileAtomic(filepath.Join(p, "body.json"), body); err != nil {
		return err
	}

	meta.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(p, "meta.json"), data)
}

// writeFileAtomic replaces path via a temp file and rename, so concurrent
// readers of the same URL see either the old or the new file.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".cache-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
