package storage

import (
	"fmt"
	"strings"
	"time"
)

// Key identifies one cached crate release. For registry crates Version is
// the published semver; for repository crates it is the branch or tag name
// the checkout was made from.
type Key struct {
	Name    string
	Version string
}

// NewKey builds a Key from a crate name and version.
func NewKey(name, version string) Key {
	return Key{Name: name, Version: version}
}

// ParseKey parses "name@version" into a Key.
func ParseKey(s string) (Key, error) {
	at := strings.LastIndex(s, "@")
	if at <= 0 || at == len(s)-1 {
		return Key{}, fmt.Errorf("invalid crate spec %q: expected name@version", s)
	}
	return Key{Name: s[:at], Version: s[at+1:]}, nil
}

// String renders the key as "name@version" for logs and messages.
func (k Key) String() string {
	return k.Name + "@" + k.Version
}

// EntryInfo describes one cached entry as observed on disk.
type EntryInfo struct {
	Name      string
	Version   string
	SizeBytes int64
	CachedAt  time.Time
}

// Key returns the entry's cache key.
func (e EntryInfo) Key() Key {
	return Key{Name: e.Name, Version: e.Version}
}
