// Package driveindex reads the index produced by the external drive rescan
// and answers duplicate-title queries against it.
package driveindex

import (
	"os"
	"strings"
	"sync"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/menucockpit/server/internal/docstore"
)

// Entry is one indexed drive document, as written by the rescan script.
type Entry struct {
	FileID          string `json:"file_id"`
	Title           string `json:"title"`
	NormalizedTitle string `json:"normalized_title"`
	TitleKey        string `json:"title_key"`
	FullPath        string `json:"fullPath"`
	MimeType        string `json:"mimeType,omitempty"`
}

// Index caches the drive index file in memory. A missing index file is not
// an error: lookups simply report no conflicts until a rescan produces one.
type Index struct {
	path  string
	store *docstore.Store
	log   zerolog.Logger

	mu      sync.RWMutex
	entries []Entry
	loaded  bool
}

// New creates an index reader over the given file. The first load happens
// lazily on lookup; Reload can be called any time (e.g. from a file watcher
// or after a rescan job finishes).
func New(path string, store *docstore.Store, log zerolog.Logger) *Index {
	return &Index{path: path, store: store, log: log}
}

// Reload re-reads the index file. Missing, empty or corrupt files leave an
// empty index (fail-open).
func (ix *Index) Reload() {
	var entries []Entry
	err := ix.store.ReadInto(ix.path, &entries)
	if err != nil && !docstore.IsRecoverable(err) {
		ix.log.Warn().Err(err).Str("path", ix.path).Msg("drive index unreadable")
	}
	if err != nil {
		entries = nil
	}

	ix.mu.Lock()
	ix.entries = entries
	ix.loaded = true
	ix.mu.Unlock()

	ix.log.Debug().Int("entries", len(entries)).Str("path", ix.path).Msg("drive index loaded")
}

// Entries returns the cached index entries.
func (ix *Index) Entries() []Entry {
	ix.ensureLoaded()
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.entries
}

// FindDuplicates returns every indexed entry whose title collides with the
// given one, exactly (normalized) or loosely (title key).
func (ix *Index) FindDuplicates(title string) []Entry {
	ix.ensureLoaded()

	norm := NormalizeTitle(title)
	key := TitleKey(title)
	if norm == "" {
		return nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var dups []Entry
	for _, e := range ix.entries {
		n := e.NormalizedTitle
		if n == "" {
			n = NormalizeTitle(e.Title)
		}
		k := e.TitleKey
		if k == "" {
			k = TitleKey(e.Title)
		}
		if n == norm || (key != "" && k == key) {
			dups = append(dups, e)
		}
	}
	return dups
}

func (ix *Index) ensureLoaded() {
	ix.mu.RLock()
	loaded := ix.loaded
	ix.mu.RUnlock()
	if !loaded {
		ix.Reload()
	}
}

// Stat reports whether the index file currently exists.
func (ix *Index) Stat() bool {
	_, err := os.Stat(ix.path)
	return err == nil
}

// NormalizeTitle lowercases, trims and collapses whitespace.
func NormalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(title))), " ")
}

// TitleKey reduces a title to its letters and digits only, for catching
// near-duplicates that differ in punctuation or spacing.
func TitleKey(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
