package flow

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/myrjola/yogaflow/internal/errors"
)

//go:embed catalogue.json
var defaultCatalogueJSON []byte

// Catalogue is a read-only table of poses. It is safe for concurrent use because nothing mutates it after
// construction.
type Catalogue struct {
	entries []Entry
	byName  map[string]int
}

// NewCatalogue validates entries and builds a catalogue from a copy of them.
//
// Names must be unique and non-empty, every entry needs at least one category and a known difficulty.
func NewCatalogue(entries []Entry) (*Catalogue, error) {
	c := &Catalogue{
		entries: make([]Entry, len(entries)),
		byName:  make(map[string]int, len(entries)),
	}
	copy(c.entries, entries)

	var errs []error
	for i, e := range c.entries {
		switch {
		case e.Name == "":
			errs = append(errs, errors.New("entry without name", slog.Int("index", i)))
			continue
		case e.Categories.IsEmpty():
			errs = append(errs, errors.New("entry without categories", slog.String("name", e.Name)))
		case e.Difficulty.Rank() == 0:
			errs = append(errs, errors.New("entry with unknown difficulty",
				slog.String("name", e.Name), slog.String("difficulty", string(e.Difficulty))))
		}
		if _, dup := c.byName[e.Name]; dup {
			errs = append(errs, errors.New("duplicate entry", slog.String("name", e.Name)))
			continue
		}
		c.byName[e.Name] = i
	}
	if len(errs) > 0 {
		return nil, errors.Wrap(errors.Join(errs...), "invalid catalogue")
	}

	return c, nil
}

// LoadCatalogue reads a JSON array of entries.
func LoadCatalogue(r io.Reader) (*Catalogue, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var entries []Entry
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode catalogue: %w", err)
	}
	return NewCatalogue(entries)
}

// DefaultCatalogue returns the built-in catalogue of poses. Construct it once at process start and share it.
func DefaultCatalogue() (*Catalogue, error) {
	c, err := LoadCatalogue(bytes.NewReader(defaultCatalogueJSON))
	if err != nil {
		return nil, errors.Wrap(err, "load default catalogue")
	}
	return c, nil
}

// Len returns the number of entries.
func (c *Catalogue) Len() int {
	return len(c.entries)
}

// All returns a copy of every entry in catalogue order.
func (c *Catalogue) All() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Lookup finds an entry by name.
func (c *Catalogue) Lookup(name string) (Entry, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// UpTo returns the entries whose difficulty does not exceed maxDifficulty.
func (c *Catalogue) UpTo(maxDifficulty Difficulty) []Entry {
	var out []Entry
	for _, e := range c.entries {
		if e.Difficulty.Rank() <= maxDifficulty.Rank() {
			out = append(out, e)
		}
	}
	return out
}

// Candidates returns the entries sharing at least one category with allowed.
func (c *Catalogue) Candidates(allowed CategorySet) []Entry {
	return FilterCandidates(allowed, c.entries)
}

// FilterCandidates returns the entries sharing at least one category with allowed. Entries tagged with a forbidden
// category still qualify as long as one of their categories is allowed.
func FilterCandidates(allowed CategorySet, entries []Entry) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.Categories.Overlaps(allowed) {
			out = append(out, e)
		}
	}
	return out
}
