// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package dictionary

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const (
	WordsFile   = "words.json"
	PhrasesFile = "phrases.json"
)

// layout files are tried in this order; the first one present wins
var layoutFiles = []string{"keyboard-layouts.json", "keyboard-layouts.yaml", "keyboard-layouts.yml"}

// ReadCollection decodes a {"words": [...]} or {"phrases": [...]} file.
// Numbers stay json.Number so integer checks are exact.
func ReadCollection(path string, kind Kind) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	raw, ok := doc[kind.Collection()]
	if !ok {
		return nil, fmt.Errorf("%s: missing %q array", path, kind.Collection())
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var records []Record
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to parse %s %s: %w", path, kind.Collection(), err)
	}
	return records, nil
}

// WriteCollection writes records back in the same document shape
func WriteCollection(path string, kind Kind, records []Record) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string][]Record{kind.Collection(): records}); err != nil {
		return fmt.Errorf("failed to encode %s: %w", kind.Collection(), err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Load reads, migrates and validates the dictionary in dir. Keyboard
// layouts are optional.
func Load(dir string) (*Dictionary, error) {
	rawWords, err := ReadCollection(filepath.Join(dir, WordsFile), KindWord)
	if err != nil {
		return nil, err
	}
	rawPhrases, err := ReadCollection(filepath.Join(dir, PhrasesFile), KindPhrase)
	if err != nil {
		return nil, err
	}

	rawWords, migratedWords := MigrateAll(rawWords)
	rawPhrases, migratedPhrases := MigrateAll(rawPhrases)
	if n := migratedWords + migratedPhrases; n > 0 {
		slog.Warn("dictionary entries use the deprecated definition field", "count", n, "dir", dir)
	}

	words, phrases, err := ValidateCombined(rawWords, rawPhrases)
	if err != nil {
		return nil, err
	}

	var layouts []KeyboardLayout
	for _, name := range layoutFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		layouts, err = LoadLayouts(path)
		if err != nil {
			return nil, err
		}
		break
	}

	d := New(words, phrases, layouts)
	slog.Info("dictionary loaded",
		"words", len(words),
		"phrases", len(phrases),
		"layouts", len(layouts),
	)
	return d, nil
}

// Dictionary is an immutable, validated view over the loaded entries.
// Safe for concurrent use.
type Dictionary struct {
	words   []Entry
	phrases []Entry
	byID    map[int]Entry
	layouts []KeyboardLayout
}

func New(words, phrases []Entry, layouts []KeyboardLayout) *Dictionary {
	d := &Dictionary{
		words:   words,
		phrases: phrases,
		byID:    make(map[int]Entry, len(words)+len(phrases)),
		layouts: layouts,
	}
	for _, e := range words {
		d.byID[e.ID] = e
	}
	for _, e := range phrases {
		d.byID[e.ID] = e
	}
	return d
}

func (d *Dictionary) Words() []Entry {
	return slices.Clone(d.words)
}

func (d *Dictionary) Phrases() []Entry {
	return slices.Clone(d.phrases)
}

// All returns words followed by phrases
func (d *Dictionary) All() []Entry {
	return slices.Concat(d.words, d.phrases)
}

func (d *Dictionary) ByID(id int) (Entry, bool) {
	e, ok := d.byID[id]
	return e, ok
}

// ByLetter returns every entry filed under letter, sorted by term
func (d *Dictionary) ByLetter(letter string) []Entry {
	letter = strings.ToUpper(letter)
	var out []Entry
	for _, e := range d.All() {
		if e.Letter == letter {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b Entry) int {
		return strings.Compare(strings.ToLower(a.Term), strings.ToLower(b.Term))
	})
	return out
}

// NextAvailableID is one past the highest id in use, or 1 when empty
func (d *Dictionary) NextAvailableID() int {
	highest := 0
	for id := range d.byID {
		highest = max(highest, id)
	}
	return highest + 1
}

func (d *Dictionary) Layouts() []KeyboardLayout {
	return slices.Clone(d.layouts)
}

func (d *Dictionary) LayoutByID(id string) (KeyboardLayout, bool) {
	for _, l := range d.layouts {
		if l.ID == id {
			return l, true
		}
	}
	return KeyboardLayout{}, false
}

func (d *Dictionary) LayoutsByTag(tag string) []KeyboardLayout {
	var out []KeyboardLayout
	for _, l := range d.layouts {
		if l.HasTag(tag) {
			out = append(out, l)
		}
	}
	return out
}
