// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package dictionary

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Record is one raw dictionary entry as decoded from JSON
type Record map[string]any

// dateAdded uses a five digit year: 02025-12月26
var dateAddedPattern = regexp.MustCompile(`^\d{5}-\d{1,2}月\d{2}$`)

// Violation is one problem found in a collection
type Violation struct {
	Kind    Kind   `json:"kind,omitempty"`
	Index   int    `json:"index"` // -1 when the violation spans collections
	ID      int    `json:"id,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	var b strings.Builder
	if v.Kind != "" && v.Index >= 0 {
		fmt.Fprintf(&b, "%s[%d]", v.Kind.Collection(), v.Index)
		if v.ID > 0 {
			fmt.Fprintf(&b, " (id %d)", v.ID)
		}
		b.WriteString(": ")
	}
	if v.Field != "" {
		b.WriteString(v.Field)
		b.WriteString(": ")
	}
	b.WriteString(v.Message)
	return b.String()
}

// ValidationError carries every violation found in one run
type ValidationError struct {
	Violations   []Violation
	DuplicateIDs []int
}

func (e *ValidationError) Error() string {
	lines := make([]string, 0, len(e.Violations)+1)
	lines = append(lines, fmt.Sprintf("dictionary validation failed with %d violation(s):", len(e.Violations)))
	for _, v := range e.Violations {
		lines = append(lines, "  "+v.String())
	}
	return strings.Join(lines, "\n")
}

// ValidateCollection checks every record of one collection and returns the
// typed entries. Any violation rejects the whole collection.
func ValidateCollection(raw []Record, kind Kind) ([]Entry, error) {
	res := checkCollection(raw, kind)
	if len(res.violations) > 0 {
		return nil, &ValidationError{Violations: res.violations}
	}
	return res.entries, nil
}

// ValidateCombined validates both collections, then checks id uniqueness
// across them, that each letter matches its term, and that cross references
// resolve. Every violation from every stage is reported together.
func ValidateCombined(words, phrases []Record) ([]Entry, []Entry, error) {
	w := checkCollection(words, KindWord)
	p := checkCollection(phrases, KindPhrase)

	var violations []Violation
	violations = append(violations, w.violations...)
	violations = append(violations, p.violations...)

	// Id uniqueness across both collections
	seen := make(map[int]int)
	var dups []int
	for _, id := range append(slices.Clone(w.ids), p.ids...) {
		seen[id]++
		if seen[id] == 2 {
			dups = append(dups, id)
		}
	}
	if len(dups) > 0 {
		slices.Sort(dups)
		parts := make([]string, len(dups))
		for i, id := range dups {
			parts[i] = strconv.Itoa(id)
		}
		violations = append(violations, Violation{
			Index:   -1,
			Field:   "id",
			Message: "duplicate ids found: " + strings.Join(parts, ", "),
		})
	}

	// Letter must match the term
	for _, res := range []collectionResult{w, p} {
		for _, l := range res.labels {
			if !LetterMatches(l.term, l.letter) {
				expected, _ := ExpectedLetter(l.term)
				violations = append(violations, Violation{
					Kind:    res.kind,
					Index:   l.index,
					ID:      l.id,
					Field:   "letter",
					Message: fmt.Sprintf("%s %q has incorrect letter %q (expected %q)", res.kind.Label(), l.term, l.letter, string(expected)),
				})
			}
		}
	}

	// Cross references must resolve, never point at the entry itself and
	// never repeat within an entry
	for _, res := range []collectionResult{w, p} {
		for _, x := range res.xrefs {
			dupRefs := make(map[int]bool)
			for _, ref := range x.refs {
				switch {
				case ref == x.id:
					violations = append(violations, Violation{Kind: res.kind, Index: x.index, ID: x.id, Field: "crossReferences", Message: "references itself"})
				case seen[ref] == 0:
					violations = append(violations, Violation{Kind: res.kind, Index: x.index, ID: x.id, Field: "crossReferences", Message: fmt.Sprintf("references unknown id %d", ref)})
				}
				if dupRefs[ref] {
					violations = append(violations, Violation{Kind: res.kind, Index: x.index, ID: x.id, Field: "crossReferences", Message: fmt.Sprintf("references id %d more than once", ref)})
				}
				dupRefs[ref] = true
			}
		}
	}

	if len(violations) > 0 {
		return nil, nil, &ValidationError{Violations: violations, DuplicateIDs: dups}
	}
	return w.entries, p.entries, nil
}

type labelRef struct {
	index, id    int
	term, letter string
}

type xrefRef struct {
	index, id int
	refs      []int
}

type collectionResult struct {
	kind       Kind
	entries    []Entry
	violations []Violation
	ids        []int
	labels     []labelRef
	xrefs      []xrefRef
}

func checkCollection(raw []Record, kind Kind) collectionResult {
	res := collectionResult{kind: kind}
	for i, r := range raw {
		c := &checker{kind: kind, index: i}
		c.check(r)
		res.violations = append(res.violations, c.violations...)

		if c.idOK {
			res.ids = append(res.ids, c.id)
		}
		if c.term != "" && c.letterOK {
			res.labels = append(res.labels, labelRef{index: i, id: c.id, term: c.term, letter: c.letter})
		}
		if c.idOK && len(c.xrefs) > 0 {
			res.xrefs = append(res.xrefs, xrefRef{index: i, id: c.id, refs: c.xrefs})
		}
		if len(c.violations) > 0 {
			continue
		}

		entry, err := toEntry(r, kind)
		if err != nil {
			res.violations = append(res.violations, Violation{Kind: kind, Index: i, ID: c.id, Message: err.Error()})
			continue
		}
		res.entries = append(res.entries, entry)
	}
	return res
}

func toEntry(r Record, kind Kind) (Entry, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to encode record: %w", err)
	}
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return Entry{}, fmt.Errorf("failed to decode record: %w", err)
	}
	e.Kind = kind
	return e, nil
}

// checker accumulates violations for one record
type checker struct {
	kind       Kind
	index      int
	violations []Violation

	id       int
	idOK     bool
	term     string
	letter   string
	letterOK bool
	xrefs    []int
}

func (c *checker) fail(field, format string, args ...any) {
	c.violations = append(c.violations, Violation{
		Kind:    c.kind,
		Index:   c.index,
		ID:      c.id,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	})
}

func (c *checker) check(r Record) {
	if r == nil {
		c.fail("", "entry must be an object")
		return
	}

	// id first so later violations carry it
	if v, ok := r["id"]; !ok {
		c.fail("id", "required")
	} else if id, ok := asInt(v); !ok || id <= 0 {
		c.fail("id", "must be a positive integer")
	} else {
		c.id, c.idOK = id, true
	}

	if s, ok := r["term"].(string); !ok || s == "" {
		c.fail("term", "must be a non-empty string")
	} else {
		c.term = s
	}

	if s, ok := r["letter"].(string); !ok || !isLetterLabel(s) {
		c.fail("letter", "must be a single uppercase letter A-Z")
	} else {
		c.letter, c.letterOK = s, true
	}

	c.checkDefinitions(r)

	for _, field := range []string{"etymology", "pronunciation", "notes"} {
		if v, ok := r[field]; ok {
			if s, isStr := v.(string); !isStr || s == "" {
				c.fail(field, "must be a non-empty string when present")
			}
		}
	}

	if v, ok := r["usageExamples"]; ok {
		c.checkUsageExamples(v)
	}
	if v, ok := r["harmReductionNotes"]; ok {
		c.checkHarmNotes(v)
	}
	if v, ok := r["crossReferences"]; ok {
		c.checkCrossReferences(v)
	}
	if v, ok := r["contributors"]; ok {
		c.checkContributors(v)
	}
	if v, ok := r["references"]; ok {
		c.checkReferences(v)
	}

	if v, ok := r["intentionalityRating"]; ok && v != nil {
		if n, isInt := asInt(v); !isInt || n < 1 || n > 5 {
			c.fail("intentionalityRating", "must be an integer from 1 to 5 or null")
		}
	}

	if v, ok := r["dateAdded"]; ok {
		if s, isStr := v.(string); !isStr || !dateAddedPattern.MatchString(s) {
			c.fail("dateAdded", "must look like 02025-12月26")
		}
	}
}

func (c *checker) checkDefinitions(r Record) {
	found := false
	for _, field := range []string{fieldDefinitionStandard, fieldDefinitionDialect, fieldDefinition} {
		v, ok := r[field]
		if !ok {
			continue
		}
		s, isStr := v.(string)
		if !isStr {
			c.fail(field, "must be a string")
			continue
		}
		if s != "" {
			found = true
		}
	}
	if !found {
		c.fail("definitionStandard", "at least one of definitionStandard, definitionDialect or definition is required")
	}
}

func (c *checker) checkUsageExamples(v any) {
	items, ok := v.([]any)
	if !ok {
		c.fail("usageExamples", "must be an array")
		return
	}
	for i, item := range items {
		field := fmt.Sprintf("usageExamples[%d]", i)
		obj, ok := item.(map[string]any)
		if !ok {
			c.fail(field, "must be an object")
			continue
		}
		if !nonEmptyString(obj["context"]) {
			c.fail(field+".context", "must be a non-empty string")
		}
		if !nonEmptyString(obj["example"]) {
			c.fail(field+".example", "must be a non-empty string")
		}
		if t, ok := obj["translation"]; ok {
			if _, isStr := t.(string); !isStr {
				c.fail(field+".translation", "must be a string")
			}
		}
	}
}

func (c *checker) checkHarmNotes(v any) {
	items, ok := v.([]any)
	if !ok {
		c.fail("harmReductionNotes", "must be an array")
		return
	}
	for i, item := range items {
		field := fmt.Sprintf("harmReductionNotes[%d]", i)
		obj, ok := item.(map[string]any)
		if !ok {
			c.fail(field, "must be an object")
			continue
		}

		cats, ok := obj["categories"].([]any)
		if !ok || len(cats) == 0 {
			c.fail(field+".categories", "must be a non-empty array")
		}
		for _, cat := range cats {
			s, _ := cat.(string)
			if _, err := ParseHarmCategory(s); err != nil {
				c.fail(field+".categories", "%v", err)
			}
		}

		if n, ok := obj["note"]; ok && !nonEmptyString(n) {
			c.fail(field+".note", "must be a non-empty string when present")
		}
		if sev, ok := obj["severity"]; ok {
			s, _ := sev.(string)
			if _, err := ParseSeverity(s); err != nil {
				c.fail(field+".severity", "%v", err)
			}
		}
	}
}

func (c *checker) checkCrossReferences(v any) {
	items, ok := v.([]any)
	if !ok {
		c.fail("crossReferences", "must be an array of integers")
		return
	}
	refs := make([]int, 0, len(items))
	for i, item := range items {
		n, ok := asInt(item)
		if !ok {
			c.fail(fmt.Sprintf("crossReferences[%d]", i), "must be an integer")
			continue
		}
		refs = append(refs, n)
	}
	c.xrefs = refs
}

func (c *checker) checkContributors(v any) {
	items, ok := v.([]any)
	if !ok {
		c.fail("contributors", "must be an array")
		return
	}
	for i, item := range items {
		field := fmt.Sprintf("contributors[%d]", i)
		switch x := item.(type) {
		case string:
		case map[string]any:
			if !nonEmptyString(x["name"]) {
				c.fail(field+".name", "must be a non-empty string")
			}
			if s, ok := x["story"]; ok {
				if _, isStr := s.(string); !isStr {
					c.fail(field+".story", "must be a string")
				}
			}
		default:
			c.fail(field, "must be a name or {name, story}")
		}
	}
}

func (c *checker) checkReferences(v any) {
	items, ok := v.([]any)
	if !ok {
		c.fail("references", "must be an array")
		return
	}
	for i, item := range items {
		field := fmt.Sprintf("references[%d]", i)
		obj, ok := item.(map[string]any)
		if !ok {
			c.fail(field, "must be an object")
			continue
		}
		if !nonEmptyString(obj["title"]) {
			c.fail(field+".title", "must be a non-empty string")
		}
		if s, _ := obj["url"].(string); !isValidURL(s) {
			c.fail(field+".url", "must be an absolute URL")
		}
		if d, ok := obj["description"]; ok {
			if _, isStr := d.(string); !isStr {
				c.fail(field+".description", "must be a string")
			}
		}
		if t, ok := obj["type"]; ok {
			s, _ := t.(string)
			if _, err := ParseReferenceType(s); err != nil {
				c.fail(field+".type", "%v", err)
			}
		}
	}
}

func isLetterLabel(s string) bool {
	return len(s) == 1 && s[0] >= 'A' && s[0] <= 'Z'
}

func nonEmptyString(v any) bool {
	s, ok := v.(string)
	return ok && s != ""
}

// isValidURL accepts absolute http and https URLs with a host
func isValidURL(s string) bool {
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}

// asInt accepts the numeric forms a Record can hold: json.Number from
// decoding with UseNumber, float64 from plain decoding, and Go ints
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := strconv.ParseInt(string(n), 10, 64)
		if err != nil {
			return 0, false
		}
		return int(i), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	}
	return 0, false
}
