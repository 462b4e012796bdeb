// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package dictionary

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func word(id int, term, letter string) Record {
	return Record{"id": id, "term": term, "letter": letter, "definitionStandard": "def"}
}

func with(r Record, key string, v any) Record {
	out := make(Record, len(r)+1)
	for k, val := range r {
		out[k] = val
	}
	out[key] = v
	return out
}

func requireViolations(t *testing.T, err error) *ValidationError {
	t.Helper()
	var verr *ValidationError
	require.Error(t, err)
	require.True(t, errors.As(err, &verr), "expected *ValidationError, got %T", err)
	return verr
}

func TestValidateCollectionAcceptsFullEntry(t *testing.T) {
	// Decoded the way the loader decodes, so numbers are json.Number
	raw := `{
		"id": 1, "term": "test", "letter": "T",
		"definitionStandard": "Standard definition",
		"definitionDialect": "Dialekt definition",
		"usageExamples": [{"context": "Test", "example": "Example", "translation": "Translated"}],
		"harmReductionNotes": [{"categories": ["life_at_stake", "trigger_warning"], "note": "Note", "severity": "critical"}],
		"etymology": "Word origin",
		"pronunciation": "/tɛst/",
		"crossReferences": [2, 3],
		"intentionalityRating": 5,
		"dateAdded": "02025-12月26",
		"contributors": ["lifesaverlabs", {"name": "Ada", "story": "Found it in a zine"}],
		"references": [{"title": "Paper", "url": "https://example.org/p", "type": "paper"}],
		"notes": "Additional notes"
	}`
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var r Record
	require.NoError(t, dec.Decode(&r))

	entries, err := ValidateCollection([]Record{r}, KindWord)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, 1, e.ID)
	assert.Equal(t, KindWord, e.Kind)
	assert.Equal(t, "Dialekt definition", e.DefinitionDialect)
	assert.Equal(t, []int{2, 3}, e.CrossReferences)
	require.NotNil(t, e.IntentionalityRating)
	assert.Equal(t, 5, *e.IntentionalityRating)
	assert.Equal(t, []HarmCategory{HarmLifeAtStake, HarmTriggerWarning}, e.HarmReductionNotes[0].Categories)
	assert.Equal(t, SeverityCritical, e.HarmReductionNotes[0].Severity)
	assert.Equal(t, []Contributor{{Name: "lifesaverlabs"}, {Name: "Ada", Story: "Found it in a zine"}}, e.Contributors)
	assert.Equal(t, RefPaper, e.References[0].Type)
}

func TestValidateCollectionMinimalEntry(t *testing.T) {
	entries, err := ValidateCollection([]Record{word(1, "test", "T")}, KindPhrase)
	require.NoError(t, err)
	assert.Equal(t, KindPhrase, entries[0].Kind)
	assert.Nil(t, entries[0].IntentionalityRating)
}

func TestValidateCollectionRejects(t *testing.T) {
	base := word(1, "test", "T")

	tests := []struct {
		name   string
		record Record
		field  string
	}{
		{"zero id", with(base, "id", 0), "id"},
		{"negative id", with(base, "id", -1), "id"},
		{"decimal id", with(base, "id", 1.5), "id"},
		{"string id", with(base, "id", "one"), "id"},
		{"empty term", with(base, "term", ""), "term"},
		{"lowercase letter", with(base, "letter", "t"), "letter"},
		{"two letters", with(base, "letter", "AB"), "letter"},
		{"empty letter", with(base, "letter", ""), "letter"},
		{"digit letter", with(base, "letter", "1"), "letter"},
		{"accented letter", with(base, "letter", "Æ"), "letter"},
		{"no definition", Record{"id": 1, "term": "test", "letter": "T"}, "definitionStandard"},
		{"non-string definition", with(base, "definitionDialect", 5), "definitionDialect"},
		{"empty etymology", with(base, "etymology", ""), "etymology"},
		{"empty usage context", with(base, "usageExamples", []any{map[string]any{"context": "", "example": "e"}}), "usageExamples[0].context"},
		{"empty usage example", with(base, "usageExamples", []any{map[string]any{"context": "c", "example": ""}}), "usageExamples[0].example"},
		{"empty harm categories", with(base, "harmReductionNotes", []any{map[string]any{"categories": []any{}}}), "harmReductionNotes[0].categories"},
		{"unknown harm category", with(base, "harmReductionNotes", []any{map[string]any{"categories": []any{"vibes"}}}), "harmReductionNotes[0].categories"},
		{"unknown severity", with(base, "harmReductionNotes", []any{map[string]any{"categories": []any{"other"}, "severity": "extreme"}}), "harmReductionNotes[0].severity"},
		{"empty harm note", with(base, "harmReductionNotes", []any{map[string]any{"categories": []any{"other"}, "note": ""}}), "harmReductionNotes[0].note"},
		{"string cross reference", with(base, "crossReferences", []any{"two"}), "crossReferences[0]"},
		{"contributor without name", with(base, "contributors", []any{map[string]any{"story": "s"}}), "contributors[0].name"},
		{"numeric contributor", with(base, "contributors", []any{7}), "contributors[0]"},
		{"reference bad url", with(base, "references", []any{map[string]any{"title": "t", "url": "not-a-url"}}), "references[0].url"},
		{"reference script url", with(base, "references", []any{map[string]any{"title": "t", "url": "javascript:alert(1)"}}), "references[0].url"},
		{"reference mailto url", with(base, "references", []any{map[string]any{"title": "t", "url": "mailto:kalm@example.org"}}), "references[0].url"},
		{"reference ftp url", with(base, "references", []any{map[string]any{"title": "t", "url": "ftp://example.org/p"}}), "references[0].url"},
		{"reference without host", with(base, "references", []any{map[string]any{"title": "t", "url": "https:///path"}}), "references[0].url"},
		{"reference without title", with(base, "references", []any{map[string]any{"url": "https://example.org"}}), "references[0].title"},
		{"reference unknown type", with(base, "references", []any{map[string]any{"title": "t", "url": "https://example.org", "type": "blog"}}), "references[0].type"},
		{"rating too low", with(base, "intentionalityRating", 0), "intentionalityRating"},
		{"rating too high", with(base, "intentionalityRating", 6), "intentionalityRating"},
		{"rating not integer", with(base, "intentionalityRating", 3.5), "intentionalityRating"},
		{"bad date", with(base, "dateAdded", "2025-12-26"), "dateAdded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := ValidateCollection([]Record{tt.record}, KindWord)
			assert.Nil(t, entries)
			verr := requireViolations(t, err)
			fields := make([]string, len(verr.Violations))
			for i, v := range verr.Violations {
				fields[i] = v.Field
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestValidateCollectionAcceptsOptionalForms(t *testing.T) {
	base := word(1, "test", "T")
	records := []Record{
		with(base, "intentionalityRating", nil),
		with(base, "crossReferences", []any{}),
		with(base, "contributors", []any{}),
		with(base, "references", []any{}),
		with(base, "usageExamples", []any{map[string]any{"context": "c", "example": "e"}}),
		with(base, "harmReductionNotes", []any{map[string]any{"categories": []any{"reclaimed_term"}}}),
		with(base, "references", []any{map[string]any{"title": "t", "url": "http://example.org/x"}}),
		with(base, "dateAdded", "02025-1月05"),
	}
	for i, r := range records {
		r["id"] = i + 1
		_, err := ValidateCollection([]Record{r}, KindWord)
		assert.NoError(t, err, "record %d", i)
	}
}

func TestValidateCollectionReportsEveryViolation(t *testing.T) {
	records := []Record{
		with(word(1, "test", "T"), "letter", "t"),
		word(2, "fine", "F"),
		with(with(word(3, "", "X"), "dateAdded", "yesterday"), "intentionalityRating", 9),
	}
	_, err := ValidateCollection(records, KindWord)
	verr := requireViolations(t, err)
	assert.Len(t, verr.Violations, 4)
	assert.Equal(t, 0, verr.Violations[0].Index)
	assert.Equal(t, 2, verr.Violations[1].Index)
	assert.Equal(t, 3, verr.Violations[1].ID)
	assert.Contains(t, err.Error(), "4 violation(s)")
	assert.Contains(t, err.Error(), "words[2] (id 3): term:")
}

func TestValidateCombined(t *testing.T) {
	words := []Record{word(1, "apple", "A"), word(2, "banana", "B")}
	phrases := []Record{word(3, "break the ice", "B"), word(4, "call it a day", "C")}

	w, p, err := ValidateCombined(words, phrases)
	require.NoError(t, err)
	assert.Len(t, w, 2)
	assert.Len(t, p, 2)
	assert.Equal(t, KindPhrase, p[0].Kind)

	w, p, err = ValidateCombined(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, w)
	assert.Empty(t, p)
}

func TestValidateCombinedDuplicateIDs(t *testing.T) {
	words := []Record{word(1, "apple", "A"), word(5, "egg", "E"), word(5, "eel", "E")}
	phrases := []Record{word(1, "break ice", "B")}

	_, _, err := ValidateCombined(words, phrases)
	verr := requireViolations(t, err)
	assert.Equal(t, []int{1, 5}, verr.DuplicateIDs)
	assert.Contains(t, err.Error(), "duplicate ids found: 1, 5")
}

func TestValidateCombinedLetterMismatch(t *testing.T) {
	words := []Record{word(1, "apple", "Z"), word(2, "Øresund", "O"), word(3, "⁵Æther", "A"), word(4, "0bservation", "O")}
	phrases := []Record{word(5, "break ice", "Z")}

	_, _, err := ValidateCombined(words, phrases)
	verr := requireViolations(t, err)
	require.Len(t, verr.Violations, 2)
	assert.Equal(t, `Word "apple" has incorrect letter "Z" (expected "A")`, verr.Violations[0].Message)
	assert.Equal(t, KindPhrase, verr.Violations[1].Kind)
	assert.Contains(t, verr.Violations[1].Message, `Phrase "break ice"`)
}

func TestValidateCombinedCrossReferences(t *testing.T) {
	words := []Record{
		with(word(1, "apple", "A"), "crossReferences", []any{2, 3}),
		with(word(2, "banana", "B"), "crossReferences", []any{2}),
		with(word(3, "cherry", "C"), "crossReferences", []any{1, 1, 99}),
	}

	_, _, err := ValidateCombined(words, nil)
	verr := requireViolations(t, err)

	var messages []string
	for _, v := range verr.Violations {
		messages = append(messages, v.String())
	}
	assert.ElementsMatch(t, []string{
		"words[1] (id 2): crossReferences: references itself",
		"words[2] (id 3): crossReferences: references id 1 more than once",
		"words[2] (id 3): crossReferences: references unknown id 99",
	}, messages)
}

func TestValidateCombinedAggregatesStages(t *testing.T) {
	words := []Record{with(word(1, "apple", "Z"), "dateAdded", "bad")}
	phrases := []Record{word(1, "break ice", "B")}

	_, _, err := ValidateCombined(words, phrases)
	verr := requireViolations(t, err)

	fields := make([]string, len(verr.Violations))
	for i, v := range verr.Violations {
		fields[i] = v.Field
	}
	assert.Equal(t, []string{"dateAdded", "id", "letter"}, fields)
}
