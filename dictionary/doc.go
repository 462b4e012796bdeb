// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package dictionary loads and validates the dialect dictionary.

The data directory holds words.json ({"words": [...]}), phrases.json
({"phrases": [...]}) and optionally keyboard-layouts.json or .yaml
({"layouts": [...]}).

# Validation

ValidateCollection checks one collection's structure. ValidateCombined also
checks that ids are unique across words and phrases, that every letter
matches its term, and that cross references resolve. Neither stops at the
first problem: a *ValidationError lists every Violation found.

The letter of a term is its first significant character, uppercased, after
dropping leading superscript digits and micro signs. Accented and ligature
letters fold to their base (Æ→A, Ø→O, ß→S) and a leading digit maps to the
first letter of its English name (0→O, 1→O, 2→T, ..., 9→N):

	dictionary.ExpectedLetter("⁵Æther")     // 'A'
	dictionary.ExpectedLetter("0bservation") // 'O'

# Migration

Entries written before dual definitions carry a single "definition".
MigrateRecord copies it into definitionStandard and definitionDialect and
drops it. Load migrates before validating.

# Loading

	d, err := dictionary.Load("data/dictionary")
	if err != nil {
		return err // *ValidationError on bad data
	}
	entry, ok := d.ByID(42)
*/
package dictionary
