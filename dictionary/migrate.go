// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package dictionary

const (
	fieldDefinition         = "definition"
	fieldDefinitionStandard = "definitionStandard"
	fieldDefinitionDialect  = "definitionDialect"
)

// NeedsMigration reports whether r still carries the deprecated single
// definition while missing at least one of the two modern fields
func NeedsMigration(r Record) bool {
	if _, ok := r[fieldDefinition]; !ok {
		return false
	}
	_, hasStandard := r[fieldDefinitionStandard]
	_, hasDialect := r[fieldDefinitionDialect]
	return !hasStandard || !hasDialect
}

// MigrateRecord copies the deprecated definition into whichever modern
// definition fields are missing and drops it. Records that need no
// migration are returned as is. The input is never modified.
func MigrateRecord(r Record) Record {
	if !NeedsMigration(r) {
		return r
	}

	out := make(Record, len(r)+1)
	for k, v := range r {
		out[k] = v
	}
	old := out[fieldDefinition]
	if _, ok := out[fieldDefinitionStandard]; !ok {
		out[fieldDefinitionStandard] = old
	}
	if _, ok := out[fieldDefinitionDialect]; !ok {
		out[fieldDefinitionDialect] = old
	}
	delete(out, fieldDefinition)
	return out
}

// MigrateAll applies MigrateRecord to every record and reports how many changed
func MigrateAll(records []Record) ([]Record, int) {
	out := make([]Record, len(records))
	changed := 0
	for i, r := range records {
		if NeedsMigration(r) {
			changed++
		}
		out[i] = MigrateRecord(r)
	}
	return out, changed
}
