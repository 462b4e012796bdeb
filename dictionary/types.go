// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package dictionary

import (
	"encoding/json"
	"fmt"
)

// Kind names which collection an entry belongs to
type Kind string

const (
	KindWord   Kind = "word"
	KindPhrase Kind = "phrase"
)

// Collection is the top-level key of the kind's data file
func (k Kind) Collection() string {
	if k == KindPhrase {
		return "phrases"
	}
	return "words"
}

// Label is used in mismatch reports
func (k Kind) Label() string {
	if k == KindPhrase {
		return "Phrase"
	}
	return "Word"
}

// HarmCategory classifies a harm reduction note
type HarmCategory string

const (
	HarmLifeAtStake                HarmCategory = "life_at_stake"
	HarmTissueAtStake              HarmCategory = "tissue_at_stake"
	HarmEssentialLibertyAtStake    HarmCategory = "essential_liberty_at_stake"
	HarmSocialKontraktAtStake      HarmCategory = "social_kontrakt_at_stake"
	HarmPropertyAtStake            HarmCategory = "property_at_stake"
	HarmTriggerWarning             HarmCategory = "trigger_warning"
	HarmContextRequired            HarmCategory = "context_required"
	HarmPotentialMisinterpretation HarmCategory = "potential_misinterpretation"
	HarmPowerDynamics              HarmCategory = "power_dynamics"
	HarmCulturalSensitivity        HarmCategory = "cultural_sensitivity"
	HarmReclaimedTerm              HarmCategory = "reclaimed_term"
	HarmOther                      HarmCategory = "other"
)

var harmCategories = map[HarmCategory]struct{}{
	HarmLifeAtStake: {}, HarmTissueAtStake: {}, HarmEssentialLibertyAtStake: {},
	HarmSocialKontraktAtStake: {}, HarmPropertyAtStake: {}, HarmTriggerWarning: {},
	HarmContextRequired: {}, HarmPotentialMisinterpretation: {}, HarmPowerDynamics: {},
	HarmCulturalSensitivity: {}, HarmReclaimedTerm: {}, HarmOther: {},
}

func ParseHarmCategory(s string) (HarmCategory, error) {
	if _, ok := harmCategories[HarmCategory(s)]; ok {
		return HarmCategory(s), nil
	}
	return "", fmt.Errorf("unknown harm category %q", s)
}

func (c *HarmCategory) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseHarmCategory(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Severity of a harm reduction note
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityCaution  Severity = "caution"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

func ParseSeverity(s string) (Severity, error) {
	switch Severity(s) {
	case SeverityInfo, SeverityCaution, SeverityWarning, SeverityCritical:
		return Severity(s), nil
	}
	return "", fmt.Errorf("unknown severity %q", s)
}

func (v *Severity) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseSeverity(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ReferenceType describes what an external reference points at
type ReferenceType string

const (
	RefVideo     ReferenceType = "video"
	RefArticle   ReferenceType = "article"
	RefPaper     ReferenceType = "paper"
	RefBook      ReferenceType = "book"
	RefPodcast   ReferenceType = "podcast"
	RefTool      ReferenceType = "tool"
	RefCommunity ReferenceType = "community"
	RefOther     ReferenceType = "other"
)

func ParseReferenceType(s string) (ReferenceType, error) {
	switch ReferenceType(s) {
	case RefVideo, RefArticle, RefPaper, RefBook, RefPodcast, RefTool, RefCommunity, RefOther:
		return ReferenceType(s), nil
	}
	return "", fmt.Errorf("unknown reference type %q", s)
}

func (t *ReferenceType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseReferenceType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

type UsageExample struct {
	Context     string `json:"context"`
	Example     string `json:"example"`
	Translation string `json:"translation,omitempty"`
}

type HarmReductionNote struct {
	Categories []HarmCategory `json:"categories"`
	Note       string         `json:"note,omitempty"`
	Severity   Severity       `json:"severity,omitempty"`
}

// Contributor is written either as a bare name or as {name, story}
type Contributor struct {
	Name  string `json:"name"`
	Story string `json:"story,omitempty"`
}

func (c *Contributor) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err == nil {
		*c = Contributor{Name: name}
		return nil
	}
	type plain Contributor
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*c = Contributor(p)
	return nil
}

// MarshalJSON keeps story-less contributors in the short string form
func (c Contributor) MarshalJSON() ([]byte, error) {
	if c.Story == "" {
		return json.Marshal(c.Name)
	}
	type plain Contributor
	return json.Marshal(plain(c))
}

type Reference struct {
	Title       string        `json:"title"`
	URL         string        `json:"url"`
	Description string        `json:"description,omitempty"`
	Type        ReferenceType `json:"type,omitempty"`
}

// Entry is a validated, migrated dictionary record
type Entry struct {
	ID                   int                 `json:"id"`
	Term                 string              `json:"term"`
	Letter               string              `json:"letter"`
	DefinitionStandard   string              `json:"definitionStandard,omitempty"`
	DefinitionDialect    string              `json:"definitionDialect,omitempty"`
	Definition           string              `json:"definition,omitempty"` // deprecated
	Etymology            string              `json:"etymology,omitempty"`
	Pronunciation        string              `json:"pronunciation,omitempty"`
	UsageExamples        []UsageExample      `json:"usageExamples,omitempty"`
	HarmReductionNotes   []HarmReductionNote `json:"harmReductionNotes,omitempty"`
	CrossReferences      []int               `json:"crossReferences,omitempty"`
	Contributors         []Contributor       `json:"contributors,omitempty"`
	References           []Reference         `json:"references,omitempty"`
	Notes                string              `json:"notes,omitempty"`
	IntentionalityRating *int                `json:"intentionalityRating,omitempty"`
	DateAdded            string              `json:"dateAdded,omitempty"`
	Kind                 Kind                `json:"kind"`
}
