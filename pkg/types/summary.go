// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// Category names one classification axis of an analysis.
type Category string

const (
	CategoryPolicyDomain            Category = "policy_domain"
	CategoryRegulatoryImpact        Category = "regulatory_impact"
	CategoryConstitutionalAuthority Category = "constitutional_authority"
	CategoryDuration                Category = "duration"
	CategoryScopeOfImpact           Category = "scope_of_impact"
	CategoryPoliticalContext        Category = "political_context"
	CategoryLegalFramework          Category = "legal_framework"
	CategoryBudgetaryImplications   Category = "budgetary_implications"
	CategoryImplementationTimeline  Category = "implementation_timeline"
	CategoryPrecedentialValue       Category = "precedential_value"
)

// CategoryAxis is one classification axis with its closed value set.
type CategoryAxis struct {
	Name   Category
	Values []string
}

// CategoryAxes lists the ten classification axes in prompt order.
var CategoryAxes = []CategoryAxis{
	{CategoryPolicyDomain, []string{"Economic", "Defense", "Healthcare", "Education", "Environmental", "Immigration", "Energy", "Transportation", "Civil Rights", "Foreign Relations"}},
	{CategoryRegulatoryImpact, []string{"Deregulatory", "Regulatory", "Guidance-oriented", "Agency reorganization"}},
	{CategoryConstitutionalAuthority, []string{"National security powers", "Emergency powers", "Administrative powers", "Treaty implementation"}},
	{CategoryDuration, []string{"Temporary/time-limited", "Permanent", "Contingent on specific conditions"}},
	{CategoryScopeOfImpact, []string{"Federal agencies only", "State/local government coordination", "Private sector involvement", "Individual rights"}},
	{CategoryPoliticalContext, []string{"Campaign promise fulfillment", "Response to crisis", "Reversal of predecessor's policy", "Congressional gridlock workaround"}},
	{CategoryLegalFramework, []string{"Statutory interpretation", "Constitutional interpretation", "International law implementation", "Agency rulemaking direction"}},
	{CategoryBudgetaryImplications, []string{"Budget neutral", "Requires new appropriations", "Reallocates existing funds", "Cost-saving measures"}},
	{CategoryImplementationTimeline, []string{"Immediate effect", "Phased implementation", "Delayed effective date", "Contingent implementation"}},
	{CategoryPrecedentialValue, []string{"Novel/first-of-its-kind", "Consistent with historical practice", "Expansion of existing policy", "Restatement of existing authority"}},
}

// Industries is the closed list the model selects key_industries from.
var Industries = []string{
	"Government & Public Administration",
	"Defense & National Security",
	"Technology & Cybersecurity",
	"Financial Services",
	"Healthcare & Pharmaceuticals",
	"Energy & Utilities",
	"Manufacturing & Industry",
	"Education & Research",
	"Legal Services & Compliance",
	"Agriculture & Natural Resources",
}

// Categories holds one value per classification axis.
type Categories struct {
	PolicyDomain            string `json:"policy_domain" validate:"required"`
	RegulatoryImpact        string `json:"regulatory_impact" validate:"required"`
	ConstitutionalAuthority string `json:"constitutional_authority" validate:"required"`
	Duration                string `json:"duration" validate:"required"`
	ScopeOfImpact           string `json:"scope_of_impact" validate:"required"`
	PoliticalContext        string `json:"political_context" validate:"required"`
	LegalFramework          string `json:"legal_framework" validate:"required"`
	BudgetaryImplications   string `json:"budgetary_implications" validate:"required"`
	ImplementationTimeline  string `json:"implementation_timeline" validate:"required"`
	PrecedentialValue       string `json:"precedential_value" validate:"required"`
}

// Get returns the value recorded for the given axis.
func (c Categories) Get(axis Category) string {
	switch axis {
	case CategoryPolicyDomain:
		return c.PolicyDomain
	case CategoryRegulatoryImpact:
		return c.RegulatoryImpact
	case CategoryConstitutionalAuthority:
		return c.ConstitutionalAuthority
	case CategoryDuration:
		return c.Duration
	case CategoryScopeOfImpact:
		return c.ScopeOfImpact
	case CategoryPoliticalContext:
		return c.PoliticalContext
	case CategoryLegalFramework:
		return c.LegalFramework
	case CategoryBudgetaryImplications:
		return c.BudgetaryImplications
	case CategoryImplementationTimeline:
		return c.ImplementationTimeline
	case CategoryPrecedentialValue:
		return c.PrecedentialValue
	}
	return ""
}

// FlexText decodes a JSON string or an array of strings. Array elements are
// joined with ", ".
type FlexText string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		kept := items[:0]
		for _, item := range items {
			if item = strings.TrimSpace(item); item != "" {
				kept = append(kept, item)
			}
		}
		*f = FlexText(strings.Join(kept, ", "))
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = FlexText(s)
	return nil
}

// Timestamp is an RFC 3339 generation time. Older records stored epoch
// seconds as a JSON number; those are converted on decode.
type Timestamp string

// UnmarshalJSON implements json.Unmarshaler.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*ts = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*ts = Timestamp(s)
		return nil
	}
	var secs float64
	if err := json.Unmarshal(data, &secs); err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", data, err)
	}
	whole, frac := math.Modf(secs)
	t := time.Unix(int64(whole), int64(frac*1e9)).UTC()
	*ts = Timestamp(t.Format(time.RFC3339))
	return nil
}

// Answer is the model's structured analysis of one executive order, as
// decoded from its JSON answer.
type Answer struct {
	Summary             string     `json:"summary" validate:"required"`
	Purpose             string     `json:"purpose" validate:"required"`
	EffectiveDate       string     `json:"effective_date" validate:"required"`
	ExpirationDate      string     `json:"expiration_date" validate:"required"`
	EconomicEffects     string     `json:"economic_effects" validate:"required"`
	GeopoliticalEffects string     `json:"geopolitical_effects" validate:"required"`
	DeeperDive          string     `json:"deeper_dive" validate:"required"`
	PositiveImpacts     string     `json:"positive_impacts" validate:"required"`
	NegativeImpacts     string     `json:"negative_impacts" validate:"required"`
	KeyIndustries       FlexText   `json:"key_industries" validate:"required"`
	Categories          Categories `json:"categories"`
}

// Summary is the normalized record persisted per executive order and
// consumed by the presentation layer.
type Summary struct {
	EONumber            int        `json:"eo_number"`
	Title               string     `json:"title"`
	President           string     `json:"president,omitempty"`
	Summary             string     `json:"summary"`
	Purpose             string     `json:"purpose"`
	EffectiveDate       Date       `json:"effective_date"`
	ExpirationDate      Date       `json:"expiration_date"`
	PublicationDate     Date       `json:"publication_date"`
	SigningDate         Date       `json:"signing_date"`
	EconomicEffects     string     `json:"economic_effects"`
	GeopoliticalEffects string     `json:"geopolitical_effects"`
	DeeperDive          string     `json:"deeper_dive"`
	PositiveImpacts     string     `json:"positive_impacts"`
	NegativeImpacts     string     `json:"negative_impacts"`
	KeyIndustries       FlexText   `json:"key_industries"`
	Categories          Categories `json:"categories"`
	OriginalURL         string     `json:"original_url"`
	PDFPath             string     `json:"pdf_path"`
	Timestamp           Timestamp  `json:"timestamp"`
}

// Aggregate is the consolidated document built from every stored summary.
type Aggregate struct {
	GeneratedAt string     `json:"generated_at"`
	Count       int        `json:"count"`
	Orders      []*Summary `json:"orders"`
}
