package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RuleLevel is the scope of a markup rule. Precedence is strict:
// pair beats source, source beats global.
type RuleLevel string

const (
	RuleLevelPair   RuleLevel = "pair"
	RuleLevelSource RuleLevel = "source"
	RuleLevelGlobal RuleLevel = "global"
)

// Precedence returns the sort rank of a level; lower wins.
func (l RuleLevel) Precedence() int {
	switch l {
	case RuleLevelPair:
		return 1
	case RuleLevelSource:
		return 2
	case RuleLevelGlobal:
		return 3
	}
	return 4
}

// RoundingMode selects how an adjusted price is rounded.
type RoundingMode string

const (
	RoundHalfUp RoundingMode = "HALF_UP"
	RoundDown   RoundingMode = "DOWN"
	RoundUp     RoundingMode = "UP"
	RoundBanker RoundingMode = "BANKERS"
)

// MarkupRule is one pricing adjustment at one of three precedence levels.
// SourceID is meaningful only for source-level rules, SourcePairID only for
// pair-level rules; global rules carry neither.
type MarkupRule struct {
	RuleID       string          `json:"ruleID"` // Primary Key (UUID)
	Level        RuleLevel       `json:"level"`
	SourceID     *string         `json:"sourceID,omitempty"`
	SourcePairID *string         `json:"sourcePairID,omitempty"`
	Percent      decimal.Decimal `json:"percent"`
	Fixed        decimal.Decimal `json:"fixed"`
	RoundingMode RoundingMode    `json:"roundingMode"`
	RoundTo      int32           `json:"roundTo"`
	Enabled      bool            `json:"enabled"`
	ValidFrom    *time.Time      `json:"validFrom,omitempty"`
	ValidTo      *time.Time      `json:"validTo,omitempty"`
	Description  string          `json:"description,omitempty"`
	DeletedAt    *time.Time      `json:"deletedAt,omitempty"` // soft-delete tombstone
	AuditFields
}

// ActiveAt reports whether the rule's validity window contains t.
// A nil bound is open-ended.
func (r MarkupRule) ActiveAt(t time.Time) bool {
	if !r.Enabled || r.DeletedAt != nil {
		return false
	}
	if r.ValidFrom != nil && r.ValidFrom.After(t) {
		return false
	}
	if r.ValidTo != nil && r.ValidTo.Before(t) {
		return false
	}
	return true
}

// Matches reports whether the rule's scope covers the given source and pair.
// Only the fields meaningful for the rule's level are consulted.
func (r MarkupRule) Matches(sourceID, sourcePairID string) bool {
	switch r.Level {
	case RuleLevelPair:
		return r.SourcePairID != nil && *r.SourcePairID == sourcePairID
	case RuleLevelSource:
		return r.SourceID != nil && *r.SourceID == sourceID
	case RuleLevelGlobal:
		return true
	}
	return false
}
