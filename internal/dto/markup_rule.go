package dto

import (
	"time"

	"github.com/EG0RIAN/tg-exhange-bot/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateMarkupRuleRequest defines the payload for creating a markup rule.
type CreateMarkupRuleRequest struct {
	Level        domain.RuleLevel `json:"level" binding:"required,oneof=global source pair"`
	SourceID     *string          `json:"sourceID,omitempty"`
	SourcePairID *string          `json:"sourcePairID,omitempty"`
	Percent      decimal.Decimal  `json:"percent"`
	Fixed        decimal.Decimal  `json:"fixed"`
	RoundingMode string           `json:"roundingMode" binding:"omitempty,oneof=HALF_UP DOWN UP BANKERS"`
	RoundTo      int32            `json:"roundTo" binding:"gte=0,lte=8"`
	ValidFrom    *time.Time       `json:"validFrom,omitempty"`
	ValidTo      *time.Time       `json:"validTo,omitempty"`
	Description  string           `json:"description,omitempty"`
}

// UpdateMarkupRuleRequest defines the editable fields of a markup rule.
// Nil pointers leave the current value in place.
type UpdateMarkupRuleRequest struct {
	Percent      *decimal.Decimal `json:"percent,omitempty"`
	Fixed        *decimal.Decimal `json:"fixed,omitempty"`
	RoundingMode *string          `json:"roundingMode,omitempty" binding:"omitempty,oneof=HALF_UP DOWN UP BANKERS"`
	RoundTo      *int32           `json:"roundTo,omitempty" binding:"omitempty,gte=0,lte=8"`
	Enabled      *bool            `json:"enabled,omitempty"`
	ValidFrom    *time.Time       `json:"validFrom,omitempty"`
	ValidTo      *time.Time       `json:"validTo,omitempty"`
	Description  *string          `json:"description,omitempty"`
}

// MarkupRuleResponse is the API shape of a markup rule.
type MarkupRuleResponse struct {
	RuleID       string           `json:"ruleID"`
	Level        domain.RuleLevel `json:"level"`
	SourceID     *string          `json:"sourceID,omitempty"`
	SourcePairID *string          `json:"sourcePairID,omitempty"`
	Percent      decimal.Decimal  `json:"percent"`
	Fixed        decimal.Decimal  `json:"fixed"`
	RoundingMode string           `json:"roundingMode"`
	RoundTo      int32            `json:"roundTo"`
	Enabled      bool             `json:"enabled"`
	ValidFrom    *time.Time       `json:"validFrom,omitempty"`
	ValidTo      *time.Time       `json:"validTo,omitempty"`
	Description  string           `json:"description,omitempty"`
	DeletedAt    *time.Time       `json:"deletedAt,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	LastUpdated  time.Time        `json:"lastUpdatedAt"`
}

// ToMarkupRuleResponse converts a domain rule to its API shape.
func ToMarkupRuleResponse(r *domain.MarkupRule) MarkupRuleResponse {
	return MarkupRuleResponse{
		RuleID:       r.RuleID,
		Level:        r.Level,
		SourceID:     r.SourceID,
		SourcePairID: r.SourcePairID,
		Percent:      r.Percent,
		Fixed:        r.Fixed,
		RoundingMode: string(r.RoundingMode),
		RoundTo:      r.RoundTo,
		Enabled:      r.Enabled,
		ValidFrom:    r.ValidFrom,
		ValidTo:      r.ValidTo,
		Description:  r.Description,
		DeletedAt:    r.DeletedAt,
		CreatedAt:    r.CreatedAt,
		LastUpdated:  r.LastUpdatedAt,
	}
}
