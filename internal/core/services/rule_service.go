package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/EG0RIAN/tg-exhange-bot/internal/apperrors"
	"github.com/EG0RIAN/tg-exhange-bot/internal/core/domain"
	portsrepo "github.com/EG0RIAN/tg-exhange-bot/internal/core/ports/repositories"
	"github.com/EG0RIAN/tg-exhange-bot/internal/dto"
	"github.com/google/uuid"
)

// RuleService provides the staff-console operations on markup rules. Every
// mutation force-refreshes the resolver cache so new pricing takes effect on
// the next sync rather than after the cache TTL.
type RuleService struct {
	repo     portsrepo.SourceRepositoryFacade
	resolver *RuleResolver
	logger   *slog.Logger
}

// NewRuleService creates a new RuleService.
func NewRuleService(repo portsrepo.SourceRepositoryFacade, resolver *RuleResolver, logger *slog.Logger) *RuleService {
	return &RuleService{repo: repo, resolver: resolver, logger: logger}
}

// CreateRule validates and persists a new markup rule.
func (s *RuleService) CreateRule(ctx context.Context, req dto.CreateMarkupRuleRequest, creatorUserID string) (*domain.MarkupRule, error) {
	switch req.Level {
	case domain.RuleLevelSource:
		if req.SourceID == nil {
			return nil, fmt.Errorf("%w: source-level rule requires sourceID", apperrors.ErrValidation)
		}
	case domain.RuleLevelPair:
		if req.SourcePairID == nil {
			return nil, fmt.Errorf("%w: pair-level rule requires sourcePairID", apperrors.ErrValidation)
		}
	case domain.RuleLevelGlobal:
	default:
		return nil, fmt.Errorf("%w: unknown rule level %q", apperrors.ErrValidation, req.Level)
	}
	if req.ValidFrom != nil && req.ValidTo != nil && req.ValidTo.Before(*req.ValidFrom) {
		return nil, fmt.Errorf("%w: validTo precedes validFrom", apperrors.ErrValidation)
	}

	mode := domain.RoundingMode(req.RoundingMode)
	if req.RoundingMode == "" {
		mode = domain.RoundHalfUp
	}

	now := time.Now()
	rule := domain.MarkupRule{
		RuleID:       uuid.NewString(),
		Level:        req.Level,
		SourceID:     req.SourceID,
		SourcePairID: req.SourcePairID,
		Percent:      req.Percent,
		Fixed:        req.Fixed,
		RoundingMode: mode,
		RoundTo:      req.RoundTo,
		Enabled:      true,
		ValidFrom:    req.ValidFrom,
		ValidTo:      req.ValidTo,
		Description:  req.Description,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.repo.SaveRule(ctx, rule); err != nil {
		return nil, fmt.Errorf("failed to create markup rule: %w", err)
	}
	s.refreshResolver(ctx)
	return &rule, nil
}

// UpdateRule applies partial updates to an existing rule.
func (s *RuleService) UpdateRule(ctx context.Context, ruleID string, req dto.UpdateMarkupRuleRequest, updaterUserID string) (*domain.MarkupRule, error) {
	rule, err := s.repo.FindRuleByID(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	if rule.DeletedAt != nil {
		return nil, fmt.Errorf("%w: rule %s is deleted", apperrors.ErrValidation, ruleID)
	}

	if req.Percent != nil {
		rule.Percent = *req.Percent
	}
	if req.Fixed != nil {
		rule.Fixed = *req.Fixed
	}
	if req.RoundingMode != nil {
		rule.RoundingMode = domain.RoundingMode(*req.RoundingMode)
	}
	if req.RoundTo != nil {
		rule.RoundTo = *req.RoundTo
	}
	if req.Enabled != nil {
		rule.Enabled = *req.Enabled
	}
	if req.ValidFrom != nil {
		rule.ValidFrom = req.ValidFrom
	}
	if req.ValidTo != nil {
		rule.ValidTo = req.ValidTo
	}
	if req.Description != nil {
		rule.Description = *req.Description
	}
	if rule.ValidFrom != nil && rule.ValidTo != nil && rule.ValidTo.Before(*rule.ValidFrom) {
		return nil, fmt.Errorf("%w: validTo precedes validFrom", apperrors.ErrValidation)
	}
	rule.LastUpdatedAt = time.Now()
	rule.LastUpdatedBy = updaterUserID

	if err := s.repo.SaveRule(ctx, *rule); err != nil {
		return nil, fmt.Errorf("failed to update markup rule: %w", err)
	}
	s.refreshResolver(ctx)
	return rule, nil
}

// DeleteRule soft-deletes a rule. The tombstone keeps the row addressable
// from final rates that reference it.
func (s *RuleService) DeleteRule(ctx context.Context, ruleID string, deleterUserID string) error {
	if err := s.repo.SoftDeleteRule(ctx, ruleID, deleterUserID); err != nil {
		return err
	}
	s.refreshResolver(ctx)
	return nil
}

// ListRules returns all rules, optionally including soft-deleted ones.
func (s *RuleService) ListRules(ctx context.Context, includeDeleted bool) ([]domain.MarkupRule, error) {
	return s.repo.ListRules(ctx, includeDeleted)
}

// GetRule returns one rule by ID.
func (s *RuleService) GetRule(ctx context.Context, ruleID string) (*domain.MarkupRule, error) {
	return s.repo.FindRuleByID(ctx, ruleID)
}

func (s *RuleService) refreshResolver(ctx context.Context) {
	if err := s.resolver.ForceRefresh(ctx); err != nil {
		s.logger.Warn("failed to refresh rule cache after mutation", slog.String("error", err.Error()))
	}
}
