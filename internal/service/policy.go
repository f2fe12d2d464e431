package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Cesar4422/proyecto-mau/internal/domain"
	"github.com/Cesar4422/proyecto-mau/internal/policy"
	"github.com/Cesar4422/proyecto-mau/internal/repository"
	apperrors "github.com/Cesar4422/proyecto-mau/pkg/errors"
	"github.com/Cesar4422/proyecto-mau/pkg/logger"
)

// PolicyService administers the active allocation policy.
type PolicyService struct {
	repo   repository.PolicyRepository
	logger *slog.Logger
}

// NewPolicyService creates a new policy service.
func NewPolicyService(repo repository.PolicyRepository, logger *slog.Logger) *PolicyService {
	return &PolicyService{repo: repo, logger: logger}
}

// GetActivePolicy returns the active policy name, or the default when no
// policy is active.
func (s *PolicyService) GetActivePolicy(ctx context.Context) (string, error) {
	p, err := s.repo.GetActive(ctx)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.DefaultPolicyName, nil
		}
		return "", fmt.Errorf("get active policy: %w", err)
	}
	return p.Name, nil
}

// SetActivePolicy makes name the only active policy. Names the engine does
// not know are stored as given and resolve to the default at run time.
func (s *PolicyService) SetActivePolicy(ctx context.Context, name string) (*domain.AllocationPolicy, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.InvalidInput("policy name is required")
	}

	actor := logger.ActorIDFromContext(ctx)
	p, err := s.repo.SetActive(ctx, name, actor)
	if err != nil {
		return nil, err
	}

	if !policy.IsKnown(name) {
		s.logger.WarnContext(ctx, "activated allocation policy that the engine does not know",
			slog.String("policy", name),
			slog.Any("known", policy.Names()),
		)
	}

	s.logger.InfoContext(ctx, "allocation policy activated",
		slog.String("policy", name),
		slog.String("actor_id", actor),
	)
	return p, nil
}

// ListPolicies returns every configured policy, active first.
func (s *PolicyService) ListPolicies(ctx context.Context) ([]domain.AllocationPolicy, error) {
	policies, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}
	return policies, nil
}
