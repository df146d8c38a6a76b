package service

import (
	"context"
	"fmt"

	"github.com/maheshrc27/socialdesk/internal/repository"
	"github.com/maheshrc27/socialdesk/internal/transfer"
)

type HealthService interface {
	Report(ctx context.Context) (*transfer.HealthReport, error)
}

type healthService struct {
	u     repository.UserRepository
	p     repository.PostRepository
	sa    repository.SocialAccountRepository
	cr    repository.ConversationRepository
	clock Clock
}

func NewHealthService(
	u repository.UserRepository,
	p repository.PostRepository,
	sa repository.SocialAccountRepository,
	cr repository.ConversationRepository,
	clock Clock) HealthService {
	if clock == nil {
		clock = RealClock{}
	}
	return &healthService{u: u, p: p, sa: sa, cr: cr, clock: clock}
}

// Report counts rows in each store; any failing query fails the report.
func (s *healthService) Report(ctx context.Context) (*transfer.HealthReport, error) {
	users, err := s.u.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("error counting users: %w", err)
	}
	posts, err := s.p.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("error counting posts: %w", err)
	}
	accounts, err := s.sa.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("error counting accounts: %w", err)
	}
	conversations, err := s.cr.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("error counting conversations: %w", err)
	}

	return &transfer.HealthReport{
		Status:        "ok",
		Users:         users,
		Posts:         posts,
		Accounts:      accounts,
		Conversations: conversations,
		Timestamp:     s.clock.Now().UTC(),
	}, nil
}
