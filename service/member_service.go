package service

import (
	"context"
	"fmt"

	"bookie/models"

	log "github.com/sirupsen/logrus"
)

type memberService struct {
	uowFactory      UnitOfWorkFactory
	startingBalance int64
}

// NewMemberService creates a new member service
func NewMemberService(uowFactory UnitOfWorkFactory, startingBalance int64) MemberService {
	return &memberService{
		uowFactory:      uowFactory,
		startingBalance: startingBalance,
	}
}

// RegisterMember creates a member at the default rating and funds their coin
// account with the starting balance, atomically.
func (s *memberService) RegisterMember(ctx context.Context, displayName string) (*models.Member, error) {
	if displayName == "" {
		return nil, fmt.Errorf("%w: display name cannot be empty", ErrValidation)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	member, err := uow.MemberRepository().Create(ctx, displayName)
	if err != nil {
		return nil, fmt.Errorf("failed to create member: %w", err)
	}

	if err := uow.CoinLedger().Credit(ctx, member.ID, s.startingBalance); err != nil {
		return nil, fmt.Errorf("failed to fund starting balance: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"memberID":        member.ID,
		"displayName":     displayName,
		"startingBalance": s.startingBalance,
	}).Info("Member registered")

	return member, nil
}

// GetMember retrieves a member by ID, nil when not found
func (s *memberService) GetMember(ctx context.Context, memberID int64) (*models.Member, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	member, err := uow.MemberRepository().GetByID(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	return member, nil
}

// GetBalance returns a member's spendable coin balance
func (s *memberService) GetBalance(ctx context.Context, memberID int64) (int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	balance, err := uow.CoinLedger().GetBalance(ctx, memberID)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}

	return balance, nil
}
