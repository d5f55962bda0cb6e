package domain

import (
	"context"
	"errors"
)

type RedeemRequest struct {
	CustomerID string `json:"customer_id"`
	CampaignID string `json:"campaign_id"`
}

type ListRedemptionsRequest struct {
	CustomerID string
	PageSize   int
}

type ListRedemptionsResponse struct {
	Redemptions []*RewardRedemption `json:"redemptions"`
}

type Service interface {
	// Redeem debits the reward's point cost and mints a pending
	// redemption with a unique QR proof. The debit and the mint commit
	// atomically or not at all.
	Redeem(ctx context.Context, req RedeemRequest) (RewardRedemption, error)

	// VerifyProof resolves a redemption proof token. Every failure mode
	// collapses to ErrInvalidProof so callers cannot probe which check
	// rejected the token. A redemption past its validity window is
	// expired here, refunding its points.
	VerifyProof(ctx context.Context, token string) (RewardRedemption, error)

	Complete(ctx context.Context, redemptionID string) (RewardRedemption, error)

	GetByID(ctx context.Context, id string) (RewardRedemption, error)
	List(ctx context.Context, req ListRedemptionsRequest) (ListRedemptionsResponse, error)
}

var (
	ErrRedemptionNotFound = errors.New("redemption_not_found")
	ErrAlreadyProcessed   = errors.New("redemption_already_processed")
	ErrInvalidProof       = errors.New("invalid_redemption_proof")
	ErrInvalidRedemption  = errors.New("invalid_redemption")
	ErrInvalidCustomer    = errors.New("invalid_customer")
)
