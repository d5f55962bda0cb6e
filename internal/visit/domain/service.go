package domain

import (
	"context"
	"errors"
)

type VerifyVisitRequest struct {
	QRToken    string `json:"qr_token"`
	BusinessID string `json:"business_id"`
}

type VerifyVisitResponse struct {
	Visit   Visit  `json:"visit"`
	Message string `json:"message"`
}

type ListVisitsRequest struct {
	BusinessID string
	Status     string
	PageSize   int
}

type ListVisitsResponse struct {
	Visits []*Visit `json:"visits"`
}

type Service interface {
	// VerifyProof decodes a visit proof token, checks the claimed campaign
	// binding and records a pending visit.
	VerifyProof(ctx context.Context, req VerifyVisitRequest) (VerifyVisitResponse, error)

	// Approve settles a pending visit: the status flip, the campaign
	// credit debit, the loyalty credit and the referral usage increment
	// commit atomically or not at all.
	Approve(ctx context.Context, visitID, businessID string) (Visit, error)
	Reject(ctx context.Context, visitID, businessID string) (Visit, error)

	GetByID(ctx context.Context, id string) (Visit, error)
	List(ctx context.Context, req ListVisitsRequest) (ListVisitsResponse, error)
}

var (
	ErrVisitNotFound    = errors.New("visit_not_found")
	ErrAlreadyProcessed = errors.New("visit_already_processed")
	ErrCampaignMismatch = errors.New("campaign_mismatch")
	ErrInvalidProof     = errors.New("invalid_proof")
	ErrInvalidVisit     = errors.New("invalid_visit")
	ErrInvalidBusiness  = errors.New("invalid_business")
	ErrInvalidStatus    = errors.New("invalid_status")
)
