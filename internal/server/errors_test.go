package server

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	campaigndomain "github.com/tonynham/collabuu/internal/campaign/domain"
	loyaltydomain "github.com/tonynham/collabuu/internal/loyalty/domain"
	"github.com/tonynham/collabuu/internal/prooftoken"
	redemptiondomain "github.com/tonynham/collabuu/internal/redemption/domain"
	visitdomain "github.com/tonynham/collabuu/internal/visit/domain"
	"gorm.io/gorm"
)

func TestMapErrorTaxonomy(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"invalid request", ErrInvalidRequest, http.StatusBadRequest, "validation_error"},
		{"malformed proof token", prooftoken.ErrInvalidToken, http.StatusBadRequest, "validation_error"},
		{"invalid visit proof", visitdomain.ErrInvalidProof, http.StatusBadRequest, "validation_error"},
		{"invalid redemption proof", redemptiondomain.ErrInvalidProof, http.StatusBadRequest, "validation_error"},
		{"invalid id field", loyaltydomain.ErrInvalidCustomer, http.StatusBadRequest, "validation_error"},
		{"invalid page token", loyaltydomain.ErrInvalidPageToken, http.StatusBadRequest, "validation_error"},

		{"foreign campaign", visitdomain.ErrCampaignMismatch, http.StatusForbidden, "forbidden"},

		{"inactive campaign", campaigndomain.ErrCampaignInactive, http.StatusNotFound, "campaign_inactive"},
		{"unknown campaign", campaigndomain.ErrCampaignNotFound, http.StatusNotFound, "not_found"},
		{"non reward campaign", campaigndomain.ErrCampaignNotRewarding, http.StatusNotFound, "not_found"},
		{"unknown visit", visitdomain.ErrVisitNotFound, http.StatusNotFound, "not_found"},
		{"unknown redemption", redemptiondomain.ErrRedemptionNotFound, http.StatusNotFound, "not_found"},
		{"gorm not found", gorm.ErrRecordNotFound, http.StatusNotFound, "not_found"},

		{"visit already processed", visitdomain.ErrAlreadyProcessed, http.StatusConflict, "already_processed"},
		{"redemption already processed", redemptiondomain.ErrAlreadyProcessed, http.StatusConflict, "already_processed"},
		{"bad campaign transition", campaigndomain.ErrInvalidTransition, http.StatusConflict, "already_processed"},
		{"artifact usage exhausted", campaigndomain.ErrUsageLimitExceeded, http.StatusConflict, "already_processed"},
		{"credit pool exhausted", campaigndomain.ErrInsufficientCredits, http.StatusConflict, "already_processed"},

		{"rate limited", ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},

		{"unknown error stays opaque", errors.New("pg: connection reset"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, payload := mapError(tc.err)
			assert.Equal(t, tc.wantStatus, status)
			assert.Equal(t, tc.wantType, payload.Type)
		})
	}
}

func TestMapErrorInsufficientPointsCarriesAmounts(t *testing.T) {
	status, payload := mapError(&loyaltydomain.InsufficientPointsError{Required: 80, Available: 20})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "insufficient_points", payload.Type)
	require.NotNil(t, payload.RequiredPoints)
	require.NotNil(t, payload.AvailablePoints)
	assert.EqualValues(t, 80, *payload.RequiredPoints)
	assert.EqualValues(t, 20, *payload.AvailablePoints)
}

func TestMapErrorBareSentinelOmitsAmounts(t *testing.T) {
	status, payload := mapError(loyaltydomain.ErrInsufficientPoints)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "insufficient_points", payload.Type)
	assert.Nil(t, payload.RequiredPoints)
	assert.Nil(t, payload.AvailablePoints)
}

func TestMapErrorInternalNeverLeaksDetail(t *testing.T) {
	_, payload := mapError(errors.New("dial tcp 10.0.0.4:5432: i/o timeout"))
	assert.Equal(t, "internal server error", payload.Message)
	assert.NotContains(t, payload.Message, "10.0.0.4")
}
