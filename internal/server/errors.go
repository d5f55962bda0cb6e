package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	campaigndomain "github.com/tonynham/collabuu/internal/campaign/domain"
	loyaltydomain "github.com/tonynham/collabuu/internal/loyalty/domain"
	"github.com/tonynham/collabuu/internal/prooftoken"
	redemptiondomain "github.com/tonynham/collabuu/internal/redemption/domain"
	visitdomain "github.com/tonynham/collabuu/internal/visit/domain"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`

	// Populated for insufficient_points so the caller can render a
	// precise message.
	RequiredPoints  *int64 `json:"required_points,omitempty"`
	AvailablePoints *int64 `json:"available_points,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not_found")
	ErrRateLimited    = errors.New("rate_limited")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}

	case errors.Is(err, loyaltydomain.ErrInsufficientPoints):
		payload := errorPayload{
			Type:    "insufficient_points",
			Message: "insufficient points",
		}
		var insErr *loyaltydomain.InsufficientPointsError
		if errors.As(err, &insErr) {
			payload.RequiredPoints = &insErr.Required
			payload.AvailablePoints = &insErr.Available
		}
		return http.StatusBadRequest, payload

	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}

	case errors.Is(err, ErrForbidden),
		errors.Is(err, visitdomain.ErrCampaignMismatch):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "campaign not owned by caller",
		}

	case errors.Is(err, campaigndomain.ErrCampaignInactive):
		return http.StatusNotFound, errorPayload{
			Type:    "campaign_inactive",
			Message: "campaign is not active",
		}

	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}

	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "already_processed",
			Message: err.Error(),
		}

	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many scan attempts",
		}

	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, prooftoken.ErrInvalidToken),
		errors.Is(err, visitdomain.ErrInvalidProof),
		errors.Is(err, redemptiondomain.ErrInvalidProof):
		return true
	case isInvalidFieldError(err):
		return true
	default:
		return false
	}
}

// isInvalidFieldError covers the domain ErrInvalid* family; every
// sentinel in it spells its code as invalid_<field>.
func isInvalidFieldError(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "invalid_") &&
		!errors.Is(err, campaigndomain.ErrInvalidTransition)
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, campaigndomain.ErrCampaignNotFound),
		errors.Is(err, campaigndomain.ErrArtifactNotFound),
		errors.Is(err, campaigndomain.ErrCampaignNotRewarding),
		errors.Is(err, visitdomain.ErrVisitNotFound),
		errors.Is(err, redemptiondomain.ErrRedemptionNotFound),
		errors.Is(err, loyaltydomain.ErrLedgerNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, visitdomain.ErrAlreadyProcessed),
		errors.Is(err, redemptiondomain.ErrAlreadyProcessed),
		errors.Is(err, campaigndomain.ErrInvalidTransition),
		errors.Is(err, campaigndomain.ErrUsageLimitExceeded),
		errors.Is(err, campaigndomain.ErrInsufficientCredits),
		errors.Is(err, campaigndomain.ErrDuplicateArtifact):
		return true
	default:
		return false
	}
}

func classifyErrorForLog(err error) (string, string) {
	switch {
	case err == nil:
		return "", ""
	case errors.Is(err, loyaltydomain.ErrInsufficientPoints):
		return "insufficient_points", err.Error()
	case isValidationError(err):
		return "validation_error", err.Error()
	case errors.Is(err, ErrForbidden), errors.Is(err, visitdomain.ErrCampaignMismatch):
		return "forbidden", err.Error()
	case isNotFoundError(err), errors.Is(err, campaigndomain.ErrCampaignInactive):
		return "not_found", err.Error()
	case isConflictError(err):
		return "already_processed", err.Error()
	case errors.Is(err, ErrRateLimited):
		return "rate_limited", err.Error()
	default:
		return "internal_error", "internal_error"
	}
}
