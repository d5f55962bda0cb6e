package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	visitdomain "github.com/tonynham/collabuu/internal/visit/domain"
)

type verifyVisitRequest struct {
	QRToken    string `json:"qr_token" binding:"required"`
	BusinessID string `json:"business_id" binding:"required"`
}

type visitDecisionRequest struct {
	BusinessID string `json:"business_id" binding:"required"`
}

func (s *Server) VerifyVisit(c *gin.Context) {
	var req verifyVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if !s.allowScan(c, req.BusinessID, req.QRToken) {
		return
	}

	resp, err := s.visitSvc.VerifyProof(c.Request.Context(), visitdomain.VerifyVisitRequest{
		QRToken:    req.QRToken,
		BusinessID: req.BusinessID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (s *Server) ApproveVisit(c *gin.Context) {
	var req visitDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	visit, err := s.visitSvc.Approve(c.Request.Context(), c.Param("id"), req.BusinessID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"visit": visit})
}

func (s *Server) RejectVisit(c *gin.Context) {
	var req visitDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	visit, err := s.visitSvc.Reject(c.Request.Context(), c.Param("id"), req.BusinessID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"visit": visit})
}

func (s *Server) GetVisitByID(c *gin.Context) {
	visit, err := s.visitSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"visit": visit})
}

func (s *Server) ListVisits(c *gin.Context) {
	resp, err := s.visitSvc.List(c.Request.Context(), visitdomain.ListVisitsRequest{
		BusinessID: c.Query("business_id"),
		Status:     c.Query("status"),
		PageSize:   queryInt(c, "page_size"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// allowScan throttles proof verification per business and per token. A
// false return means the request was already aborted.
func (s *Server) allowScan(c *gin.Context, businessID, token string) bool {
	ctx := c.Request.Context()

	if businessID != "" {
		res, err := s.scanLimiter.AllowBusiness(ctx, businessID)
		if err != nil {
			AbortWithError(c, err)
			return false
		}
		if !res.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())+1))
			AbortWithError(c, ErrRateLimited)
			return false
		}
	}

	res, err := s.scanLimiter.AllowToken(ctx, token)
	if err != nil {
		AbortWithError(c, err)
		return false
	}
	if !res.Allowed {
		c.Header("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())+1))
		AbortWithError(c, ErrRateLimited)
		return false
	}
	return true
}

func queryInt(c *gin.Context, key string) int {
	raw := c.Query(key)
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return v
}
