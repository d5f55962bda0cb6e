package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	redemptiondomain "github.com/tonynham/collabuu/internal/redemption/domain"
)

type redeemRequest struct {
	CustomerID string `json:"customer_id" binding:"required"`
	CampaignID string `json:"campaign_id" binding:"required"`
}

func (s *Server) Redeem(c *gin.Context) {
	var req redeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	redemption, err := s.redemptionSvc.Redeem(c.Request.Context(), redemptiondomain.RedeemRequest{
		CustomerID: req.CustomerID,
		CampaignID: req.CampaignID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"redemption": redemption})
}

func (s *Server) VerifyReward(c *gin.Context) {
	token := c.Query("qr_token")
	if token == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if !s.allowScan(c, "", token) {
		return
	}

	redemption, err := s.redemptionSvc.VerifyProof(c.Request.Context(), token)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"redemption": redemption})
}

func (s *Server) CompleteRedemption(c *gin.Context) {
	redemption, err := s.redemptionSvc.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"redemption": redemption})
}

func (s *Server) GetRedemptionByID(c *gin.Context) {
	redemption, err := s.redemptionSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"redemption": redemption})
}

func (s *Server) ListRedemptions(c *gin.Context) {
	resp, err := s.redemptionSvc.List(c.Request.Context(), redemptiondomain.ListRedemptionsRequest{
		CustomerID: c.Query("customer_id"),
		PageSize:   queryInt(c, "page_size"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
