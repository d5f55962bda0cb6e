package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	campaigndomain "github.com/tonynham/collabuu/internal/campaign/domain"
)

type createCampaignRequest struct {
	BusinessID       string         `json:"business_id" binding:"required"`
	Type             string         `json:"type" binding:"required"`
	Title            string         `json:"title" binding:"required"`
	CreditsPerAction int64          `json:"credits_per_action"`
	TotalCredits     int64          `json:"total_credits"`
	RewardPointsCost int64          `json:"reward_points_cost"`
	PeriodStart      time.Time      `json:"period_start" binding:"required"`
	PeriodEnd        time.Time      `json:"period_end" binding:"required"`
	Metadata         map[string]any `json:"metadata"`
}

type createReferralCodeRequest struct {
	InfluencerID string     `json:"influencer_id" binding:"required"`
	UsageLimit   *int64     `json:"usage_limit"`
	ExpiresAt    *time.Time `json:"expires_at"`
}

func (s *Server) CreateCampaign(c *gin.Context) {
	var req createCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	campaign, err := s.campaignSvc.Create(c.Request.Context(), campaigndomain.CreateCampaignRequest{
		BusinessID:       req.BusinessID,
		Type:             campaigndomain.CampaignType(req.Type),
		Title:            req.Title,
		CreditsPerAction: req.CreditsPerAction,
		TotalCredits:     req.TotalCredits,
		RewardPointsCost: req.RewardPointsCost,
		PeriodStart:      req.PeriodStart,
		PeriodEnd:        req.PeriodEnd,
		Metadata:         req.Metadata,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"campaign": campaign})
}

func (s *Server) GetCampaignByID(c *gin.Context) {
	campaign, err := s.campaignSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"campaign": campaign})
}

func (s *Server) ListCampaigns(c *gin.Context) {
	resp, err := s.campaignSvc.List(c.Request.Context(), campaigndomain.ListCampaignsRequest{
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

func (s *Server) transitionCampaign(target campaigndomain.CampaignStatus) gin.HandlerFunc {
	return func(c *gin.Context) {
		campaign, err := s.campaignSvc.Transition(c.Request.Context(), c.Param("id"), target)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"campaign": campaign})
	}
}

func (s *Server) CreateReferralCode(c *gin.Context) {
	var req createReferralCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	artifact, err := s.campaignSvc.CreateArtifact(c.Request.Context(), campaigndomain.CreateArtifactRequest{
		CampaignID:   c.Param("id"),
		InfluencerID: req.InfluencerID,
		UsageLimit:   req.UsageLimit,
		ExpiresAt:    req.ExpiresAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"referral_code": artifact})
}

func (s *Server) GetReferralCodeByCode(c *gin.Context) {
	artifact, err := s.campaignSvc.GetArtifactByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"referral_code": artifact})
}
