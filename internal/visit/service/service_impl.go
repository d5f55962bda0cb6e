package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	campaigndomain "github.com/tonynham/collabuu/internal/campaign/domain"
	"github.com/tonynham/collabuu/internal/clock"
	"github.com/tonynham/collabuu/internal/config"
	loyaltydomain "github.com/tonynham/collabuu/internal/loyalty/domain"
	"github.com/tonynham/collabuu/internal/metrics"
	"github.com/tonynham/collabuu/internal/prooftoken"
	visitdomain "github.com/tonynham/collabuu/internal/visit/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	rewards *config.RewardsConfigHolder
	metrics *metrics.Metrics

	repo         visitdomain.Repository
	campaignRepo campaigndomain.Repository
	campaignSvc  campaigndomain.Service
	loyaltySvc   loyaltydomain.Service
}

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Rewards *config.RewardsConfigHolder
	Metrics *metrics.Metrics

	Repo         visitdomain.Repository
	CampaignRepo campaigndomain.Repository
	CampaignSvc  campaigndomain.Service
	LoyaltySvc   loyaltydomain.Service
}

func NewService(p ServiceParam) visitdomain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("visit.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		rewards:      p.Rewards,
		metrics:      p.Metrics,
		repo:         p.Repo,
		campaignRepo: p.CampaignRepo,
		campaignSvc:  p.CampaignSvc,
		loyaltySvc:   p.LoyaltySvc,
	}
}

func (s *Service) VerifyProof(ctx context.Context, req visitdomain.VerifyVisitRequest) (visitdomain.VerifyVisitResponse, error) {
	businessID, err := parseID(req.BusinessID, visitdomain.ErrInvalidBusiness)
	if err != nil {
		return visitdomain.VerifyVisitResponse{}, err
	}

	proof, err := prooftoken.DecodeVisitProof(req.QRToken)
	if err != nil {
		s.metrics.ProofFailures.WithLabelValues("visit").Inc()
		return visitdomain.VerifyVisitResponse{}, visitdomain.ErrInvalidProof
	}

	now := s.clock.Now()
	campaign, err := s.campaignSvc.GetActive(ctx, proof.CampaignID, now)
	if err != nil {
		return visitdomain.VerifyVisitResponse{}, err
	}
	if campaign.BusinessID != businessID {
		return visitdomain.VerifyVisitResponse{}, visitdomain.ErrCampaignMismatch
	}

	visit := visitdomain.Visit{
		ID:           s.genID.Generate(),
		CampaignID:   campaign.ID,
		BusinessID:   businessID,
		InfluencerID: proof.InfluencerID,
		CustomerID:   proof.CustomerID,
		Status:       visitdomain.VisitStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// Bind the visit to the influencer's referral artifact when one
	// exists, so approval can count it against the usage cap.
	artifact, err := s.campaignRepo.FindArtifactByBinding(ctx, s.db, campaign.ID, proof.InfluencerID)
	if err != nil {
		return visitdomain.VerifyVisitResponse{}, err
	}
	if artifact != nil {
		artifactID := artifact.ID
		visit.ArtifactID = &artifactID
	}

	if err := s.repo.Insert(ctx, s.db, &visit); err != nil {
		return visitdomain.VerifyVisitResponse{}, err
	}

	s.metrics.VisitsCreated.Inc()
	s.log.Info("visit created",
		zap.String("visit_id", visit.ID.String()),
		zap.String("campaign_id", campaign.ID.String()),
		zap.String("customer_id", proof.CustomerID.String()),
	)
	return visitdomain.VerifyVisitResponse{
		Visit:   visit,
		Message: "visit pending business approval",
	}, nil
}

func (s *Service) Approve(ctx context.Context, visitID, businessID string) (visitdomain.Visit, error) {
	id, bizID, err := parseVisitPair(visitID, businessID)
	if err != nil {
		return visitdomain.Visit{}, err
	}

	visit, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return visitdomain.Visit{}, err
	}
	if visit == nil || visit.BusinessID != bizID {
		return visitdomain.Visit{}, visitdomain.ErrVisitNotFound
	}
	if visit.Status.Terminal() {
		return visitdomain.Visit{}, visitdomain.ErrAlreadyProcessed
	}

	// Settlement re-checks the campaign the same way scanning did: a
	// visit pending past the period window (or a paused campaign) is
	// not approvable.
	now := s.clock.Now()
	campaign, err := s.campaignSvc.GetActive(ctx, visit.CampaignID, now)
	if err != nil {
		return visitdomain.Visit{}, err
	}

	points := s.rewards.Get().PointsPerVisit
	campaignID := campaign.ID

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		flipped, err := s.repo.Transition(ctx, tx, id, bizID, visitdomain.VisitStatusApproved, campaign.CreditsPerAction, points, now)
		if err != nil {
			return err
		}
		if !flipped {
			return visitdomain.ErrAlreadyProcessed
		}

		debited, err := s.campaignRepo.DebitCredits(ctx, tx, campaignID, campaign.CreditsPerAction, now)
		if err != nil {
			return err
		}
		if !debited {
			return campaigndomain.ErrInsufficientCredits
		}

		_, err = s.loyaltySvc.Credit(ctx, tx, loyaltydomain.EntryRequest{
			CustomerID:  visit.CustomerID,
			BusinessID:  bizID,
			CampaignID:  &campaignID,
			Type:        loyaltydomain.TransactionTypeEarn,
			Points:      points,
			ReferenceID: "visit:" + id.String(),
			Description: "approved campaign visit",
		})
		if err != nil {
			return err
		}

		if visit.ArtifactID != nil {
			bumped, err := s.campaignRepo.IncrementArtifactUsage(ctx, tx, *visit.ArtifactID, now)
			if err != nil {
				return err
			}
			if !bumped {
				return campaigndomain.ErrUsageLimitExceeded
			}
		}
		return nil
	})
	if err != nil {
		return visitdomain.Visit{}, err
	}

	s.metrics.VisitsApproved.Inc()
	s.log.Info("visit approved",
		zap.String("visit_id", id.String()),
		zap.Int64("credits_earned", campaign.CreditsPerAction),
		zap.Int64("points_earned", points),
	)

	visit.Status = visitdomain.VisitStatusApproved
	visit.CreditsEarned = campaign.CreditsPerAction
	visit.PointsEarned = points
	visit.ProcessedAt = &now
	visit.UpdatedAt = now
	return *visit, nil
}

func (s *Service) Reject(ctx context.Context, visitID, businessID string) (visitdomain.Visit, error) {
	id, bizID, err := parseVisitPair(visitID, businessID)
	if err != nil {
		return visitdomain.Visit{}, err
	}

	visit, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return visitdomain.Visit{}, err
	}
	if visit == nil || visit.BusinessID != bizID {
		return visitdomain.Visit{}, visitdomain.ErrVisitNotFound
	}
	if visit.Status.Terminal() {
		return visitdomain.Visit{}, visitdomain.ErrAlreadyProcessed
	}

	now := s.clock.Now()
	flipped, err := s.repo.Transition(ctx, s.db, id, bizID, visitdomain.VisitStatusRejected, 0, 0, now)
	if err != nil {
		return visitdomain.Visit{}, err
	}
	if !flipped {
		return visitdomain.Visit{}, visitdomain.ErrAlreadyProcessed
	}

	s.metrics.VisitsRejected.Inc()
	s.log.Info("visit rejected", zap.String("visit_id", id.String()))

	visit.Status = visitdomain.VisitStatusRejected
	visit.ProcessedAt = &now
	visit.UpdatedAt = now
	return *visit, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (visitdomain.Visit, error) {
	visitID, err := parseID(id, visitdomain.ErrInvalidVisit)
	if err != nil {
		return visitdomain.Visit{}, err
	}

	visit, err := s.repo.FindByID(ctx, s.db, visitID)
	if err != nil {
		return visitdomain.Visit{}, err
	}
	if visit == nil {
		return visitdomain.Visit{}, visitdomain.ErrVisitNotFound
	}
	return *visit, nil
}

func (s *Service) List(ctx context.Context, req visitdomain.ListVisitsRequest) (visitdomain.ListVisitsResponse, error) {
	businessID, err := parseID(req.BusinessID, visitdomain.ErrInvalidBusiness)
	if err != nil {
		return visitdomain.ListVisitsResponse{}, err
	}

	status := visitdomain.VisitStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	switch status {
	case "", visitdomain.VisitStatusPending, visitdomain.VisitStatusApproved, visitdomain.VisitStatusRejected:
	default:
		return visitdomain.ListVisitsResponse{}, visitdomain.ErrInvalidStatus
	}

	limit := req.PageSize
	if limit <= 0 || limit > 250 {
		limit = 50
	}

	visits, err := s.repo.List(ctx, s.db, businessID, status, limit)
	if err != nil {
		return visitdomain.ListVisitsResponse{}, err
	}
	return visitdomain.ListVisitsResponse{Visits: visits}, nil
}

func parseVisitPair(visitID, businessID string) (snowflake.ID, snowflake.ID, error) {
	id, err := parseID(visitID, visitdomain.ErrInvalidVisit)
	if err != nil {
		return 0, 0, err
	}
	bizID, err := parseID(businessID, visitdomain.ErrInvalidBusiness)
	if err != nil {
		return 0, 0, err
	}
	return id, bizID, nil
}

func parseID(raw string, invalid error) (snowflake.ID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, invalid
	}
	id, err := snowflake.ParseString(raw)
	if err != nil || id == 0 {
		return 0, invalid
	}
	return id, nil
}
