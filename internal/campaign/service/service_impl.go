package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/oklog/ulid/v2"
	campaigndomain "github.com/tonynham/collabuu/internal/campaign/domain"
	"github.com/tonynham/collabuu/internal/clock"
	"github.com/tonynham/collabuu/pkg/db"
	"github.com/tonynham/collabuu/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const artifactCodeAttempts = 3

// allowedTransitions is the campaign lifecycle graph. paused and active
// are mutually reversible; completed, cancelled and expired are terminal.
var allowedTransitions = map[campaigndomain.CampaignStatus][]campaigndomain.CampaignStatus{
	campaigndomain.CampaignStatusDraft: {
		campaigndomain.CampaignStatusActive,
		campaigndomain.CampaignStatusCancelled,
	},
	campaigndomain.CampaignStatusActive: {
		campaigndomain.CampaignStatusPaused,
		campaigndomain.CampaignStatusCompleted,
		campaigndomain.CampaignStatusCancelled,
		campaigndomain.CampaignStatusExpired,
	},
	campaigndomain.CampaignStatusPaused: {
		campaigndomain.CampaignStatusActive,
		campaigndomain.CampaignStatusCompleted,
		campaigndomain.CampaignStatusCancelled,
		campaigndomain.CampaignStatusExpired,
	},
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  campaigndomain.Repository

	campaignStore repository.Repository[campaigndomain.Campaign]
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  campaigndomain.Repository
}

func NewService(p ServiceParam) campaigndomain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("campaign.service"),
		genID:         p.GenID,
		clock:         p.Clock,
		repo:          p.Repo,
		campaignStore: repository.ProvideStore[campaigndomain.Campaign](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req campaigndomain.CreateCampaignRequest) (campaigndomain.Campaign, error) {
	businessID, err := parseID(req.BusinessID, campaigndomain.ErrInvalidBusiness)
	if err != nil {
		return campaigndomain.Campaign{}, err
	}

	switch req.Type {
	case campaigndomain.CampaignTypePayPerCustomer,
		campaigndomain.CampaignTypePayPerPost,
		campaigndomain.CampaignTypeMediaEvent,
		campaigndomain.CampaignTypeLoyaltyReward:
	default:
		return campaigndomain.Campaign{}, campaigndomain.ErrInvalidCampaignType
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return campaigndomain.Campaign{}, campaigndomain.ErrInvalidTitle
	}
	if req.CreditsPerAction <= 0 || req.TotalCredits < 0 {
		return campaigndomain.Campaign{}, campaigndomain.ErrInvalidCredits
	}
	if req.PeriodStart.IsZero() || req.PeriodEnd.IsZero() || !req.PeriodEnd.After(req.PeriodStart) {
		return campaigndomain.Campaign{}, campaigndomain.ErrInvalidPeriod
	}
	if req.Type == campaigndomain.CampaignTypeLoyaltyReward && req.RewardPointsCost <= 0 {
		return campaigndomain.Campaign{}, campaigndomain.ErrInvalidRewardPoints
	}

	now := s.clock.Now()
	campaign := campaigndomain.Campaign{
		ID:               s.genID.Generate(),
		BusinessID:       businessID,
		Type:             req.Type,
		Status:           campaigndomain.CampaignStatusDraft,
		Title:            title,
		CreditsPerAction: req.CreditsPerAction,
		TotalCredits:     req.TotalCredits,
		RewardPointsCost: req.RewardPointsCost,
		PeriodStart:      req.PeriodStart.UTC(),
		PeriodEnd:        req.PeriodEnd.UTC(),
		Metadata:         datatypes.JSONMap(req.Metadata),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repo.Insert(ctx, s.db, &campaign); err != nil {
		return campaigndomain.Campaign{}, err
	}

	s.log.Info("campaign created",
		zap.String("campaign_id", campaign.ID.String()),
		zap.String("business_id", businessID.String()),
		zap.String("type", string(campaign.Type)),
	)
	return campaign, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (campaigndomain.Campaign, error) {
	campaignID, err := parseID(id, campaigndomain.ErrInvalidCampaign)
	if err != nil {
		return campaigndomain.Campaign{}, err
	}

	campaign, err := s.repo.FindByID(ctx, s.db, campaignID)
	if err != nil {
		return campaigndomain.Campaign{}, err
	}
	if campaign == nil {
		return campaigndomain.Campaign{}, campaigndomain.ErrCampaignNotFound
	}
	return *campaign, nil
}

func (s *Service) List(ctx context.Context, req campaigndomain.ListCampaignsRequest) (campaigndomain.ListCampaignsResponse, error) {
	businessID, err := parseID(req.BusinessID, campaigndomain.ErrInvalidBusiness)
	if err != nil {
		return campaigndomain.ListCampaignsResponse{}, err
	}

	status := campaigndomain.CampaignStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	if status != "" {
		if _, ok := allowedTransitions[status]; !ok && !status.Terminal() {
			return campaigndomain.ListCampaignsResponse{}, campaigndomain.ErrInvalidStatus
		}
	}

	limit := req.PageSize
	if limit <= 0 || limit > 250 {
		limit = 50
	}

	campaigns, err := s.repo.List(ctx, s.db, businessID, status, limit)
	if err != nil {
		return campaigndomain.ListCampaignsResponse{}, err
	}
	return campaigndomain.ListCampaignsResponse{Campaigns: campaigns}, nil
}

func (s *Service) Transition(ctx context.Context, id string, target campaigndomain.CampaignStatus) (campaigndomain.Campaign, error) {
	campaignID, err := parseID(id, campaigndomain.ErrInvalidCampaign)
	if err != nil {
		return campaigndomain.Campaign{}, err
	}

	campaign, err := s.repo.FindByID(ctx, s.db, campaignID)
	if err != nil {
		return campaigndomain.Campaign{}, err
	}
	if campaign == nil {
		return campaigndomain.Campaign{}, campaigndomain.ErrCampaignNotFound
	}

	if !transitionAllowed(campaign.Status, target) {
		return campaigndomain.Campaign{}, campaigndomain.ErrInvalidTransition
	}

	updated, err := s.repo.UpdateStatus(ctx, s.db, campaignID, []campaigndomain.CampaignStatus{campaign.Status}, target, s.clock.Now())
	if err != nil {
		return campaigndomain.Campaign{}, err
	}
	if !updated {
		// The observed status moved underneath us; the transition we
		// validated no longer applies.
		return campaigndomain.Campaign{}, campaigndomain.ErrInvalidTransition
	}

	s.log.Info("campaign transitioned",
		zap.String("campaign_id", campaignID.String()),
		zap.String("from", string(campaign.Status)),
		zap.String("to", string(target)),
	)

	campaign.Status = target
	campaign.UpdatedAt = s.clock.Now()
	return *campaign, nil
}

// GetActive implements domain.Service.
func (s *Service) GetActive(ctx context.Context, id snowflake.ID, at time.Time) (campaigndomain.Campaign, error) {
	if id == 0 {
		return campaigndomain.Campaign{}, campaigndomain.ErrInvalidCampaign
	}

	campaign, err := s.campaignStore.FindOne(ctx, &campaigndomain.Campaign{ID: id})
	if err != nil {
		return campaigndomain.Campaign{}, err
	}
	if campaign == nil {
		return campaigndomain.Campaign{}, campaigndomain.ErrCampaignNotFound
	}
	if campaign.Status != campaigndomain.CampaignStatusActive || !campaign.WithinWindow(at) {
		return campaigndomain.Campaign{}, campaigndomain.ErrCampaignInactive
	}
	return *campaign, nil
}

func (s *Service) CreateArtifact(ctx context.Context, req campaigndomain.CreateArtifactRequest) (campaigndomain.ReferralArtifact, error) {
	campaignID, err := parseID(req.CampaignID, campaigndomain.ErrInvalidCampaign)
	if err != nil {
		return campaigndomain.ReferralArtifact{}, err
	}
	influencerID, err := parseID(req.InfluencerID, campaigndomain.ErrInvalidInfluencer)
	if err != nil {
		return campaigndomain.ReferralArtifact{}, err
	}
	if req.UsageLimit != nil && *req.UsageLimit <= 0 {
		return campaigndomain.ReferralArtifact{}, campaigndomain.ErrInvalidUsageLimit
	}

	campaign, err := s.repo.FindByID(ctx, s.db, campaignID)
	if err != nil {
		return campaigndomain.ReferralArtifact{}, err
	}
	if campaign == nil {
		return campaigndomain.ReferralArtifact{}, campaigndomain.ErrCampaignNotFound
	}
	if campaign.Status.Terminal() {
		return campaigndomain.ReferralArtifact{}, campaigndomain.ErrCampaignInactive
	}

	existing, err := s.repo.FindArtifactByBinding(ctx, s.db, campaignID, influencerID)
	if err != nil {
		return campaigndomain.ReferralArtifact{}, err
	}
	if existing != nil {
		return campaigndomain.ReferralArtifact{}, campaigndomain.ErrDuplicateArtifact
	}

	now := s.clock.Now()
	artifact := campaigndomain.ReferralArtifact{
		ID:           s.genID.Generate(),
		CampaignID:   campaignID,
		InfluencerID: influencerID,
		UsageLimit:   req.UsageLimit,
		IsActive:     true,
		ExpiresAt:    req.ExpiresAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	for attempt := 0; attempt < artifactCodeAttempts; attempt++ {
		artifact.Code = referralCode(campaign.Title)
		err = s.repo.InsertArtifact(ctx, s.db, &artifact)
		if err == nil {
			return artifact, nil
		}
		if !db.IsDuplicateKeyErr(err) {
			return campaigndomain.ReferralArtifact{}, err
		}
	}
	return campaigndomain.ReferralArtifact{}, err
}

func (s *Service) GetArtifactByCode(ctx context.Context, code string) (campaigndomain.ReferralArtifact, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return campaigndomain.ReferralArtifact{}, campaigndomain.ErrInvalidArtifactCode
	}

	artifact, err := s.repo.FindArtifactByCode(ctx, s.db, code)
	if err != nil {
		return campaigndomain.ReferralArtifact{}, err
	}
	if artifact == nil {
		return campaigndomain.ReferralArtifact{}, campaigndomain.ErrArtifactNotFound
	}
	return *artifact, nil
}

// referralCode derives a shareable code from the campaign title plus a
// short random suffix to keep codes unique across influencers.
func referralCode(title string) string {
	base := slug.Make(title)
	if len(base) > 24 {
		base = base[:24]
	}
	suffix := strings.ToLower(ulid.Make().String())
	return base + "-" + suffix[len(suffix)-6:]
}

func transitionAllowed(from, to campaigndomain.CampaignStatus) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
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
