package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	campaigndomain "github.com/tonynham/collabuu/internal/campaign/domain"
	"github.com/tonynham/collabuu/internal/clock"
	"github.com/tonynham/collabuu/internal/config"
	loyaltydomain "github.com/tonynham/collabuu/internal/loyalty/domain"
	"github.com/tonynham/collabuu/internal/metrics"
	"github.com/tonynham/collabuu/internal/prooftoken"
	redemptiondomain "github.com/tonynham/collabuu/internal/redemption/domain"
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

	repo        redemptiondomain.Repository
	campaignSvc campaigndomain.Service
	loyaltySvc  loyaltydomain.Service
}

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Rewards *config.RewardsConfigHolder
	Metrics *metrics.Metrics

	Repo        redemptiondomain.Repository
	CampaignSvc campaigndomain.Service
	LoyaltySvc  loyaltydomain.Service
}

func NewService(p ServiceParam) redemptiondomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("redemption.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		rewards:     p.Rewards,
		metrics:     p.Metrics,
		repo:        p.Repo,
		campaignSvc: p.CampaignSvc,
		loyaltySvc:  p.LoyaltySvc,
	}
}

func (s *Service) Redeem(ctx context.Context, req redemptiondomain.RedeemRequest) (redemptiondomain.RewardRedemption, error) {
	customerID, err := parseID(req.CustomerID, redemptiondomain.ErrInvalidCustomer)
	if err != nil {
		return redemptiondomain.RewardRedemption{}, err
	}
	campaignID, err := parseID(req.CampaignID, campaigndomain.ErrInvalidCampaign)
	if err != nil {
		return redemptiondomain.RewardRedemption{}, err
	}

	now := s.clock.Now()
	campaign, err := s.campaignSvc.GetActive(ctx, campaignID, now)
	if err != nil {
		return redemptiondomain.RewardRedemption{}, err
	}
	if campaign.Type != campaigndomain.CampaignTypeLoyaltyReward || campaign.RewardPointsCost <= 0 {
		return redemptiondomain.RewardRedemption{}, campaigndomain.ErrCampaignNotRewarding
	}

	redemptionID := s.genID.Generate()
	proof, err := prooftoken.EncodeRedemptionProof(prooftoken.RedemptionProof{
		RedemptionID: redemptionID,
		CustomerID:   customerID,
		BusinessID:   campaign.BusinessID,
		IssuedAtMs:   now.UnixMilli(),
		Nonce:        prooftoken.NewNonce(),
	})
	if err != nil {
		return redemptiondomain.RewardRedemption{}, err
	}

	validity := time.Duration(s.rewards.Get().RedemptionValidityDays) * 24 * time.Hour
	redemption := redemptiondomain.RewardRedemption{
		ID:          redemptionID,
		CustomerID:  customerID,
		BusinessID:  campaign.BusinessID,
		CampaignID:  campaign.ID,
		PointsSpent: campaign.RewardPointsCost,
		Status:      redemptiondomain.RedemptionStatusPending,
		QRProof:     proof,
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   now.Add(validity),
	}

	// Spend points and mint the redemption as one unit. Either both
	// commit or the customer keeps the balance.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := s.loyaltySvc.Debit(ctx, tx, loyaltydomain.EntryRequest{
			CustomerID:  customerID,
			BusinessID:  campaign.BusinessID,
			CampaignID:  &redemption.CampaignID,
			Type:        loyaltydomain.TransactionTypeSpend,
			Points:      campaign.RewardPointsCost,
			ReferenceID: "redemption:" + redemptionID.String(),
			Description: "reward redemption",
		})
		if err != nil {
			return err
		}
		return s.repo.Insert(ctx, tx, &redemption)
	})
	if err != nil {
		return redemptiondomain.RewardRedemption{}, err
	}

	s.metrics.RedemptionsCreated.Inc()
	s.log.Info("redemption minted",
		zap.String("redemption_id", redemptionID.String()),
		zap.String("customer_id", customerID.String()),
		zap.Int64("points_spent", campaign.RewardPointsCost),
	)
	return redemption, nil
}

func (s *Service) VerifyProof(ctx context.Context, token string) (redemptiondomain.RewardRedemption, error) {
	proof, err := prooftoken.DecodeRedemptionProof(token)
	if err != nil {
		return s.invalidProof()
	}

	redemption, err := s.repo.FindByID(ctx, s.db, proof.RedemptionID)
	if err != nil {
		return redemptiondomain.RewardRedemption{}, err
	}
	if redemption == nil ||
		redemption.QRProof != token ||
		redemption.CustomerID != proof.CustomerID ||
		redemption.BusinessID != proof.BusinessID {
		return s.invalidProof()
	}
	if redemption.Status != redemptiondomain.RedemptionStatusPending {
		return s.invalidProof()
	}

	now := s.clock.Now()
	if redemption.Expired(now) {
		if err := s.expire(ctx, redemption, now); err != nil {
			return redemptiondomain.RewardRedemption{}, err
		}
		return s.invalidProof()
	}

	return *redemption, nil
}

func (s *Service) Complete(ctx context.Context, redemptionID string) (redemptiondomain.RewardRedemption, error) {
	id, err := parseID(redemptionID, redemptiondomain.ErrInvalidRedemption)
	if err != nil {
		return redemptiondomain.RewardRedemption{}, err
	}

	redemption, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return redemptiondomain.RewardRedemption{}, err
	}
	if redemption == nil {
		return redemptiondomain.RewardRedemption{}, redemptiondomain.ErrRedemptionNotFound
	}
	if redemption.Status.Terminal() {
		return redemptiondomain.RewardRedemption{}, redemptiondomain.ErrAlreadyProcessed
	}

	now := s.clock.Now()
	if redemption.Expired(now) {
		if err := s.expire(ctx, redemption, now); err != nil {
			return redemptiondomain.RewardRedemption{}, err
		}
		return redemptiondomain.RewardRedemption{}, redemptiondomain.ErrAlreadyProcessed
	}

	flipped, err := s.repo.Transition(ctx, s.db, id, redemptiondomain.RedemptionStatusApproved, &now, now)
	if err != nil {
		return redemptiondomain.RewardRedemption{}, err
	}
	if !flipped {
		return redemptiondomain.RewardRedemption{}, redemptiondomain.ErrAlreadyProcessed
	}

	s.metrics.RedemptionsCompleted.Inc()
	s.log.Info("redemption completed", zap.String("redemption_id", id.String()))

	redemption.Status = redemptiondomain.RedemptionStatusApproved
	redemption.RedeemedAt = &now
	redemption.UpdatedAt = now
	return *redemption, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (redemptiondomain.RewardRedemption, error) {
	redemptionID, err := parseID(id, redemptiondomain.ErrInvalidRedemption)
	if err != nil {
		return redemptiondomain.RewardRedemption{}, err
	}

	redemption, err := s.repo.FindByID(ctx, s.db, redemptionID)
	if err != nil {
		return redemptiondomain.RewardRedemption{}, err
	}
	if redemption == nil {
		return redemptiondomain.RewardRedemption{}, redemptiondomain.ErrRedemptionNotFound
	}
	return *redemption, nil
}

func (s *Service) List(ctx context.Context, req redemptiondomain.ListRedemptionsRequest) (redemptiondomain.ListRedemptionsResponse, error) {
	customerID, err := parseID(req.CustomerID, redemptiondomain.ErrInvalidCustomer)
	if err != nil {
		return redemptiondomain.ListRedemptionsResponse{}, err
	}

	limit := req.PageSize
	if limit <= 0 || limit > 250 {
		limit = 50
	}

	rows, err := s.repo.List(ctx, s.db, customerID, limit)
	if err != nil {
		return redemptiondomain.ListRedemptionsResponse{}, err
	}
	return redemptiondomain.ListRedemptionsResponse{Redemptions: rows}, nil
}

// expire lazily retires a pending redemption past its window and
// refunds the debited points. The guarded flip and the refund commit
// together; losing the flip means another caller already expired it.
func (s *Service) expire(ctx context.Context, redemption *redemptiondomain.RewardRedemption, now time.Time) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		flipped, err := s.repo.Transition(ctx, tx, redemption.ID, redemptiondomain.RedemptionStatusExpired, nil, now)
		if err != nil {
			return err
		}
		if !flipped {
			return nil
		}

		_, err = s.loyaltySvc.Credit(ctx, tx, loyaltydomain.EntryRequest{
			CustomerID:  redemption.CustomerID,
			BusinessID:  redemption.BusinessID,
			CampaignID:  &redemption.CampaignID,
			Type:        loyaltydomain.TransactionTypeAdjust,
			Points:      redemption.PointsSpent,
			ReferenceID: "redemption_expire:" + redemption.ID.String(),
			Description: "expired redemption refund",
		})
		return err
	})
	if err != nil {
		return err
	}

	s.metrics.RedemptionsExpired.Inc()
	s.log.Info("redemption expired",
		zap.String("redemption_id", redemption.ID.String()),
		zap.Int64("points_refunded", redemption.PointsSpent),
	)
	return nil
}

func (s *Service) invalidProof() (redemptiondomain.RewardRedemption, error) {
	s.metrics.ProofFailures.WithLabelValues("redemption").Inc()
	return redemptiondomain.RewardRedemption{}, redemptiondomain.ErrInvalidProof
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
