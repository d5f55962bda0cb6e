package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/tonynham/collabuu/internal/clock"
	loyaltydomain "github.com/tonynham/collabuu/internal/loyalty/domain"
	"github.com/tonynham/collabuu/internal/metrics"
	"github.com/tonynham/collabuu/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    loyaltydomain.Repository
	metrics *metrics.Metrics
}

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    loyaltydomain.Repository
	Metrics *metrics.Metrics
}

func NewService(p ServiceParam) loyaltydomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("loyalty.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

func (s *Service) Credit(ctx context.Context, tx *gorm.DB, req loyaltydomain.EntryRequest) (loyaltydomain.LoyaltyTransaction, error) {
	if err := validateEntry(req); err != nil {
		return loyaltydomain.LoyaltyTransaction{}, err
	}
	if req.Type.Debit() {
		return loyaltydomain.LoyaltyTransaction{}, loyaltydomain.ErrInvalidEntryType
	}

	ledger, err := s.repo.EnsureLedger(ctx, tx, s.genID.Generate(), req.CustomerID, req.BusinessID, s.clock.Now())
	if err != nil {
		return loyaltydomain.LoyaltyTransaction{}, err
	}

	txn := s.newTransaction(ledger.ID, req)
	inserted, err := s.repo.InsertTransaction(ctx, tx, &txn)
	if err != nil {
		return loyaltydomain.LoyaltyTransaction{}, err
	}
	if !inserted {
		return s.replay(ctx, tx, ledger.ID, req.ReferenceID)
	}

	if err := s.repo.Credit(ctx, tx, ledger.ID, req.Points, s.clock.Now()); err != nil {
		return loyaltydomain.LoyaltyTransaction{}, err
	}

	s.metrics.PointsEarned.Add(float64(req.Points))
	s.log.Info("points credited",
		zap.String("loyalty_id", ledger.ID.String()),
		zap.String("reference_id", req.ReferenceID),
		zap.Int64("points", req.Points),
	)
	return txn, nil
}

func (s *Service) Debit(ctx context.Context, tx *gorm.DB, req loyaltydomain.EntryRequest) (loyaltydomain.LoyaltyTransaction, error) {
	if err := validateEntry(req); err != nil {
		return loyaltydomain.LoyaltyTransaction{}, err
	}
	if !req.Type.Debit() {
		return loyaltydomain.LoyaltyTransaction{}, loyaltydomain.ErrInvalidEntryType
	}

	ledger, err := s.repo.EnsureLedger(ctx, tx, s.genID.Generate(), req.CustomerID, req.BusinessID, s.clock.Now())
	if err != nil {
		return loyaltydomain.LoyaltyTransaction{}, err
	}

	txn := s.newTransaction(ledger.ID, req)
	inserted, err := s.repo.InsertTransaction(ctx, tx, &txn)
	if err != nil {
		return loyaltydomain.LoyaltyTransaction{}, err
	}
	if !inserted {
		return s.replay(ctx, tx, ledger.ID, req.ReferenceID)
	}

	debited, err := s.repo.Debit(ctx, tx, ledger.ID, req.Points, s.clock.Now())
	if err != nil {
		return loyaltydomain.LoyaltyTransaction{}, err
	}
	if !debited {
		// Balance guard refused the write. The caller's transaction
		// rolls back, discarding the ledger row appended above.
		return loyaltydomain.LoyaltyTransaction{}, &loyaltydomain.InsufficientPointsError{
			Required:  req.Points,
			Available: ledger.Balance,
		}
	}

	s.metrics.PointsSpent.Add(float64(req.Points))
	s.log.Info("points debited",
		zap.String("loyalty_id", ledger.ID.String()),
		zap.String("reference_id", req.ReferenceID),
		zap.Int64("points", req.Points),
	)
	return txn, nil
}

func (s *Service) GetBalance(ctx context.Context, customerID, businessID string) (loyaltydomain.LoyaltyPoints, error) {
	custID, err := parseID(customerID, loyaltydomain.ErrInvalidCustomer)
	if err != nil {
		return loyaltydomain.LoyaltyPoints{}, err
	}
	bizID, err := parseID(businessID, loyaltydomain.ErrInvalidBusiness)
	if err != nil {
		return loyaltydomain.LoyaltyPoints{}, err
	}

	ledger, err := s.repo.FindLedger(ctx, s.db, custID, bizID)
	if err != nil {
		return loyaltydomain.LoyaltyPoints{}, err
	}
	if ledger == nil {
		// No ledger row yet means a zero balance, not an error.
		return loyaltydomain.LoyaltyPoints{CustomerID: custID, BusinessID: bizID}, nil
	}
	return *ledger, nil
}

func (s *Service) ListTransactions(ctx context.Context, req loyaltydomain.ListTransactionsRequest) (loyaltydomain.ListTransactionsResponse, error) {
	custID, err := parseID(req.CustomerID, loyaltydomain.ErrInvalidCustomer)
	if err != nil {
		return loyaltydomain.ListTransactionsResponse{}, err
	}
	bizID, err := parseID(req.BusinessID, loyaltydomain.ErrInvalidBusiness)
	if err != nil {
		return loyaltydomain.ListTransactionsResponse{}, err
	}

	ledger, err := s.repo.FindLedger(ctx, s.db, custID, bizID)
	if err != nil {
		return loyaltydomain.ListTransactionsResponse{}, err
	}
	if ledger == nil {
		return loyaltydomain.ListTransactionsResponse{Transactions: []*loyaltydomain.LoyaltyTransaction{}}, nil
	}

	limit := req.PageSize
	if limit <= 0 || limit > 250 {
		limit = 50
	}

	var beforeID snowflake.ID
	if req.PageToken != "" {
		cursor, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return loyaltydomain.ListTransactionsResponse{}, loyaltydomain.ErrInvalidPageToken
		}
		beforeID, err = snowflake.ParseString(cursor.ID)
		if err != nil {
			return loyaltydomain.ListTransactionsResponse{}, loyaltydomain.ErrInvalidPageToken
		}
	}

	// Over-fetch one row to learn whether another page exists.
	rows, err := s.repo.ListTransactions(ctx, s.db, ledger.ID, beforeID, limit+1)
	if err != nil {
		return loyaltydomain.ListTransactionsResponse{}, err
	}

	rows, pageInfo := pagination.BuildCursorPageInfo(rows, limit, func(t *loyaltydomain.LoyaltyTransaction) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{ID: t.ID.String()})
		return token
	})
	return loyaltydomain.ListTransactionsResponse{Transactions: rows, PageInfo: pageInfo}, nil
}

func (s *Service) newTransaction(loyaltyID snowflake.ID, req loyaltydomain.EntryRequest) loyaltydomain.LoyaltyTransaction {
	return loyaltydomain.LoyaltyTransaction{
		ID:          s.genID.Generate(),
		LoyaltyID:   loyaltyID,
		CampaignID:  req.CampaignID,
		Type:        req.Type,
		Points:      req.Points,
		ReferenceID: req.ReferenceID,
		Description: req.Description,
		CreatedAt:   s.clock.Now(),
	}
}

// replay resolves the transaction a duplicate reference originally wrote.
func (s *Service) replay(ctx context.Context, tx *gorm.DB, loyaltyID snowflake.ID, referenceID string) (loyaltydomain.LoyaltyTransaction, error) {
	existing, err := s.repo.FindTransactionByReference(ctx, tx, loyaltyID, referenceID)
	if err != nil {
		return loyaltydomain.LoyaltyTransaction{}, err
	}
	if existing == nil {
		return loyaltydomain.LoyaltyTransaction{}, loyaltydomain.ErrInvalidReference
	}
	return *existing, nil
}

func validateEntry(req loyaltydomain.EntryRequest) error {
	if req.CustomerID == 0 {
		return loyaltydomain.ErrInvalidCustomer
	}
	if req.BusinessID == 0 {
		return loyaltydomain.ErrInvalidBusiness
	}
	if req.Points <= 0 {
		return loyaltydomain.ErrInvalidPoints
	}
	if strings.TrimSpace(req.ReferenceID) == "" {
		return loyaltydomain.ErrInvalidReference
	}
	switch req.Type {
	case loyaltydomain.TransactionTypeEarn,
		loyaltydomain.TransactionTypeSpend,
		loyaltydomain.TransactionTypeExpire,
		loyaltydomain.TransactionTypeAdjust:
		return nil
	default:
		return loyaltydomain.ErrInvalidEntryType
	}
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
