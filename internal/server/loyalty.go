package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	loyaltydomain "github.com/tonynham/collabuu/internal/loyalty/domain"
)

func (s *Server) GetLoyaltyBalance(c *gin.Context) {
	balance, err := s.loyaltySvc.GetBalance(c.Request.Context(), c.Query("customer_id"), c.Query("business_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"points_balance": balance.Balance,
		"total_earned":   balance.TotalEarned,
		"total_spent":    balance.TotalSpent,
	})
}

func (s *Server) ListLoyaltyTransactions(c *gin.Context) {
	resp, err := s.loyaltySvc.ListTransactions(c.Request.Context(), loyaltydomain.ListTransactionsRequest{
		CustomerID: c.Query("customer_id"),
		BusinessID: c.Query("business_id"),
		PageSize:   queryInt(c, "page_size"),
		PageToken:  c.Query("page_token"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
