package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type confirmForm struct {
	OrderID string `json:"orderId" binding:"required"`
	Amount  int64  `json:"amount" binding:"required"`
}

func (s *Server) confirmPayment(c *gin.Context) {
	var form confirmForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid form"})
		return
	}

	result, err := s.payments.Confirm(c.Request.Context(), form.OrderID, form.Amount, c.GetString(usernameKey))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"tokens":    result.Tokens,
		"paymentId": result.PaymentID,
	})
}

func (s *Server) paymentHistory(c *gin.Context) {
	history, err := s.payments.History(c.Request.Context(), c.GetString(usernameKey))
	if err != nil {
		writeError(c, err)
		return
	}

	items := make([]gin.H, 0, len(history))
	for _, p := range history {
		items = append(items, gin.H{
			"orderId":   p.OrderID,
			"amount":    p.Amount,
			"tokens":    p.Tokens,
			"status":    p.Status,
			"createdAt": p.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"history": items})
}
