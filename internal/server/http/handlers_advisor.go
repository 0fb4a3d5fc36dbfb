package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mailadvisor/backend/internal/server/services"
)

type adviseForm struct {
	Text       string `json:"text" binding:"required"`
	MyPosition string `json:"myPosition"`
	MyJob      string `json:"myJob"`
	ToneLevel  string `json:"toneLevel"`
	MyGoal     string `json:"myGoal"`
	Audience   string `json:"audience"`
}

func (s *Server) advise(c *gin.Context) {
	var form adviseForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid form"})
		return
	}

	result, err := s.advisor.Advise(c.Request.Context(), c.GetString(usernameKey), &services.AdviseRequest{
		Text:       form.Text,
		MyPosition: form.MyPosition,
		MyJob:      form.MyJob,
		ToneLevel:  form.ToneLevel,
		MyGoal:     form.MyGoal,
		Audience:   form.Audience,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"output": result.Output,
		"tokens": result.Tokens,
	})
}
