package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type credentialsForm struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshForm struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

func (s *Server) signup(c *gin.Context) {
	var form credentialsForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid form"})
		return
	}

	view, err := s.accounts.Signup(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":          view.ID,
		"username":    view.Username,
		"tokenAmount": view.TokenAmount,
	})
}

func (s *Server) login(c *gin.Context) {
	var form credentialsForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid form"})
		return
	}

	result, err := s.accounts.Login(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"accessToken":  result.AccessToken,
		"refreshToken": result.RefreshToken,
		"tokenAmount":  result.TokenAmount,
	})
}

func (s *Server) logout(c *gin.Context) {
	if err := s.accounts.Logout(c.Request.Context(), c.GetString(usernameKey)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (s *Server) refresh(c *gin.Context) {
	var form refreshForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid form"})
		return
	}

	accessToken, err := s.accounts.Refresh(c.Request.Context(), form.RefreshToken)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"accessToken": accessToken})
}
