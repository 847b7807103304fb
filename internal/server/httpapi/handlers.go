package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/gin-gonic/gin"
)

const (
	msgSignupOK           = "Signup successful!"
	msgLoginOK            = "Login successful!"
	msgEmailTaken         = "Email already exists"
	msgInvalidCredentials = "Invalid email or password"
	msgInvalidBody        = "Invalid request body"
	msgInternal           = "Internal server error"
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) signup(c *gin.Context) {
	ctx := c.Request.Context()

	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.metrics.Record(metrics.OpSignup, common.ErrorValidation)
		fail(c, http.StatusBadRequest, msgInvalidBody)
		return
	}

	err := s.users.Register(ctx, req.Name, req.Email, req.Password)
	s.metrics.Record(metrics.OpSignup, err)

	switch {
	case err == nil:
		s.logger.Info(ctx, "Registered", "email", req.Email)
		c.JSON(http.StatusOK, Response{Success: true, Message: msgSignupOK})
	case errors.Is(err, common.ErrorAlreadyExists):
		fail(c, http.StatusConflict, msgEmailTaken)
	case errors.Is(err, common.ErrorValidation):
		fail(c, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error(ctx, "signup failed", "error", err)
		fail(c, http.StatusInternalServerError, msgInternal)
	}
}

func (s *Server) login(c *gin.Context) {
	ctx := c.Request.Context()

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.metrics.Record(metrics.OpLogin, common.ErrorValidation)
		fail(c, http.StatusBadRequest, msgInvalidBody)
		return
	}

	token, err := s.users.Authenticate(ctx, req.Email, req.Password)
	s.metrics.Record(metrics.OpLogin, err)

	switch {
	case err == nil:
		c.JSON(http.StatusOK, Response{
			Success:   true,
			Message:   msgLoginOK,
			Token:     token.Token,
			ExpiresAt: token.ExpiresAt().Unix(),
		})
	case errors.Is(err, common.ErrorInvalidCredentials):
		fail(c, http.StatusUnauthorized, msgInvalidCredentials)
	default:
		s.logger.Error(ctx, "login failed", "error", err)
		fail(c, http.StatusInternalServerError, msgInternal)
	}
}

func (s *Server) me(c *gin.Context) {
	claims := claimsFrom(c)
	s.metrics.Record(metrics.OpMe, nil)

	resp := MeResponse{Email: claims.Email, Name: claims.Name}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Unix()
	}
	c.JSON(http.StatusOK, resp)
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Response{Success: false, Message: message})
}
