package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"signoff.io/signoff/internal/api/middleware"
	apperrors "signoff.io/signoff/internal/pkg/errors"
	"signoff.io/signoff/internal/pkg/logger"
)

// Login exchanges username/password for a bearer token. Unknown
// usernames and wrong passwords produce the same error so the endpoint
// does not leak which accounts exist.
func (s *Server) Login(c *gin.Context) {
	var body LoginRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		_ = c.Error(apperrors.BadRequest(apperrors.CodeInvalidRequest, "username and password are required"))
		return
	}

	user, err := s.users.GetUserByUsername(c.Request.Context(), body.Username)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if user == nil {
		_ = c.Error(apperrors.Unauthorized(apperrors.CodeAuthFailed, "invalid username or password"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
		logger.Warn("login failed",
			zap.String("username", body.Username),
		)
		_ = c.Error(apperrors.Unauthorized(apperrors.CodeAuthFailed, "invalid username or password"))
		return
	}

	token, expiresAt, err := middleware.GenerateToken(s.jwtCfg, user.ID, user.Username, user.Role)
	if err != nil {
		_ = c.Error(err)
		return
	}

	s.audit.Record("auth.login", "user", user.ID, user.ID, nil)
	c.JSON(http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
	})
}
