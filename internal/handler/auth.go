package handler

import (
	"net/http"

	"ImmichDrop/internal/dto"
	"ImmichDrop/internal/service"
	"ImmichDrop/utils"

	"github.com/gin-gonic/gin"
)

const sessionMaxAge = 7 * 24 * 3600

func setSessionCookie(c *gin.Context, signed string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(utils.SessionCookie, signed, sessionMaxAge, "/", "", false, true)
}

// Login proxies credentials to the remote store and issues the signed
// session cookie.
func Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.FailMsg(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	reply, err := service.Remote.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		utils.FailMsg(c, http.StatusUnauthorized, "login_failed", err.Error())
		return
	}

	// carry over invite authorizations from the anonymous session
	claims := &utils.SessionClaims{
		AccessToken: reply.AccessToken,
		UserID:      reply.UserID,
		UserEmail:   reply.UserEmail,
		Name:        reply.Name,
		IsAdmin:     reply.IsAdmin,
	}
	if prev := utils.GetClaims(c); prev != nil {
		claims.InviteAuth = prev.InviteAuth
	}
	signed, err := utils.GenerateToken(claims)
	if err != nil {
		utils.FailMsg(c, http.StatusInternalServerError, "session_error", err.Error())
		return
	}
	setSessionCookie(c, signed)
	utils.Success(c, gin.H{
		"user_id": reply.UserID,
		"email":   reply.UserEmail,
		"name":    reply.Name,
		"admin":   reply.IsAdmin,
	})
}

// Logout clears the session cookie.
func Logout(c *gin.Context) {
	c.SetCookie(utils.SessionCookie, "", -1, "/", "", false, true)
	utils.Success(c, gin.H{"ok": true})
}
