package handler

import (
	"errors"
	"net/http"

	"ImmichDrop/internal/dto"
	"ImmichDrop/internal/service"
	"ImmichDrop/utils"

	"github.com/gin-gonic/gin"
)

func writeServiceError(c *gin.Context, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		status := http.StatusBadRequest
		if verr.Reason == service.ReasonInvalidInvite {
			status = http.StatusNotFound
		}
		utils.FailMsg(c, status, verr.Reason, verr.Message)
		return
	}
	utils.FailMsg(c, http.StatusInternalServerError, "internal_error", err.Error())
}

// CreateInvite creates a new invite owned by the session user.
func CreateInvite(c *gin.Context) {
	var req dto.CreateInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.FailMsg(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	inv, err := service.CreateInvite(c.Request.Context(), utils.GetClaims(c), &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	utils.Success(c, gin.H{"token": inv.Token, "url": service.InviteURL(inv.Token)})
}

// ListInvites lists the session user's invites.
func ListInvites(c *gin.Context) {
	claims := utils.GetClaims(c)
	views, err := service.ListInvites(c.Request.Context(), claims.UserID, c.Query("q"), c.Query("sort"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	utils.Success(c, views)
}

// UpdateInvite patches one owned invite.
func UpdateInvite(c *gin.Context) {
	var req dto.UpdateInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.FailMsg(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	claims := utils.GetClaims(c)
	inv, err := service.UpdateInvite(c.Request.Context(), claims.UserID, c.Param("token"), &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	utils.Success(c, inv)
}

// BulkInvites enables or disables several owned invites at once.
func BulkInvites(c *gin.Context) {
	var req dto.BulkInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.FailMsg(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	claims := utils.GetClaims(c)
	n, err := service.BulkSetDisabled(c.Request.Context(), claims.UserID, req.Tokens, req.Disabled)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	utils.Success(c, gin.H{"updated": n})
}

// DeleteInvites removes owned invites and their upload history.
func DeleteInvites(c *gin.Context) {
	var req dto.DeleteInvitesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.FailMsg(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	claims := utils.GetClaims(c)
	n, err := service.DeleteInvites(c.Request.Context(), claims.UserID, req.Tokens)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	utils.Success(c, gin.H{"deleted": n})
}

// InviteInfo is the public view an upload page loads before uploading.
func InviteInfo(c *gin.Context) {
	info, err := service.InviteInfo(c.Request.Context(), c.Param("token"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	utils.Success(c, info)
}

// InviteAuth checks an invite password and, on success, marks the
// session as authorized for that token via a refreshed cookie.
func InviteAuth(c *gin.Context) {
	var req dto.InviteAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.FailMsg(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	token := c.Param("token")
	ok, err := service.AuthorizeInvitePassword(c.Request.Context(), token, req.Password)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if !ok {
		utils.Fail(c, http.StatusForbidden, "wrong_password")
		return
	}
	claims := utils.GetClaims(c)
	if claims == nil {
		claims = &utils.SessionClaims{}
	}
	if claims.InviteAuth == nil {
		claims.InviteAuth = map[string]bool{}
	}
	claims.InviteAuth[token] = true
	signed, err := utils.GenerateToken(claims)
	if err != nil {
		utils.FailMsg(c, http.StatusInternalServerError, "session_error", err.Error())
		return
	}
	setSessionCookie(c, signed)
	utils.Success(c, gin.H{"authorized": true})
}

// InviteUploads lists the audit log of one owned invite.
func InviteUploads(c *gin.Context) {
	claims := utils.GetClaims(c)
	events, err := service.InviteUploads(c.Request.Context(), claims.UserID, c.Param("token"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	utils.Success(c, events)
}
