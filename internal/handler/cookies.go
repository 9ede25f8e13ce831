package handler

import (
	"net/http"

	"ImmichDrop/internal/dto"
	"ImmichDrop/internal/service"
	"ImmichDrop/utils"

	"github.com/gin-gonic/gin"
)

// ListCookies returns every stored platform cookie.
func ListCookies(c *gin.Context) {
	cookies, err := service.ListPlatformCookies(c.Request.Context())
	if err != nil {
		utils.FailMsg(c, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	utils.Success(c, cookies)
}

// SetCookie upserts a platform cookie used by the URL fetcher.
func SetCookie(c *gin.Context) {
	var req dto.CookieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.FailMsg(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := service.SetPlatformCookie(c.Request.Context(), req.Platform, req.CookieString); err != nil {
		utils.FailMsg(c, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	utils.Success(c, gin.H{"ok": true})
}

// DeleteCookie removes the cookie of one platform.
func DeleteCookie(c *gin.Context) {
	platform := c.Query("platform")
	if platform == "" {
		utils.Fail(c, http.StatusBadRequest, "missing_platform")
		return
	}
	if err := service.DeletePlatformCookie(c.Request.Context(), platform); err != nil {
		utils.FailMsg(c, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	utils.Success(c, gin.H{"ok": true})
}
