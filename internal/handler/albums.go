package handler

import (
	"net/http"

	"ImmichDrop/internal/dto"
	"ImmichDrop/internal/service"
	"ImmichDrop/utils"

	"github.com/gin-gonic/gin"
)

// ListAlbums returns the remote albums visible to the session user.
func ListAlbums(c *gin.Context) {
	albums, err := service.Remote.ListAlbums(c.Request.Context(), requestAuth(c))
	if err != nil {
		utils.FailMsg(c, http.StatusBadGateway, "remote_error", err.Error())
		return
	}
	utils.Success(c, albums)
}

// CreateAlbum creates a remote album for the session user.
func CreateAlbum(c *gin.Context) {
	var req dto.CreateAlbumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.FailMsg(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	album, err := service.Remote.CreateAlbum(c.Request.Context(), req.Name, requestAuth(c))
	if err != nil {
		utils.FailMsg(c, http.StatusBadGateway, "remote_error", err.Error())
		return
	}
	utils.Success(c, album)
}

// ResetAlbumCache forces album re-resolution on the next upload.
func ResetAlbumCache(c *gin.Context) {
	service.Remote.ResetAlbumCache()
	utils.Success(c, gin.H{"ok": true})
}
