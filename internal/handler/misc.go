package handler

import (
	"net/http"

	"ImmichDrop/config"
	"ImmichDrop/internal/dto"
	"ImmichDrop/internal/service"
	"ImmichDrop/utils"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"
)

// Ping reports relay liveness and whether the remote store answers.
func Ping(c *gin.Context) {
	utils.Success(c, dto.PingResponse{
		OK:     true,
		Remote: service.Remote.Ping(c.Request.Context()),
	})
}

// PublicConfig exposes the client-relevant configuration.
func PublicConfig(c *gin.Context) {
	cfg := &config.AppConfig
	utils.Success(c, dto.ConfigResponse{
		PublicUploadPage: cfg.PublicUploadPage,
		ChunkedUploads:   cfg.ChunkedUploads,
		ChunkSizeMB:      cfg.ChunkSizeMB,
		MaxConcurrent:    cfg.MaxConcurrent,
		AlbumName:        cfg.AlbumName,
		PublicBaseURL:    cfg.PublicBaseURL,
	})
}

// SupportedPlatforms lists the URL platforms the fetcher recognizes.
func SupportedPlatforms(c *gin.Context) {
	platforms := make([]string, 0, len(service.SupportedPatterns)+1)
	for _, p := range service.SupportedPatterns {
		platforms = append(platforms, p.Platform)
	}
	platforms = append(platforms, "direct")
	utils.Success(c, gin.H{"platforms": platforms})
}

// QR renders a QR PNG for a text, typically an invite link.
func QR(c *gin.Context) {
	text := c.Query("text")
	if text == "" {
		utils.Fail(c, http.StatusBadRequest, "missing_text")
		return
	}
	if len(text) > 2048 {
		utils.Fail(c, http.StatusBadRequest, "text_too_long")
		return
	}
	png, err := qrcode.Encode(text, qrcode.Medium, 256)
	if err != nil {
		utils.FailMsg(c, http.StatusInternalServerError, "qr_failed", err.Error())
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
