package router

import (
	"ImmichDrop/internal/handler"
	"ImmichDrop/utils"

	"github.com/gin-gonic/gin"
)

// InitRouter wires the full HTTP surface.
func InitRouter() *gin.Engine {
	r := gin.Default()
	r.Use(utils.Cors())
	r.Use(utils.Session())

	api := r.Group("/api")
	{
		api.POST("/ping", handler.Ping)
		api.GET("/config", handler.PublicConfig)
		api.GET("/supported-platforms", handler.SupportedPlatforms)
		api.GET("/qr", handler.QR)

		api.POST("/login", handler.Login)
		api.POST("/logout", handler.Logout)

		api.POST("/upload", handler.Upload)
		api.POST("/upload/file", handler.UploadFile)
		api.POST("/upload/batch", handler.UploadBatch)
		api.POST("/upload/url", handler.UploadFromURL)
		api.POST("/upload/urls", handler.UploadFromURLs)

		api.POST("/upload/chunk/init", handler.ChunkInit)
		api.POST("/upload/chunk", handler.ChunkPart)
		api.POST("/upload/chunk/complete", handler.ChunkComplete)

		api.GET("/invite/:token", handler.InviteInfo)
		api.POST("/invite/:token/auth", handler.InviteAuth)

		auth := api.Group("", utils.RequireLogin())
		{
			auth.POST("/invites", handler.CreateInvite)
			auth.GET("/invites", handler.ListInvites)
			auth.PATCH("/invite/:token", handler.UpdateInvite)
			auth.POST("/invites/bulk", handler.BulkInvites)
			auth.POST("/invites/delete", handler.DeleteInvites)
			auth.GET("/invite/:token/uploads", handler.InviteUploads)

			auth.GET("/albums", handler.ListAlbums)
			auth.POST("/albums", handler.CreateAlbum)
			auth.POST("/album/reset", handler.ResetAlbumCache)

			auth.GET("/cookies", handler.ListCookies)
			auth.POST("/cookies", handler.SetCookie)
			auth.DELETE("/cookies", handler.DeleteCookie)
		}
	}

	r.GET("/ws", handler.WS)
	return r
}
