package router

import (
	"github.com/gin-gonic/gin"

	fileshandler "github.com/imranali-mngmt/secureiduploader/internal/modules/files/handler"
)

func registerFileRoutes(authed *gin.RouterGroup, h *fileshandler.Handler) {
	authed.POST("/files/upload", h.Upload)
	authed.GET("/files", h.List)
	authed.GET("/files/trash", h.Trash)
	authed.DELETE("/files/trash", h.EmptyTrash)
	authed.POST("/files/bulk-delete", h.BulkDelete)
	authed.POST("/files/move", h.Move)
	authed.GET("/files/folders", h.Folders)
	authed.GET("/files/stats", h.Stats)

	authed.GET("/files/:id", h.Get)
	authed.PATCH("/files/:id", h.Update)
	authed.DELETE("/files/:id", h.Delete)
	authed.GET("/files/:id/download", h.Download)
	authed.GET("/files/:id/preview", h.Preview)
	authed.POST("/files/:id/restore", h.Restore)
	authed.POST("/files/:id/share", h.ShareCreate)
	authed.DELETE("/files/:id/share", h.ShareRevoke)
}

func registerShareRoutes(api *gin.RouterGroup, h *fileshandler.Handler) {
	api.GET("/files/shared/:token", h.ShareConsume)
	api.POST("/files/shared/:token", h.ShareConsume)
}
