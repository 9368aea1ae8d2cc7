package router

import (
	"github.com/gin-gonic/gin"

	authhandler "github.com/imranali-mngmt/secureiduploader/internal/modules/auth/handler"
)

func registerAuthRoutes(api *gin.RouterGroup, h *authhandler.Handler) {
	api.GET("/auth/captcha", h.Captcha)
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)
	api.POST("/auth/passkey/login/begin", h.BeginPasskeyLogin)
	api.POST("/auth/passkey/login/finish", h.FinishPasskeyLogin)
}

func registerAuthedAccountRoutes(authed *gin.RouterGroup, h *authhandler.Handler) {
	authed.GET("/auth/me", h.Me)
	authed.PATCH("/auth/update-profile", h.UpdateProfile)
	authed.PATCH("/auth/update-password", h.UpdatePassword)
	authed.POST("/auth/logout", func(c *gin.Context) {
		c.JSON(200, gin.H{"success": true, "message": "logged out"})
	})
	authed.DELETE("/auth/delete-account", h.DeleteAccount)
	authed.GET("/auth/storage", h.StorageStats)
	authed.GET("/auth/passkeys", h.ListPasskeys)
	authed.POST("/auth/passkeys/register/begin", h.BeginPasskeyRegistration)
	authed.POST("/auth/passkeys/register/finish", h.FinishPasskeyRegistration)
	authed.DELETE("/auth/passkeys/:id", h.DeletePasskey)
}
