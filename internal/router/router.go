// Package router assembles the API's route tree from each module's
// handler, grounded on the teacher's router package.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/imranali-mngmt/secureiduploader/internal/config"
	"github.com/imranali-mngmt/secureiduploader/internal/middleware"
	authmod "github.com/imranali-mngmt/secureiduploader/internal/modules/auth"
	filesmod "github.com/imranali-mngmt/secureiduploader/internal/modules/files"
)

type Modules struct {
	Auth  *authmod.Module
	Files *filesmod.Module
}

func New(r *gin.Engine, mods *Modules) {
	cfg := config.Get()

	r.Use(middleware.SecurityHeaders())

	api := r.Group("/api")
	api.Use(middleware.BodyLimit(cfg.Storage.MaxFileSize + 1024*1024))
	api.Use(middleware.RateLimit(cfg.RateLimit.WindowMs, cfg.RateLimit.MaxRequests))

	registerAuthRoutes(api, mods.Auth.Handler)

	authed := api.Group("")
	authed.Use(middleware.JWTAuth(mods.Auth.Service))
	registerAuthedAccountRoutes(authed, mods.Auth.Handler)
	registerFileRoutes(authed, mods.Files.Handler)

	registerShareRoutes(api, mods.Files.Handler)
}
