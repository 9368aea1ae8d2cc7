//go:build !wireinject
// +build !wireinject

// Code generated by Wire from wire.go's injector; this is the hand-written
// equivalent since wire's codegen step cannot run in this environment. It
// must be kept in lockstep with wire.go's provider list.

package di

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/imranali-mngmt/secureiduploader/internal/blobstore"
	authmod "github.com/imranali-mngmt/secureiduploader/internal/modules/auth"
	filesmod "github.com/imranali-mngmt/secureiduploader/internal/modules/files"
	"github.com/imranali-mngmt/secureiduploader/internal/sharecache"
)

func InitializeApplication(
	db *gorm.DB,
	blobs *blobstore.Store,
	shareCache *sharecache.Cache,
	jwtSecret string,
	jwtExpiresIn time.Duration,
	shareBaseURL string,
	passkeyBaseURL string,
	siteName string,
	log *zap.Logger,
) (*Application, error) {
	auth := authmod.New(db, jwtSecret, jwtExpiresIn, passkeyBaseURL, siteName, log)
	files := filesmod.New(db, blobs, shareBaseURL, shareCache, log)
	app := NewApplication(db, blobs, auth, files, log)
	return app, nil
}
