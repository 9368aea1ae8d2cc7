// Package files wires the file lifecycle module's repo, service, and
// handler.
package files

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/imranali-mngmt/secureiduploader/internal/blobstore"
	authrepo "github.com/imranali-mngmt/secureiduploader/internal/modules/auth/repo"
	"github.com/imranali-mngmt/secureiduploader/internal/modules/files/handler"
	"github.com/imranali-mngmt/secureiduploader/internal/modules/files/repo"
	"github.com/imranali-mngmt/secureiduploader/internal/modules/files/service"
	"github.com/imranali-mngmt/secureiduploader/internal/sharecache"
)

type Module struct {
	Service *service.Service
	Handler *handler.Handler
}

func New(db *gorm.DB, blobs *blobstore.Store, shareBaseURL string, shareCache *sharecache.Cache, log *zap.Logger) *Module {
	fileStore := repo.NewFileStore(db)
	userStore := authrepo.NewUserStore(db)
	svc := service.New(fileStore, userStore, blobs, shareBaseURL, shareCache, log)
	return &Module{
		Service: svc,
		Handler: handler.New(svc),
	}
}
