//go:build wireinject
// +build wireinject

package di

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/google/wire"

	"github.com/imranali-mngmt/secureiduploader/internal/blobstore"
	authmod "github.com/imranali-mngmt/secureiduploader/internal/modules/auth"
	filesmod "github.com/imranali-mngmt/secureiduploader/internal/modules/files"
	"github.com/imranali-mngmt/secureiduploader/internal/sharecache"
)

// InitializeApplication is never compiled into the binary: the
// wireinject build tag only exists so `go run github.com/google/wire/cmd/wire`
// can read this file and regenerate wire_gen.go. Runtime builds use
// wire_gen.go's hand-written equivalent instead.
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
	wire.Build(
		authmod.New,
		filesmod.New,
		NewApplication,
	)
	return nil, nil
}
