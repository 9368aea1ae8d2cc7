// Package auth wires the account module's repo, service, and handler.
package auth

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/imranali-mngmt/secureiduploader/internal/modules/auth/handler"
	"github.com/imranali-mngmt/secureiduploader/internal/modules/auth/repo"
	"github.com/imranali-mngmt/secureiduploader/internal/modules/auth/service"
	"github.com/imranali-mngmt/secureiduploader/internal/passkey"
)

type Module struct {
	Service *service.Service
	Handler *handler.Handler
}

// New wires the account module. passkeyBaseURL is the site's public
// origin used to derive the WebAuthn relying-party id; an empty value (or
// one that fails to parse as an absolute URL) disables passkey login
// rather than failing startup, since it is an optional login method.
func New(db *gorm.DB, jwtSecret string, jwtExpiresIn time.Duration, passkeyBaseURL, siteName string, log *zap.Logger) *Module {
	userStore := repo.NewUserStore(db)
	svc := service.New(userStore, jwtSecret, jwtExpiresIn, log)

	if passkeyBaseURL != "" {
		client, err := passkey.NewClient(passkeyBaseURL, siteName)
		if err != nil {
			log.Warn("passkey login disabled", zap.Error(err))
		} else {
			svc = svc.WithPasskeys(repo.NewPasskeyStore(db), client)
		}
	}

	return &Module{
		Service: svc,
		Handler: handler.New(svc),
	}
}
