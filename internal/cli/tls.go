package cli

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/caddyserver/certmagic"
)

type certConfig struct {
	Domains    []string
	Email      string
	StorageDir string
}

// buildCertMagicTLS obtains or loads certificates for the domains and
// returns the TLS config plus a handler answering HTTP-01 challenges. The
// handler passes other requests to next.
func buildCertMagicTLS(ctx context.Context, cfg certConfig, next http.Handler) (*tls.Config, http.Handler, error) {
	if len(cfg.Domains) == 0 {
		return nil, nil, errors.New("at least one domain is required")
	}
	if cfg.StorageDir == "" {
		if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
			cfg.StorageDir = filepath.Join(xdg, "restaurant", "certmagic")
		} else {
			home, _ := os.UserHomeDir()
			cfg.StorageDir = filepath.Join(home, ".cache", "restaurant", "certmagic")
		}
	}
	if err := os.MkdirAll(cfg.StorageDir, 0o700); err != nil {
		return nil, nil, fmt.Errorf("cert storage: %w", err)
	}

	cm := certmagic.NewDefault()
	cm.Storage = &certmagic.FileStorage{Path: cfg.StorageDir}
	issuer := certmagic.NewACMEIssuer(cm, certmagic.ACMEIssuer{
		CA:     certmagic.LetsEncryptProductionCA,
		Email:  cfg.Email,
		Agreed: true,
	})
	cm.Issuers = []certmagic.Issuer{issuer}

	if err := cm.ManageSync(ctx, cfg.Domains); err != nil {
		return nil, nil, err
	}
	tlsConf := cm.TLSConfig()
	tlsConf.NextProtos = append([]string{"h2", "http/1.1"}, tlsConf.NextProtos...)
	tlsConf.MinVersion = tls.VersionTLS12
	return tlsConf, issuer.HTTPChallengeHandler(next), nil
}

// redirectHTTPS sends plain HTTP requests to the same path over HTTPS.
func redirectHTTPS(w http.ResponseWriter, r *http.Request) {
	target := "https://" + r.Host + r.URL.RequestURI()
	http.Redirect(w, r, target, http.StatusPermanentRedirect)
}
