package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/doralyyyyy/Restaurant-Platform/internal/config"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the restaurant web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			if err := config.CheckServeConfig(app.V); err != nil {
				return err
			}
			srv, err := app.Server()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			httpSrv := &http.Server{
				Addr:              app.Cfg.HTTPAddr,
				Handler:           srv.Router(),
				ReadHeaderTimeout: 10 * time.Second,
				BaseContext:       func(net.Listener) context.Context { return ctx },
			}

			var challenge *http.Server
			if len(app.Cfg.TLSDomains) > 0 {
				tlsConf, h, err := buildCertMagicTLS(ctx, certConfig{
					Domains: app.Cfg.TLSDomains,
					Email:   app.Cfg.TLSEmail,
				}, http.HandlerFunc(redirectHTTPS))
				if err != nil {
					return fmt.Errorf("tls: %w", err)
				}
				httpSrv.TLSConfig = tlsConf
				challenge = &http.Server{Addr: ":80", Handler: h, ReadHeaderTimeout: 10 * time.Second}
			}

			errc := make(chan error, 2)
			go func() {
				if httpSrv.TLSConfig != nil {
					errc <- httpSrv.ListenAndServeTLS("", "")
					return
				}
				errc <- httpSrv.ListenAndServe()
			}()
			if challenge != nil {
				go func() { errc <- challenge.ListenAndServe() }()
			}
			app.Log.Info("listening", "addr", app.Cfg.HTTPAddr, "tls", httpSrv.TLSConfig != nil)
			fmt.Fprintf(cmd.OutOrStdout(), "Restaurant server listening on %s\n", app.Cfg.HTTPAddr)

			select {
			case err := <-errc:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			case <-ctx.Done():
			}

			app.Log.Info("shutting down")
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if challenge != nil {
				_ = challenge.Shutdown(sctx)
			}
			return httpSrv.Shutdown(sctx)
		},
	}
	cmd.Flags().String("listen", "", "listen address (overrides http_addr)")
	return cmd
}
