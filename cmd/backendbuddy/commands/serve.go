package commands

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/thehillbeyondthisone/BackendBuddy/internal/admission"
	"github.com/thehillbeyondthisone/BackendBuddy/internal/broadcast"
	"github.com/thehillbeyondthisone/BackendBuddy/internal/config"
	"github.com/thehillbeyondthisone/BackendBuddy/internal/errors"
	"github.com/thehillbeyondthisone/BackendBuddy/internal/httpapi"
	"github.com/thehillbeyondthisone/BackendBuddy/internal/proxy"
	"github.com/thehillbeyondthisone/BackendBuddy/internal/supervisor"
	"github.com/thehillbeyondthisone/BackendBuddy/internal/tlsutil"
	"github.com/thehillbeyondthisone/BackendBuddy/internal/traffic"
	"github.com/thehillbeyondthisone/BackendBuddy/internal/tunnel"
	"github.com/thehillbeyondthisone/BackendBuddy/internal/wsapi"
)

var (
	servePort   int
	serveDBPath string
)

// ServeCmd starts the backendbuddy admin server: proxy, waiting room,
// process supervisor, tunnel supervisor, and the admin API/WS surfaces,
// all behind a single admin port. Grounded on the teacher's ServerCmd
// SIGINT/double-Ctrl+C shutdown pattern in cmd/qntx/commands/server.go.
var ServeCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server", "start"},
	Short:   "Start the backendbuddy admin server",
	RunE:    runServe,
}

func init() {
	ServeCmd.Flags().IntVar(&servePort, "port", 1338, "admin port to listen on")
	ServeCmd.Flags().StringVar(&serveDBPath, "db-path", "backendbuddy.db", "configuration database path")
}

func runServe(cmd *cobra.Command, args []string) error {
	store, err := config.Open(serveDBPath)
	if err != nil {
		return errors.Wrap(err, "failed to open configuration store")
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Seed(ctx); err != nil {
		return errors.Wrap(err, "failed to seed configuration store")
	}

	hub := broadcast.New()
	rec := traffic.New(hub)
	sup := supervisor.New(hub)
	tunnels := tunnel.New()

	snap, err := store.Load(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	adm := admission.New(hub, snap.ConcurrencyCap, snap.LocalhostPriority, time.Duration(snap.HeartbeatTimeout)*time.Second)

	ws := wsapi.New(hub, func() any { return adm.Snapshot() })

	api := httpapi.New(httpapi.Deps{
		Config:            store,
		Supervisor:        sup,
		Tunnels:           tunnels,
		Admission:         adm,
		Traffic:           rec,
		AdminPort:         servePort,
		ActiveConnections: ws.ActiveConnections,
	})

	srv := proxy.New(store, adm, rec, api, ws)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", servePort),
		Handler: srv,
	}

	useHTTPS := os.Getenv("USE_HTTPS") == "true"
	if useHTTPS {
		cert, err := tlsutil.GenerateSelfSigned()
		if err != nil {
			return errors.Wrap(err, "failed to generate self-signed TLS certificate")
		}
		httpServer.TLSConfig = &tls.Config{Certificates: []tls.Certificate{cert}}
	}

	reapCtx, cancelReap := context.WithCancel(context.Background())
	defer cancelReap()
	go runReapLoop(reapCtx, adm)

	printStartupBanner(servePort, serveDBPath, snap.QueueEnabled, useHTTPS)

	errChan := make(chan error, 1)
	go func() {
		var err error
		if useHTTPS {
			err = httpServer.ListenAndServeTLS("", "")
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return errors.Wrap(err, "admin server failed to start")
	case <-sigChan:
		pterm.Info.Println("Shutting down gracefully (press Ctrl+C again to force)...")

		shutdownDone := make(chan error, 1)
		go func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			sup.Stop()
			tunnels.Ngrok.Stop()
			tunnels.Cloudflare.Stop()
			shutdownDone <- httpServer.Shutdown(shutdownCtx)
		}()

		select {
		case err := <-shutdownDone:
			if err != nil {
				return fmt.Errorf("shutdown error: %w", err)
			}
			pterm.Success.Println("Server stopped cleanly")
			return nil
		case <-sigChan:
			pterm.Warning.Println("Force shutdown - exiting immediately")
			os.Exit(1)
			return nil
		}
	}
}

// runReapLoop evicts active and waiting sessions past their heartbeat timeout on the
// interval spec.md §4.3 names.
func runReapLoop(ctx context.Context, adm *admission.Controller) {
	ticker := time.NewTicker(admission.DefaultReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			adm.Reap()
		}
	}
}
