package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/example/company-calendar/internal/application"
	"github.com/example/company-calendar/internal/auth"
	httptransport "github.com/example/company-calendar/internal/http"
	"github.com/example/company-calendar/internal/persistence/sqlite"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := opts.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			storage, err := rt.openStorage(ctx)
			if err != nil {
				rt.logger.Error("failed to prepare storage", "error", err)
				return err
			}
			defer func() {
				if cerr := storage.Close(); cerr != nil {
					rt.logger.Error("failed to close storage", "error", cerr)
				}
			}()

			server, err := newServer(rt, storage)
			if err != nil {
				return err
			}
			return listen(ctx, rt, server)
		},
	}
}

func newServer(rt process, storage *sqlite.Storage) (*http.Server, error) {
	loc := rt.cfg.BusinessLocation
	if loc == nil {
		loc = time.UTC
	}

	issuer, err := auth.NewIssuer(rt.cfg.AuthSecret, rt.cfg.TokenTTL, nil)
	if err != nil {
		return nil, fmt.Errorf("configure auth: %w", err)
	}

	appointments := application.NewAppointmentService(storage, storage, uuid.NewString, time.Now, rt.logger,
		application.WithBusinessLocation(loc))
	invites := application.NewInviteService(storage, storage, storage, uuid.NewString, time.Now, rt.logger)
	members := application.NewMemberService(storage, time.Now, rt.logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Appointments:   httptransport.NewAppointmentHandler(appointments, rt.logger),
		Invites:        httptransport.NewInviteHandler(invites, rt.logger),
		Members:        httptransport.NewMemberHandler(members, rt.logger),
		Verifier:       issuer,
		AllowedOrigins: rt.cfg.AllowedOrigins,
		Logger:         rt.logger,
	})

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", rt.cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}, nil
}

// listen serves until ctx is cancelled or the listener fails, and returns
// only after the shutdown goroutine has finished.
func listen(ctx context.Context, rt process, server *http.Server) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rt.logger.Error("failed to shutdown server", "error", err)
		}
	}()

	rt.logger.Info("calendar API listening", "addr", server.Addr, "business_tz", rt.cfg.BusinessTZ)
	err := server.ListenAndServe()
	cancel()
	<-stopped
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		rt.logger.Error("server encountered error", "error", err)
		return err
	}
	return nil
}
