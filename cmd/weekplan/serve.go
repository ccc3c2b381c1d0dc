package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/spf13/cobra"

	appLog "weekplan/internal/log"
	"weekplan/internal/scheduler"
	"weekplan/internal/web"
)

const shutdownTimeout = 30 * time.Second

func serveCmd(e *env) *cobra.Command {
	var syncOnStart bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and scheduled feed syncs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			srv := web.NewHTTPServer(e.cfg, e.app)
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", srv.Addr, err)
			}

			var sched *scheduler.Scheduler
			if e.cfg.Sync.Refresh != "" {
				sched, err = scheduler.New(e.cfg.Sync.Refresh, e.app.Calendar)
				if err != nil {
					ln.Close()
					return err
				}
				sched.Start()
				if syncOnStart {
					go sched.RunOnce()
				}
			}

			go func() {
				appLog.Info("http server listening", "addr", ln.Addr().String())
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					appLog.Error("http server failed", err)
				}
			}()

			ops := map[string]gfshutdown.Operation{
				"http-server": func(ctx context.Context) error {
					return srv.Shutdown(ctx)
				},
			}
			if sched != nil {
				ops["sync-scheduler"] = func(ctx context.Context) error {
					return sched.Stop(ctx)
				}
			}

			wait := gfshutdown.GracefulShutdown(context.Background(), shutdownTimeout, ops)
			if code := <-wait; code != 0 {
				return fmt.Errorf("shutdown finished with exit code %d", code)
			}
			appLog.Info("shutdown complete")
			return nil
		},
	}
	cmd.Flags().BoolVar(&syncOnStart, "sync-on-start", false, "Sync all sources once at startup (needs sync.refresh)")
	return cmd
}
