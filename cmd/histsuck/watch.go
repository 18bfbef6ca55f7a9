// Copyright 2024 Jack Bister
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/dig"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jackbister/histsuck/internal/events"
	"github.com/jackbister/histsuck/internal/files"
	"github.com/jackbister/histsuck/internal/tasks"
	"github.com/jackbister/histsuck/internal/web"
	"github.com/jackbister/histsuck/pkg/histsuck/config"
)

var webAddrFlag string

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "watch glob...",
		Short: "Parse the files matching the globs and parse them again whenever they change",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd, func(cfg *config.Config) {
				cfg.Watch.Globs = append(cfg.Watch.Globs, args...)
			})
		},
	})
	serveCmd := &cobra.Command{
		Use:   "serve [glob...]",
		Short: "Serve the HTTP API, watching the files matching the globs if any are given",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd, func(cfg *config.Config) {
				cfg.Watch.Globs = append(cfg.Watch.Globs, args...)
				cfg.Web.Enabled = true
				if cmd.Flags().Changed("webaddr") {
					cfg.Web.Address = webAddrFlag
				}
			})
		},
	}
	serveCmd.Flags().StringVar(&webAddrFlag, "webaddr", ":8080", "The address on which the HTTP API will be exposed.")
	rootCmd.AddCommand(serveCmd)
}

type daemonParams struct {
	dig.In

	Cfg       *config.Config
	Watcher   *files.GlobWatcher
	Web       *web.Web
	Out       events.Output
	Retention *tasks.DeleteOldEventsTask `optional:"true"`
}

// runDaemon runs the watcher and the web server until interrupted.
func runDaemon(cmd *cobra.Command, modify func(cfg *config.Config)) error {
	c, logger, err := setup(cmd, modify)
	if err != nil {
		return err
	}
	defer logger.Sync()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return c.Invoke(func(p daemonParams) error {
		cfg := p.Cfg
		defer func() {
			if err := p.Out.Close(); err != nil {
				logger.Error("got error when closing output", zap.Error(err))
			}
		}()
		if len(cfg.Watch.Globs) == 0 && !cfg.Web.Enabled {
			logger.Warn("nothing to do, no globs are watched and the web server is disabled")
			return nil
		}
		g, ctx := errgroup.WithContext(ctx)
		if p.Retention != nil {
			g.Go(func() error {
				return p.Retention.RunPeriodically(ctx, cfg.Retention.Interval)
			})
		}
		if len(cfg.Watch.Globs) > 0 {
			g.Go(func() error {
				return p.Watcher.Run(ctx)
			})
		}
		if cfg.Web.Enabled {
			g.Go(func() error {
				return p.Web.Serve(ctx)
			})
		}
		err := g.Wait()
		logger.Info("shutting down")
		return err
	})
}
