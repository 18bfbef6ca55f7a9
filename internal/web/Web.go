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

package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/araddon/dateparse"
	"github.com/gin-gonic/gin"
	"github.com/jackbister/histsuck/internal/events"
	"github.com/jackbister/histsuck/internal/ingest"
	"github.com/jackbister/histsuck/pkg/histsuck/config"
	api "github.com/jackbister/histsuck/pkg/histsuck/events"
	"github.com/jackbister/histsuck/pkg/histsuck/structure"
	"github.com/jackbister/histsuck/pkg/histsuck/util"
	"go.uber.org/dig"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	defaultLimit  = 1000
	maxUploadSize = 256 * 1024 * 1024
)

type Web struct {
	cfg     *config.Config
	repo    api.Repository
	ingest  *ingest.Service
	handler http.Handler

	logger *zap.Logger
}

type WebParams struct {
	dig.In

	Cfg    *config.Config
	Repo   api.Repository `optional:"true"`
	Ingest *ingest.Service
	Logger *zap.Logger
}

type EventsResult struct {
	Events []events.JsonEvent `json:"events"`
}

type ParseResult struct {
	Format   string             `json:"format"`
	Records  int                `json:"records"`
	Warnings []string           `json:"warnings"`
	Events   []events.JsonEvent `json:"events"`
}

type errorResult struct {
	Error string `json:"error"`
}

func NewWeb(p WebParams) *Web {
	w := &Web{
		cfg:    p.Cfg,
		repo:   p.Repo,
		ingest: p.Ingest,
		logger: p.Logger.Named("web"),
	}
	w.handler = w.newRouter()
	return w
}

func (w *Web) Handler() http.Handler {
	return w.handler
}

// Serve blocks until ctx is cancelled or the server fails.
func (w *Web) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:    w.cfg.Web.Address,
		Handler: w.handler,
	}
	errCh := make(chan error, 1)
	go func() {
		w.logger.Info("starting web server", zap.String("address", w.cfg.Web.Address))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return fmt.Errorf("error serving on address=%s: %w", w.cfg.Web.Address, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		if err != nil {
			return fmt.Errorf("error shutting down web server: %w", err)
		}
		return nil
	}
}

func (w *Web) newRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(util.NewGinZapLogger(zapcore.InfoLevel, w.logger))
	r.SetTrustedProxies(nil)

	g := r.Group("/api/v1")
	g.GET("/events", w.getEvents)
	g.POST("/parse", w.postParse)
	return r
}

func (w *Web) getEvents(c *gin.Context) {
	if w.repo == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, errorResult{Error: "events are not stored when output type is " + w.cfg.Output.Type})
		return
	}
	f := api.Filter{
		Source:      c.Query("source"),
		HistoryType: c.Query("historyType"),
		Limit:       defaultLimit,
	}
	var err error
	f.StartTime, err = parseTimeParameter(c, "startTime")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResult{Error: err.Error()})
		return
	}
	f.EndTime, err = parseTimeParameter(c, "endTime")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResult{Error: err.Error()})
		return
	}
	if limit, ok := c.GetQuery("limit"); ok {
		f.Limit, err = strconv.Atoi(limit)
		if err != nil || f.Limit < 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, errorResult{Error: "limit must be a non-negative integer, got " + limit})
			return
		}
	}

	stored, err := w.repo.Filter(c.Request.Context(), f)
	if err != nil {
		w.logger.Error("got error when filtering events", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResult{Error: "failed to get events"})
		return
	}
	res := EventsResult{Events: make([]events.JsonEvent, len(stored))}
	for i, evt := range stored {
		res.Events[i] = events.ToJson(evt)
	}
	c.JSON(http.StatusOK, res)
}

// postParse parses the request body and returns the extracted events without storing them.
func (w *Web) postParse(c *gin.Context) {
	name := c.DefaultQuery("name", "upload")
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)
	pub := &events.CollectingPublisher{}
	report, err := w.ingest.Parse(c.Request.Context(), name, body, pub)
	if err != nil {
		var pErr *structure.ParseError
		if errors.As(err, &pErr) {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, errorResult{Error: err.Error()})
			return
		}
		var mErr *http.MaxBytesError
		if errors.As(err, &mErr) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, errorResult{Error: err.Error()})
			return
		}
		w.logger.Error("got error when parsing uploaded file", zap.String("name", name), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResult{Error: "failed to parse file"})
		return
	}
	res := ParseResult{
		Format:   report.Format,
		Records:  report.Records,
		Warnings: make([]string, len(report.Warnings)),
		Events:   make([]events.JsonEvent, len(pub.Events)),
	}
	for i, warning := range report.Warnings {
		res.Warnings[i] = warning.String()
	}
	for i, evt := range pub.Events {
		res.Events[i] = events.ToJson(api.StoredEvent{
			Host:   w.cfg.HostName,
			Source: name,
			Event:  evt,
		})
	}
	c.JSON(http.StatusOK, res)
}

func parseTimeParameter(c *gin.Context, name string) (*time.Time, error) {
	s, ok := c.GetQuery(name)
	if !ok || s == "" {
		return nil, nil
	}
	t, err := dateparse.ParseStrict(s)
	if err != nil {
		return nil, fmt.Errorf("got error when parsing %s=%s: %w", name, s, err)
	}
	return &t, nil
}
