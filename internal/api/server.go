// Copyright 2026 The mindrouter Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package api exposes the orchestration engine over HTTP: analysis
// endpoints, task progress, stats, a websocket event feed, and the
// Prometheus metrics endpoint.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/thinkmate/mindrouter/internal/buildinfo"
	"github.com/thinkmate/mindrouter/internal/cache"
	"github.com/thinkmate/mindrouter/internal/executor"
	"github.com/thinkmate/mindrouter/internal/hooks"
	"github.com/thinkmate/mindrouter/internal/orchestrator"
	"github.com/thinkmate/mindrouter/internal/registry"
	"github.com/thinkmate/mindrouter/internal/scenario"
	"github.com/thinkmate/mindrouter/internal/selector"
	"github.com/thinkmate/mindrouter/internal/steering"
	"github.com/thinkmate/mindrouter/internal/tracker"
)

// Server hosts the HTTP API.
type Server struct {
	engine   *gin.Engine
	orch     *orchestrator.Orchestrator
	registry *registry.Registry
	tracker  *tracker.Tracker
	steering *steering.Engine
	quick    *cache.QuickCache
	bus      *hooks.EventBus
	httpSrv  *http.Server
}

// New builds the server and registers all routes. Steering and quick may
// be nil.
func New(orch *orchestrator.Orchestrator, reg *registry.Registry, trk *tracker.Tracker, steer *steering.Engine, quick *cache.QuickCache, bus *hooks.EventBus) *Server {
	s := &Server{
		orch:     orch,
		registry: reg,
		tracker:  trk,
		steering: steer,
		quick:    quick,
		bus:      bus,
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), gin.Logger())
	s.engine = engine
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.engine.Group("/v1")
	{
		v1.POST("/analyze", s.handleAnalyze)
		v1.POST("/analyze/batch", s.handleAnalyzeBatch)
		v1.POST("/quick", s.handleQuick)
		v1.GET("/tasks/:id", s.handleTaskStatus)
		v1.GET("/tasks/:id/result", s.handleTaskResult)
		v1.DELETE("/tasks/:id", s.handleTaskCancel)
		v1.GET("/stats", s.handleStats)
		v1.GET("/steering/rules", s.handleSteeringRules)
		v1.GET("/events", s.handleEvents)
	}
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context, host string, port int) error {
	s.httpSrv = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", host, port),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("API server listening on %s", s.httpSrv.Addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

type analyzeRequest struct {
	Content      string                `json:"content" binding:"required"`
	History      []string              `json:"history"`
	Prefs        *scenario.Preferences `json:"preferences"`
	Strategy     string                `json:"strategy"`
	Priority     string                `json:"priority"`
	RequiredTags []string              `json:"required_tags"`
}

func (r analyzeRequest) toRequest() orchestrator.Request {
	req := orchestrator.Request{
		Content:      r.Content,
		History:      r.History,
		Strategy:     selector.Strategy(r.Strategy),
		Priority:     executor.Priority(r.Priority),
		RequiredTags: r.RequiredTags,
	}
	if r.Prefs != nil {
		req.Prefs = *r.Prefs
	}
	return req
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.orch.ProcessOne(c.Request.Context(), req.toRequest())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

type batchRequest struct {
	Items []analyzeRequest `json:"items" binding:"required"`
}

func (s *Server) handleAnalyzeBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "items cannot be empty"})
		return
	}

	reqs := make([]orchestrator.Request, len(req.Items))
	for i, item := range req.Items {
		reqs[i] = item.toRequest()
	}
	c.JSON(http.StatusOK, gin.H{"results": s.orch.ProcessBatch(c.Request.Context(), reqs)})
}

type quickRequest struct {
	Content string `json:"content" binding:"required"`
}

func (s *Server) handleQuick(c *gin.Context) {
	var req quickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.orch.QuickAnalysis(req.Content))
}

func (s *Server) handleTaskStatus(c *gin.Context) {
	snap, err := s.orch.GetStatus(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) handleTaskResult(c *gin.Context) {
	result, err := s.orch.GetResult(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleTaskCancel(c *gin.Context) {
	if err := s.orch.Cancel(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "cancellation requested"})
}

func (s *Server) handleStats(c *gin.Context) {
	rows := s.registry.Snapshot()

	type providerStats struct {
		Capability registry.Capability `json:"capability"`
		Stats      tracker.Stats       `json:"stats"`
	}
	providers := make([]providerStats, 0, len(rows))
	for _, row := range rows {
		providers = append(providers, providerStats{
			Capability: row,
			Stats:      s.tracker.Stats(row.ProviderID, row.Scenario),
		})
	}

	resp := gin.H{
		"providers":       providers,
		"tracked_samples": s.tracker.Len(),
	}
	if s.quick != nil {
		resp["quick_cache"] = s.quick.Stats()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSteeringRules(c *gin.Context) {
	if s.steering == nil {
		c.JSON(http.StatusOK, gin.H{"rules": []struct{}{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": s.steering.Rules()})
}
