// Package server exposes the recommendation pipeline over HTTP.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tuanvm/tripagent/config"
	"github.com/tuanvm/tripagent/internal/agent"
	"github.com/tuanvm/tripagent/internal/browse"
	"github.com/tuanvm/tripagent/internal/capability"
	"github.com/tuanvm/tripagent/internal/eureka"
	"github.com/tuanvm/tripagent/internal/telemetry"
)

// Run wires the pipeline and serves it until the listener fails.
func Run(cfg *config.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))

	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		requestID := c.Response().Header().Get(echo.HeaderXRequestID)
		baseLogger.Printf("%d %s %s from %s (request %s): %v", code, req.Method, req.URL.Path, c.RealIP(), requestID, err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg, "request_id": requestID})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "X-Request-ID"},
	}))

	browser, err := browse.NewBrowser(cfg.Sources.Browse)
	if err != nil {
		return err
	}
	registry, err := capability.NewRegistry(
		browseTool(browser),
		capability.FamilyBudgetBufferTool(),
	)
	if err != nil {
		return err
	}

	var tele *telemetry.Telemetry
	if cfg.Telemetry.Enabled {
		tele = telemetry.New(prometheus.DefaultRegisterer)
	}

	orchLogger := log.New(log.Writer(), "[ORCH] ", log.LstdFlags)
	orch, err := agent.NewOrchestrator(cfg, orchLogger, tele, registry)
	if err != nil {
		return err
	}

	health := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
	e.GET("/healthz", health)
	e.GET("/health", health)
	e.GET("/", func(c echo.Context) error {
		tools := registry.List()
		names := make([]string, 0, len(tools))
		for _, t := range tools {
			names = append(names, t.Name)
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"service":   "tripagent",
			"status":    "running",
			"endpoints": []string{"/healthz", "/recommendations", "/recommendations/stream", "/plan", "/metrics", "/api/docs"},
			"tools":     names,
		})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	registerDocs(e)

	h := &Handler{
		Runner:     orch,
		Logger:     log.New(log.Writer(), "[HTTP] ", log.LstdFlags),
		TokenDelay: cfg.Server.TokenDelay,
	}
	h.Register(e, cfg.Server.StreamEnabled)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go eureka.Run(ctx, cfg.Eureka, addrPort(cfg.Server.Address), nil)

	return e.Start(cfg.Server.Address)
}

// addrPort extracts the numeric port from a listen address like ":10002".
func addrPort(addr string) int {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0
	}
	port, _ := strconv.Atoi(portStr)
	return port
}
