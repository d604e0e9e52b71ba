// Copyright 2025 LexiAssist Backend Project
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

// Package server wires the HTTP surface: account and student management,
// test submissions, and the two AI mini-game pipelines.
package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/your-org/lexiassist-backend/internal/auth"
	"github.com/your-org/lexiassist-backend/internal/config"
	"github.com/your-org/lexiassist-backend/internal/health"
	"github.com/your-org/lexiassist-backend/internal/store"
	"github.com/your-org/lexiassist-backend/internal/storybook"
	"github.com/your-org/lexiassist-backend/internal/worddetective"
)

// Options holds the dependencies the server needs.
type Options struct {
	Config        *config.Config
	Store         *store.Store
	Tokens        *auth.Manager
	Storybook     *storybook.Service
	WordDetective *worddetective.Service
	Logger        *zap.Logger
}

// Server exposes the REST API.
type Server struct {
	cfg       *config.Config
	store     *store.Store
	tokens    *auth.Manager
	storybook *storybook.Service
	words     *worddetective.Service
	health    *health.Manager
	logger    *zap.Logger
}

// New creates the server.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	checks := health.NewManager("lexiassist", "1.0.0", logger)
	checks.AddChecker("database", health.DatabaseChecker(opts.Config.Database.Driver, opts.Store.Ping))
	checks.AddChecker("storybook_generation", health.GenerationChecker("gemini", opts.Storybook.Configured))
	checks.AddChecker("worddetective_generation", health.GenerationChecker("groq", opts.WordDetective.Configured))

	return &Server{
		cfg:       opts.Config,
		store:     opts.Store,
		tokens:    opts.Tokens,
		storybook: opts.Storybook,
		words:     opts.WordDetective,
		health:    checks,
		logger:    logger,
	}
}

// Router builds the gin engine with all routes and middleware attached.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.Server.FrontendOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "LexiAssist Backend is running"})
	})
	router.GET("/health", s.handleHealth)

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", s.handleRegister)
		authGroup.POST("/login", s.handleLogin)
		authGroup.GET("/me", s.requireAuth, s.handleMe)
	}

	students := router.Group("/students", s.requireAuth)
	{
		students.POST("", s.handleCreateStudent)
		students.GET("", s.handleListStudents)
		students.GET("/:id", s.handleGetStudent)
		students.PUT("/:id", s.handleUpdateStudent)
		students.DELETE("/:id", s.handleDeleteStudent)
	}

	tests := router.Group("/tests", s.requireAuth)
	{
		tests.POST("/submit", s.handleSubmitTest)
		tests.GET("/history", s.handleTestHistory)
		tests.GET("/:id", s.handleTestDetail)
	}

	sb := router.Group("/api/storybook", s.captureStorybook)
	{
		sb.POST("/generate-rounds", s.handleGenerateRounds)
		sb.POST("/analyze-response", s.handleAnalyzeResponse)
		sb.GET("/health", s.handleStorybookHealth)
	}

	wd := router.Group("/api/worddetective")
	{
		wd.POST("/generate", s.handleGenerateWords)
		wd.POST("/analyze", s.handleAnalyzeWords)
	}

	return router
}

// handleHealth reports the status of the database and both generation
// providers. An unconfigured provider degrades the service but keeps it
// serving; only a dead database makes it unhealthy.
func (s *Server) handleHealth(c *gin.Context) {
	report := s.health.Check(c.Request.Context())

	status := http.StatusOK
	if report.Status == health.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}

// setSessionCookie attaches the signed session token to the response.
func (s *Server) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		auth.CookieName,
		token,
		int(s.tokens.TokenTTL().Seconds()),
		"/",
		"",
		s.cfg.Auth.CookieSecure,
		true,
	)
}
