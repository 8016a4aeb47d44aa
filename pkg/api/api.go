// Package api exposes the auction and admin endpoints over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/OmkarAla/SSP-Ad-Auction-Simulator/pkg/auction"
	"github.com/OmkarAla/SSP-Ad-Auction-Simulator/pkg/log"
	"github.com/OmkarAla/SSP-Ad-Auction-Simulator/pkg/metrics"
	"github.com/OmkarAla/SSP-Ad-Auction-Simulator/pkg/store"
)

// Auctioneer runs one auction for an incoming ad request.
type Auctioneer interface {
	Run(ctx context.Context, req auction.Request) (*auction.Result, error)
}

// AdminStore serves the read-only admin endpoints.
type AdminStore interface {
	ListAdRequests(ctx context.Context) ([]store.AdRequest, error)
	ListDSPs(ctx context.Context) ([]store.DSP, error)
	Analytics(ctx context.Context) (*store.AnalyticsReport, error)
}

// Server wires the auction engine and store into HTTP handlers.
type Server struct {
	engine  Auctioneer
	store   AdminStore
	log     log.Logger
	metrics *metrics.Metrics
}

// NewServer creates the HTTP server wiring.
func NewServer(engine Auctioneer, st AdminStore, logger log.Logger, m *metrics.Metrics) *Server {
	return &Server{
		engine:  engine,
		store:   st,
		log:     logger,
		metrics: m,
	}
}

// Router builds the gin router with CORS, request-id and logging
// middleware plus all API routes.
func (s *Server) Router(env string, corsOrigins []string) *gin.Engine {
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger(s.log))

	config := cors.DefaultConfig()
	config.AllowOrigins = corsOrigins
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	router.Use(cors.New(config))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	api := router.Group("/api")
	{
		api.POST("/ad-request", s.handleAdRequest)

		admin := api.Group("/admin")
		admin.GET("/ad-requests", s.listAdRequests)
		admin.GET("/dsps", s.listDSPs)
		admin.GET("/analytics", s.getAnalytics)
	}

	return router
}

// winnerResponse is the success payload for an auction with a winner.
type winnerResponse struct {
	WinnerDSP string           `json:"winner_dsp"`
	BidPrice  float64          `json:"bid_price"`
	Creative  auction.Creative `json:"creative"`
}

func (s *Server) handleAdRequest(c *gin.Context) {
	var req auction.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input provided"})
		return
	}

	result, err := s.engine.Run(c.Request.Context(), req)
	if err != nil {
		var verr *auction.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":          "Invalid input provided",
				"missing_fields": verr.Missing,
			})
			return
		}
		s.log.Error("ad request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if result.Winner == nil {
		c.JSON(http.StatusOK, gin.H{"message": "No eligible bids found"})
		return
	}

	c.JSON(http.StatusOK, winnerResponse{
		WinnerDSP: result.Winner.DSPID,
		BidPrice:  result.Winner.Price.InexactFloat64(),
		Creative:  result.Winner.Creative,
	})
}

func (s *Server) listAdRequests(c *gin.Context) {
	reqs, err := s.store.ListAdRequests(c.Request.Context())
	if err != nil {
		s.log.Error("listing ad requests failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if reqs == nil {
		reqs = []store.AdRequest{}
	}
	c.JSON(http.StatusOK, reqs)
}

func (s *Server) listDSPs(c *gin.Context) {
	dsps, err := s.store.ListDSPs(c.Request.Context())
	if err != nil {
		s.log.Error("listing dsps failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if dsps == nil {
		dsps = []store.DSP{}
	}
	c.JSON(http.StatusOK, dsps)
}

func (s *Server) getAnalytics(c *gin.Context) {
	report, err := s.store.Analytics(c.Request.Context())
	if err != nil {
		s.log.Error("analytics query failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, report)
}
