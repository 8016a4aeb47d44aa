// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package auction runs first-price auctions across the DSP registry.
package auction

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/OmkarAla/SSP-Ad-Auction-Simulator/pkg/log"
	"github.com/OmkarAla/SSP-Ad-Auction-Simulator/pkg/metrics"
	"github.com/OmkarAla/SSP-Ad-Auction-Simulator/pkg/store"
	"github.com/OmkarAla/SSP-Ad-Auction-Simulator/pkg/targeting"
)

// Creative is the ad creative snapshot returned with a winning bid.
type Creative struct {
	ImageURL string `json:"image_url"`
	ClickURL string `json:"click_url"`
}

// Bid is one DSP's ephemeral price offer for a single auction.
type Bid struct {
	DSPID    string
	Price    decimal.Decimal
	Creative Creative
}

// Result is the outcome of one auction. Winner is nil when no DSP
// produced an eligible bid.
type Result struct {
	RequestID int64
	Winner    *Bid
}

// Recorder persists ad requests and their terminal outcomes.
type Recorder interface {
	CreateAdRequest(ctx context.Context, req store.AdRequest) (int64, error)
	RecordOutcome(ctx context.Context, id int64, outcome store.Outcome) error
}

// Registry supplies the DSP snapshot in canonical order. Tie-breaks
// between equal bids resolve to the DSP listed first.
type Registry interface {
	ListDSPs(ctx context.Context) ([]store.DSP, error)
}

// Engine orchestrates validation, bid collection, winner selection and
// outcome recording for incoming ad requests.
type Engine struct {
	recorder Recorder
	registry Registry
	log      log.Logger
	metrics  *metrics.Metrics
}

// NewEngine creates an auction engine.
func NewEngine(recorder Recorder, registry Registry, logger log.Logger, m *metrics.Metrics) *Engine {
	return &Engine{
		recorder: recorder,
		registry: registry,
		log:      logger,
		metrics:  m,
	}
}

// Run executes one auction end to end. A ValidationError is returned
// before anything is persisted; any persistence failure is fatal for the
// request. A request with no eligible bids is a successful auction with
// a nil Winner, recorded as no_winner.
func (e *Engine) Run(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() {
		e.metrics.AuctionDuration.Observe(time.Since(start).Seconds())
	}()

	id, err := e.recorder.CreateAdRequest(ctx, req.record())
	if err != nil {
		return nil, fmt.Errorf("store ad request: %w", err)
	}

	dsps, err := e.registry.ListDSPs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dsp registry: %w", err)
	}

	bids := e.collectBids(req, dsps)

	if len(bids) == 0 {
		if err := e.recorder.RecordOutcome(ctx, id, store.Outcome{Status: store.StatusNoWinner}); err != nil {
			return nil, fmt.Errorf("record no-winner outcome: %w", err)
		}
		e.metrics.AuctionsTotal.WithLabelValues(store.StatusNoWinner).Inc()
		e.log.Info("auction finished without eligible bids", "request", id, "dsps", len(dsps))
		return &Result{RequestID: id}, nil
	}

	// First-wins maximum: a later bid replaces the current best only when
	// strictly greater, so ties keep the earliest DSP in registry order.
	winner := bids[0]
	for _, bid := range bids[1:] {
		if bid.Price.GreaterThan(winner.Price) {
			winner = bid
		}
	}

	outcome := store.Outcome{
		Status:          store.StatusCompleted,
		WinnerDSPID:     winner.DSPID,
		WinningBidPrice: winner.Price.InexactFloat64(),
	}
	if err := e.recorder.RecordOutcome(ctx, id, outcome); err != nil {
		return nil, fmt.Errorf("record auction outcome: %w", err)
	}

	e.metrics.AuctionsTotal.WithLabelValues(store.StatusCompleted).Inc()
	e.metrics.BidsCollected.Add(float64(len(bids)))
	e.metrics.DSPWins.WithLabelValues(winner.DSPID).Inc()

	e.log.Info("auction completed",
		"request", id,
		"winner", winner.DSPID,
		"price", winner.Price.String(),
		"bids", len(bids))

	return &Result{RequestID: id, Winner: &winner}, nil
}

// collectBids evaluates every DSP independently, in registry order. A DSP
// with a malformed targeting rule is skipped without affecting the rest.
func (e *Engine) collectBids(req Request, dsps []store.DSP) []Bid {
	var bids []Bid
	for _, dsp := range dsps {
		rule, err := targeting.ParseRule(dsp.TargetingRules)
		if err != nil {
			e.metrics.RuleParseFailures.WithLabelValues(dsp.ID).Inc()
			e.log.Warn("skipping dsp with malformed targeting rule", "dsp", dsp.ID, "error", err)
			continue
		}

		price := targeting.Evaluate(rule, req.Geo, req.Device, decimal.NewFromFloat(dsp.BaseBidPrice))
		if !price.GreaterThan(decimal.Zero) {
			continue
		}

		bids = append(bids, Bid{
			DSPID: dsp.ID,
			Price: price,
			Creative: Creative{
				ImageURL: dsp.CreativeImageURL,
				ClickURL: dsp.CreativeClickURL,
			},
		})
	}
	return bids
}
