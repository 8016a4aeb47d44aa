// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package store

// Ad request lifecycle statuses. A request is inserted as pending and
// transitions exactly once to completed or no_winner.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusNoWinner  = "no_winner"
)

// DSP is a registered demand-side platform. Seed data is static for the
// lifetime of a run and read-only to the auction pipeline.
type DSP struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	TargetingRules   string  `json:"targeting_rules"`
	BaseBidPrice     float64 `json:"base_bid_price"`
	CreativeImageURL string  `json:"ad_creative_image_url"`
	CreativeClickURL string  `json:"ad_creative_click_url"`
}

// AdRequest is one stored ad request with its auction outcome.
type AdRequest struct {
	ID              int64    `json:"id"`
	PublisherID     string   `json:"publisher_id"`
	AdSlotID        string   `json:"ad_slot_id"`
	Geo             string   `json:"geo"`
	Device          string   `json:"device"`
	RequestTime     string   `json:"request_time"`
	WinnerDSPID     *string  `json:"winner_dsp_id"`
	WinningBidPrice *float64 `json:"winning_bid_price"`
	Status          string   `json:"status"`
}

// Outcome is the terminal state recorded for an ad request.
type Outcome struct {
	Status          string
	WinnerDSPID     string
	WinningBidPrice float64
}

// DSPPerformance aggregates per-DSP auction results.
type DSPPerformance struct {
	DSPID      string   `json:"dsp_id"`
	Name       string   `json:"name"`
	WinCount   int64    `json:"win_count"`
	WinRate    float64  `json:"win_rate"`
	AverageCPM *float64 `json:"average_cpm"`
}

// TrendPoint is one hourly bucket of the winning-price trend.
type TrendPoint struct {
	TimePeriod string  `json:"time_period"`
	AverageCPM float64 `json:"average_cpm"`
}

// AnalyticsReport is the aggregate view served by the admin API.
type AnalyticsReport struct {
	TotalRequests  int64            `json:"total_requests"`
	DSPPerformance []DSPPerformance `json:"dsp_performance"`
	CPMTrend       []TrendPoint     `json:"cpm_trend"`
}
