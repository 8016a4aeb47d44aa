// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package store persists DSPs and ad requests in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/OmkarAla/SSP-Ad-Auction-Simulator/pkg/log"
	"github.com/OmkarAla/SSP-Ad-Auction-Simulator/pkg/store/migrations"
)

// ErrRequestNotFound is returned when an outcome update targets an
// ad request id that was never stored.
var ErrRequestNotFound = errors.New("ad request not found")

// Store is the SQLite-backed persistence collaborator for the auction
// pipeline and the admin read endpoints.
type Store struct {
	sqlDB *sql.DB
	log   log.Logger
}

// Open opens the SQLite store at path and applies embedded migrations.
func Open(ctx context.Context, path string, logger log.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Debug("store opened", "path", path)
	return &Store{sqlDB: sqlDB, log: logger}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SeedDefaultDSPs inserts the canonical demo DSPs. Existing rows are kept,
// so reseeding on startup is safe.
func (s *Store) SeedDefaultDSPs(ctx context.Context) error {
	seeds := []DSP{
		{
			ID:               "DSP_A",
			Name:             "Demand Platform A",
			TargetingRules:   `{"geo":"US","device":"mobile"}`,
			BaseBidPrice:     3.5,
			CreativeImageURL: "https://example.com/ad_a.jpg",
			CreativeClickURL: "https://example.com/landing_a",
		},
		{
			ID:               "DSP_B",
			Name:             "Demand Platform B",
			TargetingRules:   `{"geo":"US","device":"desktop"}`,
			BaseBidPrice:     2.5,
			CreativeImageURL: "https://example.com/ad_b.jpg",
			CreativeClickURL: "https://example.com/landing_b",
		},
		{
			ID:               "DSP_C",
			Name:             "Demand Platform C",
			TargetingRules:   `{"geo":"EU","device":"mobile"}`,
			BaseBidPrice:     2.0,
			CreativeImageURL: "https://example.com/ad_c.jpg",
			CreativeClickURL: "https://example.com/landing_c",
		},
	}
	for _, dsp := range seeds {
		if err := s.InsertDSP(ctx, dsp); err != nil {
			return err
		}
	}
	s.log.Info("dsp registry seeded", "count", len(seeds))
	return nil
}

// InsertDSP stores one DSP record, keeping any existing row with the same id.
func (s *Store) InsertDSP(ctx context.Context, dsp DSP) error {
	if strings.TrimSpace(dsp.ID) == "" {
		return fmt.Errorf("dsp id is required")
	}
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO dsps (
		   id, name, targeting_rules, base_bid_price,
		   ad_creative_image_url, ad_creative_click_url
		 ) VALUES (?, ?, ?, ?, ?, ?)`,
		dsp.ID,
		dsp.Name,
		dsp.TargetingRules,
		dsp.BaseBidPrice,
		dsp.CreativeImageURL,
		dsp.CreativeClickURL,
	)
	if err != nil {
		return fmt.Errorf("insert dsp %s: %w", dsp.ID, err)
	}
	return nil
}

// CreateAdRequest inserts a validated ad request with status pending and
// returns its assigned id.
func (s *Store) CreateAdRequest(ctx context.Context, req AdRequest) (int64, error) {
	if strings.TrimSpace(req.PublisherID) == "" {
		return 0, fmt.Errorf("publisher id is required")
	}
	res, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO ad_requests (
		   publisher_id, ad_slot_id, geo, device, request_time, status
		 ) VALUES (?, ?, ?, ?, ?, ?)`,
		req.PublisherID,
		req.AdSlotID,
		req.Geo,
		req.Device,
		req.RequestTime,
		StatusPending,
	)
	if err != nil {
		return 0, fmt.Errorf("insert ad request: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("ad request id: %w", err)
	}
	return id, nil
}

// RecordOutcome sets the terminal status of one ad request. Winner fields
// are written only for completed outcomes.
func (s *Store) RecordOutcome(ctx context.Context, id int64, outcome Outcome) error {
	var (
		res sql.Result
		err error
	)
	switch outcome.Status {
	case StatusCompleted:
		res, err = s.sqlDB.ExecContext(
			ctx,
			`UPDATE ad_requests
			 SET winner_dsp_id = ?, winning_bid_price = ?, status = ?
			 WHERE id = ?`,
			outcome.WinnerDSPID,
			outcome.WinningBidPrice,
			StatusCompleted,
			id,
		)
	case StatusNoWinner:
		res, err = s.sqlDB.ExecContext(
			ctx,
			`UPDATE ad_requests SET status = ? WHERE id = ?`,
			StatusNoWinner,
			id,
		)
	default:
		return fmt.Errorf("invalid outcome status %q", outcome.Status)
	}
	if err != nil {
		return fmt.Errorf("update ad request %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update ad request %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("update ad request %d: %w", id, ErrRequestNotFound)
	}
	return nil
}

// ListDSPs returns the DSP registry in canonical order. The order is
// stable across calls; auction tie-breaks depend on it.
func (s *Store) ListDSPs(ctx context.Context) ([]DSP, error) {
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, name, targeting_rules, base_bid_price,
		        ad_creative_image_url, ad_creative_click_url
		 FROM dsps ORDER BY rowid`,
	)
	if err != nil {
		return nil, fmt.Errorf("list dsps: %w", err)
	}
	defer rows.Close()

	var dsps []DSP
	for rows.Next() {
		var dsp DSP
		if err := rows.Scan(
			&dsp.ID,
			&dsp.Name,
			&dsp.TargetingRules,
			&dsp.BaseBidPrice,
			&dsp.CreativeImageURL,
			&dsp.CreativeClickURL,
		); err != nil {
			return nil, fmt.Errorf("scan dsp: %w", err)
		}
		dsps = append(dsps, dsp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list dsps: %w", err)
	}
	return dsps, nil
}

// ListAdRequests returns all stored ad requests, oldest first.
func (s *Store) ListAdRequests(ctx context.Context) ([]AdRequest, error) {
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, publisher_id, ad_slot_id, geo, device, request_time,
		        winner_dsp_id, winning_bid_price, status
		 FROM ad_requests ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list ad requests: %w", err)
	}
	defer rows.Close()

	var reqs []AdRequest
	for rows.Next() {
		var (
			req    AdRequest
			winner sql.NullString
			price  sql.NullFloat64
		)
		if err := rows.Scan(
			&req.ID,
			&req.PublisherID,
			&req.AdSlotID,
			&req.Geo,
			&req.Device,
			&req.RequestTime,
			&winner,
			&price,
			&req.Status,
		); err != nil {
			return nil, fmt.Errorf("scan ad request: %w", err)
		}
		if winner.Valid {
			req.WinnerDSPID = &winner.String
		}
		if price.Valid {
			req.WinningBidPrice = &price.Float64
		}
		reqs = append(reqs, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list ad requests: %w", err)
	}
	return reqs, nil
}

// Analytics aggregates auction results: total request volume, per-DSP win
// rate and average winning CPM, and the hourly CPM trend over the last day.
func (s *Store) Analytics(ctx context.Context) (*AnalyticsReport, error) {
	report := &AnalyticsReport{
		DSPPerformance: []DSPPerformance{},
		CPMTrend:       []TrendPoint{},
	}

	row := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM ad_requests`)
	if err := row.Scan(&report.TotalRequests); err != nil {
		return nil, fmt.Errorf("count ad requests: %w", err)
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
		SELECT
		  d.id,
		  d.name,
		  COUNT(a.id) AS win_count,
		  CASE
		    WHEN (SELECT COUNT(*) FROM ad_requests WHERE status = 'completed') = 0
		    THEN 0
		    ELSE ROUND(COUNT(a.id) * 1.0 / (SELECT COUNT(*) FROM ad_requests WHERE status = 'completed'), 4)
		  END AS win_rate,
		  ROUND(AVG(a.winning_bid_price), 2) AS average_cpm
		FROM dsps d
		LEFT JOIN ad_requests a ON d.id = a.winner_dsp_id AND a.status = 'completed'
		GROUP BY d.id
		ORDER BY d.rowid`)
	if err != nil {
		return nil, fmt.Errorf("dsp performance: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			perf DSPPerformance
			cpm  sql.NullFloat64
		)
		if err := rows.Scan(&perf.DSPID, &perf.Name, &perf.WinCount, &perf.WinRate, &cpm); err != nil {
			return nil, fmt.Errorf("scan dsp performance: %w", err)
		}
		if cpm.Valid {
			perf.AverageCPM = &cpm.Float64
		}
		report.DSPPerformance = append(report.DSPPerformance, perf)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dsp performance: %w", err)
	}

	trendRows, err := s.sqlDB.QueryContext(ctx, `
		SELECT
		  strftime('%Y-%m-%dT%H:00:00Z', request_time) AS time_period,
		  ROUND(AVG(winning_bid_price), 2) AS average_cpm
		FROM ad_requests
		WHERE status = 'completed' AND request_time >= datetime('now', '-24 hours')
		GROUP BY strftime('%Y-%m-%dT%H', request_time)
		ORDER BY time_period`)
	if err != nil {
		return nil, fmt.Errorf("cpm trend: %w", err)
	}
	defer trendRows.Close()

	for trendRows.Next() {
		var point TrendPoint
		if err := trendRows.Scan(&point.TimePeriod, &point.AverageCPM); err != nil {
			return nil, fmt.Errorf("scan cpm trend: %w", err)
		}
		report.CPMTrend = append(report.CPMTrend, point)
	}
	if err := trendRows.Err(); err != nil {
		return nil, fmt.Errorf("cpm trend: %w", err)
	}

	return report, nil
}
