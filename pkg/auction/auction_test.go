// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package auction

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/OmkarAla/SSP-Ad-Auction-Simulator/pkg/log"
	"github.com/OmkarAla/SSP-Ad-Auction-Simulator/pkg/metrics"
	"github.com/OmkarAla/SSP-Ad-Auction-Simulator/pkg/store"
)

// fakeRecorder records persistence calls in memory.
type fakeRecorder struct {
	nextID     int64
	created    []store.AdRequest
	outcomes   map[int64]store.Outcome
	createErr  error
	outcomeErr error
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{nextID: 1, outcomes: make(map[int64]store.Outcome)}
}

func (f *fakeRecorder) CreateAdRequest(_ context.Context, req store.AdRequest) (int64, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.created = append(f.created, req)
	id := f.nextID
	f.nextID++
	return id, nil
}

func (f *fakeRecorder) RecordOutcome(_ context.Context, id int64, outcome store.Outcome) error {
	if f.outcomeErr != nil {
		return f.outcomeErr
	}
	f.outcomes[id] = outcome
	return nil
}

// fakeRegistry serves a static DSP snapshot.
type fakeRegistry struct {
	dsps []store.DSP
	err  error
}

func (f *fakeRegistry) ListDSPs(context.Context) ([]store.DSP, error) {
	return f.dsps, f.err
}

func dsp(id, rules string, base float64) store.DSP {
	return store.DSP{
		ID:               id,
		Name:             "Platform " + id,
		TargetingRules:   rules,
		BaseBidPrice:     base,
		CreativeImageURL: "https://example.com/" + id + ".jpg",
		CreativeClickURL: "https://example.com/" + id,
	}
}

func validRequest() Request {
	return Request{
		PublisherID: "pub1",
		Geo:         "US",
		Device:      "mobile",
		Time:        "2024-01-01T00:00:00Z",
	}
}

func newEngine(rec *fakeRecorder, reg *fakeRegistry) *Engine {
	return NewEngine(rec, reg, log.NoOp(), metrics.New())
}

func TestRunFullMatchWins(t *testing.T) {
	require := require.New(t)

	rec := newFakeRecorder()
	reg := &fakeRegistry{dsps: []store.DSP{
		dsp("DSP_A", `{"geo":"US","device":"mobile"}`, 3.5),
	}}

	result, err := newEngine(rec, reg).Run(context.Background(), validRequest())
	require.NoError(err)
	require.NotNil(result.Winner)
	require.Equal("DSP_A", result.Winner.DSPID)
	require.Equal(3.5, result.Winner.Price.InexactFloat64())
	require.Equal("https://example.com/DSP_A.jpg", result.Winner.Creative.ImageURL)

	outcome := rec.outcomes[result.RequestID]
	require.Equal(store.StatusCompleted, outcome.Status)
	require.Equal("DSP_A", outcome.WinnerDSPID)
	require.Equal(3.5, outcome.WinningBidPrice)
}

func TestRunGeoOnlyMatchPaysFloor(t *testing.T) {
	require := require.New(t)

	rec := newFakeRecorder()
	reg := &fakeRegistry{dsps: []store.DSP{
		dsp("DSP_B", `{"geo":"US","device":"desktop"}`, 2.5),
	}}

	result, err := newEngine(rec, reg).Run(context.Background(), validRequest())
	require.NoError(err)
	require.NotNil(result.Winner)
	require.Equal("DSP_B", result.Winner.DSPID)
	require.Equal(1.0, result.Winner.Price.InexactFloat64())
}

func TestRunNoGeoMatchIsNoWinner(t *testing.T) {
	require := require.New(t)

	rec := newFakeRecorder()
	reg := &fakeRegistry{dsps: []store.DSP{
		dsp("DSP_A", `{"geo":"US","device":"mobile"}`, 3.5),
		dsp("DSP_C", `{"geo":"EU","device":"mobile"}`, 2.0),
	}}

	req := validRequest()
	req.Geo = "FR"

	result, err := newEngine(rec, reg).Run(context.Background(), req)
	require.NoError(err)
	require.Nil(result.Winner)

	outcome := rec.outcomes[result.RequestID]
	require.Equal(store.StatusNoWinner, outcome.Status)
	require.Empty(outcome.WinnerDSPID)
}

func TestRunHighestBidWins(t *testing.T) {
	require := require.New(t)

	rec := newFakeRecorder()
	reg := &fakeRegistry{dsps: []store.DSP{
		dsp("DSP_LOW", `{"geo":"US","device":"mobile"}`, 1.5),
		dsp("DSP_HIGH", `{"geo":"US","device":"mobile"}`, 4.0),
		dsp("DSP_MID", `{"geo":"US","device":"mobile"}`, 2.5),
	}}

	result, err := newEngine(rec, reg).Run(context.Background(), validRequest())
	require.NoError(err)
	require.NotNil(result.Winner)
	require.Equal("DSP_HIGH", result.Winner.DSPID)
	require.Equal(4.0, result.Winner.Price.InexactFloat64())
}

func TestRunTieKeepsEarliestDSP(t *testing.T) {
	require := require.New(t)

	rec := newFakeRecorder()
	reg := &fakeRegistry{dsps: []store.DSP{
		dsp("DSP_FIRST", `{"geo":"US","device":"mobile"}`, 3.5),
		dsp("DSP_SECOND", `{"geo":"US","device":"mobile"}`, 3.5),
	}}

	result, err := newEngine(rec, reg).Run(context.Background(), validRequest())
	require.NoError(err)
	require.NotNil(result.Winner)
	require.Equal("DSP_FIRST", result.Winner.DSPID)
}

func TestRunMalformedRuleSkipsOnlyThatDSP(t *testing.T) {
	require := require.New(t)

	rec := newFakeRecorder()
	reg := &fakeRegistry{dsps: []store.DSP{
		dsp("DSP_BROKEN", `{geo: nope`, 9.9),
		dsp("DSP_A", `{"geo":"US","device":"mobile"}`, 3.5),
	}}

	result, err := newEngine(rec, reg).Run(context.Background(), validRequest())
	require.NoError(err)
	require.NotNil(result.Winner)
	require.Equal("DSP_A", result.Winner.DSPID)
}

func TestRunValidationRejectsBeforePersistence(t *testing.T) {
	require := require.New(t)

	rec := newFakeRecorder()
	reg := &fakeRegistry{}

	req := Request{PublisherID: "pub1", Device: "mobile"}
	_, err := newEngine(rec, reg).Run(context.Background(), req)

	var verr *ValidationError
	require.ErrorAs(err, &verr)
	require.ElementsMatch([]string{"geo", "time"}, verr.Missing)
	require.Empty(rec.created, "nothing may be persisted on validation failure")
	require.Empty(rec.outcomes)
}

func TestRunAdSlotDefaultsToUnknown(t *testing.T) {
	require := require.New(t)

	rec := newFakeRecorder()
	reg := &fakeRegistry{}

	_, err := newEngine(rec, reg).Run(context.Background(), validRequest())
	require.NoError(err)
	require.Len(rec.created, 1)
	require.Equal("unknown", rec.created[0].AdSlotID)
	require.Equal(store.StatusNoWinner, rec.outcomes[1].Status)
}

func TestRunPersistenceFailuresAreFatal(t *testing.T) {
	require := require.New(t)

	boom := errors.New("disk on fire")

	rec := newFakeRecorder()
	rec.createErr = boom
	_, err := newEngine(rec, &fakeRegistry{}).Run(context.Background(), validRequest())
	require.ErrorIs(err, boom)

	rec = newFakeRecorder()
	rec.outcomeErr = boom
	reg := &fakeRegistry{dsps: []store.DSP{
		dsp("DSP_A", `{"geo":"US","device":"mobile"}`, 3.5),
	}}
	_, err = newEngine(rec, reg).Run(context.Background(), validRequest())
	require.ErrorIs(err, boom)
}

func TestRunRegistryFailureIsFatal(t *testing.T) {
	require := require.New(t)

	rec := newFakeRecorder()
	reg := &fakeRegistry{err: errors.New("registry unavailable")}

	_, err := newEngine(rec, reg).Run(context.Background(), validRequest())
	require.Error(err)
}
