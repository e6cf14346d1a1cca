package analytics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/tripstats/core/metrics"
	"github.com/kilianp07/tripstats/core/model"
)

type captureSink struct {
	computes []metrics.ComputeEvent
	monthly  []metrics.MonthlyEvent
	soh      []metrics.SoHEvent
	err      error
}

func (c *captureSink) RecordCompute(ev metrics.ComputeEvent) error {
	c.computes = append(c.computes, ev)
	return c.err
}

func (c *captureSink) RecordMonthly(ev metrics.MonthlyEvent) error {
	c.monthly = append(c.monthly, ev)
	return nil
}

func (c *captureSink) RecordSoH(ev metrics.SoHEvent) error {
	c.soh = append(c.soh, ev)
	return nil
}

type countLogger struct{ debug, info, warn int }

func (l *countLogger) Debugf(string, ...any)         { l.debug++ }
func (l *countLogger) Debugw(string, map[string]any) { l.debug++ }
func (l *countLogger) Infof(string, ...any)          { l.info++ }
func (l *countLogger) Warnf(string, ...any)          { l.warn++ }
func (l *countLogger) Errorf(string, ...any)         {}

func TestEngineRecordsCompute(t *testing.T) {
	sink := &captureSink{}
	log := &countLogger{}
	e := NewEngine(log, sink)
	e.Location = time.UTC
	e.Now = utc.Now

	in := Input{
		RequestID: "r1",
		Key:       "car",
		Trips:     []*model.Trip{tr(10, 1), nil, tr(0.1, 0.2)},
		Settings:  model.Settings{MfgDate: "2024-01-01"},
		Charges:   []model.Charge{{KWhCharged: model.Float(20)}},
	}
	res, st := e.Run(in)
	require.NotNil(t, res)
	assert.Equal(t, Stats{Input: 3, Dropped: 1, Active: 1, Stationary: 1, TotalKm: 10, TotalKWh: 1.2}, st)

	require.Len(t, sink.computes, 1)
	ev := sink.computes[0]
	assert.Equal(t, "r1", ev.RequestID)
	assert.Equal(t, 1, ev.Dropped)
	assert.False(t, ev.Empty)
	assert.Len(t, sink.monthly, 1)
	assert.Len(t, sink.soh, 1)
	assert.Equal(t, 1, log.debug)
	assert.Equal(t, 1, log.info)
}

func TestEngineEmptyInput(t *testing.T) {
	sink := &captureSink{}
	e := &Engine{Sink: sink}
	res, st := e.Run(Input{RequestID: "r2", Trips: []*model.Trip{nil}})
	assert.Nil(t, res)
	assert.Equal(t, 1, st.Dropped)
	require.Len(t, sink.computes, 1)
	assert.True(t, sink.computes[0].Empty)
	assert.Empty(t, sink.monthly)
}

func TestEngineSinkErrorIsLogged(t *testing.T) {
	sink := &captureSink{err: errors.New("down")}
	log := &countLogger{}
	e := NewEngine(log, sink)
	res, _ := e.Run(Input{Trips: []*model.Trip{tr(10, 1)}})
	require.NotNil(t, res)
	assert.Equal(t, 1, log.warn)
}

func TestEngineDefaults(t *testing.T) {
	e := &Engine{Location: time.UTC, Defaults: model.Settings{ElectricPrice: 0.25}}
	res, _ := e.Run(Input{Trips: []*model.Trip{tr(10, 4)}})
	require.NotNil(t, res)
	assert.Equal(t, "1.00", res.Summary.MaxCost)
}
