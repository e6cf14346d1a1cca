package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/tripstats/core/metrics"
	"github.com/kilianp07/tripstats/infra/logger"
)

// InfluxSink writes compute results to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

// RecordCompute writes one compute_event point.
func (s *InfluxSink) RecordCompute(ev coremetrics.ComputeEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("compute_event").
		AddTag("key", keyTag(ev.Key)).
		AddTag("hybrid", strconv.FormatBool(ev.Hybrid)).
		AddTag("empty", strconv.FormatBool(ev.Empty)).
		AddField("request_id", ev.RequestID).
		AddField("input", ev.Input).
		AddField("dropped", ev.Dropped).
		AddField("active", ev.Active).
		AddField("stationary", ev.Stationary).
		AddField("total_km", round3(ev.TotalKm)).
		AddField("total_kwh", round3(ev.TotalKWh)).
		AddField("duration_ms", round3(float64(ev.Duration)/float64(time.Millisecond))).
		SetTime(ev.Time)
	if ev.Err != "" {
		p = p.AddField("error", ev.Err)
	}
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordMonthly writes one monthly_stats point per bucket, stamped with the
// first day of the month.
func (s *InfluxSink) RecordMonthly(ev coremetrics.MonthlyEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	points := make([]*write.Point, 0, len(ev.Buckets))
	for _, b := range ev.Buckets {
		ts, err := time.ParseInLocation("200601", b.Month, time.UTC)
		if err != nil {
			s.log.Debugf("skip monthly bucket %q: %v", b.Month, err)
			continue
		}
		points = append(points, write.NewPointWithMeasurement("monthly_stats").
			AddTag("key", keyTag(ev.Key)).
			AddTag("month", b.Month).
			AddField("trips", b.Trips).
			AddField("km", round3(b.Km)).
			AddField("kwh", round3(b.KWh)).
			AddField("fuel", round3(b.Fuel)).
			AddField("efficiency", round3(b.Efficiency)).
			SetTime(ts))
	}
	if len(points) == 0 {
		return nil
	}
	return s.writeAPI.WritePoint(ctx, points...)
}

// RecordSoH writes the battery health estimate.
func (s *InfluxSink) RecordSoH(ev coremetrics.SoHEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r := ev.Result
	p := write.NewPointWithMeasurement("battery_health").
		AddTag("key", keyTag(ev.Key)).
		AddField("soh", round3(r.EstimatedSoH)).
		AddField("cycles", round3(r.RealCycles)).
		AddField("stress_score", round3(r.StressScore)).
		AddField("sei_loss", round3(r.Degradation.SEI)).
		AddField("cycle_loss", round3(r.Degradation.Cycle)).
		AddField("calendar_loss", round3(r.Degradation.Calendar)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

func keyTag(k string) string {
	if k == "" {
		return "default"
	}
	return k
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
