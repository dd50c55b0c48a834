// Package database persists merged benchmark scores to InfluxDB.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/NanaAkwasiAbayieBoateng/automlbenchmark/internal/config"
	"github.com/NanaAkwasiAbayieBoateng/automlbenchmark/internal/logging"
	"github.com/NanaAkwasiAbayieBoateng/automlbenchmark/internal/results"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/sirupsen/logrus"
)

// InfluxDBSink writes one point per job result plus a summary point per run.
// It implements results.Sink.
type InfluxDBSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
}

func NewInfluxDBSink(cfg *config.DatabaseConfig) (*InfluxDBSink, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration is required")
	}

	client := influxdb2.NewClient(cfg.Host, cfg.Token)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := client.Health(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("influxdb health check: %w", err)
	}

	return &InfluxDBSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
	}, nil
}

func (s *InfluxDBSink) WriteScores(summary *results.RunSummary) error {
	logger := logging.GetLogger()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, r := range summary.Results {
		point := influxdb2.NewPoint(
			"benchmark_result",
			map[string]string{
				"framework": summary.Framework,
				"benchmark": summary.Benchmark,
				"job":       r.Job,
			},
			map[string]interface{}{
				"success":     r.Err == nil,
				"duration_ms": r.Duration.Milliseconds(),
			},
			summary.Finished,
		)
		if err := s.writeAPI.WritePoint(ctx, point); err != nil {
			return fmt.Errorf("write result point for %s: %w", r.Job, err)
		}
	}

	point := influxdb2.NewPoint(
		"benchmark_run",
		map[string]string{
			"framework": summary.Framework,
			"benchmark": summary.Benchmark,
		},
		map[string]interface{}{
			"total":     summary.Total,
			"succeeded": summary.Succeeded,
			"failed":    summary.Failed,
		},
		summary.Finished,
	)
	if err := s.writeAPI.WritePoint(ctx, point); err != nil {
		return fmt.Errorf("write run point: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"framework": summary.Framework,
		"benchmark": summary.Benchmark,
		"points":    summary.Total + 1,
	}).Info("Scores exported to database")

	return nil
}

func (s *InfluxDBSink) Close() {
	s.client.Close()
}
