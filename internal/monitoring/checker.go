package monitoring

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wayfare-group/trip-planner-cli/internal/config"
)

// Checker samples run health on an interval and pushes any triggered alerts.
// One per process; the serve command owns its lifetime.
type Checker struct {
	collector *Collector
	alerter   *Alerter
	cfg       config.MonitoringConfig
}

// NewChecker creates a background run-health checker.
func NewChecker(collector *Collector, alerter *Alerter, cfg config.MonitoringConfig) *Checker {
	return &Checker{
		collector: collector,
		alerter:   alerter,
		cfg:       cfg,
	}
}

// Run blocks until ctx is cancelled. The first sample happens immediately so
// a freshly restarted server surfaces an unhealthy run history without
// waiting out a full interval.
func (c *Checker) Run(ctx context.Context) {
	interval := time.Duration(c.cfg.CheckIntervalSecs) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	log := zap.L().With(zap.String("component", "monitoring.checker"))
	log.Info("run health checker started",
		zap.Duration("interval", interval),
		zap.Int("lookback_hours", c.cfg.LookbackWindowHours),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.check(ctx, log)
	for {
		select {
		case <-ctx.Done():
			log.Info("run health checker stopped")
			return
		case <-ticker.C:
			c.check(ctx, log)
		}
	}
}

func (c *Checker) check(ctx context.Context, log *zap.Logger) {
	snap, err := c.collector.Collect(ctx, c.cfg.LookbackWindowHours)
	if err != nil {
		log.Error("run health sample failed", zap.Error(err))
		return
	}
	if snap.RunsTotal == 0 {
		log.Debug("no runs in window, skipping evaluation")
		return
	}

	alerts := c.alerter.Evaluate(snap)
	log.Info("run health sampled",
		zap.Int("runs", snap.RunsTotal),
		zap.Float64("fail_rate", snap.FailRate),
		zap.Float64("degraded_rate", snap.DegradedRate),
		zap.Float64("avg_pois", snap.AvgPOIs),
		zap.Int("alerts_triggered", len(alerts)),
	)
	if len(alerts) == 0 {
		return
	}

	sent := c.alerter.SendAlerts(ctx, alerts)
	if sent < len(alerts) {
		log.Warn("some alerts failed to deliver",
			zap.Int("alerts_triggered", len(alerts)),
			zap.Int("alerts_sent", sent),
		)
	}
}
