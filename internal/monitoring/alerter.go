package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gridwatch/nemsync/internal/config"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertFeedStale     AlertType = "feed_stale"
	AlertFeedGap       AlertType = "feed_gap"
	AlertIngestFailure AlertType = "ingest_failure"
)

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates a MetricsSnapshot against configured thresholds
// and sends alerts via webhook when thresholds are breached.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
}

// NewAlerter creates a new Alerter with the given monitoring config.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Evaluate checks the snapshot against thresholds and returns any alerts.
func (a *Alerter) Evaluate(snap *MetricsSnapshot) []Alert {
	var alerts []Alert
	now := time.Now().UTC()

	staleAfter := float64(a.cfg.StaleAfterMins)
	for _, tbl := range snap.Tables {
		if staleAfter > 0 && tbl.Latest != nil && tbl.StaleFor > staleAfter {
			alerts = append(alerts, Alert{
				Type:     AlertFeedStale,
				Severity: "high",
				Message: fmt.Sprintf(
					"%s has no new rows for %.0f min (threshold %.0f min)",
					tbl.Table, tbl.StaleFor, staleAfter,
				),
				Details: map[string]any{
					"table":          tbl.Table,
					"stale_for_mins": tbl.StaleFor,
					"latest":         tbl.Latest,
				},
				Timestamp: now,
			})
		}
		if tbl.Gaps > 0 {
			alerts = append(alerts, Alert{
				Type:     AlertFeedGap,
				Severity: "medium",
				Message: fmt.Sprintf(
					"%s has %d gap(s), %d interval(s) missing in last %dh",
					tbl.Table, tbl.Gaps, tbl.Missing, snap.LookbackHours,
				),
				Details: map[string]any{
					"table":             tbl.Table,
					"gaps":              tbl.Gaps,
					"missing_intervals": tbl.Missing,
				},
				Timestamp: now,
			})
		}
	}

	if snap.RunsFailed > 0 {
		alerts = append(alerts, Alert{
			Type:     AlertIngestFailure,
			Severity: "high",
			Message: fmt.Sprintf(
				"%d ingest run(s) failed in last %dh",
				snap.RunsFailed, snap.LookbackHours,
			),
			Details: map[string]any{
				"failed_count": snap.RunsFailed,
				"total_runs":   snap.RunsTotal,
			},
			Timestamp: now,
		})
	}

	return alerts
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := a.sendWebhook(ctx, alert); err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

// sendWebhook posts a single alert to the webhook URL.
func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
