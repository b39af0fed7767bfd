// Package pages probes a published page URL until it becomes reachable.
package pages

import (
	"log/slog"
	"net/http"
	"time"

	"deployer/internals/timeouts"
)

type Poller struct {
	Timeout      time.Duration
	Interval     time.Duration
	ProbeTimeout time.Duration
	logger       *slog.Logger
}

func NewPoller(timeout time.Duration, interval time.Duration, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		Timeout:      timeout,
		Interval:     interval,
		ProbeTimeout: timeouts.PagesProbe,
		logger:       logger,
	}
}

// Wait probes url until it answers 200 or the total budget elapses. Transport
// errors and non-200 statuses count as "not yet ready". Timing out is not an
// error; the caller decides whether to proceed. The loop cannot be cancelled
// and blocks its goroutine for up to the full timeout.
func (p *Poller) Wait(url string) bool {
	p.logger.Info("polling pages url", "url", url, "timeout", p.Timeout)
	client := &http.Client{Timeout: p.ProbeTimeout}
	deadline := time.Now().Add(p.Timeout)
	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err != nil {
			p.logger.Debug("pages probe failed", "error", err)
		} else {
			resp.Body.Close()
			p.logger.Debug("pages probe", "status", resp.StatusCode)
			if resp.StatusCode == http.StatusOK {
				return true
			}
		}
		time.Sleep(p.Interval)
	}
	return false
}
