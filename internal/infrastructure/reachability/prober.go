package reachability

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Prober derives the online flag by sending HEAD requests to a URL. Any HTTP
// response counts as reachable; only transport failures mean offline.
type Prober struct {
	client   *http.Client
	url      string
	interval time.Duration
	signal   *Signal
	log      *slog.Logger
}

func NewProber(signal *Signal, url string, interval, timeout time.Duration, log *slog.Logger) *Prober {
	if log == nil {
		log = slog.Default()
	}
	return &Prober{
		client:   &http.Client{Timeout: timeout},
		url:      url,
		interval: interval,
		signal:   signal,
		log:      log,
	}
}

// Check probes once and updates the signal.
func (p *Prober) Check(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		p.log.Error("invalid reachability url", "url", p.url, "err", err)
		return p.signal.Online()
	}
	online := true
	resp, err := p.client.Do(req)
	if err != nil {
		online = false
	} else {
		resp.Body.Close()
	}
	if online != p.signal.Online() {
		p.log.Info("reachability changed", "online", online)
	}
	p.signal.Set(online)
	return online
}

// Run probes immediately and then every interval until ctx is done.
func (p *Prober) Run(ctx context.Context) {
	p.Check(ctx)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Check(ctx)
		}
	}
}
