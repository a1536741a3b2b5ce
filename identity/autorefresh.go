package identity

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultRefreshTick    = 30 * time.Second
	DefaultRefreshMargins = 3
)

// AutoRefreshOptions tune RunAutoRefresh. A session is refreshed once it
// expires within Tick*Margins.
type AutoRefreshOptions struct {
	Tick    time.Duration
	Margins int
	NowTime func() time.Time
}

// RunAutoRefresh refreshes the current client's session ahead of expiry until
// ctx is done. The client is looked up through source on every tick so a
// reset handle is followed. Refresh failures are logged and retried on the
// next tick.
func RunAutoRefresh(ctx context.Context, source func() (Client, error), opts AutoRefreshOptions) {
	if opts.Tick <= 0 {
		opts.Tick = DefaultRefreshTick
	}
	if opts.Margins <= 0 {
		opts.Margins = DefaultRefreshMargins
	}
	if opts.NowTime == nil {
		opts.NowTime = time.Now
	}

	ticker := time.NewTicker(opts.Tick)
	defer ticker.Stop()
	for {
		refreshIfDue(ctx, source, opts)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func refreshIfDue(ctx context.Context, source func() (Client, error), opts AutoRefreshOptions) {
	client, err := source()
	if err != nil {
		log.Err(err).Msg("Auto refresh: no client")
		return
	}
	s := client.CurrentSession()
	if s == nil || s.RefreshToken == "" {
		return
	}
	if !s.ExpiresWithin(opts.NowTime(), opts.Tick*time.Duration(opts.Margins)) {
		return
	}
	if _, err := client.RefreshSession(ctx, s.RefreshToken); err != nil {
		log.Err(err).Msg("Auto refresh: refresh failed")
	}
}
