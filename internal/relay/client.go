// Package relay wraps the nostr relay client library and implements the
// multi-relay fan-out publisher.
package relay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/ngit/ngit-go/internal/cache"
)

// publishBurst caps how many events may be sent to one relay back to
// back before pacing kicks in. Relays commonly throttle writers.
const publishBurst = 8

// Client maintains one connection per relay URL and paces publishes so a
// long series does not trip relay write limits.
type Client struct {
	log     *logrus.Logger
	timeout time.Duration

	mu       sync.Mutex
	conns    map[string]*nostr.Relay
	limiters map[string]*rate.Limiter
}

// NewClient returns a client whose publishes time out after 15 seconds.
func NewClient(log *logrus.Logger) *Client {
	return &Client{
		log:      log,
		timeout:  15 * time.Second,
		conns:    map[string]*nostr.Relay{},
		limiters: map[string]*rate.Limiter{},
	}
}

// connect returns a live connection to url, dialing on first use.
func (c *Client) connect(ctx context.Context, url string) (*nostr.Relay, error) {
	c.mu.Lock()
	conn := c.conns[url]
	c.mu.Unlock()
	if conn != nil && conn.IsConnected() {
		return conn, nil
	}
	conn, err := nostr.RelayConnect(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to %s: %w", url, err)
	}
	c.mu.Lock()
	c.conns[url] = conn
	c.mu.Unlock()
	return conn, nil
}

func (c *Client) limiter(url string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	l := c.limiters[url]
	if l == nil {
		l = rate.NewLimiter(rate.Every(100*time.Millisecond), publishBurst)
		c.limiters[url] = l
	}
	return l
}

// PublishTo delivers one event to one relay, waiting for the relay's
// acknowledgement. A timeout counts as a failure for that relay only.
func (c *Client) PublishTo(ctx context.Context, url string, e nostr.Event) error {
	if err := c.limiter(url).Wait(ctx); err != nil {
		return err
	}
	conn, err := c.connect(ctx, url)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := conn.Publish(ctx, e); err != nil {
		return fmt.Errorf("event not accepted by %s: %w", url, err)
	}
	return nil
}

// FetchInto queries each relay for the filters and appends everything
// returned to the cache. Per-relay failures are logged and skipped; the
// fetch succeeds if any relay answered.
func (c *Client) FetchInto(ctx context.Context, store *cache.Store, relays []string, filters ...nostr.Filter) error {
	answered := 0
	var lastErr error
	for _, url := range relays {
		conn, err := c.connect(ctx, url)
		if err != nil {
			c.log.WithError(err).WithField("relay", url).Debug("relay unreachable, skipping")
			lastErr = err
			continue
		}
		ok := true
		for _, f := range filters {
			evs, err := conn.QuerySync(ctx, f)
			if err != nil {
				c.log.WithError(err).WithField("relay", url).Debug("query failed")
				lastErr = err
				ok = false
				break
			}
			for _, e := range evs {
				if e == nil {
					continue
				}
				if _, err := store.Put(e); err != nil {
					return fmt.Errorf("failed to cache event from %s: %w", url, err)
				}
			}
		}
		if ok {
			answered++
		}
	}
	if answered == 0 && len(relays) > 0 {
		return fmt.Errorf("no relay answered: %w", lastErr)
	}
	return nil
}

// Close drops every cached connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, conn := range c.conns {
		conn.Close()
	}
	c.conns = map[string]*nostr.Relay{}
}
