package browsers

import (
	"context"
	"time"

	"github.com/jrsteele09/go-hr-console/credentials"
	"github.com/jrsteele09/go-hr-console/gateway"
	"github.com/jrsteele09/go-hr-console/session"
	"golang.org/x/time/rate"
)

// Browser is everything the console keeps for one visitor's browser profile:
// its credential store, the gateway bound to it and the session coordinating both.
type Browser struct {
	ID           string
	Store        *credentials.Store
	API          *gateway.Gateway
	Session      *session.Manager
	LoginLimiter *rate.Limiter

	lastSeen time.Time
}

// Close detaches the session from the gateway
func (b *Browser) Close() {
	if b.Session != nil {
		b.Session.Close()
	}
}

// Builder assembles a Browser for a new id
type Builder func(id string) (*Browser, error)

type Repo interface {
	GetOrCreate(ctx context.Context, id string) (*Browser, error)
	Get(id string) (*Browser, bool)
	Delete(id string)
	Sweep(maxIdle time.Duration) int
}
