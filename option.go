package cep

import (
	"context"
	"net/http"
	"time"

	"github.com/circularprotocol/cep/clients"
	"github.com/circularprotocol/cep/logger"
	"github.com/circularprotocol/cep/metrics"
	"github.com/circularprotocol/cep/types"
	"github.com/circularprotocol/cep/verification"
)

type Option func(*Account)

// WithConfig replaces the default configuration.
func WithConfig(c types.Config) Option {
	return func(a *Account) {
		a.config = c
	}
}

func WithLogger(l logger.Logger) Option {
	return func(a *Account) {
		a.logger = l
	}
}

func WithMetrics(r metrics.Recorder) Option {
	return func(a *Account) {
		a.metrics = r
	}
}

// WithHTTPClient sets the HTTP client of the default gateway client. It is
// ignored when WithClient is also given.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Account) {
		a.httpClient = c
	}
}

// WithClient replaces the gateway client entirely.
func WithClient(c clients.Client) Option {
	return func(a *Account) {
		a.client = c
	}
}

// WithClock overrides the time source used for transaction timestamps and
// for measuring the outcome timeout. The wait between polls is real time
// unless WithWait is also given; a frozen clock never times out.
func WithClock(now func() time.Time) Option {
	return func(a *Account) {
		a.now = now
	}
}

// WithWait overrides the wait between outcome polls. It must return
// ctx.Err() once ctx is done.
func WithWait(wait func(ctx context.Context, d time.Duration) error) Option {
	return func(a *Account) {
		a.wait = wait
	}
}

// WithVerifier checks every signed transaction locally before it is posted.
// The signature is checked against the key set with SetPublicKey. Without
// one the key is derived from the signing key, which only proves the
// transaction is self-consistent, not that it was signed by the account.
func WithVerifier(v verification.Verifier) Option {
	return func(a *Account) {
		a.verifier = v
	}
}
