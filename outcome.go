package cep

import (
	"context"
	"fmt"
	"time"

	"github.com/circularprotocol/cep/metrics"
	"github.com/circularprotocol/cep/types"
)

// GetTransactionOutcome polls the gateway until the transaction is final or
// timeout elapses.
//
// Each tick looks the transaction up in blocks 0..10. It is final once the
// gateway answers 200 with a transaction record whose status is not
// pending; the "Transaction Not Found" reply keeps polling. Transport and
// decode failures of a single tick are logged and retried. The wait between
// ticks is cancelled with ctx.
func (a *Account) GetTransactionOutcome(ctx context.Context, txID string, timeout time.Duration) (*types.TransactionDetail, error) {
	if err := a.requireOpen(); err != nil {
		return nil, err
	}
	labels := map[string]string{"endpoint": types.EndpointTransactionByID}
	start := a.now()

	for tick := 1; ; tick++ {
		a.metrics.IncCounter(metrics.EventPollTick, labels)

		lookup, err := a.GetTransactionByID(ctx, txID, types.DefaultOutcomeSearchStart, types.DefaultOutcomeSearchEnd)
		switch {
		case err != nil && ctx.Err() != nil:
			return nil, a.fail(fmt.Errorf("transaction outcome: %w", ctx.Err()))
		case err != nil && !retryable(err):
			return nil, err
		case err != nil:
			a.metrics.IncCounter(metrics.EventPollTickFailed, labels)
			a.log.Warn("outcome poll failed, retrying", map[string]any{
				"id":    txID,
				"tick":  tick,
				"error": err,
			})
		case isFinal(lookup):
			a.metrics.IncCounter(metrics.EventFinalized, labels)
			a.log.Debug("transaction finalized", map[string]any{
				"id":     txID,
				"tick":   tick,
				"status": lookup.Response.Detail.Status,
			})
			a.lastError = ""
			return lookup.Response.Detail, nil
		default:
			a.log.Debug("transaction not final", map[string]any{
				"id":       txID,
				"tick":     tick,
				"response": lookup.Response.Kind.String(),
			})
		}

		if err := a.wait(ctx, a.pollInterval); err != nil {
			return nil, a.fail(fmt.Errorf("transaction outcome: %w", err))
		}

		if elapsed := a.now().Sub(start); elapsed > timeout {
			a.metrics.IncCounter(metrics.EventPollTimeout, labels)
			return nil, a.fail(types.NewError(types.ErrPollTimeout,
				"Timeout exceeded after %s waiting for transaction %s", elapsed.Round(time.Millisecond), txID))
		}
	}
}

// isFinal checks the response shape before reading the status.
func isFinal(lookup *types.TransactionLookup) bool {
	if lookup == nil || lookup.Result != types.ResultOK {
		return false
	}
	if lookup.Response.Kind != types.ResponseDetail || lookup.Response.Detail == nil {
		return false
	}
	return !lookup.Response.Detail.IsPending()
}

// retryable reports whether a tick failure may clear up on a later tick.
func retryable(err error) bool {
	switch types.Code(err) {
	case types.ErrTransport, types.ErrDecode:
		return true
	default:
		return false
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
