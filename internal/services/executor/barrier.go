package executor

import (
	"context"
	"sync"
)

// custodyBarrier is the one-shot rendezvous of a split trade: when both venue
// plans move the same undeposited custody funds, the movement is issued once
// for the combined amount and both pipelines await its completion. This is a
// join, not a lock — whichever pipeline arrives first performs the call.
type custodyBarrier struct {
	once   sync.Once
	done   chan struct{}
	amount uint64
	move   func(ctx context.Context, amount uint64) (uint64, error)

	actual uint64
	err    error
}

func newCustodyBarrier(amount uint64, move func(ctx context.Context, amount uint64) (uint64, error)) *custodyBarrier {
	return &custodyBarrier{
		done:   make(chan struct{}),
		amount: amount,
		move:   move,
	}
}

// await performs the combined movement on first call and blocks subsequent
// callers until it settles. All callers observe the same outcome.
func (b *custodyBarrier) await(ctx context.Context) (uint64, error) {
	b.once.Do(func() {
		defer close(b.done)
		b.actual, b.err = b.move(ctx, b.amount)
	})
	<-b.done
	return b.actual, b.err
}
