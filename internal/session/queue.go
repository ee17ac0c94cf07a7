package session

import (
	"context"

	"github.com/XxMorganxX/Push-To-Type/internal/inject"
)

// injectItem is one normalized transcript awaiting injection.
type injectItem struct {
	sessionID string
	text      string
}

// injectResult reports one completed (or failed) injection back to Run.
type injectResult struct {
	sessionID string
	err       error
}

// injectQueue serializes injection in session start order. A slot is
// enqueued the moment a session starts, so a fast session that finishes
// before an earlier slow one still waits its turn.
type injectQueue struct {
	slots    chan chan injectItem
	injector Injector
	strategy inject.Strategy
	results  chan<- injectResult
}

func newInjectQueue(injector Injector, strategy inject.Strategy, results chan<- injectResult) *injectQueue {
	return &injectQueue{
		slots:    make(chan chan injectItem, 64),
		injector: injector,
		strategy: strategy,
		results:  results,
	}
}

// reserve allocates and queues the slot for a newly started session. It
// reports false on queue overflow: dozens of unfinished holds mean the slot
// is dropped and the session's text goes uninjected rather than blocking
// engagement, and the caller must not expect an injection result for it.
func (q *injectQueue) reserve() (chan injectItem, bool) {
	slot := make(chan injectItem, 1)
	select {
	case q.slots <- slot:
		return slot, true
	default:
		return slot, false
	}
}

// run is the single consumer and the only caller of the injection engine.
func (q *injectQueue) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case slot := <-q.slots:
			select {
			case <-ctx.Done():
				return
			case item, ok := <-slot:
				if !ok || item.text == "" {
					continue
				}
				err := q.injector.Inject(ctx, inject.Request{Text: item.text, Strategy: q.strategy})
				select {
				case q.results <- injectResult{sessionID: item.sessionID, err: err}:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}
