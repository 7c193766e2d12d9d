package telegram

import (
	"context"
	"errors"
	"time"

	tg "github.com/ferdian3456/tiergate/internal/telegram"
	"go.uber.org/zap"
)

const pollBackoff = 3 * time.Second

// Listener is the pull-delivery mode: a getUpdates long-poll loop used when
// no public base URL is configured. Each update is dispatched on its own
// goroutine; per-identity ordering is the engine's job, not the loop's.
type Listener struct {
	Dispatcher *Dispatcher
	Telegram   *tg.Client
	Log        *zap.Logger
}

func NewListener(dispatcher *Dispatcher, tgClient *tg.Client, zap *zap.Logger) *Listener {
	return &Listener{
		Dispatcher: dispatcher,
		Telegram:   tgClient,
		Log:        zap,
	}
}

// Run blocks until ctx is cancelled.
func (listener *Listener) Run(ctx context.Context) {
	var offset int64

	for {
		updates, err := listener.Telegram.GetUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}

			listener.Log.Warn("getUpdates failed, backing off", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(pollBackoff):
			}
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}

			go listener.Dispatcher.Dispatch(ctx, update)
		}
	}
}
