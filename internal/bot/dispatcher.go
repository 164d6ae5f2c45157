package bot

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	shardBuffer    = 64
	pollRetryDelay = 3 * time.Second
)

// Run polls for updates until ctx is done. Updates are sharded by user so that
// each user's updates are handled in order by a single worker, while
// different users are served in parallel.
func (b *Bot) Run(ctx context.Context, poller Poller) error {
	b.logger.Info("bot started", "username", b.username, "workers", b.settings.Workers)

	shards := make([]chan *Event, b.settings.Workers)
	for i := range shards {
		shards[i] = make(chan *Event, shardBuffer)
	}

	// queued events are still handled during shutdown
	handleCtx := context.WithoutCancel(ctx)

	var workers errgroup.Group
	for _, shard := range shards {
		workers.Go(func() error {
			for ev := range shard {
				b.HandleEvent(handleCtx, ev)
			}
			return nil
		})
	}

	producers, producersCtx := errgroup.WithContext(ctx)
	producers.Go(func() error {
		return b.poll(producersCtx, poller, shards)
	})
	producers.Go(func() error {
		return b.sweep(producersCtx, shards)
	})

	err := producers.Wait()
	for _, shard := range shards {
		close(shard)
	}
	_ = workers.Wait()

	b.logger.Info("bot stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func submit(shards []chan *Event, ev *Event) {
	ev.TraceID = uuid.NewString()
	shard := uint64(ev.UserID) % uint64(len(shards))
	shards[shard] <- ev
}

func (b *Bot) poll(ctx context.Context, poller Poller, shards []chan *Event) error {
	offset := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		updates, err := poller.GetUpdates(ctx, offset, b.settings.PollTimeout)
		if err != nil {
			b.logger.Warn("failed to get updates", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(pollRetryDelay):
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			ev, ok := eventFromUpdate(u)
			if !ok {
				continue
			}
			submit(shards, ev)
		}
	}
}

// sweep periodically times out the conversations nobody touched.
func (b *Bot) sweep(ctx context.Context, shards []chan *Event) error {
	ticker := time.NewTicker(b.settings.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			b.sweepOnce(ctx, shards)
		}
	}
}

func (b *Bot) sweepOnce(ctx context.Context, shards []chan *Event) {
	expired, err := b.sessions.ExpiredSessions(ctx, b.now().Add(-b.settings.ConversationTimeout))
	if err != nil {
		b.logger.Error("failed to list expired sessions", "error", err)
		return
	}

	for _, s := range expired {
		// handled by the user's shard, the session is checked again there
		submit(shards, &Event{Kind: EventTimeout, UserID: s.UserID, ChatID: s.ChatID})
	}
}
