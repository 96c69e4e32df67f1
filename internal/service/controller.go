package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/godilite/urbanscore/internal/ranking"
	"github.com/godilite/urbanscore/internal/state"
)

// Controller drives the ranking view of one client. Every selection change starts
// a new request; only the response to the latest request is applied.
type Controller struct {
	fetcher RankingFetcher
	store   *state.Store
	stale   StaleCounter
	logger  *zap.Logger
}

func NewController(fetcher RankingFetcher, initial state.Selection, stale StaleCounter, logger *zap.Logger) *Controller {
	if fetcher == nil {
		panic("ranking fetcher must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		fetcher: fetcher,
		store:   state.NewStore(initial),
		stale:   stale,
		logger:  logger.Named("controller"),
	}
}

func (c *Controller) SelectProfile(ctx context.Context, p ranking.Profile) state.Snapshot {
	return c.load(ctx, func(s state.Selection) state.Selection {
		s.Profile = p
		return s
	})
}

func (c *Controller) SelectSortOrder(ctx context.Context, o ranking.SortOrder) state.Snapshot {
	return c.load(ctx, func(s state.Selection) state.Selection {
		s.Order = o
		return s
	})
}

// Select changes profile and order with a single request.
func (c *Controller) Select(ctx context.Context, sel state.Selection) state.Snapshot {
	return c.load(ctx, func(state.Selection) state.Selection { return sel })
}

// Refresh requests the current selection again.
func (c *Controller) Refresh(ctx context.Context) state.Snapshot {
	return c.load(ctx, nil)
}

func (c *Controller) State() state.Snapshot {
	return c.store.Snapshot()
}

// load returns the snapshot current once the request completes, which is not
// necessarily the one produced by this request.
func (c *Controller) load(ctx context.Context, edit func(state.Selection) state.Selection) state.Snapshot {
	seq, sel := c.store.Begin(edit)

	r, err := c.fetcher.Fetch(ctx, sel.Profile, sel.Order)

	var action state.Action = state.Loaded{Seq: seq, Ranking: r}
	if err != nil {
		action = state.Failed{Seq: seq, Err: err}
	}

	snap, applied := c.store.Dispatch(action)
	if !applied {
		if c.stale != nil {
			c.stale.IncStaleResponses()
		}
		c.logger.Debug("discarded stale ranking response",
			zap.Uint64("seq", seq),
			zap.Uint64("current", snap.Seq))
		return snap
	}

	if err != nil {
		c.logger.Warn("ranking request failed",
			zap.Uint64("seq", seq),
			zap.String("profile", sel.Profile.String()),
			zap.Error(err))
	}
	return snap
}
