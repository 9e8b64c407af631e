package fetcher

import (
	"context"
	"fmt"
	"iter"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"subscanFeed/internal/model"
	"subscanFeed/internal/subscan"
)

const (
	// DefaultPageSize is the provider's per-page maximum.
	DefaultPageSize = 100
	// DefaultRangeSize is how many blocks one list query spans.
	DefaultRangeSize = 100_000
)

// ExplorerClient is the slice of the explorer API the fetcher needs.
type ExplorerClient interface {
	Events(ctx context.Context, req subscan.EventsRequest) (subscan.EventsData, error)
	EventParams(ctx context.Context, indices []string) ([]model.EventParams, error)
}

// HeightSource reports the current chain height.
type HeightSource interface {
	CurrentHeight(ctx context.Context) (uint64, error)
}

// PageTransform rewrites a fetched page before parameter flattening. It may
// add or modify parameters; the returned slice replaces the page.
type PageTransform func(events []model.ParsedEvent) []model.ParsedEvent

// Config holds fetcher tuning knobs.
type Config struct {
	PageSize  int
	RangeSize uint64
	RateDelay time.Duration
	Disabled  bool
}

// Fetcher pulls event pages from the explorer and correlates each summary
// with its decoded parameters.
type Fetcher struct {
	cfg      Config
	explorer ExplorerClient
	chain    HeightSource
	logger   *zap.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

// New builds a Fetcher with its dependencies.
func New(cfg Config, explorer ExplorerClient, chain HeightSource, logger *zap.Logger) *Fetcher {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.RangeSize == 0 {
		cfg.RangeSize = DefaultRangeSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		cfg:      cfg,
		explorer: explorer,
		chain:    chain,
		logger:   logger,
		sleep:    sleepContext,
	}
}

// GetEvents fetches one page of events in [fromBlock, fromBlock+RangeSize)
// and decorates each summary with its decoded parameters. When the page is
// empty only the range's total count is returned and no params request is
// issued.
func (f *Fetcher) GetEvents(ctx context.Context, module, eventID string, fromBlock uint64, page, row int) (int, []model.ParsedEvent, error) {
	req := subscan.EventsRequest{
		Module:     module,
		EventID:    eventID,
		BlockRange: fmt.Sprintf("%d-%d", fromBlock, fromBlock+f.cfg.RangeSize),
		Order:      "asc",
		Row:        row,
		Page:       page,
		Finalized:  true,
	}

	data, err := f.explorer.Events(ctx, req)
	if err != nil {
		return 0, nil, fmt.Errorf("fetch events page %d: %w", page, err)
	}
	if len(data.Events) == 0 {
		return data.Count, nil, nil
	}

	indices := make([]string, 0, len(data.Events))
	for _, ev := range data.Events {
		indices = append(indices, ev.EventIndex)
	}

	paramSets, err := f.explorer.EventParams(ctx, indices)
	if err != nil {
		return 0, nil, fmt.Errorf("fetch event params: %w", err)
	}

	byIndex := make(map[string][]model.EventParam, len(paramSets))
	for _, set := range paramSets {
		byIndex[set.EventIndex] = set.Params
	}

	parsed := make([]model.ParsedEvent, 0, len(data.Events))
	for _, ev := range data.Events {
		block, err := blockFromIndex(ev.EventIndex)
		if err != nil {
			return 0, nil, err
		}

		params := byIndex[ev.EventIndex]
		if len(params) == 0 {
			return 0, nil, &model.MissingParamsError{EventIndex: ev.EventIndex}
		}

		parsed = append(parsed, model.ParsedEvent{
			Block:            block,
			BlockTimestampMs: ev.BlockTimestamp * 1000,
			ExtrinsicHash:    ev.ExtrinsicHash,
			Params:           params,
		})
	}

	f.logger.Debug("events page parsed",
		zap.Int("count", data.Count),
		zap.Int("events", len(parsed)),
		zap.Uint64("from_block", fromBlock),
		zap.Int("page", page),
	)
	return data.Count, parsed, nil
}

// Stream walks block ranges from fromBlock up to the chain height observed at
// the first pull and yields normalized events one at a time. Ranges are
// visited oldest to newest but pages within a range newest to oldest, because
// the provider fills pages newest-first regardless of the requested sort;
// callers that need strict ascending emission must re-sort.
//
// Any error from the explorer, the node, or the parameter correlation is
// yielded once and ends the sequence. Abandoning the iterator stops the walk.
func (f *Fetcher) Stream(ctx context.Context, module, eventID string, fromBlock uint64, transform PageTransform) iter.Seq2[model.NormalizedEvent, error] {
	return func(yield func(model.NormalizedEvent, error) bool) {
		if f.cfg.Disabled {
			f.logger.Info("explorer disabled, nothing to stream")
			return
		}

		height, err := f.chain.CurrentHeight(ctx)
		if err != nil {
			yield(model.NormalizedEvent{}, fmt.Errorf("get chain height: %w", err))
			return
		}

		f.logger.Info("stream start",
			zap.String("module", module),
			zap.String("event", eventID),
			zap.Uint64("from_block", fromBlock),
			zap.Uint64("height", height),
		)

		for from := fromBlock; from <= height; from += f.cfg.RangeSize {
			count, _, err := f.GetEvents(ctx, module, eventID, from, 0, 1)
			if err != nil {
				yield(model.NormalizedEvent{}, err)
				return
			}
			if err := f.sleep(ctx, f.cfg.RateDelay); err != nil {
				yield(model.NormalizedEvent{}, err)
				return
			}
			if count == 0 {
				continue
			}

			// Oldest events sit on the highest page index.
			pages := (count+f.cfg.PageSize-1)/f.cfg.PageSize - 1
			for page := pages; page >= 0; page-- {
				_, events, err := f.GetEvents(ctx, module, eventID, from, page, f.cfg.PageSize)
				if err != nil {
					yield(model.NormalizedEvent{}, err)
					return
				}

				if transform != nil {
					events = transform(events)
				}
				for _, ev := range events {
					if !yield(model.Normalize(ev), nil) {
						return
					}
				}

				if err := f.sleep(ctx, f.cfg.RateDelay); err != nil {
					yield(model.NormalizedEvent{}, err)
					return
				}
			}
		}
	}
}

func blockFromIndex(eventIndex string) (uint64, error) {
	lead, _, found := strings.Cut(eventIndex, "-")
	if !found {
		return 0, fmt.Errorf("malformed event index: %s", eventIndex)
	}
	block, err := strconv.ParseUint(lead, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed event index %s: %w", eventIndex, err)
	}
	return block, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
