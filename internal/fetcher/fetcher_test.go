package fetcher

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"subscanFeed/internal/model"
	"subscanFeed/internal/subscan"
)

type fakeHeight struct {
	height uint64
	err    error
	calls  int
}

func (f *fakeHeight) CurrentHeight(context.Context) (uint64, error) {
	f.calls++
	return f.height, f.err
}

// fakeExplorer serves synthetic pages the way the provider does: a fixed
// count per block range, newest rows on page 0, the oldest remainder on the
// highest page.
type fakeExplorer struct {
	counts      map[uint64]int
	missing     map[string]bool
	eventsCalls []subscan.EventsRequest
	paramsCalls [][]string
}

func (f *fakeExplorer) Events(_ context.Context, req subscan.EventsRequest) (subscan.EventsData, error) {
	f.eventsCalls = append(f.eventsCalls, req)

	start := rangeStart(req.BlockRange)
	count := f.counts[start]

	n := count - req.Page*req.Row
	if n > req.Row {
		n = req.Row
	}
	if n <= 0 {
		return subscan.EventsData{Count: count}, nil
	}

	events := make([]model.EventSummary, 0, n)
	for i := 0; i < n; i++ {
		events = append(events, model.EventSummary{
			EventIndex:     fmt.Sprintf("%d-%d", start+1, req.Page*req.Row+i),
			BlockNum:       start + 1,
			ModuleID:       req.Module,
			EventID:        req.EventID,
			BlockTimestamp: 1700000000,
			ExtrinsicHash:  "0xfeed",
			Finalized:      true,
		})
	}
	return subscan.EventsData{Count: count, Events: events}, nil
}

func (f *fakeExplorer) EventParams(_ context.Context, indices []string) ([]model.EventParams, error) {
	f.paramsCalls = append(f.paramsCalls, indices)

	sets := make([]model.EventParams, 0, len(indices))
	for _, idx := range indices {
		if f.missing[idx] {
			continue
		}
		sets = append(sets, model.EventParams{
			EventIndex: idx,
			Params:     []model.EventParam{{TypeName: "Owner", Value: "0x01"}},
		})
	}
	return sets, nil
}

func rangeStart(blockRange string) uint64 {
	lead, _, _ := strings.Cut(blockRange, "-")
	start, _ := strconv.ParseUint(lead, 10, 64)
	return start
}

func collect(t *testing.T, f *Fetcher, fromBlock uint64, transform PageTransform) []model.NormalizedEvent {
	t.Helper()
	var out []model.NormalizedEvent
	for ev, err := range f.Stream(context.Background(), "ctype", "CTypeCreated", fromBlock, transform) {
		if err != nil {
			t.Fatalf("unexpected stream error: %v", err)
		}
		out = append(out, ev)
	}
	return out
}

func TestStreamPageOrder(t *testing.T) {
	explorer := &fakeExplorer{counts: map[uint64]int{0: 250}}
	f := New(Config{}, explorer, &fakeHeight{height: 1}, nil)

	events := collect(t, f, 0, nil)

	if len(events) != 250 {
		t.Fatalf("expected 250 events, got %d", len(events))
	}

	// Probe first, then full pages newest-range-content last: 2, 1, 0.
	wantPages := []int{0, 2, 1, 0}
	wantRows := []int{1, 100, 100, 100}
	if len(explorer.eventsCalls) != len(wantPages) {
		t.Fatalf("expected %d list calls, got %d", len(wantPages), len(explorer.eventsCalls))
	}
	for i, call := range explorer.eventsCalls {
		if call.Page != wantPages[i] || call.Row != wantRows[i] {
			t.Fatalf("call %d: page=%d row=%d, want page=%d row=%d", i, call.Page, call.Row, wantPages[i], wantRows[i])
		}
	}

	// Page 2 holds the 50-event remainder.
	if got := len(explorer.paramsCalls[1]); got != 50 {
		t.Fatalf("expected 50 indices on the highest page, got %d", got)
	}

	if events[0].BlockTimestampMs != 1700000000000 {
		t.Fatalf("timestamp not converted to ms: %d", events[0].BlockTimestampMs)
	}
}

func TestStreamSinglePage(t *testing.T) {
	explorer := &fakeExplorer{counts: map[uint64]int{0: 7}}
	f := New(Config{}, explorer, &fakeHeight{height: 1}, nil)

	events := collect(t, f, 0, nil)

	if len(events) != 7 {
		t.Fatalf("expected 7 events, got %d", len(events))
	}
	if len(explorer.eventsCalls) != 2 {
		t.Fatalf("expected probe plus one page, got %d calls", len(explorer.eventsCalls))
	}
	if last := explorer.eventsCalls[1]; last.Page != 0 || last.Row != 100 {
		t.Fatalf("unexpected page fetch: %+v", last)
	}
}

func TestStreamWalksRanges(t *testing.T) {
	explorer := &fakeExplorer{counts: map[uint64]int{}}
	f := New(Config{}, explorer, &fakeHeight{height: 150_000}, nil)

	var sleeps int
	f.sleep = func(context.Context, time.Duration) error {
		sleeps++
		return nil
	}

	events := collect(t, f, 0, nil)

	if len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}

	wantRanges := []string{"0-100000", "100000-200000"}
	if len(explorer.eventsCalls) != len(wantRanges) {
		t.Fatalf("expected %d probes, got %d", len(wantRanges), len(explorer.eventsCalls))
	}
	for i, call := range explorer.eventsCalls {
		if call.BlockRange != wantRanges[i] {
			t.Fatalf("probe %d range mismatch: %s != %s", i, call.BlockRange, wantRanges[i])
		}
	}

	// Zero-count ranges issue no params request and wait exactly once each.
	if len(explorer.paramsCalls) != 0 {
		t.Fatalf("params should not be fetched for empty ranges: %d calls", len(explorer.paramsCalls))
	}
	if sleeps != 2 {
		t.Fatalf("expected one wait per range, got %d", sleeps)
	}
}

func TestStreamDisabled(t *testing.T) {
	explorer := &fakeExplorer{counts: map[uint64]int{0: 10}}
	heights := &fakeHeight{height: 10}
	f := New(Config{Disabled: true}, explorer, heights, nil)

	events := collect(t, f, 0, nil)

	if len(events) != 0 {
		t.Fatalf("expected empty sequence, got %d events", len(events))
	}
	if len(explorer.eventsCalls) != 0 || heights.calls != 0 {
		t.Fatalf("disabled stream must not touch the network: %d list calls, %d height calls", len(explorer.eventsCalls), heights.calls)
	}
}

func TestStreamTransform(t *testing.T) {
	explorer := &fakeExplorer{counts: map[uint64]int{0: 2}}
	f := New(Config{}, explorer, &fakeHeight{height: 1}, nil)

	transform := func(events []model.ParsedEvent) []model.ParsedEvent {
		for i := range events {
			events[i].Params = append(events[i].Params, model.EventParam{TypeName: "Origin", Value: "transform"})
		}
		return events
	}

	events := collect(t, f, 0, transform)

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	for _, ev := range events {
		if ev.Values["Origin"] != "transform" {
			t.Fatalf("transform not applied before flattening: %+v", ev.Values)
		}
		if ev.Values["Owner"] != "0x01" {
			t.Fatalf("original params lost: %+v", ev.Values)
		}
	}
}

func TestStreamHeightError(t *testing.T) {
	explorer := &fakeExplorer{counts: map[uint64]int{}}
	f := New(Config{}, explorer, &fakeHeight{err: errors.New("node down")}, nil)

	var streamErr error
	for _, err := range f.Stream(context.Background(), "ctype", "CTypeCreated", 0, nil) {
		streamErr = err
	}

	if streamErr == nil || !strings.Contains(streamErr.Error(), "node down") {
		t.Fatalf("expected height error, got %v", streamErr)
	}
	if len(explorer.eventsCalls) != 0 {
		t.Fatalf("no list calls expected after height failure")
	}
}

func TestStreamAbandonment(t *testing.T) {
	explorer := &fakeExplorer{counts: map[uint64]int{0: 250}}
	f := New(Config{}, explorer, &fakeHeight{height: 1}, nil)

	taken := 0
	for _, err := range f.Stream(context.Background(), "ctype", "CTypeCreated", 0, nil) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		taken++
		if taken == 10 {
			break
		}
	}

	// Probe plus the first full page; abandoning must stop further fetches.
	if len(explorer.eventsCalls) != 2 {
		t.Fatalf("expected 2 list calls after early break, got %d", len(explorer.eventsCalls))
	}
}

func TestGetEventsMissingParams(t *testing.T) {
	explorer := &fakeExplorer{
		counts:  map[uint64]int{0: 2},
		missing: map[string]bool{"1-1": true},
	}
	f := New(Config{}, explorer, &fakeHeight{height: 1}, nil)

	_, events, err := f.GetEvents(context.Background(), "ctype", "CTypeCreated", 0, 0, 100)

	var missingErr *model.MissingParamsError
	if !errors.As(err, &missingErr) {
		t.Fatalf("expected MissingParamsError, got %v", err)
	}
	if missingErr.EventIndex != "1-1" {
		t.Fatalf("error should carry the offending index: %q", missingErr.EventIndex)
	}
	if events != nil {
		t.Fatalf("no events should be returned on correlation failure")
	}
}

func TestGetEventsEmptyRange(t *testing.T) {
	explorer := &fakeExplorer{counts: map[uint64]int{0: 0}}
	f := New(Config{}, explorer, &fakeHeight{height: 1}, nil)

	count, events, err := f.GetEvents(context.Background(), "ctype", "CTypeCreated", 0, 0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 0 || events != nil {
		t.Fatalf("expected bare zero count, got count=%d events=%+v", count, events)
	}
	if len(explorer.paramsCalls) != 0 {
		t.Fatalf("params must not be fetched for an empty page")
	}
}

func TestBlockFromIndex(t *testing.T) {
	block, err := blockFromIndex("123456-7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if block != 123456 {
		t.Fatalf("block mismatch: %d", block)
	}

	if _, err := blockFromIndex("garbage"); err == nil {
		t.Fatalf("expected error for index without separator")
	}
	if _, err := blockFromIndex("abc-1"); err == nil {
		t.Fatalf("expected error for non-numeric block component")
	}
}
