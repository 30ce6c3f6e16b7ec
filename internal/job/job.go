// Package job implements one quote capture: fetch the price of a fixed
// symbol and append it as a timestamped row.
package job

//go:generate mockgen -package=job -destination=mock_deps_test.go -source=job.go QuoteClient RowStore Alerter

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"QuoteLedger/internal/model"
)

var (
	// ErrUpstreamFailure marks a failed or timed out quote fetch.
	ErrUpstreamFailure = errors.New("upstream failure")
	// ErrStorageFailure marks a failed or timed out append.
	ErrStorageFailure = errors.New("storage failure")
	// ErrFiringInProgress is returned when a firing starts while another runs.
	ErrFiringInProgress = errors.New("firing already in progress")
)

// QuoteClient returns the current quote for a symbol.
type QuoteClient interface {
	FetchQuote(ctx context.Context, symbol string) (*model.Quote, error)
}

// RowStore appends records.
type RowStore interface {
	Append(ctx context.Context, rec *model.QuoteRecord) error
}

// Alerter is told about failed firings.
type Alerter interface {
	Alert(ctx context.Context, text string) error
}

// State of a job instance.
type State int32

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// Options tune a Job. Zero timeouts fall back to the defaults.
type Options struct {
	Symbol       string
	PartitionKey string
	QuoteTimeout time.Duration
	StoreTimeout time.Duration
	Now          func() time.Time
	Alerter      Alerter
}

const defaultTimeout = 10 * time.Second

// Job captures one quote per Run. The clients are built once and reused
// across firings.
type Job struct {
	quotes       QuoteClient
	store        RowStore
	alerter      Alerter
	symbol       string
	partitionKey string
	quoteTimeout time.Duration
	storeTimeout time.Duration
	now          func() time.Time
	state        atomic.Int32
}

// New returns a ready job or an error; it never returns a partial job.
func New(quotes QuoteClient, store RowStore, opts Options) (*Job, error) {
	if quotes == nil {
		return nil, fmt.Errorf("new job: quote client is required")
	}
	if store == nil {
		return nil, fmt.Errorf("new job: row store is required")
	}
	if opts.Symbol == "" {
		return nil, fmt.Errorf("new job: symbol is required")
	}
	if opts.PartitionKey == "" {
		opts.PartitionKey = model.DefaultPartitionKey
	}
	if opts.QuoteTimeout <= 0 {
		opts.QuoteTimeout = defaultTimeout
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = defaultTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Job{
		quotes:       quotes,
		store:        store,
		alerter:      opts.Alerter,
		symbol:       opts.Symbol,
		partitionKey: opts.PartitionKey,
		quoteTimeout: opts.QuoteTimeout,
		storeTimeout: opts.StoreTimeout,
		now:          opts.Now,
	}, nil
}

// Symbol returns the instrument this job captures.
func (j *Job) Symbol() string { return j.symbol }

// State reports whether a firing is in flight.
func (j *Job) State() State { return State(j.state.Load()) }

// Run executes one firing and returns the appended record.
func (j *Job) Run(ctx context.Context) (*model.QuoteRecord, error) {
	if !j.state.CompareAndSwap(int32(Idle), int32(Running)) {
		return nil, ErrFiringInProgress
	}
	defer j.state.Store(int32(Idle))

	rec, err := j.capture(ctx)
	if err != nil {
		log.Printf("[ERROR] quote capture failed: symbol=%s err=%v", j.symbol, err)
		j.alert(ctx, err)
		return nil, err
	}
	log.Printf("[INFO] quote captured: symbol=%s price=%s row_key=%s", j.symbol, rec.Value, rec.RowKey)
	return rec, nil
}

func (j *Job) capture(ctx context.Context) (*model.QuoteRecord, error) {
	qctx, cancel := context.WithTimeout(ctx, j.quoteTimeout)
	quote, err := j.quotes.FetchQuote(qctx, j.symbol)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("%w: fetch quote %s: %w", ErrUpstreamFailure, j.symbol, err)
	}
	if quote == nil || !quote.Current.IsPositive() {
		return nil, fmt.Errorf("%w: fetch quote %s: no current price", ErrUpstreamFailure, j.symbol)
	}

	rec := model.NewQuoteRecord(j.partitionKey, quote.Current, j.now())

	sctx, cancel := context.WithTimeout(ctx, j.storeTimeout)
	err = j.store.Append(sctx, rec)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("%w: append %s: %w", ErrStorageFailure, rec.RowKey, err)
	}
	return rec, nil
}

func (j *Job) alert(ctx context.Context, cause error) {
	if j.alerter == nil {
		return
	}
	// The firing context may already be done; alerts get their own budget.
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), j.quoteTimeout)
	defer cancel()
	if err := j.alerter.Alert(actx, FormatFailure(j.symbol, cause)); err != nil {
		log.Printf("[WARN] send failure alert: %v", err)
	}
}

// FormatFailure renders the alert text for a failed firing.
func FormatFailure(symbol string, cause error) string {
	kind := "unknown failure"
	switch {
	case errors.Is(cause, ErrUpstreamFailure):
		kind = "quote fetch failed"
	case errors.Is(cause, ErrStorageFailure):
		kind = "append failed"
	}
	return fmt.Sprintf("%s capture: %s\n%v", symbol, kind, cause)
}
