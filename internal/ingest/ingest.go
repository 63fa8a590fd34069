package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/pinehill-dev/pinehill/internal/id"
	"github.com/pinehill-dev/pinehill/internal/importer"
	"github.com/pinehill-dev/pinehill/internal/logging"
	"github.com/pinehill-dev/pinehill/internal/model"
)

// Outcome is what the pipeline did with one inbound event.
type Outcome string

const (
	OutcomeUntrusted    Outcome = "untrusted"    // not from the bank channel, discarded
	OutcomeUnrecognized Outcome = "unrecognized" // from the bank but not a deposit or withdrawal
	OutcomeDuplicate    Outcome = "duplicate"    // same text already ingested
	OutcomePayment      Outcome = "payment"
	OutcomeExpense      Outcome = "expense"
	OutcomeFailed       Outcome = "failed" // recognized but not stored; Error says why
)

// Result describes the handling of one event. At most one of PaymentID and
// ExpenseID is set.
type Result struct {
	EventID      string
	Source       string
	Outcome      Outcome
	PaymentID    int64
	ExpenseID    int64
	Notification *model.BankNotification
	Month        string
	Error        string
}

// Store is the part of the ledger the pipeline writes to.
type Store interface {
	InsertIngestedPayment(ctx context.Context, p *model.Payment) (bool, error)
	InsertIngestedExpense(ctx context.Context, e *model.Expense) (bool, error)
}

// Recorder keeps a durable trail of every handled event, including discards.
type Recorder interface {
	Record(ctx context.Context, r Result) error
}

// Options configures a Pipeline. Zero values are usable.
type Options struct {
	Logger            logrus.FieldLogger
	Recorder          Recorder
	Location          *time.Location
	Now               func() time.Time
	Deduplicate       bool
	YearRolloverGuard bool
}

// Pipeline turns raw bank notifications into unresolved ledger rows.
// It holds no per-event state and is safe for concurrent use.
type Pipeline struct {
	store    Store
	registry *importer.Registry
	opts     Options
	log      logrus.FieldLogger

	wg sync.WaitGroup
}

// New creates a Pipeline over store that trusts the banks in registry.
func New(store Store, registry *importer.Registry, opts Options) *Pipeline {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	var log logrus.FieldLogger = logging.Discard()
	if opts.Logger != nil {
		log = opts.Logger
	}
	return &Pipeline{store: store, registry: registry, opts: opts, log: log}
}

// Handle ingests one event and writes zero or one ledger row.
// Untrusted and unrecognized events are outcomes, not errors. An event that
// fails after it was recognized is recorded as OutcomeFailed and its error
// returned.
func (p *Pipeline) Handle(ctx context.Context, source, text string) (Result, error) {
	res := Result{EventID: uuid.NewString(), Source: source}
	log := p.log.WithFields(logrus.Fields{"event_id": res.EventID, "source": source})

	fail := func(err error) (Result, error) {
		res.Outcome = OutcomeFailed
		res.PaymentID, res.ExpenseID = 0, 0
		res.Error = err.Error()
		p.record(context.WithoutCancel(ctx), log, res)
		return res, err
	}

	parser := p.registry.Match(source, text)
	if parser == nil {
		res.Outcome = OutcomeUntrusted
		log.WithField("outcome", res.Outcome).Debug("Discarding event from untrusted channel")
		p.record(ctx, log, res)
		return res, nil
	}

	n, ok := parser.Parse(text)
	if !ok {
		res.Outcome = OutcomeUnrecognized
		log.WithField("outcome", res.Outcome).Debug("Discarding unrecognized bank notification")
		p.record(ctx, log, res)
		return res, nil
	}
	res.Notification = &n

	now := p.opts.Now().In(p.opts.Location)
	month, err := id.BillingMonth(n.Date, now, p.opts.YearRolloverGuard)
	if err != nil {
		return fail(fmt.Errorf("deriving billing month for event %s: %w", res.EventID, err))
	}
	res.Month = month
	at := id.NotificationTime(n.Date, n.Time, now, p.opts.Location, p.opts.YearRolloverGuard)

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	var hash *string
	if p.opts.Deduplicate {
		h := rawHash(text)
		hash = &h
	}
	raw := text

	switch n.Direction {
	case model.Deposit:
		payment := &model.Payment{
			Month:   month,
			PaidAt:  &at,
			Amount:  n.Amount,
			Source:  model.SourceSMS,
			Status:  model.StatusPending,
			RawSMS:  &raw,
			RawHash: hash,
		}
		if n.Party != "" {
			sender := n.Party
			payment.SenderName = &sender
		}
		inserted, err := p.store.InsertIngestedPayment(ctx, payment)
		if err != nil {
			return fail(fmt.Errorf("storing payment for event %s: %w", res.EventID, err))
		}
		if inserted {
			res.Outcome = OutcomePayment
			res.PaymentID = payment.PaymentID
		} else {
			res.Outcome = OutcomeDuplicate
		}
	default:
		expense := &model.Expense{
			SpentAt:  at,
			Amount:   n.Amount,
			Category: model.CategoryOther,
			Memo:     n.Party,
			Month:    month,
			Source:   model.SourceSMS,
			RawSMS:   &raw,
			RawHash:  hash,
		}
		inserted, err := p.store.InsertIngestedExpense(ctx, expense)
		if err != nil {
			return fail(fmt.Errorf("storing expense for event %s: %w", res.EventID, err))
		}
		if inserted {
			res.Outcome = OutcomeExpense
			res.ExpenseID = expense.ExpenseID
		} else {
			res.Outcome = OutcomeDuplicate
		}
	}

	log.WithFields(logrus.Fields{
		"outcome":    res.Outcome,
		"amount":     n.Amount,
		"month":      month,
		"payment_id": res.PaymentID,
		"expense_id": res.ExpenseID,
	}).Info("Ingested bank notification")
	p.record(ctx, log, res)
	return res, nil
}

// HandleBatch ingests msgs with at most workers events in flight. Results are
// in input order. The first storage error cancels the rest of the batch; the
// events it stopped are reported as OutcomeFailed.
func (p *Pipeline) HandleBatch(ctx context.Context, msgs []model.InboundMessage, workers int) ([]Result, error) {
	if workers <= 0 {
		workers = 1
	}
	results := make([]Result, len(msgs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, m := range msgs {
		i, m := i, m
		g.Go(func() error {
			r, err := p.Handle(gctx, m.Source, m.Text)
			results[i] = r
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// Notify hands an event to the pipeline without waiting for it. Failures are
// logged. Wait blocks until every notified event has been handled.
func (p *Pipeline) Notify(ctx context.Context, source, text string) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if _, err := p.Handle(ctx, source, text); err != nil {
			p.log.WithError(err).WithField("source", source).Error("Failed to ingest event")
		}
	}()
}

// Wait blocks until all events passed to Notify are handled.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

func (p *Pipeline) record(ctx context.Context, log logrus.FieldLogger, res Result) {
	if p.opts.Recorder == nil {
		return
	}
	if err := p.opts.Recorder.Record(ctx, res); err != nil {
		log.WithError(err).Warn("Failed to record ingest outcome")
	}
}

func rawHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
