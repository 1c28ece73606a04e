package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bahaibot/internal/importlog"
	"bahaibot/internal/kb"
	"bahaibot/internal/logging"
	"bahaibot/internal/services"
)

// State is a batch driver state, reported to an Observer.
type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateResolving  State = "resolving"
	StateWriting    State = "writing"
	StateLinking    State = "linking"
	StateLogged     State = "logged"
	StateAborted    State = "aborted"
)

// Observer receives every state transition with the current source row.
type Observer func(row int, state State)

// Failure records a record that did not complete.
type Failure struct {
	Row   int
	Label string
	Kind  string
	Err   error
}

// Summary aggregates one batch run.
type Summary struct {
	Workflow  string
	Total     int
	Succeeded int
	Skipped   int
	Failed    int
	Written   []Created
	Created   []Created
	Failures  []Failure
	Aborted   bool
}

// Runner drives records through validate, resolve, write, link, and log.
type Runner struct {
	Store    kb.Store
	Resolver *Resolver
	// Log receives the per-record audit lines.
	Log      *importlog.Log
	Logger   *slog.Logger
	FailFast bool
	Observer Observer
}

func (r *Runner) observe(row int, state State) {
	if r.Observer != nil {
		r.Observer(row, state)
	}
}

// Run processes records in order. In fail-fast mode the first failure writes a
// FATAL line and returns an error wrapping services.ErrAborted; writes already
// made for earlier records remain. In best-effort mode failures are logged and
// the batch continues.
func (r *Runner) Run(ctx context.Context, wf Workflow, records []Record) (Summary, error) {
	logger := logging.NewComponentLogger(r.Logger, "importer")
	resolver := r.Resolver
	if resolver == nil {
		resolver = NewResolver(r.Store, nil, r.Logger)
	}
	ctx = services.WithWorkflow(ctx, wf.Name())
	summary := Summary{Workflow: wf.Name(), Total: len(records)}
	createdBefore := len(resolver.Created())

	r.observe(0, StateIdle)
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			summary.Created = resolver.Created()[createdBefore:]
			return summary, err
		}
		label := wf.Label(rec)
		rowCtx := services.WithRow(ctx, rec.Row)
		resolver.BeginRecord(rec.Row)

		id, skipped, err := r.process(rowCtx, wf, rec, resolver)
		switch {
		case err == nil && skipped:
			summary.Skipped++
			r.observe(rec.Row, StateIdle)
		case err == nil:
			summary.Succeeded++
			summary.Written = append(summary.Written, Created{Row: rec.Row, Kind: wf.Name(), Label: label, ID: id})
			r.observe(rec.Row, StateIdle)
		default:
			kind := services.Kind(err)
			summary.Failed++
			summary.Failures = append(summary.Failures, Failure{Row: rec.Row, Label: label, Kind: kind, Err: err})
			rowLogger := logging.WithContext(rowCtx, logger)

			if r.FailFast {
				line := importlog.Fatal(rec.Row, label, err)
				if !errors.Is(err, services.ErrValidation) {
					line = importlog.Unexpected(rec.Row, label, err)
				}
				r.audit(rowCtx, rowLogger, line)
				logging.ErrorWithContext(rowLogger, "run aborted", "run_aborted",
					logging.String(logging.FieldLabel, label),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "fix the row and rerun; rows before it are already written"))
				r.observe(rec.Row, StateAborted)
				summary.Aborted = true
				summary.Created = resolver.Created()[createdBefore:]
				return summary, services.Wrap(services.ErrAborted, "importer", wf.Name(),
					fmt.Sprintf("row %d ('%s')", rec.Row, label), err)
			}

			if errors.Is(err, services.ErrValidation) {
				logging.WarnWithContext(rowLogger, "record rejected", "validation_failed",
					logging.String(logging.FieldLabel, label),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "fix the source row and re-run"),
				)
			} else {
				r.audit(rowCtx, rowLogger, importlog.Failed(label, err))
				logging.WarnWithContext(rowLogger, "record failed", "record_failed",
					logging.String(logging.FieldLabel, label),
					logging.Error(err),
					logging.String(logging.FieldImpact, "earlier writes for this record are not rolled back"),
				)
			}
			r.observe(rec.Row, StateIdle)
		}
	}
	summary.Created = resolver.Created()[createdBefore:]
	return summary, nil
}

func (r *Runner) process(ctx context.Context, wf Workflow, rec Record, resolver *Resolver) (string, bool, error) {
	logger := logging.WithContext(ctx, logging.NewComponentLogger(r.Logger, "importer"))

	r.observe(rec.Row, StateValidating)
	plan, err := wf.Prepare(services.WithStage(ctx, string(StateValidating)), rec, resolver)
	if err != nil {
		return "", false, err
	}
	if plan == nil {
		logger.Debug("record skipped")
		return "", true, nil
	}

	r.observe(rec.Row, StateResolving)
	stageCtx := services.WithStage(ctx, string(StateResolving))
	refs := make([]Ref, len(plan.Refs))
	for i, ref := range plan.Refs {
		if ref.ID == "" {
			id, _, err := resolver.Resolve(stageCtx, ref.Kind, ref.Label)
			if err != nil {
				return "", false, fmt.Errorf("resolve %s %q: %w", ref.Kind, ref.Label, err)
			}
			ref.ID = id
		}
		refs[i] = ref
	}

	r.observe(rec.Row, StateWriting)
	id, err := Writer{Store: r.Store}.Write(services.WithStage(ctx, string(StateWriting)), plan, refs)
	if err != nil {
		return "", false, err
	}

	r.observe(rec.Row, StateLinking)
	if err := (BackLinker{Store: r.Store}).Link(services.WithStage(ctx, string(StateLinking)), id, refs); err != nil {
		return id, false, err
	}

	if plan.Audit != nil {
		r.audit(ctx, logger, plan.Audit(plan.Label, id))
	}
	logger.Info("record written", logging.String(logging.FieldLabel, plan.Label), logging.String(logging.FieldEntityID, id))
	r.observe(rec.Row, StateLogged)
	return id, false, nil
}

func (r *Runner) audit(ctx context.Context, logger *slog.Logger, line string) {
	if err := r.Log.Append(ctx, line); err != nil {
		logging.WarnWithContext(logger, "audit append failed", "audit_log",
			logging.Error(err),
			logging.String("line", line),
		)
	}
}
