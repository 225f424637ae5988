package swap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"fedbridge/internal/audit"
	"fedbridge/internal/fees"
	"fedbridge/internal/mintregistry"
	"fedbridge/internal/platform/locks"
	"fedbridge/internal/platform/metrics"
	"fedbridge/internal/policy"
	"fedbridge/internal/policy/spendtotals"
	"fedbridge/internal/privacy"
	"fedbridge/internal/wallet"
	dErrors "fedbridge/pkg/domain-errors"
	"fedbridge/pkg/platform/sentinel"
)

// Orchestrator drives swaps through the lifecycle
// validation → source_lock → destination_prepare → atomic_execution →
// confirmation, with failed reachable from any non-terminal state. It is the
// only component that mutates swap state: every transition happens under the
// swap's lock and lands in the store together with its log entry.
type Orchestrator struct {
	store   Store
	totals  spendtotals.Store
	mints   *mintregistry.Registry
	wallets *wallet.Registry
	engine  *policy.Engine

	swapLocks *locks.KeyedMutex
	logger    *slog.Logger
	metrics   *metrics.Metrics
	auditor   *audit.Publisher
	tracer    trace.Tracer

	callTimeout       time.Duration
	idempotencyWindow time.Duration
	now               func() time.Time
}

// Option configures the Orchestrator.
type Option func(*Orchestrator)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

func WithAuditPublisher(p *audit.Publisher) Option {
	return func(o *Orchestrator) { o.auditor = p }
}

func WithCallTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.callTimeout = d }
}

func WithIdempotencyWindow(d time.Duration) Option {
	return func(o *Orchestrator) { o.idempotencyWindow = d }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func New(store Store, totals spendtotals.Store, mints *mintregistry.Registry, wallets *wallet.Registry, engine *policy.Engine, opts ...Option) (*Orchestrator, error) {
	if store == nil {
		return nil, fmt.Errorf("swap store is required")
	}
	if totals == nil {
		return nil, fmt.Errorf("spend totals store is required")
	}
	if mints == nil {
		return nil, fmt.Errorf("mint registry is required")
	}
	if wallets == nil {
		return nil, fmt.Errorf("wallet registry is required")
	}
	if engine == nil {
		return nil, fmt.Errorf("policy engine is required")
	}

	o := &Orchestrator{
		store:             store,
		totals:            totals,
		mints:             mints,
		wallets:           wallets,
		engine:            engine,
		swapLocks:         locks.NewKeyedMutex(),
		logger:            slog.Default(),
		tracer:            otel.Tracer("fedbridge/swap"),
		callTimeout:       2 * time.Minute,
		idempotencyWindow: time.Minute,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Submit validates and authorizes a swap request, creates the record, and
// drives it as far as it can go before returning. The returned record may
// still be in validation (approval pending) or already terminal.
func (s *Orchestrator) Submit(ctx context.Context, req Request, auth policy.AuthContext) (*Record, []LogEntry, error) {
	if !auth.Authenticated || auth.SubjectHandle == "" {
		return nil, nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	srcProto, dstProto, err := s.resolveProtocols(req)
	if err != nil {
		return nil, nil, err
	}
	if err := validateRequest(req, srcProto, dstProto); err != nil {
		return nil, nil, err
	}

	// The session role wins over whatever the request body claims.
	role := auth.Role
	if req.Role != "" {
		if claimed, parseErr := policy.ParseRole(req.Role); parseErr == nil && claimed != role {
			s.logger.WarnContext(ctx, "request role differs from session role",
				"claimed", claimed,
				"session", role,
			)
		}
	}

	if !s.mints.Enabled(srcProto) {
		return nil, nil, dErrors.Newf(dErrors.CodeForbidden, "source protocol %s is disabled", srcProto).
			With("side", "source")
	}
	if !s.mints.Enabled(dstProto) {
		return nil, nil, dErrors.Newf(dErrors.CodeForbidden, "destination protocol %s is disabled", dstProto).
			With("side", "destination")
	}

	decision := s.engine.Evaluate(role, req.Amount, policy.OpSpend)
	if !decision.Authorized {
		if s.metrics != nil {
			s.metrics.PolicyDenied.Inc()
		}
		err := dErrors.New(dErrors.CodeForbidden, "amount exceeds spending authority").
			With("requires_approval", decision.RequiresApproval)
		if limit, bounded := decision.EffectiveLimit.Value(); bounded {
			err = err.With("effective_limit", limit)
		}
		return nil, nil, err
	}

	now := s.now()
	accountToken := privacy.AccountToken(auth.SubjectHandle)
	srcKey := string(srcProto) + "|" + req.SourceEndpoint
	dstKey := string(dstProto) + "|" + req.DestinationEndpoint
	swapID := privacy.SwapID(accountToken, req.Amount, srcKey, dstKey, privacy.Bucket(now, s.idempotencyWindow))

	// All transitions for one swap serialize on this lock, including the
	// idempotency check: two identical submissions race here, one creates
	// the record and the other finds it.
	unlock := s.swapLocks.Lock(swapID)
	defer unlock()

	if existing, getErr := s.store.Get(ctx, swapID); getErr == nil {
		if s.metrics != nil {
			s.metrics.IdempotentHits.Inc()
		}
		log, logErr := s.store.ListLog(ctx, swapID)
		if logErr != nil {
			return nil, nil, dErrors.Wrap(logErr, dErrors.CodeInternal, "failed to load swap log")
		}
		return existing, log, nil
	} else if !errors.Is(getErr, sentinel.ErrNotFound) {
		return nil, nil, dErrors.Wrap(getErr, dErrors.CodeInternal, "failed to check for existing swap")
	}

	spendReserved := false
	if !role.Sovereign() {
		ok, _, reserveErr := s.totals.ReserveSpend(ctx, accountToken, spendtotals.DayKey(now), req.Amount, s.engine.Limits().DailySpend)
		if reserveErr != nil {
			return nil, nil, dErrors.Wrap(reserveErr, dErrors.CodeInternal, "failed to reserve daily spend")
		}
		if !ok {
			if s.metrics != nil {
				s.metrics.PolicyDenied.Inc()
			}
			return nil, nil, dErrors.New(dErrors.CodeForbidden, "daily spending limit exhausted").
				With("effective_limit", s.engine.Limits().DailySpend)
		}
		spendReserved = true
	}

	kind := fees.KindSwap
	if req.Kind == string(fees.KindPayment) {
		kind = fees.KindPayment
	}

	record := &Record{
		SwapID:              swapID,
		SourceProtocol:      srcProto,
		DestinationProtocol: dstProto,
		SourceAccount:       accountToken,
		DestinationAccount:  accountToken,
		Amount:              req.Amount,
		Fees:                fees.Calculate(req.Amount, role, kind),
		Kind:                kind,
		Status:              StatusValidation,
		Purpose:             req.Purpose,
		RequiresApproval:    decision.RequiresApproval,
		SpendReserved:       spendReserved,
		Steps:               1,
		CreatedAt:           now,
	}

	preApproved := req.ApprovalToken != ""
	message := "request validated and authorized"
	if record.RequiresApproval && !preApproved {
		message = "request validated; awaiting guardian approval"
	}
	first := LogEntry{
		SwapID:    swapID,
		Step:      1,
		StepName:  StatusValidation,
		Status:    StepCompleted,
		Message:   message,
		Timestamp: now,
	}

	if err := s.store.Create(ctx, record, first); err != nil {
		if spendReserved {
			s.refundSpend(ctx, record)
		}
		if errors.Is(err, sentinel.ErrConflict) {
			// Lost a race we should have won under the swap lock; treat
			// it as the idempotent path anyway.
			if existing, getErr := s.store.Get(ctx, swapID); getErr == nil {
				log, _ := s.store.ListLog(ctx, swapID)
				return existing, log, nil
			}
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create swap")
	}

	if s.metrics != nil {
		s.metrics.SwapsSubmitted.Inc()
	}
	s.emitAudit(ctx, record, "swap_submitted", first.Message)

	if record.RequiresApproval && !preApproved {
		if s.metrics != nil {
			s.metrics.SwapsAwaitingApproval.Inc()
		}
		return record.Clone(), []LogEntry{first}, nil
	}
	if preApproved {
		record.ApprovedBy = privacy.Derive("approval", req.ApprovalToken)
	}

	s.execute(ctx, record)

	log, err := s.store.ListLog(ctx, swapID)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load swap log")
	}
	return record.Clone(), log, nil
}

// RecordApproval applies an external approval event to a swap parked in
// validation. Approve resumes the lifecycle; deny terminates it.
func (s *Orchestrator) RecordApproval(ctx context.Context, swapID string, event ApprovalEvent, auth policy.AuthContext) (*Record, error) {
	if !auth.Authenticated {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if !auth.Role.CanApprove() {
		return nil, dErrors.New(dErrors.CodeForbidden, "role cannot approve swaps")
	}
	if event.Decision != DecisionApprove && event.Decision != DecisionDeny {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "decision must be approve or deny")
	}

	unlock := s.swapLocks.Lock(swapID)
	defer unlock()

	record, err := s.store.Get(ctx, swapID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "swap not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load swap")
	}
	if record.Status != StatusValidation || !record.RequiresApproval {
		return nil, dErrors.New(dErrors.CodeConflict, "swap is not awaiting approval")
	}

	if event.Decision == DecisionDeny {
		s.fail(ctx, record, "approval denied by "+string(auth.Role))
		return record.Clone(), nil
	}

	record.ApprovedBy = privacy.AccountToken(event.ApproverHandle)
	s.execute(ctx, record)
	return record.Clone(), nil
}

// GetStatus returns the record and its log for a caller allowed to see it.
// Unknown ids and ids the caller may not see are both NotFound so account
// existence never leaks.
func (s *Orchestrator) GetStatus(ctx context.Context, swapID string, auth policy.AuthContext) (*Record, []LogEntry, error) {
	if !auth.Authenticated {
		return nil, nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	record, err := s.store.Get(ctx, swapID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, dErrors.New(dErrors.CodeNotFound, "swap not found")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load swap")
	}

	callerToken := privacy.AccountToken(auth.SubjectHandle)
	owner := record.SourceAccount == callerToken || record.DestinationAccount == callerToken
	if !owner && !auth.Role.CanApprove() {
		return nil, nil, dErrors.New(dErrors.CodeNotFound, "swap not found")
	}

	log, err := s.store.ListLog(ctx, swapID)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load swap log")
	}
	return record, log, nil
}

// ListByAccount returns the caller's swaps, newest first.
func (s *Orchestrator) ListByAccount(ctx context.Context, auth policy.AuthContext) ([]*Record, error) {
	if !auth.Authenticated {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	records, err := s.store.ListByAccount(ctx, privacy.AccountToken(auth.SubjectHandle))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list swaps")
	}
	return records, nil
}

// execute drives the swap from its current state to a terminal one. All
// external failures are absorbed into the record's log; execute never
// returns a raw wallet error to the caller.
func (s *Orchestrator) execute(ctx context.Context, record *Record) {
	ctx, span := s.tracer.Start(ctx, "swap.execute", trace.WithAttributes(
		attribute.String("swap.id", record.SwapID),
		attribute.String("swap.source_protocol", string(record.SourceProtocol)),
		attribute.String("swap.destination_protocol", string(record.DestinationProtocol)),
	))
	defer span.End()

	// source_lock: reserve funds on the source side. Fail fast before any
	// destination call.
	if !s.mints.Enabled(record.SourceProtocol) {
		s.fail(ctx, record, "source protocol "+string(record.SourceProtocol)+" disabled")
		return
	}
	source, err := s.wallets.Client(record.SourceProtocol)
	if err != nil {
		s.fail(ctx, record, "source wallet unavailable: "+err.Error())
		return
	}
	lock, err := s.callReserve(ctx, source, record)
	if err != nil {
		s.fail(ctx, record, "source lock failed: "+err.Error())
		return
	}
	record.LockHandle = string(lock)
	if !s.advance(ctx, record, StatusSourceLock, "funds reserved on source") {
		return
	}

	// destination_prepare: pre-stage the receipt. On failure the source
	// lock must be released before the terminal failure is recorded.
	if !s.mints.Enabled(record.DestinationProtocol) {
		s.compensate(ctx, source, record, "destination protocol "+string(record.DestinationProtocol)+" disabled")
		return
	}
	destination, err := s.wallets.Client(record.DestinationProtocol)
	if err != nil {
		s.compensate(ctx, source, record, "destination wallet unavailable: "+err.Error())
		return
	}
	stage, err := s.callPrepare(ctx, destination, record)
	if err != nil {
		s.compensate(ctx, source, record, "destination prepare failed: "+err.Error())
		return
	}
	if !s.advance(ctx, record, StatusDestinationPrepare, "receipt pre-staged on destination") {
		return
	}

	// atomic_execution: debit the lock and finalize the credit as one
	// unit. A failure here may have debited without crediting, so the
	// record is flagged for reconciliation instead of silently dropped.
	if err := s.callCommit(ctx, source, lock, stage); err != nil {
		record.NeedsReconciliation = true
		s.fail(ctx, record, "atomic execution failed after source debit: "+err.Error())
		return
	}
	if !s.advance(ctx, record, StatusAtomicExecution, "source debited and destination credited") {
		return
	}

	// confirmation: fees and timestamps are final from here on.
	now := s.now()
	record.CompletedAt = &now
	if !s.advance(ctx, record, StatusConfirmation, "swap confirmed") {
		return
	}
	if s.metrics != nil {
		s.metrics.SwapsCompleted.Inc()
	}
}

func (s *Orchestrator) callReserve(ctx context.Context, client wallet.Client, record *Record) (wallet.LockHandle, error) {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	return client.ReserveFunds(ctx, record.SourceAccount, record.Amount)
}

func (s *Orchestrator) callPrepare(ctx context.Context, client wallet.Client, record *Record) (wallet.StageHandle, error) {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	return client.PrepareReceipt(ctx, record.DestinationAccount, record.Amount)
}

func (s *Orchestrator) callCommit(ctx context.Context, client wallet.Client, lock wallet.LockHandle, stage wallet.StageHandle) error {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	return client.Commit(ctx, lock, stage)
}

// compensate releases the source lock and then records the terminal failure.
// If the release itself fails the funds are still locked on the source, so
// the record is flagged for reconciliation.
func (s *Orchestrator) compensate(ctx context.Context, source wallet.Client, record *Record, reason string) {
	releaseCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	if err := source.ReleaseFunds(releaseCtx, wallet.LockHandle(record.LockHandle)); err != nil {
		s.logger.ErrorContext(ctx, "compensating release failed",
			"swap_id", record.SwapID,
			"error", err,
		)
		record.NeedsReconciliation = true
		s.fail(ctx, record, reason+"; compensating release failed")
		return
	}
	record.LockHandle = ""
	s.fail(ctx, record, reason+"; source lock released")
}

// advance performs one forward transition and persists it with its log
// entry. Returns false if the transition could not be recorded.
func (s *Orchestrator) advance(ctx context.Context, record *Record, next Status, message string) bool {
	if !record.Status.CanAdvance(next) {
		s.logger.ErrorContext(ctx, "illegal swap transition",
			"swap_id", record.SwapID,
			"from", record.Status,
			"to", next,
		)
		return false
	}
	record.Status = next
	record.Steps++
	entry := LogEntry{
		SwapID:    record.SwapID,
		Step:      record.Steps,
		StepName:  next,
		Status:    StepCompleted,
		Message:   message,
		Timestamp: s.now(),
	}
	if err := s.store.Update(ctx, record, entry); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist swap transition",
			"swap_id", record.SwapID,
			"to", next,
			"error", err,
		)
		return false
	}
	s.emitAudit(ctx, record, "swap_"+string(next), message)
	return true
}

// fail records the terminal failed state with the reason in the swap's own
// log, releases any reserved daily spend, and updates metrics.
func (s *Orchestrator) fail(ctx context.Context, record *Record, reason string) {
	now := s.now()
	record.Status = StatusFailed
	record.Steps++
	record.CompletedAt = &now
	entry := LogEntry{
		SwapID:    record.SwapID,
		Step:      record.Steps,
		StepName:  StatusFailed,
		Status:    StepFailed,
		Message:   reason,
		Timestamp: now,
	}
	if err := s.store.Update(ctx, record, entry); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist swap failure",
			"swap_id", record.SwapID,
			"error", err,
		)
	}
	if record.SpendReserved {
		s.refundSpend(ctx, record)
	}
	if s.metrics != nil {
		s.metrics.SwapsFailed.Inc()
		if record.NeedsReconciliation {
			s.metrics.ReconciliationRequired.Inc()
		}
	}
	s.emitAudit(ctx, record, "swap_failed", reason)
}

func (s *Orchestrator) refundSpend(ctx context.Context, record *Record) {
	err := s.totals.ReleaseSpend(ctx, record.SourceAccount, spendtotals.DayKey(record.CreatedAt), record.Amount)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to release reserved spend",
			"swap_id", record.SwapID,
			"error", err,
		)
		return
	}
	record.SpendReserved = false
}

// emitAudit is best-effort: the swap log is the authoritative trail, audit
// sinks are side channels.
func (s *Orchestrator) emitAudit(ctx context.Context, record *Record, action, message string) {
	if s.auditor == nil {
		return
	}
	err := s.auditor.Emit(ctx, audit.Event{
		SwapID:       record.SwapID,
		AccountToken: record.SourceAccount,
		Action:       action,
		Status:       string(record.Status),
		Message:      message,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "audit emit failed",
			"swap_id", record.SwapID,
			"action", action,
			"error", err,
		)
	}
}

func (s *Orchestrator) resolveProtocols(req Request) (mintregistry.Protocol, mintregistry.Protocol, error) {
	src, err := resolveProtocol(req.SourceProtocol, req.SourceEndpoint)
	if err != nil {
		return "", "", dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid source protocol")
	}
	dst, err := resolveProtocol(req.DestinationProtocol, req.DestinationEndpoint)
	if err != nil {
		return "", "", dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid destination protocol")
	}
	return src, dst, nil
}

// resolveProtocol honors an explicit protocol tag when present and falls
// back to endpoint classification. Lightning is only reachable explicitly.
func resolveProtocol(explicit, endpoint string) (mintregistry.Protocol, error) {
	if explicit != "" {
		p := mintregistry.Protocol(explicit)
		if !p.Valid() {
			return "", fmt.Errorf("unknown protocol %q", explicit)
		}
		return p, nil
	}
	if endpoint == "" {
		return "", fmt.Errorf("endpoint or protocol is required")
	}
	return mintregistry.Classify(endpoint), nil
}

func validateRequest(req Request, src, dst mintregistry.Protocol) error {
	if req.Amount <= 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "amount must be positive")
	}
	if src == dst && req.SourceEndpoint == req.DestinationEndpoint {
		return dErrors.New(dErrors.CodeInvalidInput, "source and destination must differ")
	}
	if req.Kind != "" && req.Kind != string(fees.KindSwap) && req.Kind != string(fees.KindPayment) {
		return dErrors.New(dErrors.CodeInvalidInput, "kind must be swap or payment")
	}
	return nil
}
