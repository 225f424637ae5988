package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fedbridge/internal/accessfilter"
	"fedbridge/internal/mintregistry"
	"fedbridge/internal/platform/metrics"
	"fedbridge/internal/platform/middleware"
	"fedbridge/internal/policy"
	"fedbridge/internal/swap"
	"fedbridge/internal/transport/http/shared"
	dErrors "fedbridge/pkg/domain-errors"
)

// Service defines the interface for swap operations.
type Service interface {
	Submit(ctx context.Context, req swap.Request, auth policy.AuthContext) (*swap.Record, []swap.LogEntry, error)
	GetStatus(ctx context.Context, swapID string, auth policy.AuthContext) (*swap.Record, []swap.LogEntry, error)
	ListByAccount(ctx context.Context, auth policy.AuthContext) ([]*swap.Record, error)
	RecordApproval(ctx context.Context, swapID string, event swap.ApprovalEvent, auth policy.AuthContext) (*swap.Record, error)
}

// Handler handles the bridge endpoints.
type Handler struct {
	logger       *slog.Logger
	swaps        Service
	mints        *mintregistry.Registry
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

// New creates a new bridge Handler.
func New(
	swaps Service,
	mints *mintregistry.Registry,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		swaps:        swaps,
		mints:        mints,
		metrics:      metrics,
		jwtValidator: jwtValidator,
	}
}

// Register registers the bridge routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	bridgeRouter := chi.NewRouter()
	bridgeRouter.Use(middleware.Recovery(h.logger))
	bridgeRouter.Use(middleware.RequestID)
	bridgeRouter.Use(middleware.Logger(h.logger))
	bridgeRouter.Use(middleware.Timeout(30 * time.Second))
	bridgeRouter.Use(middleware.ContentTypeJSON)
	bridgeRouter.Use(middleware.LatencyMiddleware(h.metrics))
	bridgeRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
	bridgeRouter.Post("/bridge/swaps", h.handleSubmit)
	bridgeRouter.Get("/bridge/swaps", h.handleList)
	bridgeRouter.Get("/bridge/swaps/{swapID}", h.handleGetStatus)
	bridgeRouter.Post("/bridge/swaps/{swapID}/approval", h.handleApproval)
	bridgeRouter.Get("/bridge/protocols", h.handleProtocols)

	r.Mount("/", bridgeRouter)
}

// handleSubmit accepts a swap request for the authenticated account and runs
// it as far as it can go before responding.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	auth := middleware.GetAuth(ctx)

	var req swap.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid swap request body",
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	record, log, err := h.swaps.Submit(ctx, req, auth)
	if err != nil {
		switch dErrors.CodeOf(err) {
		case dErrors.CodeInvalidInput, dErrors.CodeBadRequest, dErrors.CodeForbidden, dErrors.CodeUnauthorized:
			h.logger.WarnContext(ctx, "swap request rejected",
				"request_id", requestID,
				"error", err.Error(),
			)
			shared.WriteError(w, err)
		default:
			h.logger.ErrorContext(ctx, "failed to submit swap",
				"request_id", requestID,
				"error", err.Error(),
			)
			shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to submit swap"))
		}
		return
	}

	level := accessfilter.ForRole(auth.Role)
	status := http.StatusCreated
	if record.RequiresApproval && record.Status == swap.StatusValidation {
		status = http.StatusAccepted
	}
	shared.WriteJSON(w, status, accessfilter.Filter(record, log, level))
}

// handleGetStatus returns one swap with its transition log, redacted to the
// caller's access tier.
func (h *Handler) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	auth := middleware.GetAuth(ctx)
	swapID := chi.URLParam(r, "swapID")

	record, log, err := h.swaps.GetStatus(ctx, swapID, auth)
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "failed to load swap",
				"request_id", middleware.GetRequestID(ctx),
				"error", err.Error(),
			)
			shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to load swap"))
			return
		}
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, accessfilter.Filter(record, log, accessfilter.ForRole(auth.Role)))
}

// handleList returns the caller's swaps, newest first. List rows never carry
// per-swap logs regardless of tier.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	auth := middleware.GetAuth(ctx)

	records, err := h.swaps.ListByAccount(ctx, auth)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list swaps",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to list swaps"))
		return
	}

	level := accessfilter.ForRole(auth.Role)
	views := make([]accessfilter.View, 0, len(records))
	for _, record := range records {
		views = append(views, accessfilter.Filter(record, nil, level))
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"swaps": views})
}

// handleApproval applies a guardian or steward verdict to a pending swap.
func (h *Handler) handleApproval(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	auth := middleware.GetAuth(ctx)
	swapID := chi.URLParam(r, "swapID")

	var event swap.ApprovalEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		h.logger.WarnContext(ctx, "invalid approval request body",
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	event.ApproverHandle = auth.SubjectHandle

	record, err := h.swaps.RecordApproval(ctx, swapID, event, auth)
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "failed to record approval",
				"request_id", requestID,
				"error", err.Error(),
			)
			shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to record approval"))
			return
		}
		h.logger.WarnContext(ctx, "approval rejected",
			"request_id", requestID,
			"swap_id", swapID,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, accessfilter.Filter(record, nil, accessfilter.ForRole(auth.Role)))
}

// handleProtocols exposes the registry snapshot so clients can discover which
// silos are currently bridgeable.
func (h *Handler) handleProtocols(w http.ResponseWriter, r *http.Request) {
	shared.WriteJSON(w, http.StatusOK, map[string]any{"protocols": h.mints.Snapshot()})
}
