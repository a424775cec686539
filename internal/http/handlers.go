package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"fintrack/internal/client"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/middleware/owner"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	})
}

// handleReady reports whether templates are loaded and the store answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if err := s.service.Ping(ctx); err != nil {
		applog.FromContext(r.Context()).WarnContext(ctx, "Readiness check failed", "check", "storage", "error", err)
		checks["storage"] = "failed"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["storage"] = "ok"
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides request and mutation counters in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	traceMetrics := s.traceMiddleware.GetMetrics()
	securityMetrics := s.securityDetector.GetMetrics()

	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP http_server_errors_total Responses with a 5xx status\n")
	fmt.Fprintf(w, "# TYPE http_server_errors_total counter\n")
	fmt.Fprintf(w, "http_server_errors_total %d\n\n", traceMetrics.ServerErrors)

	fmt.Fprintf(w, "# HELP transactions_mutations_total Committed transaction mutations\n")
	fmt.Fprintf(w, "# TYPE transactions_mutations_total counter\n")
	fmt.Fprintf(w, "transactions_mutations_total{op=\"create\"} %d\n", s.appMetrics.created.Load())
	fmt.Fprintf(w, "transactions_mutations_total{op=\"update\"} %d\n", s.appMetrics.updated.Load())
	fmt.Fprintf(w, "transactions_mutations_total{op=\"delete\"} %d\n\n", s.appMetrics.deleted.Load())

	fmt.Fprintf(w, "# HELP rate_limit_rejections_total Requests refused by the rate limiter\n")
	fmt.Fprintf(w, "# TYPE rate_limit_rejections_total counter\n")
	fmt.Fprintf(w, "rate_limit_rejections_total %d\n\n", s.rateLimiter.Rejected())

	fmt.Fprintf(w, "# HELP rate_limit_active_clients Clients currently tracked\n")
	fmt.Fprintf(w, "# TYPE rate_limit_active_clients gauge\n")
	fmt.Fprintf(w, "rate_limit_active_clients %d\n\n", s.rateLimiter.ActiveClients())

	fmt.Fprintf(w, "# HELP suspicious_requests_total Requests flagged by the security detector\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", securityMetrics.SuspiciousRequests)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", time.Since(s.appMetrics.uptime).Seconds())
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Catalog())
}

// handleListTransactions serves GET /transactions?month=YYYY-MM.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	m, err := ParseMonthParam(r.URL.Query())
	if err != nil {
		writeServiceError(w, core.OpList, err)
		return
	}

	txs, err := s.service.ListMonth(ctx, owner.FromContext(ctx), m)
	if err != nil {
		s.logFailure(r, core.OpList, err, applog.NewFields().WithMonth(m.String()))
		writeServiceError(w, core.OpList, err)
		return
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

// handleCreateTransaction serves POST /transactions. An Idempotency-Key
// header makes retries of the same request return the first result.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	in, err := decodeInput(w, r)
	if err != nil {
		writeServiceError(w, core.OpCreate, err)
		return
	}

	key := r.Header.Get(client.IdempotencyKeyHeader)
	t, err := s.service.CreateTransaction(ctx, owner.FromContext(ctx), in, key)
	if err != nil {
		s.logFailure(r, core.OpCreate, err, applog.NewFields())
		writeServiceError(w, core.OpCreate, err)
		return
	}

	s.committed(r, core.OpCreate, t)
	writeJSON(w, http.StatusOK, t)
}

// handleUpdateTransaction serves PUT /transactions/{id} as a full replace.
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := parseID(r)
	if err != nil {
		writeServiceError(w, core.OpUpdate, err)
		return
	}
	in, err := decodeInput(w, r)
	if err != nil {
		writeServiceError(w, core.OpUpdate, err)
		return
	}

	t, err := s.service.UpdateTransaction(ctx, owner.FromContext(ctx), id, in)
	if err != nil {
		s.logFailure(r, core.OpUpdate, err, applog.NewFields().WithTransactionID(id))
		writeServiceError(w, core.OpUpdate, err)
		return
	}

	s.committed(r, core.OpUpdate, t)
	writeJSON(w, http.StatusOK, t)
}

// handleDeleteTransaction serves DELETE /transactions/{id}.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := parseID(r)
	if err != nil {
		writeServiceError(w, core.OpDelete, err)
		return
	}

	if err := s.service.DeleteTransaction(ctx, owner.FromContext(ctx), id); err != nil {
		s.logFailure(r, core.OpDelete, err, applog.NewFields().WithTransactionID(id))
		writeServiceError(w, core.OpDelete, err)
		return
	}

	s.countMutation(core.OpDelete)
	applog.FromContext(ctx).InfoContext(ctx, "Transaction deleted", "transaction_id", id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Transaction deleted successfully"})
}

func (s *Server) committed(r *http.Request, op string, t core.Transaction) {
	s.countMutation(op)
	applog.NewStructuredLogger(applog.FromContext(r.Context())).LogTransaction(r.Context(), op, t)
}

// logFailure logs server-side failures at error level; rejected input and
// missing rows are the caller's problem and only reach the access log.
func (s *Server) logFailure(r *http.Request, op string, err error, fields applog.LogFields) {
	if statusFor(err) < http.StatusInternalServerError {
		return
	}
	ctx := r.Context()
	applog.NewStructuredLogger(applog.FromContext(ctx)).LogError(ctx, "Transaction request failed", err,
		applog.ComponentHTTP, op, fields.WithOwner(owner.FromContext(ctx)))
}
