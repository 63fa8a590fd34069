package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/pinehill-dev/pinehill/internal/buildinfo"
	"github.com/pinehill-dev/pinehill/internal/id"
	"github.com/pinehill-dev/pinehill/internal/ingest"
	"github.com/pinehill-dev/pinehill/internal/ledger"
	"github.com/pinehill-dev/pinehill/internal/logging"
	"github.com/pinehill-dev/pinehill/internal/model"
	"github.com/pinehill-dev/pinehill/internal/reconcile"
	"github.com/pinehill-dev/pinehill/internal/report"
)

var validate = validator.New()

// Deps are the collaborators the HTTP adapter calls into.
type Deps struct {
	Store    *ledger.Store
	Pipeline *ingest.Pipeline
	Engine   *reconcile.Engine
	Reports  *report.Service
	Logger   logrus.FieldLogger
}

// Server exposes ingestion, reporting and manual edits over HTTP.
type Server struct {
	deps Deps
	log  logrus.FieldLogger
}

// New creates a Server.
func New(deps Deps) *Server {
	log := deps.Logger
	if log == nil {
		log = logging.Discard()
	}
	return &Server{deps: deps, log: log}
}

// Router returns the HTTP routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc(Health, s.health).Methods(http.MethodGet)
	r.HandleFunc(EventsSMS, s.receiveSMS).Methods(http.MethodPost)

	r.HandleFunc(Units, s.listUnits).Methods(http.MethodGet)
	r.HandleFunc(UnitStats, s.unitStats).Methods(http.MethodGet)
	r.HandleFunc(UnitHistory, s.unitHistory).Methods(http.MethodGet)
	r.HandleFunc(PendingPayments, s.pendingPayments).Methods(http.MethodGet)
	r.HandleFunc(Months, s.months).Methods(http.MethodGet)
	r.HandleFunc(MonthlyReport, s.monthlyReport).Methods(http.MethodGet)

	r.HandleFunc(Payments, s.recordPayment).Methods(http.MethodPost)
	r.HandleFunc(PaymentAttribute, s.attribute).Methods(http.MethodPost)
	r.HandleFunc(PaymentStatus, s.setStatus).Methods(http.MethodPut)
	r.HandleFunc(Tenants, s.createTenant).Methods(http.MethodPost)
	r.HandleFunc(Tenant, s.deleteTenant).Methods(http.MethodDelete)
	r.HandleFunc(Unit, s.editUnit).Methods(http.MethodPut)
	r.HandleFunc(Expense, s.editExpense).Methods(http.MethodPut)
	r.HandleFunc(Expense, s.deleteExpense).Methods(http.MethodDelete)
	r.HandleFunc(Sweep, s.sweep).Methods(http.MethodPost)
	return r
}

// Run serves on addr until ctx is cancelled, then drains in-flight requests
// and notified events.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("Listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http: %w", err)
	}
	if s.deps.Pipeline != nil {
		s.deps.Pipeline.Wait()
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Store.Ping(r.Context()); err != nil {
		respondError(w, s.log, http.StatusServiceUnavailable, ErrCodeUnavailable, "Ledger unavailable", err)
		return
	}
	respondJSON(w, http.StatusOK, HealthResponse{Status: "OK", Version: buildinfo.Version})
}

// receiveSMS accepts an event and returns before it is processed.
func (s *Server) receiveSMS(w http.ResponseWriter, r *http.Request) {
	var req SMSEventRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.deps.Pipeline.Notify(context.WithoutCancel(r.Context()), req.Source, req.Text)
	respondJSON(w, http.StatusAccepted, AcceptedResponse{Status: "accepted"})
}

func (s *Server) listUnits(w http.ResponseWriter, r *http.Request) {
	var (
		units []model.Unit
		err   error
	)
	if st := r.URL.Query().Get("status"); st != "" {
		status := model.UnitStatus(st)
		if !status.Valid() {
			respondError(w, s.log, http.StatusBadRequest, ErrCodeValidation, fmt.Sprintf("unknown unit status %q", st), nil)
			return
		}
		units, err = s.deps.Reports.UnitsByStatus(r.Context(), status)
	} else {
		units, err = s.deps.Reports.AllUnits(r.Context())
	}
	if err != nil {
		s.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNil(units))
}

func (s *Server) unitStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.Reports.UnitStats(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (s *Server) unitHistory(w http.ResponseWriter, r *http.Request) {
	h, err := s.deps.Reports.UnitHistory(r.Context(), mux.Vars(r)["unit_id"])
	if err != nil {
		s.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h)
}

func (s *Server) pendingPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := s.deps.Reports.PendingPayments(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNil(payments))
}

func (s *Server) months(w http.ResponseWriter, r *http.Request) {
	months, err := s.deps.Reports.Months(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNil(months))
}

func (s *Server) monthlyReport(w http.ResponseWriter, r *http.Request) {
	month := mux.Vars(r)["month"]
	if _, _, err := id.ParseMonth(month); err != nil {
		respondError(w, s.log, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
		return
	}
	sum, err := s.deps.Reports.MonthlySummary(r.Context(), month)
	if err != nil {
		s.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sum)
}

func (s *Server) recordPayment(w http.ResponseWriter, r *http.Request) {
	var req ManualPaymentRequest
	if !s.decode(w, r, &req) {
		return
	}
	if _, _, err := id.ParseMonth(req.Month); err != nil {
		respondError(w, s.log, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
		return
	}
	p, res, err := s.deps.Engine.RecordPayment(r.Context(), reconcile.ManualPayment{
		TenantKey:  req.TenantKey,
		Month:      req.Month,
		Amount:     req.Amount,
		PaidAt:     req.PaidAt,
		SenderName: req.SenderName,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, ManualPaymentResponse{Payment: p, Result: res})
}

func (s *Server) attribute(w http.ResponseWriter, r *http.Request) {
	paymentID, ok := s.paymentID(w, r)
	if !ok {
		return
	}
	var req AttributeRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.deps.Engine.Attribute(r.Context(), paymentID, req.TenantKey)
	if err != nil {
		s.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) setStatus(w http.ResponseWriter, r *http.Request) {
	paymentID, ok := s.paymentID(w, r)
	if !ok {
		return
	}
	var req StatusRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.deps.Engine.SetStatus(r.Context(), paymentID, model.PaymentStatus(req.Status))
	if err != nil {
		s.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) createTenant(w http.ResponseWriter, r *http.Request) {
	var req TenantRequest
	if !s.decode(w, r, &req) {
		return
	}
	if _, err := s.deps.Store.GetUnit(r.Context(), req.UnitID); err != nil {
		s.fail(w, err)
		return
	}
	t := &model.Tenant{
		TenantKey: id.TenantKey(req.Name, req.Phone),
		Name:      req.Name,
		Phone:     req.Phone,
		UnitID:    req.UnitID,
	}
	if err := s.deps.Store.CreateTenant(r.Context(), t); err != nil {
		s.fail(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, t)
}

func (s *Server) deleteTenant(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Store.DeleteTenant(r.Context(), mux.Vars(r)["tenant_key"]); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) editUnit(w http.ResponseWriter, r *http.Request) {
	var req UnitEditRequest
	if !s.decode(w, r, &req) {
		return
	}
	edit := ledger.UnitEdit{TargetPrice: req.TargetPrice}
	if req.Status != nil {
		status := model.UnitStatus(*req.Status)
		edit.Status = &status
	}
	u, err := s.deps.Store.EditUnit(r.Context(), mux.Vars(r)["unit_id"], edit)
	if err != nil {
		s.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}

func (s *Server) editExpense(w http.ResponseWriter, r *http.Request) {
	expenseID, ok := s.expenseID(w, r)
	if !ok {
		return
	}
	var req ExpenseEditRequest
	if !s.decode(w, r, &req) {
		return
	}
	edit := ledger.ExpenseEdit{Memo: req.Memo, UnitID: req.UnitID}
	if req.Category != nil {
		category := model.ExpenseCategory(*req.Category)
		edit.Category = &category
	}
	e, err := s.deps.Store.EditExpense(r.Context(), expenseID, edit)
	if err != nil {
		s.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, e)
}

func (s *Server) deleteExpense(w http.ResponseWriter, r *http.Request) {
	expenseID, ok := s.expenseID(w, r)
	if !ok {
		return
	}
	if err := s.deps.Store.DeleteExpense(r.Context(), expenseID); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) sweep(w http.ResponseWriter, r *http.Request) {
	var req SweepRequest
	if r.ContentLength != 0 && !s.decode(w, r, &req) {
		return
	}
	sum, err := s.deps.Engine.Sweep(r.Context(), req.Month)
	if err != nil {
		s.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sum)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, s.log, http.StatusBadRequest, ErrCodeInvalidPayload, "Invalid JSON payload", err)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		respondError(w, s.log, http.StatusBadRequest, ErrCodeValidation, err.Error(), err)
		return false
	}
	return true
}

func (s *Server) paymentID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	return s.pathID(w, r, "payment_id")
}

func (s *Server) expenseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	return s.pathID(w, r, "expense_id")
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := mux.Vars(r)[name]
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		respondError(w, s.log, http.StatusBadRequest, ErrCodeValidation, fmt.Sprintf("invalid %s %q", strings.ReplaceAll(name, "_", " "), raw), nil)
		return 0, false
	}
	return v, true
}

// fail maps domain errors onto HTTP statuses.
func (s *Server) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrNotFound), errors.Is(err, reconcile.ErrTenantNotFound):
		respondError(w, s.log, http.StatusNotFound, ErrCodeNotFound, err.Error(), err)
	case errors.Is(err, reconcile.ErrInvalidStatus), errors.Is(err, ledger.ErrInvalid):
		respondError(w, s.log, http.StatusBadRequest, ErrCodeValidation, err.Error(), err)
	case errors.Is(err, ledger.ErrConstraintViolation):
		respondError(w, s.log, http.StatusConflict, ErrCodeConflict, "Conflicts with existing ledger data", err)
	default:
		respondError(w, s.log, http.StatusInternalServerError, ErrCodeInternal, "Internal server error", err)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		}).Debug("Handled request")
	})
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
