package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/accountflow/reminder-service/internal/cache"
	"github.com/accountflow/reminder-service/internal/dispatch"
	"github.com/accountflow/reminder-service/internal/model"
	"github.com/accountflow/reminder-service/internal/repo"
	"github.com/accountflow/reminder-service/internal/scheduler"
)

// accountantHeader carries the authenticated accountant id, resolved by
// the auth proxy in front of this service.
const accountantHeader = "X-Accountant-ID"

// Dispatcher is the slice of the dispatch engine the API needs.
type Dispatcher interface {
	DispatchOne(ctx context.Context, reminderID, accountantID string) (dispatch.Result, error)
	DispatchDue(ctx context.Context, now time.Time, accountantID string) (dispatch.BatchResult, error)
}

type Handler struct {
	sched      *scheduler.Scheduler
	dispatcher Dispatcher
	reminders  repo.ReminderRepository
	settings   repo.SettingsRepository
	emailLog   repo.EmailLogRepository
	receipts   cache.ReceiptCache
}

func NewHandler(
	s *scheduler.Scheduler,
	d Dispatcher,
	reminders repo.ReminderRepository,
	settings repo.SettingsRepository,
	emailLog repo.EmailLogRepository,
	receipts cache.ReceiptCache,
) *Handler {
	return &Handler{
		sched:      s,
		dispatcher: d,
		reminders:  reminders,
		settings:   settings,
		emailLog:   emailLog,
		receipts:   receipts,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) SchedulerStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"running": h.sched.IsRunning()})
}

func (h *Handler) SchedulerStart(w http.ResponseWriter, r *http.Request) {
	h.sched.Start()
	writeJSON(w, http.StatusOK, map[string]any{"running": h.sched.IsRunning()})
}

func (h *Handler) SchedulerStop(w http.ResponseWriter, r *http.Request) {
	h.sched.Stop()
	writeJSON(w, http.StatusOK, map[string]any{"running": h.sched.IsRunning()})
}

// DispatchOne handles POST /v1/dispatch/{id}: the "send now" button for
// a single reminder, scoped to the calling accountant.
func (h *Handler) DispatchOne(w http.ResponseWriter, r *http.Request) {
	accountantID := r.Header.Get(accountantHeader)
	if accountantID == "" {
		http.Error(w, "missing "+accountantHeader+" header", http.StatusBadRequest)
		return
	}

	res, err := h.dispatcher.DispatchOne(r.Context(), r.PathValue("id"), accountantID)
	if err != nil {
		writeJSON(w, dispatchErrorStatus(err), map[string]any{
			"result": res,
			"error":  err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"result": res})
}

// DispatchDue handles POST /v1/dispatch/due?scope=all|mine. scope=all is
// the system-wide sweep the cron trigger uses; scope=mine processes only
// the calling accountant's pending reminders.
func (h *Handler) DispatchDue(w http.ResponseWriter, r *http.Request) {
	scope := r.URL.Query().Get("scope")
	if scope == "" {
		scope = "all"
	}

	var accountantID string
	switch scope {
	case "all":
	case "mine":
		accountantID = r.Header.Get(accountantHeader)
		if accountantID == "" {
			http.Error(w, "scope=mine requires "+accountantHeader+" header", http.StatusBadRequest)
			return
		}
	default:
		http.Error(w, "scope must be all or mine", http.StatusBadRequest)
		return
	}

	batch, err := h.dispatcher.DispatchDue(r.Context(), time.Now(), accountantID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, batch)
}

func (h *Handler) ListSentReminders(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"), 50)
	offset := parseInt(r.URL.Query().Get("offset"), 0)

	items, err := h.reminders.ListSent(r.Context(), limit, offset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// Receipt handles GET /v1/reminders/{id}/receipt from the short-lived
// delivery receipt cache.
func (h *Handler) Receipt(w http.ResponseWriter, r *http.Request) {
	if h.receipts == nil {
		http.Error(w, "receipt cache not configured", http.StatusNotFound)
		return
	}

	receipt, ok, err := h.receipts.GetReceipt(r.Context(), r.PathValue("id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "no receipt", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, receipt)
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	accountantID := r.Header.Get(accountantHeader)
	if accountantID == "" {
		http.Error(w, "missing "+accountantHeader+" header", http.StatusBadRequest)
		return
	}

	s, err := h.settings.GetOrCreateDefault(r.Context(), accountantID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, settingsPayload(s))
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	accountantID := r.Header.Get(accountantHeader)
	if accountantID == "" {
		http.Error(w, "missing "+accountantHeader+" header", http.StatusBadRequest)
		return
	}

	var req struct {
		IsEnabled           bool `json:"isEnabled"`
		MonthlyDaysBefore   int  `json:"monthlyDaysBefore"`
		QuarterlyDaysBefore int  `json:"quarterlyDaysBefore"`
		YearlyDaysBefore    int  `json:"yearlyDaysBefore"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	s := model.ReminderSettings{
		AccountantID:        accountantID,
		IsEnabled:           req.IsEnabled,
		MonthlyDaysBefore:   req.MonthlyDaysBefore,
		QuarterlyDaysBefore: req.QuarterlyDaysBefore,
		YearlyDaysBefore:    req.YearlyDaysBefore,
	}
	if err := s.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.settings.Update(r.Context(), s); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			http.Error(w, "settings not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, settingsPayload(s))
}

func (h *Handler) ListEmailLogs(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"), 50)
	offset := parseInt(r.URL.Query().Get("offset"), 0)

	items, err := h.emailLog.ListRecent(r.Context(), limit, offset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func settingsPayload(s model.ReminderSettings) map[string]any {
	return map[string]any{
		"isEnabled":           s.IsEnabled,
		"monthlyDaysBefore":   s.MonthlyDaysBefore,
		"quarterlyDaysBefore": s.QuarterlyDaysBefore,
		"yearlyDaysBefore":    s.YearlyDaysBefore,
	}
}

func dispatchErrorStatus(err error) int {
	var senderErr *dispatch.SenderError
	switch {
	case errors.Is(err, dispatch.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, dispatch.ErrMissingContact),
		errors.Is(err, dispatch.ErrUnsupportedType):
		return http.StatusUnprocessableEntity
	case errors.As(err, &senderErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func parseInt(raw string, def int) int {
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
