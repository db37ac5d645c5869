package api

import "net/http"

func Router(h *Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/health", h.Health)

	mux.HandleFunc("GET /v1/scheduler/status", h.SchedulerStatus)
	mux.HandleFunc("POST /v1/scheduler/start", h.SchedulerStart)
	mux.HandleFunc("POST /v1/scheduler/stop", h.SchedulerStop)

	mux.HandleFunc("POST /v1/dispatch/due", h.DispatchDue)
	mux.HandleFunc("POST /v1/dispatch/{id}", h.DispatchOne)

	mux.HandleFunc("GET /v1/reminders/sent", h.ListSentReminders)
	mux.HandleFunc("GET /v1/reminders/{id}/receipt", h.Receipt)

	mux.HandleFunc("GET /v1/settings", h.GetSettings)
	mux.HandleFunc("PUT /v1/settings", h.UpdateSettings)

	mux.HandleFunc("GET /v1/email-logs", h.ListEmailLogs)

	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("reminder-service"))
	})

	return mux
}
