package httpapi

import (
	"net/http"

	"github.com/riskibarqy/matchday-tipster/internal/usecase"
)

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerAutomationRoutes(mux *http.ServeMux, handler *Handler, adminToken string) {
	admin := func(fn http.HandlerFunc) http.Handler {
		return RequireAdminToken(adminToken, fn)
	}

	mux.Handle("GET /v1/automation/status", admin(handler.GetStatus))
	mux.Handle("GET /v1/automation/timings", admin(handler.GetTimings))
	mux.Handle("GET /v1/automation/deliveries", admin(handler.ListDeliveries))
	mux.Handle("POST /v1/automation/start", admin(handler.StartAutomation))
	mux.Handle("POST /v1/automation/stop", admin(handler.StopAutomation))
	mux.Handle("POST /v1/automation/run/{action}", admin(handler.RunNow))
	mux.Handle("POST /v1/automation/settings/reload", admin(handler.ReloadSettings))
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST "+usecase.PredictionsWakeupPath, RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunPredictionsCheckJob)))
}
