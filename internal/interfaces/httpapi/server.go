package httpapi

import (
	"net/http"

	"github.com/riskibarqy/matchday-tipster/internal/platform/logging"
)

type RouterConfig struct {
	AdminToken         string
	InternalJobToken   string
	CORSAllowedOrigins []string
}

func NewRouter(handler *Handler, cfg RouterConfig, logger *logging.Logger) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Named("http")

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler)
	registerAutomationRoutes(mux, handler, cfg.AdminToken)
	registerInternalJobRoutes(mux, handler, cfg.InternalJobToken)

	return RequestTracing(RequestLogging(logger, CORS(cfg.CORSAllowedOrigins, recoverPanic(logger, mux))))
}
