package v1

import "github.com/labstack/echo/v5"

// Routes wires the v1 API onto e. /healthz and /metrics stay unauthenticated.
func Routes(e *echo.Echo, h *Handler, tokens map[string]string, version, commit string) {
	e.Use(MetricsMiddleware())

	e.GET("/healthz", Healthz(version, commit, h.Registry.Protocols()))
	e.GET("/metrics", MetricsHandler())

	api := e.Group("/v1", AuthMiddleware(tokens))

	api.GET("/exports", h.ListExports)

	api.POST("/shares", h.EnableShare)
	api.DELETE("/shares", h.DisableShare)
	api.GET("/shares/status", h.ShareStatus)

	api.POST("/validate", h.ValidateOptions)
	api.POST("/commit", h.Commit)
}
