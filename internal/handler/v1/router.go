package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/citamed/citamed/internal/config"
	"github.com/citamed/citamed/pkg/auth"
	"github.com/citamed/citamed/pkg/metrics"
)

type RouterDeps struct {
	Config    *config.Config
	Log       *zap.Logger
	JWT       *auth.JWTManager
	Collector *metrics.Collector

	Auth         *AuthHandler
	Appointments *AppointmentHandler
	Doctors      *DoctorHandler
	Triage       *TriageHandler
}

func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		RequestID(),
		RequestLogger(deps.Log),
		Metrics(deps.Collector),
		gin.Recovery(),
	)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	api := r.Group("/api/v1")
	deps.Auth.RegisterRoutes(api)

	protected := api.Group("")
	protected.Use(AuthRequired(deps.JWT))
	deps.Auth.RegisterProtectedRoutes(protected)
	deps.Appointments.RegisterRoutes(protected)
	deps.Doctors.RegisterRoutes(protected)
	deps.Triage.RegisterRoutes(protected)

	return r
}
