package main

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/moneave/vulnerability-monitor/docs"
	"github.com/moneave/vulnerability-monitor/internal/cache"
	apperrors "github.com/moneave/vulnerability-monitor/internal/errors"
	"github.com/moneave/vulnerability-monitor/internal/monitoring"
	"github.com/moneave/vulnerability-monitor/internal/pipeline"
	"github.com/moneave/vulnerability-monitor/internal/questionnaire"
	"github.com/moneave/vulnerability-monitor/internal/security"
	"github.com/moneave/vulnerability-monitor/internal/storage"
	"github.com/moneave/vulnerability-monitor/internal/types"
)

// Batch calls stay bounded so one request cannot monopolize the scorer.
const maxBatchInputs = 100

// app bundles the gateway's dependencies. predictor may be nil when the
// model artifacts failed to load; prediction routes then answer 503 while
// the rest of the service stays up for diagnosis.
type app struct {
	variant     *pipeline.Variant
	predictor   *pipeline.Pipeline
	validator   *questionnaire.Validator
	store       *storage.Store
	cache       *cache.Cache
	metrics     *monitoring.Metrics
	logger      *monitoring.Logger
	security    *security.Middleware
	corsOrigins []string
}

type batchError struct {
	Mensaje   string `json:"mensaje"`
	Categoria string `json:"categoria"`
	Campo     string `json:"campo,omitempty"`
}

type batchEntry struct {
	Resultado *pipeline.PredictionResult `json:"resultado,omitempty"`
	Error     *batchError                `json:"error,omitempty"`
}

func (a *app) router() *gin.Engine {
	r := gin.New()

	r.Use(monitoring.MonitoringMiddleware(a.metrics, a.logger))
	r.Use(monitoring.SecurityMonitoringMiddleware(a.logger))
	r.Use(apperrors.ErrorHandler())
	r.Use(apperrors.RecoveryHandler())

	r.Use(cors.New(cors.Config{
		AllowOrigins: a.corsOrigins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}))

	r.Use(security.SecurityHeaders)
	r.Use(a.security.RequestTimeout)
	r.Use(a.security.ValidateContentType)
	r.Use(a.security.LimitBodySize)
	r.Use(a.security.RateLimitByIP)

	r.Use(a.cache.Middleware(a.metrics))

	r.GET("/", a.handleRoot)
	r.GET("/health", a.handleHealth)
	r.GET("/questionnaire", a.handleQuestionnaire)
	r.GET("/model-info", a.handleModelInfo)
	r.GET("/metrics", a.handleMetrics)
	r.GET("/cache/stats", a.handleCacheStats)
	r.GET("/predictions/stats", a.handlePredictionStats)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.POST("/predict", a.handlePredict)
	r.POST("/predict/batch", a.handlePredictBatch)

	return r
}

func (a *app) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"nombre":      "API de Vulnerabilidad Económica",
		"version":     "1.0.0",
		"descripcion": "Predicción de vulnerabilidad económica basada en características socioeconómicas",
		"variante":    a.variant.Name,
		"endpoints": gin.H{
			"/health":             "Health check",
			"/questionnaire":      "Esquema del cuestionario",
			"/model-info":         "Identidad del modelo cargado",
			"/predict":            "Predicción individual (POST)",
			"/predict/batch":      "Predicción por lotes (POST)",
			"/metrics":            "Contadores del servicio",
			"/predictions/stats":  "Agregados del registro de auditoría",
			"/swagger/index.html": "Documentación Swagger",
		},
	})
}

func (a *app) handleHealth(c *gin.Context) {
	if a.predictor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unavailable",
			"message": "Pipeline no inicializado",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"message":   "API funcionando correctamente",
		"variant":   a.variant.Name,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (a *app) handleQuestionnaire(c *gin.Context) {
	doc, err := questionnaire.Document(a.variant.Name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Esquema del cuestionario no encontrado"})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", doc)
}

func (a *app) handleModelInfo(c *gin.Context) {
	if a.predictor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Pipeline no disponible"})
		return
	}
	c.JSON(http.StatusOK, a.predictor.ModelInfo())
}

func (a *app) handleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, a.metrics.GetStats())
}

func (a *app) handleCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, a.cache.Stats())
}

func (a *app) handlePredictionStats(c *gin.Context) {
	stats, err := a.store.Stats()
	if err != nil {
		appErr := apperrors.NewInternalError("failed to aggregate prediction stats", err)
		apperrors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (a *app) handlePredict(c *gin.Context) {
	if a.predictor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Pipeline no disponible. Contacte al administrador."})
		return
	}

	var raw types.RawAnswers
	if err := c.ShouldBindJSON(&raw); err != nil {
		appErr := apperrors.NewValidationError("request body is not a JSON object", err.Error())
		apperrors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	if err := a.validator.Validate(raw); err != nil {
		appErr := apperrors.ToAppError(err)
		apperrors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	start := time.Now()
	result, err := a.predictor.Predict(raw)
	if err != nil {
		if apperrors.IsMappingError(err) {
			a.metrics.IncrementMappingError()
		}
		appErr := apperrors.ToAppError(err)
		apperrors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}
	duration := time.Since(start)

	fallbacks := len(a.predictor.FallbackFields(raw))
	a.recordOutcome(&result, fallbacks, duration)
	a.logger.PredictionLogger(a.variant.Name, result.EsVulnerable,
		result.ProbabilidadVulnerable, result.NivelRiesgo,
		fallbacks, duration, c.GetBool("cache_hit"))

	c.JSON(http.StatusOK, result)
}

func (a *app) handlePredictBatch(c *gin.Context) {
	if a.predictor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Pipeline no disponible. Contacte al administrador."})
		return
	}
	a.metrics.IncrementBatchRequest()

	var req types.BatchPredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := apperrors.NewValidationError("request body must carry an inputs list", err.Error())
		apperrors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}
	if len(req.Inputs) == 0 {
		appErr := apperrors.NewValidationError("inputs must contain at least one answer set")
		apperrors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}
	if len(req.Inputs) > maxBatchInputs {
		appErr := apperrors.NewValidationError("too many inputs in one batch",
			maxBatchInputs)
		apperrors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	entries := make([]batchEntry, len(req.Inputs))
	succeeded := 0

	for i, raw := range req.Inputs {
		if err := a.validator.Validate(raw); err != nil {
			entries[i] = errorEntry(err)
			continue
		}

		start := time.Now()
		result, err := a.predictor.Predict(raw)
		if err != nil {
			if apperrors.IsMappingError(err) {
				a.metrics.IncrementMappingError()
			}
			entries[i] = errorEntry(err)
			continue
		}

		fallbacks := len(a.predictor.FallbackFields(raw))
		a.recordOutcome(&result, fallbacks, time.Since(start))
		entries[i] = batchEntry{Resultado: &result}
		succeeded++
	}

	c.JSON(http.StatusOK, gin.H{
		"resultados": entries,
		"total":      len(entries),
		"exitosos":   succeeded,
	})
}

func errorEntry(err error) batchEntry {
	appErr := apperrors.ToAppError(err)
	return batchEntry{Error: &batchError{
		Mensaje:   appErr.ErrBuilder.Msg,
		Categoria: string(appErr.Category),
		Campo:     appErr.Field,
	}}
}

// recordOutcome feeds the counters and the audit trail after a served
// prediction. The audit write is asynchronous and may be a no-op when the
// service runs without storage.
func (a *app) recordOutcome(result *pipeline.PredictionResult, fallbacks int, duration time.Duration) {
	a.metrics.RecordPrediction(result.EsVulnerable, result.NivelRiesgo)
	a.store.SaveAsync(storage.Record{
		Variant:       a.variant.Name,
		Vulnerable:    result.EsVulnerable,
		Probability:   result.ProbabilidadVulnerable,
		Threshold:     result.UmbralUsado,
		RiskLevel:     result.NivelRiesgo,
		FallbackCount: fallbacks,
		LatencyMs:     duration.Milliseconds(),
	})
}
