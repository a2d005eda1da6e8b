package router

import (
	"net/http"
	"time"

	"vr-eyetracking/internal/config"
	"vr-eyetracking/internal/handlers"
	"vr-eyetracking/internal/services"
	"vr-eyetracking/internal/utils"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

const sessionName = "gazesession"

// Dependencies are the long-lived services the handlers are built from.
type Dependencies struct {
	Stimuli     *services.StimulusService
	Calibration *services.CalibrationService
	Analysis    *services.AnalysisService
	Workspaces  *services.WorkspaceRegistry
}

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func errorHandler(c *gin.Context, info ratelimit.Info) {
	c.JSON(http.StatusTooManyRequests, gin.H{
		"error":       "Too many requests. Try again later.",
		"retry_after": time.Until(info.ResetTime).Round(time.Second).String(),
	})
}

func Setup(log *zap.Logger, conf *config.Config, deps Dependencies) *gin.Engine {
	// Set up a new Gin router, add recovery middleware and request logging.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(RequestLogger(log))

	secret, generated, err := utils.SessionSecret(conf.Server.SessionSecret)
	if err != nil {
		log.Fatal("Failed to generate session secret", zap.Error(err))
	}
	if generated {
		log.Warn("No session secret configured, using a random one; workspaces will not survive a restart")
	}
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   !conf.Server.IsDevelopment,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400 * 7,
	})
	router.Use(sessions.Sessions(sessionName, store))

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ContentSecurityPolicy: "default-src 'none'; img-src 'self' data:; frame-ancestors 'none'",
		IsDevelopment:         conf.Server.IsDevelopment,
	})
	router.Use(func(c *gin.Context) {
		err := secureMiddleware.Process(c.Writer, c.Request)
		if err != nil {
			c.Abort()
			return
		}
	})
	router.Use(ValidatePathParams())

	// Handlers and routes
	roiHandler := handlers.NewROIHandler(log)
	stimulusHandler := handlers.NewStimulusHandler(log, deps.Stimuli)
	trajectoryHandler := handlers.NewTrajectoryHandler(log)
	calibrationHandler := handlers.NewCalibrationHandler(log, deps.Calibration)
	analysisHandler := handlers.NewAnalysisHandler(log, deps.Analysis)
	chartsHandler := handlers.NewChartsHandler(log, deps.Analysis)
	workspaceHandler := handlers.NewWorkspaceHandler(log, deps.Stimuli, deps.Calibration, conf.Calibration.Debounce())

	limit := conf.Server.SaveRateLimit
	if limit == 0 {
		limit = 30
	}
	rateLimitStore := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: limit,
	})
	limiter := ratelimit.RateLimiter(rateLimitStore, &ratelimit.Options{
		ErrorHandler: errorHandler,
		KeyFunc:      keyFunc,
	})

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		api.GET("/roi/:version", roiHandler.ListTasks)
		api.GET("/roi/:version/:task", roiHandler.Get)
		api.PUT("/roi/:version/:task", roiHandler.Save)

		api.GET("/stimuli", stimulusHandler.List)
		api.GET("/stimuli/:version/:task", stimulusHandler.Metadata)

		api.GET("/trajectories", trajectoryHandler.List)
		api.GET("/trajectories/:group/:subject/:task", trajectoryHandler.Get)
		api.PUT("/trajectories/:group/:subject/:task", trajectoryHandler.Put)

		calibrationRoutes := api.Group("/calibration/:group/:subject/:task")
		{
			calibrationRoutes.POST("", limiter, calibrationHandler.Save)
			calibrationRoutes.GET("/params", calibrationHandler.Params)
			calibrationRoutes.GET("/data", calibrationHandler.Data)
			calibrationRoutes.GET("/versions", calibrationHandler.Versions)
			calibrationRoutes.POST("/restore", limiter, calibrationHandler.Restore)
		}

		api.POST("/analysis", analysisHandler.Analyze)
		api.GET("/analysis/:version/:task/:group/:subject", analysisHandler.Stored)
		api.GET("/charts/:version/:task/:group/:subject", chartsHandler.Get)
	}

	workspace := api.Group("/workspace")
	workspace.Use(WorkspaceMiddleware(log, deps.Workspaces))
	workspace.Use(CSRFProtection(log))
	{
		workspace.GET("/feed", workspaceHandler.Feed)

		editorRoutes := workspace.Group("/editor")
		{
			editorRoutes.POST("/open", workspaceHandler.OpenEditor)
			editorRoutes.GET("", workspaceHandler.EditorState)
			editorRoutes.POST("/mode", workspaceHandler.SetMode)
			editorRoutes.POST("/pointer", workspaceHandler.Pointer)
			editorRoutes.POST("/select", workspaceHandler.Select)
			editorRoutes.GET("/render", workspaceHandler.Render)
			editorRoutes.PATCH("/regions/:id", workspaceHandler.UpdateRegion)
			editorRoutes.DELETE("/regions/:id", workspaceHandler.DeleteRegion)
			editorRoutes.POST("/inline/:id/begin", workspaceHandler.InlineBegin)
			editorRoutes.POST("/inline/:id/set", workspaceHandler.InlineSet)
			editorRoutes.POST("/inline/:id/commit", workspaceHandler.InlineCommit)
			editorRoutes.POST("/inline/:id/cancel", workspaceHandler.InlineCancel)
			editorRoutes.POST("/save", workspaceHandler.SaveEditor)
		}

		calibrationSession := workspace.Group("/calibration")
		{
			calibrationSession.POST("/open", workspaceHandler.OpenCalibration)
			calibrationSession.POST("/param", workspaceHandler.SetParam)
			calibrationSession.GET("/preview", workspaceHandler.Preview)
			calibrationSession.GET("/versions", workspaceHandler.CalibrationVersions)
			calibrationSession.POST("/save", limiter, workspaceHandler.SaveCalibration)
			calibrationSession.POST("/reset", workspaceHandler.ResetCalibration)
			calibrationSession.POST("/restore", limiter, workspaceHandler.RestoreCalibration)
		}
	}

	return router
}
