package api

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	"order-desk/app"
	"order-desk/config"
	_ "order-desk/docs"
	"order-desk/logger"
	"order-desk/models"
)

var (
	router  http.Handler
	initErr error
	once    sync.Once
)

func initApp() {
	once.Do(func() {
		cfg := config.LoadConfig()
		logger.Init(cfg.IsProduction())
		gin.SetMode(gin.ReleaseMode)

		application, err := app.New(context.Background(), cfg)
		if err != nil {
			initErr = err
			logger.L.Error("failed to initialize application", "error", err)
			return
		}
		router = application.Engine
	})
}

// Handler is the serverless entry point. The application is built once per
// instance and reused across invocations.
func Handler(w http.ResponseWriter, r *http.Request) {
	initApp()
	if initErr != nil {
		serveUnavailable(w)
		return
	}
	router.ServeHTTP(w, r)
}

func serveUnavailable(w http.ResponseWriter) {
	body := render.JSON{Data: models.ErrorResponse{Message: "Service unavailable"}}
	body.WriteContentType(w)
	w.WriteHeader(http.StatusServiceUnavailable)
	_ = body.Render(w)
}
