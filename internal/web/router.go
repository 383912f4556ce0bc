package web

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/basel-ax/imgworkshop/internal/config"
	"github.com/basel-ax/imgworkshop/internal/session"
)

const maxMultipartMemory = 32 << 20

// NewRouter wires middleware and routes around h
func NewRouter(cfg *config.Config, h *Handler, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.MaxMultipartMemory = maxMultipartMemory
	router.SetHTMLTemplate(pageTemplate)

	router.Use(
		gin.Recovery(),
		RequestID(),
		LogRequest(logger),
		session.Middleware(cfg.AppSecret),
	)

	router.GET("/", h.Index)
	router.POST("/", h.Index)
	router.POST("/download", h.Download)
	router.POST("/logout", h.Logout)
	router.GET("/healthz", h.Health)

	return router
}
