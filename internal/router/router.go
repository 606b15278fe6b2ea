package router

import (
	"github.com/gin-gonic/gin"
	"github.com/realriphub/cmt-rr/internal/config"
	"github.com/realriphub/cmt-rr/internal/controller"
	"github.com/realriphub/cmt-rr/internal/logger"
	"github.com/realriphub/cmt-rr/internal/middleware"
	"github.com/realriphub/cmt-rr/pkg/auth"
)

// Handlers 路由依赖的控制器与中间件
type Handlers struct {
	Comment      *controller.CommentApi
	AdminComment *controller.AdminCommentApi
	Stats        *controller.StatsApi
	Visit        *controller.VisitApi
	Backup       *controller.BackupApi
	Setting      *controller.SettingApi
	Auth         *controller.AuthApi

	Tokens        *auth.Manager
	VisitThrottle *middleware.IPThrottle
	Cors          config.CorsConfig
}

// Setup 设置API路由
func Setup(r *gin.Engine, h *Handlers) {
	r.Use(logger.RequestID(), logger.GinLogger(), gin.Recovery(), middleware.Cors(h.Cors))

	// API 路由组
	api := r.Group("/api")

	setupPublicRoutes(api, h)
	setupAdminRoutes(api, h)
}

// setupPublicRoutes 评论组件使用的公开接口
func setupPublicRoutes(api *gin.RouterGroup, h *Handlers) {
	comments := api.Group("/comments")
	{
		comments.GET("", h.Comment.List)
		comments.POST("", h.Comment.Create)
		comments.POST("/:id/like", h.Comment.Like)
	}

	visit := []gin.HandlerFunc{middleware.VisitorID()}
	if h.VisitThrottle != nil {
		visit = append([]gin.HandlerFunc{h.VisitThrottle.Handler()}, visit...)
	}
	api.POST("/analytics/visit", append(visit, h.Visit.Visit)...)

	likes := api.Group("/like", middleware.VisitorID())
	{
		likes.GET("", h.Visit.PageLikes)
		likes.POST("", h.Visit.LikePage)
	}
}

// setupAdminRoutes 管理后台接口
func setupAdminRoutes(api *gin.RouterGroup, h *Handlers) {
	api.POST("/admin/login", h.Auth.Login)

	admin := api.Group("/admin", middleware.AdminAuth(h.Tokens))
	admin.POST("/logout", h.Auth.Logout)

	comments := admin.Group("/comments")
	{
		comments.GET("", h.AdminComment.List)
		comments.GET("/export", h.AdminComment.Export)
		comments.PUT("/:id/status", h.AdminComment.UpdateStatus)
		comments.PUT("/:id/priority", h.AdminComment.UpdatePriority)
		comments.DELETE("/:id", h.AdminComment.Delete)
	}

	admin.GET("/stats", h.Stats.CommentStats)
	admin.GET("/analytics/overview", h.Stats.VisitOverview)
	admin.GET("/analytics/pages", h.Stats.VisitPages)
	admin.GET("/domains", h.Stats.Domains)

	backup := admin.Group("/backup")
	{
		backup.GET("/export", h.Backup.Export)
		backup.POST("/import", h.Backup.Import)
		backup.POST("/s3", h.Backup.Upload)
		backup.GET("/s3/list", h.Backup.List)
		backup.GET("/s3/download", h.Backup.Download)
		backup.DELETE("/s3", h.Backup.Delete)
	}

	settings := admin.Group("/settings")
	{
		settings.GET("/email", h.Setting.GetEmail)
		settings.PUT("/email", h.Setting.UpdateEmail)
		settings.GET("/comment", h.Setting.GetComment)
		settings.PUT("/comment", h.Setting.UpdateComment)
		settings.GET("/s3", h.Setting.GetS3)
		settings.PUT("/s3", h.Setting.UpdateS3)
	}
}
