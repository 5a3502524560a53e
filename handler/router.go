package handler

import (
	"net/http"

	"dinein_order/auth"
	"dinein_order/logger"

	"github.com/gin-gonic/gin"
)

// SetupRouter 注册小程序端和管理端路由
func SetupRouter(mode string, h *Handler) *gin.Engine {
	if mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(RequestID(), logger.GinLogger(), logger.GinRecovery(true), auth.Middleware())

	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	mini := r.Group("/mini", auth.RequireRole(auth.RoleUser))
	{
		mini.POST("/order/create", h.CreateOrder)
		mini.POST("/order/pay", h.PayOrder)
		mini.POST("/order/cancel", h.UserCancelOrder)
		mini.GET("/order/list", h.UserOrderPage)
		mini.GET("/order/detail/:id", h.UserOrderDetail)
		mini.GET("/order/table/:code", h.TableIDByCode)
		mini.GET("/table/info/:ref", h.TableInfo)
	}

	admin := r.Group("/admin", auth.RequireRole(auth.RoleAdmin))
	{
		admin.GET("/order/page", h.AdminOrderPage)
		admin.GET("/order/detail/:id", h.AdminOrderDetail)
		admin.POST("/order/accept", h.AcceptOrder)
		admin.POST("/order/complete", h.CompleteOrder)
		admin.POST("/order/cancel", h.AdminCancelOrder)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, Response{Code: CodeError, Msg: "404"})
	})
	return r
}
