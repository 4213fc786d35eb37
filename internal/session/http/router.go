package http

import "github.com/gin-gonic/gin"

func (h *Handler) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	auth.POST("/login", h.Login)
	auth.POST("/signup", h.SignUp)
	auth.POST("/logout", h.Logout)
	auth.POST("/refresh", h.Refresh)
	auth.POST("/verify-email/resend", h.ResendVerification)
	auth.GET("/session", h.GetSession)
	auth.PUT("/profile", h.UpdateProfile)

	rg.GET("/route", h.RouteVerdict)
}
