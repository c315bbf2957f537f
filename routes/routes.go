package routes

import (
	"service-market/controllers"
	"service-market/middlewares"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes 注册所有路由
func RegisterRoutes() *gin.Engine {

	r := gin.Default()
	// 配置跨域中间件
	corsConfig := cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}

	r.Use(cors.New(corsConfig))
	r.GET("/ws", controllers.WSController)

	protected := r.Group("/api")

	protected.POST("/register", controllers.Register) // 绑定注册接口
	protected.POST("/login", controllers.Login)       // 绑定登录接口

	{
		protected.Use(middlewares.TokenAuthMiddleware())
		protected.GET("/userinfo", controllers.GetUserInfo)
		protected.GET("/users/:userId/online", controllers.GetUserOnline)

		// 报价
		protected.POST("/offers", controllers.CreateOffer)
		protected.GET("/offers", controllers.GetOffers)
		protected.GET("/offers/:id", controllers.GetOfferByID)
		protected.POST("/offers/:id/contact", controllers.ContactOffer)

		// 会话
		protected.POST("/conversations", controllers.CreateConversation)
		protected.GET("/conversations", controllers.GetUserConversations)
		protected.GET("/conversations/:id", controllers.GetConversationByID)
		protected.PUT("/conversations/:id/read", controllers.MarkConversationAsRead)
		protected.PUT("/conversations/:id/archive", controllers.ArchiveConversation)
		protected.PUT("/conversations/:id/close", controllers.CloseConversation)
		protected.DELETE("/conversations/:id", controllers.DeleteConversation)

		// 消息
		protected.GET("/conversations/:id/messages", controllers.GetConversationMessages)
		protected.POST("/conversations/:id/messages", controllers.SendMessage)
		protected.PUT("/conversations/:id/messages/read", controllers.MarkConversationMessagesAsRead)
		protected.PUT("/messages/:messageId/read", controllers.MarkMessageAsRead)
		protected.DELETE("/messages/:messageId", controllers.DeleteMessage)
	}

	return r
}
