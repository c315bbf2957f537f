package main

import (
	"log"

	"service-market/config"
	"service-market/controllers"
	"service-market/models"
	"service-market/repositories"
	"service-market/routes"
	"service-market/services"
)

func main() {
	// 初始化配置与数据库
	config.LoadEnv()
	config.InitDB()
	config.InitRedis()
	// 自动迁移
	models.Migrate()

	// 存储层
	conversationRepo := repositories.NewConversationRepository(config.DB)
	messageRepo := repositories.NewMessageRepository(config.DB)
	userRepo := repositories.NewUserRepository(config.DB)
	offerRepo := repositories.NewOfferRepository(config.DB)

	// 业务层
	conversationService := services.NewConversationService(conversationRepo, offerRepo, userRepo)
	messageService := services.NewMessageService(messageRepo, conversationRepo, userRepo)

	// 实时推送
	presence := services.NewPresenceMirror(config.Redis)
	hub := services.NewHub(conversationService, messageService, presence)
	go hub.Run()

	controllers.Setup(conversationService, messageService, hub)

	// 注册路由
	r := routes.RegisterRoutes()

	// 启动服务
	if err := r.Run(config.ListenAddr()); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
