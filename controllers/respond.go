package controllers

import (
	"log"
	"net/http"
	"strconv"

	"service-market/models"
	apperrors "service-market/pkg/errors"
	"service-market/services"

	"github.com/gin-gonic/gin"
)

// 包级依赖，由 main 在启动时注入
var (
	conversationService *services.ConversationService
	messageService      *services.MessageService
	hub                 *services.Hub
)

// Setup 注入控制器依赖
func Setup(convs *services.ConversationService, msgs *services.MessageService, h *services.Hub) {
	conversationService = convs
	messageService = msgs
	hub = h
}

// respondError 把业务错误映射为 HTTP 状态码，错误文本原样返回
func respondError(c *gin.Context, err error) {
	code := apperrors.CodeOf(err)
	if code == apperrors.CodeUnknown {
		log.Println("Internal error:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(code.HTTPStatus(), gin.H{"error": err.Error(), "code": code})
}

// currentUser 从上下文取出认证中间件放入的用户
func currentUser(c *gin.Context) (*models.User, bool) {
	user, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return nil, false
	}
	userInfo, ok := user.(*models.User)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user data"})
		return nil, false
	}
	return userInfo, true
}

// paramUint 解析路径参数里的数字ID
func paramUint(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(v), true
}
