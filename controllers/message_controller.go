package controllers

import (
	"net/http"
	"strconv"

	"service-market/models"
	"service-market/utils"

	"github.com/gin-gonic/gin"
)

// GetConversationMessages 分页获取会话消息（升序）
func GetConversationMessages(c *gin.Context) {
	userInfo, ok := currentUser(c)
	if !ok {
		return
	}
	conversationID, ok := paramUint(c, "id")
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	messages, err := messageService.GetConversationMessages(conversationID, userInfo.ID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.RespondSuccess(c, messages, gin.H{"limit": limit, "offset": offset})
}

// SendMessage REST 入口发送消息；成功后同样走 Hub 广播
func SendMessage(c *gin.Context) {
	userInfo, ok := currentUser(c)
	if !ok {
		return
	}
	conversationID, ok := paramUint(c, "id")
	if !ok {
		return
	}

	var input struct {
		Content     string             `json:"content" binding:"required"`
		MessageType models.MessageType `json:"messageType"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := messageService.SendMessage(conversationID, userInfo.ID, input.Content, input.MessageType)
	if err != nil {
		respondError(c, err)
		return
	}

	// 与 WebSocket 发送路径走同一个推送入口，
	// 不在会话视图中的接收方同样能收到私有频道通知
	hub.PublishMessage(conversationID, userInfo.ID, message)

	utils.RespondSuccess(c, message, nil)
}

// MarkMessageAsRead 单条消息已读
func MarkMessageAsRead(c *gin.Context) {
	userInfo, ok := currentUser(c)
	if !ok {
		return
	}
	messageID, ok := paramUint(c, "messageId")
	if !ok {
		return
	}

	if err := messageService.MarkMessageAsRead(messageID, userInfo.ID); err != nil {
		respondError(c, err)
		return
	}
	utils.RespondSuccess(c, gin.H{"messageId": messageID}, nil)
}

// MarkConversationMessagesAsRead 批量已读 + 未读数清零
func MarkConversationMessagesAsRead(c *gin.Context) {
	userInfo, ok := currentUser(c)
	if !ok {
		return
	}
	conversationID, ok := paramUint(c, "id")
	if !ok {
		return
	}

	if err := messageService.MarkConversationMessagesAsRead(conversationID, userInfo.ID); err != nil {
		respondError(c, err)
		return
	}
	utils.RespondSuccess(c, gin.H{"conversationId": conversationID}, nil)
}

// DeleteMessage 删除消息（仅发送者）
func DeleteMessage(c *gin.Context) {
	userInfo, ok := currentUser(c)
	if !ok {
		return
	}
	messageID, ok := paramUint(c, "messageId")
	if !ok {
		return
	}

	deleted, err := messageService.DeleteMessage(messageID, userInfo.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Message not found"})
		return
	}
	utils.RespondSuccess(c, gin.H{"deleted": true}, nil)
}
