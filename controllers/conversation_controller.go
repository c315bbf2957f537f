package controllers

import (
	"net/http"

	apperrors "service-market/pkg/errors"
	"service-market/utils"

	"github.com/gin-gonic/gin"
)

// CreateConversation 创建（或复用）会话
func CreateConversation(c *gin.Context) {
	userInfo, ok := currentUser(c)
	if !ok {
		return
	}

	var input struct {
		OfferID uint `json:"offerId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	conv, err := conversationService.CreateOrGet(input.OfferID, userInfo.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.RespondSuccess(c, conv, nil)
}

// ContactOffer 联系报价的快捷入口，等价于创建会话
func ContactOffer(c *gin.Context) {
	userInfo, ok := currentUser(c)
	if !ok {
		return
	}
	offerID, ok := paramUint(c, "id")
	if !ok {
		return
	}

	conv, err := conversationService.CreateOrGet(offerID, userInfo.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.RespondSuccess(c, conv, nil)
}

// GetConversationByID 会话详情，仅成员可见
func GetConversationByID(c *gin.Context) {
	userInfo, ok := currentUser(c)
	if !ok {
		return
	}
	conversationID, ok := paramUint(c, "id")
	if !ok {
		return
	}

	conv, err := conversationService.GetByID(conversationID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !conv.IsParticipant(userInfo.ID) {
		respondError(c, apperrors.ErrNotParticipant)
		return
	}
	utils.RespondSuccess(c, conv, nil)
}

// GetUserConversations 当前用户的会话列表
func GetUserConversations(c *gin.Context) {
	userInfo, ok := currentUser(c)
	if !ok {
		return
	}

	convs, err := conversationService.GetUserConversations(userInfo.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.RespondSuccess(c, convs, nil)
}

// MarkConversationAsRead 清零当前用户一侧的未读数
func MarkConversationAsRead(c *gin.Context) {
	userInfo, ok := currentUser(c)
	if !ok {
		return
	}
	conversationID, ok := paramUint(c, "id")
	if !ok {
		return
	}

	if err := conversationService.MarkAsRead(conversationID, userInfo.ID); err != nil {
		respondError(c, err)
		return
	}
	utils.RespondSuccess(c, gin.H{"conversationId": conversationID}, nil)
}

// ArchiveConversation 归档会话
func ArchiveConversation(c *gin.Context) {
	userInfo, ok := currentUser(c)
	if !ok {
		return
	}
	conversationID, ok := paramUint(c, "id")
	if !ok {
		return
	}

	if err := conversationService.Archive(conversationID, userInfo.ID); err != nil {
		respondError(c, err)
		return
	}
	utils.RespondSuccess(c, gin.H{"conversationId": conversationID}, nil)
}

// CloseConversation 关闭会话（仅报价发布者）
func CloseConversation(c *gin.Context) {
	userInfo, ok := currentUser(c)
	if !ok {
		return
	}
	conversationID, ok := paramUint(c, "id")
	if !ok {
		return
	}

	if err := conversationService.Close(conversationID, userInfo.ID); err != nil {
		respondError(c, err)
		return
	}
	utils.RespondSuccess(c, gin.H{"conversationId": conversationID}, nil)
}

// DeleteConversation 删除会话（仅报价发布者），级联删除消息
func DeleteConversation(c *gin.Context) {
	userInfo, ok := currentUser(c)
	if !ok {
		return
	}
	conversationID, ok := paramUint(c, "id")
	if !ok {
		return
	}

	deleted, err := conversationService.Delete(conversationID, userInfo.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
		return
	}
	utils.RespondSuccess(c, gin.H{"deleted": true}, nil)
}
