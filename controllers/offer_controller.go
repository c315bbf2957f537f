package controllers

import (
	"net/http"

	"service-market/config"
	"service-market/models"
	"service-market/utils"

	"github.com/gin-gonic/gin"
)

// CreateOffer 发布服务报价
func CreateOffer(c *gin.Context) {
	userInfo, ok := currentUser(c)
	if !ok {
		return
	}

	var input struct {
		Title       string  `json:"title" binding:"required"`
		Description string  `json:"description"`
		Price       float64 `json:"price"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	offer := models.Offer{
		OwnerID:     userInfo.ID,
		Title:       input.Title,
		Description: input.Description,
		Price:       input.Price,
		Active:      true,
	}
	if err := config.DB.Create(&offer).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create offer"})
		return
	}
	utils.RespondSuccess(c, offer, nil)
}

// GetOffers 报价列表（只返回上架中的）
func GetOffers(c *gin.Context) {
	var offers []models.Offer
	err := config.DB.Where("active = ?", true).Order("created_at DESC").Find(&offers).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch offers"})
		return
	}
	utils.RespondSuccess(c, offers, nil)
}

// GetOfferByID 报价详情
func GetOfferByID(c *gin.Context) {
	offerID, ok := paramUint(c, "id")
	if !ok {
		return
	}

	var offer models.Offer
	if err := config.DB.First(&offer, offerID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Offer not found"})
		return
	}
	utils.RespondSuccess(c, offer, nil)
}
