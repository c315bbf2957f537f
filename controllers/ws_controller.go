package controllers

import (
	"net/http"

	"service-market/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSController 升级连接并交给 Hub；用户身份由后续 user-connect 事件确定
func WSController(ctx *gin.Context) {
	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upgrade connection"})
		return
	}

	client := services.NewClient(hub, uuid.New().String(), conn)
	go client.ReadLoop()
	go client.WriteLoop()
}
