package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// DB 全局数据库连接
var DB *gorm.DB

// LoadEnv 加载 .env 配置（不存在时使用系统环境变量）
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
}

// Getenv 读取环境变量，支持默认值
func Getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// JWTSecret 返回签发 token 用的密钥
func JWTSecret() []byte {
	return []byte(Getenv("JWT_SECRET", "dev-secret"))
}

// ListenAddr 返回 HTTP 服务监听地址
func ListenAddr() string {
	return Getenv("LISTEN_ADDR", ":8082")
}

// InitDB 初始化数据库
func InitDB() {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			Getenv("DB_USER", "root"),
			Getenv("DB_PASSWORD", ""),
			Getenv("DB_HOST", "127.0.0.1:3306"),
			Getenv("DB_NAME", "service_market"),
		)
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	DB = db
}
