package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	delivery "pixelcard-backend/internal/delivery/http"
	"pixelcard-backend/internal/repo/postgres"
	"pixelcard-backend/internal/repo/s3"
	"pixelcard-backend/internal/usecase/service"
	"pixelcard-backend/internal/usecase/service/gemini"
	"pixelcard-backend/pkg/connector"
	"pixelcard-backend/pkg/goosehelper"
)

func init() {
	err := godotenv.Load()
	if err != nil {
		log.Info(".env файл не обнаружен")
	}

	dbConnectDSN := requireEnv("DB_CONNECT_DSN")
	DBConn, err := connector.GetPostgresConnector(dbConnectDSN)
	if err != nil {
		log.Fatalf("Ошибка при подключении к базе данных: %v", err)
	}
	migrationsDir := "./migrations"
	goosehelper.MigrateUp(DBConn.DB, migrationsDir)
	if err := DBConn.Close(); err != nil {
		log.Fatalf("Ошибка при закрытии соединения с базой данных: %v", err)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer stop()

	dbConnectDSN := requireEnv("DB_CONNECT_DSN")
	geminiAPIKey := requireEnv("GEMINI_API_KEY")
	minioEndpoint := requireEnv("MINIO_ENDPOINT")
	minioAccessKey := requireEnv("MINIO_ACCESS_KEY")
	minioSecretKey := requireEnv("MINIO_SECRET_KEY")
	minioUseSSL := os.Getenv("MINIO_USE_SSL") == "true"
	minioPublicURL := os.Getenv("MINIO_PUBLIC_URL")
	httpPort := os.Getenv("HTTP_PORT")
	if httpPort == "" {
		httpPort = "8080"
	}

	dbConn, err := connector.GetPostgresConnector(dbConnectDSN)
	if err != nil {
		log.Fatalf("Ошибка при подключении к базе данных: %v", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			log.Errorf("Ошибка при закрытии соединения с базой данных: %v", err)
		}
	}()

	minioClient, err := connector.GetMinioConnector(minioEndpoint, minioAccessKey, minioSecretKey, minioUseSSL)
	if err != nil {
		log.Fatalf("Ошибка при подключении к MinIO: %v", err)
	}

	// репозитории (подключение к базе данных и хранилищу)
	pixelCardRepo := postgres.NewPixelCard(dbConn)
	blobRepo, err := s3.NewBlob(minioClient, minioPublicURL)
	if err != nil {
		log.Fatalf("Ошибка при создании репозитория Blob: %v", err)
	}

	// usecase (бизнес-логика)
	pixelizer, err := gemini.NewPixelizer(geminiAPIKey, nil)
	if err != nil {
		log.Fatalf("Ошибка при создании клиента генерации: %v", err)
	}
	pixelCardUseCase := service.NewPixelCard(pixelCardRepo, blobRepo, pixelizer)

	// delivery (обработка запросов)
	pixelCardDelivery := delivery.NewPixelCard(pixelCardUseCase)

	// REST API
	echoServer := echo.New()
	// data URI с учётом base64 примерно на треть больше самого файла,
	// поэтому лимит тела выше лимита на изображение
	echoServer.Use(middleware.BodyLimit("16M"))
	echoServer.Use(middleware.Decompress())
	echoServer.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
	}))
	echoServer.Use(middleware.RequestID())
	echoServer.Use(middleware.CORS())

	echoServer.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	pixelCardDelivery.Configure(echoServer.Group("/api/pixelcards"))

	go func() {
		if err := echoServer.Start(":" + httpPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Ошибка при запуске сервера: %v", err)
		}
	}()
	log.Infof("Сервер запущен на порту %s", httpPort)

	<-ctx.Done()
	log.Info("Получен сигнал завершения, останавливаем сервер...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := echoServer.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Ошибка при остановке сервера: %v", err)
	}
	log.Info("Сервер успешно остановлен")
}

// requireEnv завершает процесс, если обязательная переменная окружения не задана
func requireEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("Не задана переменная окружения %s", key)
	}
	return value
}
