package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hyperdxio/opentelemetry-logs-go/exporters/otlp/otlplogs"
	sdk "github.com/hyperdxio/opentelemetry-logs-go/sdk/logs"
	"github.com/hyperdxio/otel-config-go/otelconfig"

	"solacedev/conversation"
	"solacedev/insights"
	"solacedev/logger"
	"solacedev/modelapi/elevenlabsapi"
	"solacedev/modelapi/groqapi"
	"solacedev/modelapi/humeapi"
	"solacedev/modelapi/speech"
	"solacedev/transliterate"
)

const defaultPort = "80"

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}
	godotenv.Load()
	production := os.Getenv("PRODUCTION") != ""

	otelShutdown, err := otelconfig.ConfigureOpenTelemetry()
	if err != nil {
		log.Fatalf("Error setting up OTel SDK - %e", err)
	}
	defer otelShutdown()
	ctx := context.Background()

	logExporter, _ := otlplogs.NewExporter(ctx)
	loggerProvider := sdk.NewLoggerProvider(sdk.WithBatcher(logExporter))
	defer loggerProvider.Shutdown(ctx)

	LogMiddleware := logger.Connect(logger.LoggerConnectProps{Production: production, LoggerProvider: loggerProvider})

	// Upstream clients.
	groqClient := groqapi.Connect(ctx, groqapi.GroqConnectProps{Logger: LogMiddleware})
	humeClient := humeapi.Connect(ctx, humeapi.HumeConnectProps{Logger: LogMiddleware})
	elevenClient := elevenlabsapi.Connect(ctx, elevenlabsapi.ElevenLabsConnectProps{Logger: LogMiddleware})
	speechClient := speech.Connect(ctx, speech.SpeechConnectProps{
		Logger:  LogMiddleware,
		Cloning: humeClient,
		Direct:  elevenClient,
	})

	// Pipeline components.
	conversationClient := conversation.Connect(ctx, conversation.ConversationConnectProps{
		Logger: LogMiddleware,
		Chat:   groqClient,
		Speech: speechClient,
	})
	insightsClient := insights.Connect(ctx, insights.InsightsConnectProps{Logger: LogMiddleware, Chat: groqClient})
	hinglishClient := transliterate.Connect(ctx, transliterate.TransliterateConnectProps{Logger: LogMiddleware, Chat: groqClient})

	api := &apiServer{
		logger:       LogMiddleware,
		conversation: conversationClient,
		insights:     insightsClient,
		hinglish:     hinglishClient,
	}

	allowedOrigins := strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",")
	if os.Getenv("ALLOWED_ORIGINS") == "" {
		allowedOrigins = []string{"*"}
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.Recoverer)
	router.Use(requestLoggerMiddleware(LogMiddleware))
	router.Use(corsMiddleware(allowedOrigins))

	router.Post("/api/chat", api.handleChat)
	router.Post("/api/insights", api.handleInsights)
	router.Post("/api/hinglish", api.handleHinglish)
	router.Get("/api/health", api.handleHealth)

	Logger := LogMiddleware.Logger(ctx)

	if production {
		Logger.Info("[Server] Starting in production mode", zap.String("port", port))
	} else {
		Logger.Info("[Server] Starting in development mode", zap.String("port", port))
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			Logger.Fatal("[Server] Listen failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	Logger.Info("[Server] Shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		Logger.Error("[Server] Shutdown failed", zap.Error(err))
	}
}
