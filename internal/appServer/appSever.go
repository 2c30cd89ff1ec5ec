// launching the HTTP server and wiring the asset pipeline together
package appServer

import (
	"context"
	"crypto/tls"
	"log"

	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yeti-set-go/asset-pipeline/config"
	"github.com/yeti-set-go/asset-pipeline/internal/catalog"
	"github.com/yeti-set-go/asset-pipeline/internal/database"
	"github.com/yeti-set-go/asset-pipeline/internal/pkg/flux"
	"github.com/yeti-set-go/asset-pipeline/internal/pkg/kafka"
	"github.com/yeti-set-go/asset-pipeline/internal/pkg/processor"
	"github.com/yeti-set-go/asset-pipeline/internal/pkg/storage"
	"github.com/yeti-set-go/asset-pipeline/internal/service"
	"github.com/yeti-set-go/asset-pipeline/internal/transport"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.Idle_timeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags),
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func NewServer(cfg *config.Config) {

	logrus.SetFormatter(new(logrus.JSONFormatter))

	if cfg.Flux.APIKey == "" {
		logrus.Fatal("API key required: set BFL_API_KEY or flux.api_key in config")
	}

	fileStorage := storage.NewFileStorage(cfg.Generator.OutputDir)
	assetRepo := database.NewAssetRepository(fileStorage)
	fluxClient := flux.NewClient(cfg.Flux)
	postProcessor := processor.NewPostProcessor()
	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	assetCatalog := catalog.New()
	generator := service.NewGeneratorService(fluxClient, postProcessor, fileStorage, assetRepo, producer, assetCatalog, cfg.Generator)
	assetHandler := transport.NewAssetHandler(generator, assetCatalog, assetRepo)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := new(Server)
	go func() {
		if err := srv.Run(cfg, transport.InitRoutes(assetHandler)); err != nil {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.Print("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")

	if err := producer.Close(); err != nil {
		logrus.Errorf("error occured on kafka producer close: %s", err.Error())
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}

}
