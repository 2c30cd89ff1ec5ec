package main

import (
	"github.com/sirupsen/logrus"

	"github.com/yeti-set-go/asset-pipeline/config"
	"github.com/yeti-set-go/asset-pipeline/internal/appServer"
)

func main() {
	viperInstance, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Cannot load config. Error: {%s}", err.Error())
	}

	cfg, err := config.ParseConfig(viperInstance)
	if err != nil {
		logrus.Fatalf("Cannot parse config. Error: {%s}", err.Error())
	}

	if cfg.Flux.APIKey == "" {
		cfg.Flux.APIKey = config.GetEnv("BFL_API_KEY", "")
	}

	appServer.NewServer(cfg)
}
