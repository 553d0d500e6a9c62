package main

import (
	"github.com/sirupsen/logrus"

	"sc3/internal/config"
	"sc3/internal/infra/db"
	httpinfra "sc3/internal/infra/http"
)

func main() {
	cfg := config.FromEnv()

	log := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}
	log.SetFormatter(&logrus.JSONFormatter{})

	store, err := db.NewStore(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("init store")
	}
	if err := store.Migrate(); err != nil {
		log.WithError(err).Fatal("migrate schema")
	}

	srv, err := httpinfra.NewServerWithDeps(cfg, store, httpinfra.ServerDeps{Logger: log})
	if err != nil {
		log.WithError(err).Fatal("init server")
	}
	log.WithField("addr", cfg.HTTPAddr).Info("sc3d listening")
	if err := srv.Run(); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}
