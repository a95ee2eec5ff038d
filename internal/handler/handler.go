package handler

import (
	"rental-service/internal/mpesa"
	"rental-service/internal/notify"
	"rental-service/internal/repository"
	"rental-service/pkg/config"
)

var (
	cfg        *config.Config
	store      *repository.Store
	dispatcher *notify.Dispatcher
	gateway    *mpesa.Client
	watcher    *mpesa.Watcher
)

// Init wires the shared handler dependencies at startup
func Init(c *config.Config, s *repository.Store, d *notify.Dispatcher, g *mpesa.Client, w *mpesa.Watcher) {
	cfg = c
	store = s
	dispatcher = d
	gateway = g
	watcher = w
}
