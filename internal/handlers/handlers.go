package handlers

import (
	"time"

	"media-author/internal/catalog"
	"media-author/internal/preview"
	"media-author/internal/startup"
)

type Handlers struct {
	controller *preview.Controller
	store      *catalog.Store
	config     *startup.Config
	started    time.Time
}

func New(controller *preview.Controller, store *catalog.Store, config *startup.Config) *Handlers {
	return &Handlers{
		controller: controller,
		store:      store,
		config:     config,
		started:    time.Now(),
	}
}
