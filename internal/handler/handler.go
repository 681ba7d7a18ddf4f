package handler

import (
	"clipforge/internal/service"
)

// ClipTaskDispatcher hands a prepared clip task to a background executor.
// The redis-backed queue and the in-process runner both satisfy it.
type ClipTaskDispatcher interface {
	DispatchClipTask(taskId, mediaPath, language string) error
}

type Handler struct {
	Service    *service.Service
	Dispatcher ClipTaskDispatcher
}

func NewHandler(dispatcher ClipTaskDispatcher) *Handler {
	return &Handler{
		Service:    service.NewService(),
		Dispatcher: dispatcher,
	}
}

// configUpdated flags that the runtime config changed and the service needs
// rebuilding before the next task uses it.
var configUpdated bool
