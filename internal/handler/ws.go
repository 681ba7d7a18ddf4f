package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"clipforge/internal/storage"
	"clipforge/internal/types"
	"clipforge/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type progressMessage struct {
	TaskId     string `json:"task_id"`
	Status     uint8  `json:"status"`
	StatusMsg  string `json:"status_msg"`
	ProcessPct uint8  `json:"process_percent"`
	FailReason string `json:"fail_reason,omitempty"`
}

// TaskProgressWS streams task progress over a websocket until the task
// reaches a terminal status or the client disconnects.
func (h *Handler) TaskProgressWS(c *gin.Context) {
	taskId := c.Param("taskId")
	if taskId == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "taskId is required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.GetLogger().Error("TaskProgressWS upgrade err", zap.String("taskId", taskId), zap.Error(err))
		return
	}
	defer conn.Close()

	// Drain client messages so pings and close frames are handled.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	var lastPct uint8 = 255
	var lastStatus uint8
	for range ticker.C {
		task, err := storage.GetTask(taskId)
		if err != nil {
			log.GetLogger().Warn("TaskProgressWS GetTask err", zap.String("taskId", taskId), zap.Error(err))
			return
		}
		if task.ProcessPct != lastPct || task.Status != lastStatus {
			lastPct = task.ProcessPct
			lastStatus = task.Status
			msg := progressMessage{
				TaskId:     task.TaskId,
				Status:     task.Status,
				StatusMsg:  task.StatusMsg,
				ProcessPct: task.ProcessPct,
				FailReason: task.FailReason,
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
		if task.Status == types.ClipTaskStatusSuccess || task.Status == types.ClipTaskStatusFailed {
			return
		}
	}
}
