package router

import (
	"clipforge/internal/handler"

	"github.com/gin-gonic/gin"
)

func SetupRouter(r *gin.Engine, dispatcher handler.ClipTaskDispatcher) {
	api := r.Group("/api")

	hdl := handler.NewHandler(dispatcher)
	{
		api.POST("/clipper/analyze", hdl.StartClipTask)
		api.GET("/clipper/task", hdl.GetClipTask)
		api.GET("/clipper/history", hdl.GetTaskHistory)
		api.DELETE("/clipper/task/:taskId", hdl.DeleteTask)
		api.POST("/clipper/task/:taskId/retry", hdl.RetryTask)
		api.GET("/clipper/progress/:taskId", hdl.TaskProgressWS)
		api.POST("/file", hdl.UploadFile)
		api.GET("/file/*filepath", hdl.DownloadFile)
		api.HEAD("/file/*filepath", hdl.DownloadFile)
		api.GET("/config", hdl.GetConfig)
		api.POST("/config", hdl.UpdateConfig)
	}
}
