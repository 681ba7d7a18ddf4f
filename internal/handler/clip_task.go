package handler

import (
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"clipforge/config"
	"clipforge/internal/appdirs"
	"clipforge/internal/dto"
	"clipforge/internal/response"
	"clipforge/internal/service"
	"clipforge/internal/storage"
	"clipforge/internal/types"
	"clipforge/log"
	apperrors "clipforge/pkg/errors"
)

func (h *Handler) StartClipTask(c *gin.Context) {
	var req dto.StartClipTaskReq
	if err := c.ShouldBindJSON(&req); err != nil {
		log.GetLogger().Error("StartClipTask ShouldBindJSON err", zap.Error(err))
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeInvalidParams, "参数错误 Invalid parameters", err))
		return
	}
	log.GetLogger().Info("StartClipTask received request", zap.Any("req", req))

	if configUpdated {
		log.GetLogger().Info("config updated, rebuilding service")
		h.Service = service.NewService()
		configUpdated = false
	}

	if h.Dispatcher == nil {
		data, err := h.Service.StartClipTask(req)
		if err != nil {
			response.ErrorResponse(c, err)
			return
		}
		response.Success(c, data)
		return
	}

	data, err := h.Service.QueueClipTask(req)
	if err != nil {
		response.ErrorResponse(c, err)
		return
	}
	if err = h.Dispatcher.DispatchClipTask(data.TaskId, req.MediaPath, req.Language); err != nil {
		log.GetLogger().Error("StartClipTask dispatch err",
			zap.String("taskId", data.TaskId), zap.Error(err))
		markTaskFailed(data.TaskId, err)
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeUnknown, "任务提交失败 Failed to submit task", err))
		return
	}
	response.Success(c, data)
}

func markTaskFailed(taskId string, cause error) {
	task, err := storage.GetTask(taskId)
	if err != nil || task == nil {
		return
	}
	task.Status = types.ClipTaskStatusFailed
	task.FailReason = cause.Error()
	task.StatusMsg = "任务提交失败 Failed to submit task"
	_ = storage.SaveTask(task)
}

func (h *Handler) GetClipTask(c *gin.Context) {
	var req dto.GetClipTaskReq
	if err := c.ShouldBindQuery(&req); err != nil {
		response.R(c, response.Response{
			Error: -1,
			Msg:   "参数错误 Invalid parameters",
			Data:  nil,
		})
		return
	}

	data, err := h.Service.GetTaskStatus(req)
	if err != nil {
		response.ErrorResponse(c, err)
		return
	}
	response.Success(c, data)
}

func (h *Handler) GetTaskHistory(c *gin.Context) {
	tasks, err := storage.GetTaskHistory(200)
	if err != nil {
		response.R(c, response.Response{
			Error: -1,
			Msg:   "获取历史记录失败 Failed to load history: " + err.Error(),
			Data:  nil,
		})
		return
	}
	response.R(c, response.Response{
		Error: 0,
		Msg:   "成功 Success",
		Data:  tasks,
	})
}

func (h *Handler) DeleteTask(c *gin.Context) {
	taskId := c.Param("taskId")
	if taskId == "" {
		response.R(c, response.Response{
			Error: -1,
			Msg:   "taskId不能为空 taskId is required",
			Data:  nil,
		})
		return
	}

	// Remove artifacts first; a failed removal should not orphan the DB row.
	taskBasePath := filepath.Join(config.Conf.App.TasksDir, taskId)
	if err := os.RemoveAll(taskBasePath); err != nil {
		log.GetLogger().Error("DeleteTask RemoveAll err", zap.String("path", taskBasePath), zap.Error(err))
	}

	if err := storage.DeleteTask(taskId); err != nil {
		response.R(c, response.Response{
			Error: -1,
			Msg:   "删除记录失败 Failed to delete task: " + err.Error(),
			Data:  nil,
		})
		return
	}

	response.R(c, response.Response{
		Error: 0,
		Msg:   "删除成功 Deleted",
		Data:  nil,
	})
}

// RetryTask restarts a failed task in place; stage checkpoints in the task dir
// are reused so only the failed stage onward reruns.
func (h *Handler) RetryTask(c *gin.Context) {
	taskId := c.Param("taskId")
	if taskId == "" {
		response.R(c, response.Response{
			Error: -1,
			Msg:   "taskId不能为空 taskId is required",
			Data:  nil,
		})
		return
	}

	task, err := storage.GetTask(taskId)
	if err != nil {
		response.R(c, response.Response{
			Error: -1,
			Msg:   "获取任务失败 Failed to load task: " + err.Error(),
			Data:  nil,
		})
		return
	}

	if task.Status != types.ClipTaskStatusFailed && task.Status != types.ClipTaskStatusSuccess {
		response.R(c, response.Response{
			Error: -1,
			Msg:   "只能重试失败或已完成的任务 Only finished tasks can be retried",
			Data:  nil,
		})
		return
	}

	data, err := h.Service.StartClipTask(dto.StartClipTaskReq{
		MediaPath:   task.MediaSrc,
		ReuseTaskId: task.TaskId,
	})
	if err != nil {
		response.R(c, response.Response{
			Error: -1,
			Msg:   "重试任务失败 Retry failed: " + err.Error(),
			Data:  nil,
		})
		return
	}

	response.R(c, response.Response{
		Error: 0,
		Msg:   "任务已重新提交 Task resubmitted",
		Data:  data,
	})
}

func (h *Handler) UploadFile(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.R(c, response.Response{
			Error: -1,
			Msg:   "未能获取文件 No file received",
			Data:  nil,
		})
		return
	}

	files := form.File["file"]
	if len(files) == 0 {
		response.R(c, response.Response{
			Error: -1,
			Msg:   "未上传任何文件 No file uploaded",
			Data:  nil,
		})
		return
	}

	paths, err := appdirs.Resolve()
	if err != nil {
		response.R(c, response.Response{
			Error: -1,
			Msg:   "解析上传目录失败 Failed to resolve upload dir: " + err.Error(),
			Data:  nil,
		})
		return
	}
	uploadRoot := appdirs.UploadRootFor(paths)

	var savedFiles []string
	for _, file := range files {
		savePath := filepath.Join(uploadRoot, filepath.Base(file.Filename))
		if err := c.SaveUploadedFile(file, savePath); err != nil {
			response.R(c, response.Response{
				Error: -1,
				Msg:   "文件保存失败 Failed to save: " + file.Filename,
				Data:  nil,
			})
			return
		}
		savedFiles = append(savedFiles, savePath)
	}

	response.R(c, response.Response{
		Error: 0,
		Msg:   "文件上传成功 Uploaded",
		Data:  gin.H{"file_path": savedFiles},
	})
}

func (h *Handler) DownloadFile(c *gin.Context) {
	requestedFile := c.Param("filepath")
	if requestedFile == "" {
		response.R(c, response.Response{
			Error: -1,
			Msg:   "文件路径为空 Empty file path",
			Data:  nil,
		})
		return
	}

	// Confine downloads to the tasks dir so the handler cannot serve
	// arbitrary filesystem paths.
	cleaned := filepath.Clean("/" + requestedFile)
	fullPath := filepath.Join(config.Conf.App.TasksDir, cleaned)
	if _, err := os.Stat(fullPath); err != nil {
		response.R(c, response.Response{
			Error: -1,
			Msg:   "文件不存在 File not found",
			Data:  nil,
		})
		return
	}
	c.File(fullPath)
}
