package dto

// StartClipTaskReq starts a clip extraction task on a local media file.
type StartClipTaskReq struct {
	MediaPath string `json:"media_path" binding:"required"`
	Language  string `json:"language"`
	// ReuseTaskId retries an existing task in place, keeping its working dir
	// so stage checkpoints are reused.
	ReuseTaskId string `json:"reuse_task_id"`
}

type StartClipTaskResData struct {
	TaskId string `json:"task_id"`
}

type StartClipTaskRes struct {
	Error int32                 `json:"error"`
	Msg   string                `json:"msg"`
	Data  *StartClipTaskResData `json:"data"`
}

type GetClipTaskReq struct {
	TaskId string `form:"taskId" binding:"required"`
}

// ClipInfo is one clip in a status response.
type ClipInfo struct {
	Key        string  `json:"key"`
	Title      string  `json:"title"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Score      float64 `json:"score"`
	Path       string  `json:"path"`
	FailReason string  `json:"fail_reason,omitempty"`
}

type GetClipTaskResData struct {
	TaskId         string      `json:"task_id"`
	Status         uint8       `json:"status"`
	StatusMsg      string      `json:"status_msg"`
	ProcessPercent uint8       `json:"process_percent"`
	Clips          []*ClipInfo `json:"clips"`
}

type GetClipTaskRes struct {
	Error int32               `json:"error"`
	Msg   string              `json:"msg"`
	Data  *GetClipTaskResData `json:"data"`
}
