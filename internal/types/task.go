package types

import "time"

// Clip task statuses
const (
	ClipTaskStatusProcessing uint8 = 1
	ClipTaskStatusSuccess    uint8 = 2
	ClipTaskStatusFailed     uint8 = 3
)

// ClipTask is the persisted state of one analyze-and-cut run.
type ClipTask struct {
	Id         uint   `gorm:"primarykey" json:"-"`
	TaskId     string `gorm:"uniqueIndex;size:128" json:"task_id"`
	MediaSrc   string `json:"media_src"`
	Status     uint8  `json:"status"`
	StatusMsg  string `json:"status_msg"`
	FailReason string `json:"fail_reason"`
	ProcessPct uint8  `json:"process_percent"`

	Clips []ClipInfo `gorm:"foreignKey:ClipTaskId" json:"clips"`

	CreateTime time.Time `gorm:"autoCreateTime" json:"create_time"`
	UpdateTime time.Time `gorm:"autoUpdateTime" json:"update_time"`
}

// ClipTaskStepParam carries per-run state between pipeline stages. It is not
// persisted; the ClipTask row it points at is.
type ClipTaskStepParam struct {
	TaskId       string
	TaskPtr      *ClipTask
	TaskBasePath string
	MediaPath    string
	TrimmedPath  string
	AudioPath    string
	Language     string
}

// ClipInfo is one rendered (or failed) clip belonging to a task.
type ClipInfo struct {
	Id         uint    `gorm:"primarykey" json:"-"`
	ClipTaskId uint    `gorm:"index" json:"-"`
	Key        string  `json:"key"`
	Title      string  `json:"title"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Score      float64 `json:"score"`
	Path       string  `json:"path"`
	FailReason string  `json:"fail_reason,omitempty"`
}
