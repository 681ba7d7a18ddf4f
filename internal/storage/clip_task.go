package storage

import (
	"errors"

	"gorm.io/gorm"

	"clipforge/internal/types"
)

func SaveTask(task *types.ClipTask) error {
	if DB == nil {
		return errors.New("database not initialized")
	}
	// Upsert keyed by TaskId; the numeric primary key is internal.
	var existing types.ClipTask
	result := DB.Where("task_id = ?", task.TaskId).First(&existing)

	if result.Error == nil {
		task.Id = existing.Id
		return DB.Session(&gorm.Session{FullSaveAssociations: true}).Save(task).Error
	} else if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return DB.Create(task).Error
	}
	return result.Error
}

func GetTask(taskId string) (*types.ClipTask, error) {
	if DB == nil {
		return nil, errors.New("database not initialized")
	}
	var task types.ClipTask
	if err := DB.Preload("Clips").Where("task_id = ?", taskId).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func GetTaskHistory(limit int) ([]types.ClipTask, error) {
	if DB == nil {
		return nil, errors.New("database not initialized")
	}
	var tasks []types.ClipTask
	if err := DB.Preload("Clips").Order("create_time desc").Limit(limit).Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func DeleteTask(taskId string) error {
	if DB == nil {
		return errors.New("database not initialized")
	}
	var task types.ClipTask
	if err := DB.Where("task_id = ?", taskId).First(&task).Error; err != nil {
		return err
	}
	if err := DB.Where("clip_task_id = ?", task.Id).Delete(&types.ClipInfo{}).Error; err != nil {
		return err
	}
	return DB.Delete(&task).Error
}

// MarkStaleTasks marks every task still "processing" as failed. Called on
// startup to clean up tasks orphaned by a crash or restart.
func MarkStaleTasks() (int64, error) {
	if DB == nil {
		return 0, errors.New("database not initialized")
	}
	result := DB.Model(&types.ClipTask{}).
		Where("status = ?", types.ClipTaskStatusProcessing).
		Updates(map[string]interface{}{
			"status":      types.ClipTaskStatusFailed,
			"fail_reason": "服务重启，任务被中断 Task interrupted by server restart",
			"status_msg":  "任务中断 Task Interrupted",
		})
	return result.RowsAffected, result.Error
}
