package utils

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/biteup/biteup/common"
	"github.com/google/uuid"
)

// AddConvertTask 创建转换任务并放入队列，返回任务 UUID
func AddConvertTask(force, dryRun bool) string {
	uuidd := uuid.New().String()
	dt := &common.ConvertTaskListData{
		UUID:      uuidd,
		TimeStamp: time.Now().Format(common.TimeStampLayout),
		TaskInfo: &common.ConvertTaskInfo{
			Force:  force,
			DryRun: dryRun,
		},
		Status:    common.StatusPending,
		StatusMsg: common.StatusPending,
	}
	common.ConvertTaskMutex.Lock()
	common.ConvertTaskList[uuidd] = dt
	common.ConvertTaskMutex.Unlock()
	common.LogPrintln(uuidd, common.TaskStr, "已添加转换任务:", uuidd)
	common.ConvertTaskQueue <- dt
	return uuidd
}

func setTaskState(UUID string, fn func(t *common.ConvertTaskListData)) bool {
	common.ConvertTaskMutex.Lock()
	defer common.ConvertTaskMutex.Unlock()
	t, exist := common.ConvertTaskList[UUID]
	if !exist {
		return false
	}
	fn(t)
	return true
}

func ConvertTaskWorker(id int, catalog *Catalog) {
	for task := range common.ConvertTaskQueue {
		allStartTime := time.Now()
		common.LogPrintf(task.UUID, "ConvertTaskWorker %d 处理转换任务：%v\n", id, task.UUID)
		if !setTaskState(task.UUID, func(t *common.ConvertTaskListData) {
			t.Status = common.StatusRunning
			t.StatusMsg = common.StatusRunning
		}) {
			common.LogPrintf(task.UUID, "ConvertTaskWorker %d 转换任务被用户删除\n", id)
			continue
		}
		summary, err := ConvertOrigin(ConvertOptions{
			OriginDir:  common.BiteupOriginPath,
			DetailsDir: common.BiteupDetailsPath,
			ListPath:   common.BiteupListPath,
			Force:      task.TaskInfo.Force,
			DryRun:     task.TaskInfo.DryRun,
			Workers:    common.VarSettingsVariable.DefaultConvertGoRoutines,
			UUID:       task.UUID,
			OnProgress: func(done, total int) {
				setTaskState(task.UUID, func(t *common.ConvertTaskListData) {
					t.ProgressNum = float64(done) / float64(total) * 100
				})
			},
		})
		duration := fmt.Sprintf("%vs", int64(math.Floor(time.Since(allStartTime).Seconds())))
		if err != nil {
			common.LogPrintf(task.UUID, "ConvertTaskWorker %d 转换任务执行失败\n", id)
			setTaskState(task.UUID, func(t *common.ConvertTaskListData) {
				t.Status = common.StatusFailed
				t.StatusMsg = err.Error()
				t.Duration = duration
			})
			continue
		}
		setTaskState(task.UUID, func(t *common.ConvertTaskListData) {
			t.Status = common.StatusDone
			t.StatusMsg = common.StatusDone
			t.Summary = &summary
			t.ProgressNum = 100.0
			t.Duration = duration
		})
		if catalog != nil && !task.TaskInfo.DryRun {
			if err := catalog.Load(); err != nil {
				common.LogPrintln(task.UUID, common.TaskStr, common.ErStr, "转换完成但重新加载数据失败:", err)
			}
		}
	}
}

func ConvertTaskWorkerInit(catalog *Catalog) {
	common.ConvertTaskMutex.Lock()
	common.ConvertTaskQueue = make(chan *common.ConvertTaskListData, 16)
	common.ConvertTaskList = make(map[string]*common.ConvertTaskListData)
	common.ConvertTaskMutex.Unlock()
	n := common.VarSettingsVariable.DefaultTaskWorkerGoRoutines
	if n <= 0 {
		n = common.DefaultTaskWorkerGoRoutines
	}
	// 启动多个 ConvertTaskWorker 协程来处理任务
	for i := 0; i < n; i++ {
		go ConvertTaskWorker(i, catalog)
	}
}

// ConvertTaskSnapshot 按创建时间返回全部任务的副本
func ConvertTaskSnapshot() []common.ConvertTaskListData {
	common.ConvertTaskMutex.RLock()
	out := make([]common.ConvertTaskListData, 0, len(common.ConvertTaskList))
	for _, t := range common.ConvertTaskList {
		out = append(out, *t)
	}
	common.ConvertTaskMutex.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].TimeStamp == out[j].TimeStamp {
			return out[i].UUID < out[j].UUID
		}
		return out[i].TimeStamp < out[j].TimeStamp
	})
	return out
}

// DeleteConvertTask 删除任务记录，正在执行的任务会继续运行但结果不再保存
func DeleteConvertTask(UUID string) bool {
	common.ConvertTaskMutex.Lock()
	defer common.ConvertTaskMutex.Unlock()
	if _, exist := common.ConvertTaskList[UUID]; !exist {
		return false
	}
	delete(common.ConvertTaskList, UUID)
	return true
}
