package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/biteup/biteup/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func taskByUUID(id string) (common.ConvertTaskListData, bool) {
	for _, task := range ConvertTaskSnapshot() {
		if task.UUID == id {
			return task, true
		}
	}
	return common.ConvertTaskListData{}, false
}

func TestConvertTaskWorker(t *testing.T) {
	d := newConvertDirs(t)
	common.BiteupOriginPath = d.origin
	common.BiteupDetailsPath = d.details
	common.BiteupListPath = d.list
	common.VarSettingsVariable = defaultSettings()

	catalog := NewCatalog(d.list, d.details)
	common.ConvertTaskMutex.Lock()
	common.ConvertTaskQueue = make(chan *common.ConvertTaskListData, 4)
	common.ConvertTaskList = make(map[string]*common.ConvertTaskListData)
	queue := common.ConvertTaskQueue
	common.ConvertTaskMutex.Unlock()
	go ConvertTaskWorker(0, catalog)
	defer close(queue)

	id := AddConvertTask(false, false)
	require.Eventually(t, func() bool {
		task, ok := taskByUUID(id)
		return ok && task.Status == common.StatusDone
	}, 5*time.Second, 10*time.Millisecond)

	task, _ := taskByUUID(id)
	require.NotNil(t, task.Summary)
	assert.Equal(t, 2, task.Summary.UpdatedList)
	assert.Equal(t, 100.0, task.ProgressNum)
	assert.Contains(t, task.LogCat, "转换完成")
	assert.Contains(t, common.LogSnapshot(), id)

	require.Eventually(t, func() bool { return catalog.Len() == 2 }, 5*time.Second, 10*time.Millisecond)

	dry := AddConvertTask(true, true)
	require.Eventually(t, func() bool {
		task, ok := taskByUUID(dry)
		return ok && task.Status == common.StatusDone
	}, 5*time.Second, 10*time.Millisecond)
	task, _ = taskByUUID(dry)
	assert.True(t, task.TaskInfo.DryRun)
	assert.Equal(t, 2, task.Summary.UpdatedDetails)

	assert.True(t, DeleteConvertTask(dry))
	_, ok := taskByUUID(dry)
	assert.False(t, ok)
	assert.False(t, DeleteConvertTask(dry))
}

func TestConvertTaskWorkerFailure(t *testing.T) {
	common.BiteupOriginPath = t.TempDir() + "/missing"
	common.ConvertTaskMutex.Lock()
	common.ConvertTaskQueue = make(chan *common.ConvertTaskListData, 4)
	common.ConvertTaskList = make(map[string]*common.ConvertTaskListData)
	queue := common.ConvertTaskQueue
	common.ConvertTaskMutex.Unlock()
	go ConvertTaskWorker(0, nil)
	defer close(queue)

	id := AddConvertTask(false, false)
	require.Eventually(t, func() bool {
		task, ok := taskByUUID(id)
		return ok && task.Status == common.StatusFailed
	}, 5*time.Second, 10*time.Millisecond)
	task, _ := taskByUUID(id)
	assert.Contains(t, task.StatusMsg, "无法读取原始数据目录")
	assert.NotEmpty(t, task.Duration)
}

func startTaskWorkers(t *testing.T, n int, catalog *Catalog) {
	t.Helper()
	common.ConvertTaskMutex.Lock()
	common.ConvertTaskQueue = make(chan *common.ConvertTaskListData, 4)
	common.ConvertTaskList = make(map[string]*common.ConvertTaskListData)
	queue := common.ConvertTaskQueue
	common.ConvertTaskMutex.Unlock()
	for i := 0; i < n; i++ {
		go ConvertTaskWorker(i, catalog)
	}
	t.Cleanup(func() { close(queue) })
}

func waitTaskDone(t *testing.T, id string) common.ConvertTaskListData {
	t.Helper()
	require.Eventually(t, func() bool {
		task, ok := taskByUUID(id)
		return ok && task.Status == common.StatusDone
	}, 5*time.Second, 10*time.Millisecond)
	task, _ := taskByUUID(id)
	return task
}

func TestConvertTaskWorkersOverlap(t *testing.T) {
	d := newConvertDirs(t)
	seedCuratedList(t, d)
	common.BiteupOriginPath = d.origin
	common.BiteupDetailsPath = d.details
	common.BiteupListPath = d.list
	common.VarSettingsVariable = defaultSettings()
	startTaskWorkers(t, 2, nil)

	forceID := AddConvertTask(true, false)
	plainID := AddConvertTask(false, false)
	forced := waitTaskDone(t, forceID)
	plain := waitTaskDone(t, plainID)

	require.NotNil(t, forced.Summary)
	require.NotNil(t, plain.Summary)
	assert.Equal(t, 2, forced.Summary.UpdatedList)
	assert.Equal(t, 2, plain.Summary.UpdatedList+plain.Summary.SkippedList)

	list, err := LoadList(d.list)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "自贡冷吃兔", list[0].VideoInfo.Title)
	assert.Equal(t, "BV1xx411c7mD", list[1].BVID)
}

func TestConvertTaskWorkerReloadError(t *testing.T) {
	d := newConvertDirs(t)
	common.BiteupOriginPath = d.origin
	common.BiteupDetailsPath = d.details
	common.BiteupListPath = d.list
	common.VarSettingsVariable = defaultSettings()

	broken := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{`), 0644))
	startTaskWorkers(t, 1, NewCatalog(broken, d.details))

	id := AddConvertTask(false, false)
	require.Eventually(t, func() bool {
		logCat, ok := common.TaskLogSnapshot(id)
		return ok && strings.Contains(logCat, "重新加载数据失败")
	}, 5*time.Second, 10*time.Millisecond)

	task, _ := taskByUUID(id)
	assert.Equal(t, common.StatusDone, task.Status)
	assert.Contains(t, task.LogCat, common.ErStr)
}
