package common

import (
	"fmt"
	"strings"
)

func concatToString(args ...interface{}) string {
	strSlice := make([]string, len(args))
	for i, arg := range args {
		strSlice[i] = fmt.Sprint(arg)
	}
	return strings.Join(strSlice, " ")
}

func appendLog(UUID string, result string) {
	LogMutex.Lock()
	defer LogMutex.Unlock()
	// 为全局 Web API Log 输出
	LogVariable.WriteString(result + "\n")
	if UUID == "" {
		return
	}
	ConvertTaskMutex.Lock()
	defer ConvertTaskMutex.Unlock()
	if task, exist := ConvertTaskList[UUID]; exist {
		task.LogCat += result + "\n"
	}
}

func LogPrintln(UUID string, a ...any) {
	result := concatToString(a...)
	appendLog(UUID, result)
	fmt.Println(result)
}

func LogPrintf(UUID string, format string, a ...any) {
	result := fmt.Sprintf(format, a...)
	appendLog(UUID, strings.TrimSuffix(result, "\n"))
	fmt.Print(result)
}

// LogSnapshot 返回当前全局日志
func LogSnapshot() string {
	LogMutex.Lock()
	defer LogMutex.Unlock()
	return LogVariable.String()
}

// TaskLogSnapshot 返回任务的日志以及任务是否存在
func TaskLogSnapshot(UUID string) (string, bool) {
	ConvertTaskMutex.RLock()
	defer ConvertTaskMutex.RUnlock()
	if task, exist := ConvertTaskList[UUID]; exist {
		return task.LogCat, true
	}
	return "", false
}
