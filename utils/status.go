package utils

import (
	"runtime"
	"time"

	"github.com/biteup/biteup/common"
	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/disk"
	"github.com/shirou/gopsutil/mem"
)

// GetSystemResourceUsage 采样 CPU、内存与工作目录所在磁盘的使用情况
func GetSystemResourceUsage() (*common.SystemResourceUsage, error) {
	usage := &common.SystemResourceUsage{
		OSName:      runtime.GOOS,
		ExecuteTime: time.Since(time.Unix(common.StartTimestamp, 0)).Truncate(time.Second).String(),
	}
	cpuPercent, err := cpu.Percent(common.DefaultStatusSampleMillis*time.Millisecond, false)
	if err != nil {
		return nil, err
	}
	if len(cpuPercent) > 0 {
		usage.CpuUsagePercent = cpuPercent[0]
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		return nil, err
	}
	usage.MemUsageTotalAndUsed = humanize.IBytes(vm.Used) + "/" + humanize.IBytes(vm.Total)
	usage.MemUsagePercent = vm.UsedPercent

	diskPath := common.BiteupWorkDirPath
	if diskPath == "" {
		diskPath = "/"
	}
	du, err := disk.Usage(diskPath)
	if err != nil {
		return nil, err
	}
	usage.DiskUsageTotalAndUsed = humanize.IBytes(du.Used) + "/" + humanize.IBytes(du.Total)
	usage.DiskUsagePercent = du.UsedPercent
	return usage, nil
}
