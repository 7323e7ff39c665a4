package utils

import (
	"fmt"
	"os"
	"sync"

	"github.com/biteup/biteup/bvid"
	"github.com/biteup/biteup/common"
	"github.com/cheggaaa/pb/v3"
)

// ConvertWithProgress 在终端中显示进度条执行原始数据转换
func ConvertWithProgress(force, dryRun bool) (common.ConvertSummary, error) {
	var bar *pb.ProgressBar
	var once sync.Once
	summary, err := ConvertOrigin(ConvertOptions{
		OriginDir:  common.BiteupOriginPath,
		DetailsDir: common.BiteupDetailsPath,
		ListPath:   common.BiteupListPath,
		Force:      force,
		DryRun:     dryRun,
		Workers:    common.VarSettingsVariable.DefaultConvertGoRoutines,
		OnProgress: func(done, total int) {
			once.Do(func() {
				bar = pb.StartNew(total)
			})
			bar.SetCurrent(int64(done))
		},
	})
	if bar != nil {
		bar.Finish()
	}
	return summary, err
}

// PrintPair 打印一组 BV/AV 对照
func PrintPair(prefix string, p bvid.Pair) {
	common.LogPrintln("", prefix, "标准 BV 号:", p.BVID)
	common.LogPrintln("", prefix, "转换结果:", p.AV())
	common.LogPrintln("", prefix, "视频链接:", common.DefaultVideoURLPrefix+p.BVID)
	common.LogPrintln("", prefix, "接口地址:", common.DefaultAPIViewURLPrefix+fmt.Sprint(p.AID))
}

func AutoRun() {
	fmt.Println(common.ArStr, "使用 \""+os.Args[0]+" help\" 查看帮助")
	fmt.Println(common.ArStr, "请选择你要执行的操作:")
	fmt.Println(common.ArStr, "  1. BV 号转 AV 号")
	fmt.Println(common.ArStr, "  2. AV 号转 BV 号")
	fmt.Println(common.ArStr, "  3. 转换原始数据")
	fmt.Println(common.ArStr, "  4. 生成站点地图")
	fmt.Println(common.ArStr, "  5. 启动 Web 服务")
	fmt.Println(common.ArStr, "  6. 退出")
	for {
		input := GetUserInput(common.ArStr + " 请输入操作编号: ")
		if input == "1" {
			clearScreen()
			text := GetUserInput(common.BvStr + " 输入 BV 号或包含 BV 号的链接: ")
			id, ok := bvid.Extract(text)
			if !ok {
				common.LogPrintln("", common.BvStr, common.ErStr, "未能识别 BV 号，请检查输入是否正确。")
				continue
			}
			aid, err := bvid.Decode(id)
			if err != nil {
				common.LogPrintln("", common.BvStr, common.ErStr, "转换失败，请确认 BV 号是否填写完整。")
				continue
			}
			PrintPair(common.BvStr, bvid.Pair{BVID: id, AID: aid})
			break
		} else if input == "2" {
			clearScreen()
			aid, err := bvid.ParseAV(GetUserInput(common.AvStr + " 输入 AV 号: "))
			if err != nil {
				common.LogPrintln("", common.AvStr, common.ErStr, "AV 号必须是非负整数")
				continue
			}
			id, err := bvid.Encode(aid)
			if err != nil {
				common.LogPrintln("", common.AvStr, common.ErStr, err)
				continue
			}
			PrintPair(common.AvStr, bvid.Pair{BVID: id, AID: aid})
			break
		} else if input == "3" {
			clearScreen()
			_, _ = ConvertWithProgress(false, false)
			break
		} else if input == "4" {
			clearScreen()
			list, err := LoadList(common.BiteupListPath)
			if err != nil {
				common.LogPrintln("", common.SitemapStr, common.ErStr, err)
				break
			}
			_, _ = GenerateSitemap(common.VarSettingsVariable.DefaultSiteBaseURL, list, SitemapOutputPath())
			break
		} else if input == "5" {
			clearScreen()
			WebServer(common.VarSettingsVariable.DefaultWebServerHost, common.VarSettingsVariable.DefaultWebServerPort)
			break
		} else if input == "6" {
			os.Exit(0)
		} else {
			fmt.Println(common.ArStr, common.ErStr, "错误: 无效的操作编号")
			continue
		}
	}
}
