package mobile

import (
	"github.com/biteup/biteup/bvid"
	"github.com/biteup/biteup/common"
	"github.com/biteup/biteup/utils"
)

func StartWebServer(port int, dataPath string) {
	common.MobileMode = true
	if err := utils.DataPathInit(dataPath); err != nil {
		common.LogPrintln("", common.InitStr, common.ErStr, "初始化工作目录失败:", err)
		return
	}
	if err := utils.SettingsInit(common.BiteupSettingsPath); err != nil {
		common.LogPrintln("", common.InitStr, common.ErStr, "读取配置失败:", err)
		return
	}
	utils.WebServer("", port)
}

// BV2AV 返回形如 AV170001 的结果
func BV2AV(input string) (string, error) {
	id, ok := bvid.Extract(input)
	if !ok {
		return "", bvid.ErrNotFound
	}
	aid, err := bvid.Decode(id)
	if err != nil {
		return "", err
	}
	return bvid.FormatAV(aid), nil
}

func AV2BV(aid int64) (string, error) {
	return bvid.Encode(aid)
}
