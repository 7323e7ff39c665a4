package utils

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/biteup/biteup/common"
)

// DataPathInit 初始化工作目录结构，dataPath 为空时使用当前目录下的 biteup_data
func DataPathInit(dataPath string) error {
	if dataPath == "" {
		ep, err := os.Getwd()
		if err != nil {
			return err
		}
		dataPath = filepath.Join(ep, common.BiteupWorkDirName)
	}
	common.BiteupWorkDirPath = dataPath
	common.BiteupOriginPath = filepath.Join(dataPath, common.BiteupOriginDirName)
	common.BiteupDetailsPath = filepath.Join(dataPath, common.BiteupDetailsDirName)
	common.BiteupPublicPath = filepath.Join(dataPath, common.BiteupPublicDirName)
	common.BiteupListPath = filepath.Join(dataPath, common.BiteupListFileName)
	common.BiteupSettingsPath = filepath.Join(dataPath, common.BiteupSettingsFileName)
	for _, d := range []string{dataPath, common.BiteupOriginPath, common.BiteupDetailsPath, common.BiteupPublicPath} {
		if _, err := os.Stat(d); os.IsNotExist(err) {
			common.LogPrintln("", common.InitStr, "创建目录:", d)
			if err := os.MkdirAll(d, 0755); err != nil {
				return err
			}
		}
	}
	return nil
}

func defaultSettings() common.VarSettings {
	return common.VarSettings{
		DefaultPageSize:             common.DefaultPageSize,
		DefaultSiteBaseURL:          common.DefaultSiteBaseURL,
		DefaultWebServerHost:        common.DefaultWebServerHost,
		DefaultWebServerPort:        common.DefaultWebServerPort,
		DefaultTaskWorkerGoRoutines: common.DefaultTaskWorkerGoRoutines,
		DefaultConvertGoRoutines:    common.DefaultConvertGoRoutines,
	}
}

// normalizeSettings 非法或缺失的配置项回退到默认值
func normalizeSettings(s *common.VarSettings) {
	d := defaultSettings()
	if s.DefaultPageSize <= 0 {
		s.DefaultPageSize = d.DefaultPageSize
	}
	if strings.TrimSpace(s.DefaultSiteBaseURL) == "" {
		s.DefaultSiteBaseURL = d.DefaultSiteBaseURL
	}
	if s.DefaultWebServerPort <= 0 || s.DefaultWebServerPort > 65535 {
		s.DefaultWebServerPort = d.DefaultWebServerPort
	}
	if s.DefaultTaskWorkerGoRoutines <= 0 {
		s.DefaultTaskWorkerGoRoutines = d.DefaultTaskWorkerGoRoutines
	}
	if s.DefaultConvertGoRoutines <= 0 {
		s.DefaultConvertGoRoutines = d.DefaultConvertGoRoutines
	}
}

// SettingsInit 从 settings.json 读取用户配置，文件不存在时使用默认配置
func SettingsInit(path string) error {
	common.LogPrintln("", common.DbStr, common.InitStr, "初始化配置")
	if _, err := os.Stat(path); err != nil {
		common.VarSettingsVariable = defaultSettings()
		return nil
	}
	common.LogPrintln("", common.DbStr, common.InitStr, "读取配置文件")
	jsonData, err := os.ReadFile(path)
	if err != nil {
		common.VarSettingsVariable = defaultSettings()
		return &common.CommonError{Msg: "读取配置文件时发生错误: " + err.Error()}
	}
	var s common.VarSettings
	if err := json.Unmarshal(jsonData, &s); err != nil {
		common.VarSettingsVariable = defaultSettings()
		return &common.CommonError{Msg: "解析配置文件时发生错误: " + err.Error()}
	}
	normalizeSettings(&s)
	common.VarSettingsVariable = s
	return nil
}

func SettingsSave(path string) error {
	err := WriteJSON(path, common.VarSettingsVariable)
	if err != nil {
		common.LogPrintln("", common.DbStr, common.ErStr, "保存配置文件时发生错误:", err)
		return err
	}
	common.LogPrintln("", common.DbStr, "配置已保存")
	return nil
}

// WriteJSON 以两个空格缩进写入 JSON，末尾带换行，不转义 HTML 字符
func WriteJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadList 读取 list.json，文件不存在时返回空列表
func LoadList(path string) ([]common.ListItem, error) {
	jsonData, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return []common.ListItem{}, nil
	}
	if err != nil {
		return nil, err
	}
	var list []common.ListItem
	if err := json.Unmarshal(jsonData, &list); err != nil {
		return nil, &common.CommonError{Msg: "list.json 必须是数组: " + err.Error()}
	}
	if list == nil {
		list = []common.ListItem{}
	}
	return list, nil
}

// LoadDetails 读取 details 目录下全部 <bvid>.json
func LoadDetails(dir string) (map[string]*common.ContentItem, error) {
	details := make(map[string]*common.ContentItem)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return details, nil
	}
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		jsonData, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		var detail common.ContentItem
		if err := json.Unmarshal(jsonData, &detail); err != nil {
			common.LogPrintln("", common.DbStr, common.ErStr, "解析详情文件失败，已跳过:", e.Name(), err)
			continue
		}
		if detail.BVID == "" {
			detail.BVID = strings.TrimSuffix(e.Name(), ".json")
		}
		details[detail.BVID] = &detail
	}
	return details, nil
}
