package common

import (
	"strings"
	"sync"
)

const (
	BiteupVersionNum            = 1
	BiteupVersionString         = "v1.2.0"
	BiteupWorkDirName           = "biteup_data"
	BiteupSettingsFileName      = "settings.json"
	BiteupListFileName          = "list.json"
	BiteupOriginDirName         = "origin"
	BiteupDetailsDirName        = "details"
	BiteupPublicDirName         = "public"
	BiteupSitemapFileName       = "sitemap.xml"
	InitStr                     = "Init:"
	WebStr                      = "WebServer:"
	DbStr                       = "Database:"
	ConvStr                     = "Convert:"
	TaskStr                     = "Task:"
	SitemapStr                  = "Sitemap:"
	ScanStr                     = "Scan:"
	ListStr                     = "List:"
	BvStr                       = "BV2AV:"
	AvStr                       = "AV2BV:"
	ArStr                       = "AutoRun:"
	ErStr                       = "Error:"
	DefaultPageSize             = 9
	DefaultSiteBaseURL          = "https://biteup.house2048.com"
	DefaultVideoURLPrefix       = "https://www.bilibili.com/video/"
	DefaultSpaceURLPrefix       = "https://space.bilibili.com/"
	DefaultAPIViewURLPrefix     = "https://api.bilibili.com/x/web-interface/view?aid="
	DefaultBilibiliURL          = "https://www.bilibili.com/video/BV1Qop4zBEin/?spm_id_from=333.1007.tianma.2-2-5.click"
	DefaultUnknownUploader      = "未知UP主"
	DefaultUntitledVideo        = "未命名视频"
	DefaultUncategorized        = "未分类"
	DefaultRegion               = "全国"
	DefaultPlaceholderChar      = "味"
	DefaultProductTitle         = "[TODO] 关联特色产品标题"
	DefaultProductDescription   = "[TODO] 关联特色产品描述"
	DefaultWebServerDebugMode   = false
	DefaultWebServerHost        = ""
	DefaultWebServerPort        = 7860
	DefaultTaskWorkerGoRoutines = 2
	DefaultConvertGoRoutines    = 8
	DefaultStatusSampleMillis   = 200
	StatusPending               = "等待中"
	StatusRunning               = "正在执行"
	StatusFailed                = "执行失败"
	StatusDone                  = "已完成"
	LinkTypePurchase            = "purchase"
	LinkTypeReference           = "reference"
	LinkTypeVideo               = "video"
	LinkTypeProfile             = "profile"
	PlatformBilibili            = "bilibili"
	ContentStatusDraft          = "draft"
	ContentStatusScheduled      = "scheduled"
	ContentStatusPublished      = "published"
	SortNewest                  = "newest"
	SortPopular                 = "popular"
	FilterAll                   = "all"
	TimeStampLayout             = "2006-01-02 15:04:05"
)

var (
	BiteupWorkDirPath  string
	BiteupOriginPath   string
	BiteupDetailsPath  string
	BiteupListPath     string
	BiteupPublicPath   string
	BiteupSettingsPath string
)

var MobileMode = false

type CommonError struct {
	Msg string
}

func (e *CommonError) Error() string {
	return e.Msg
}

type VarSettings struct {
	DefaultPageSize             int    `json:"defaultPageSize"`
	DefaultSiteBaseURL          string `json:"defaultSiteBaseURL"`
	DefaultWebServerHost        string `json:"defaultWebServerHost"`
	DefaultWebServerPort        int    `json:"defaultWebServerPort"`
	DefaultTaskWorkerGoRoutines int    `json:"defaultTaskWorkerGoRoutines"`
	DefaultConvertGoRoutines    int    `json:"defaultConvertGoRoutines"`
}

// UploaderSummary 列表页使用的 UP 主信息
type UploaderSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar"`
	Bio      string `json:"bio"`
	Verified bool   `json:"verified"`
}

// UploaderDetail 详情页额外带有粉丝数
type UploaderDetail struct {
	UploaderSummary
	FollowerCount int64 `json:"followerCount"`
}

type VideoInfo struct {
	Title       string `json:"title"`
	VideoURL    string `json:"videoUrl"`
	Thumbnail   string `json:"thumbnail"`
	Duration    string `json:"duration"`
	PublishDate string `json:"publishDate"`
	LikeCount   int64  `json:"likeCount"`
	Description string `json:"description"`
}

type SpecialtyProduct struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

type ExternalLink struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Type     string `json:"type"`
	Platform string `json:"platform"`
}

type ContentMetadata struct {
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
	Status    string `json:"status"`
	Category  string `json:"category"`
	Region    string `json:"region"`
	Featured  bool   `json:"featured"`
}

// ListItem 对应 list.json 中的一条记录
type ListItem struct {
	BVID             string           `json:"bvid"`
	Uploader         UploaderSummary  `json:"uploader"`
	VideoInfo        VideoInfo        `json:"videoInfo"`
	SpecialtyProduct SpecialtyProduct `json:"specialtyProduct"`
	Metadata         ContentMetadata  `json:"metadata"`
}

// ContentItem 对应 details/<bvid>.json
type ContentItem struct {
	BVID             string           `json:"bvid"`
	Uploader         UploaderDetail   `json:"uploader"`
	VideoInfo        VideoInfo        `json:"videoInfo"`
	SpecialtyProduct SpecialtyProduct `json:"specialtyProduct"`
	ExternalLinks    []ExternalLink   `json:"externalLinks"`
	Metadata         ContentMetadata  `json:"metadata"`
}

type ConvertSummary struct {
	Processed      int `json:"processed"`
	SkippedDetails int `json:"skippedDetails"`
	SkippedList    int `json:"skippedList"`
	UpdatedDetails int `json:"updatedDetails"`
	UpdatedList    int `json:"updatedList"`
}

type ConvertTaskInfo struct {
	Force  bool `json:"force"`
	DryRun bool `json:"dryRun"`
}

type ConvertTaskListData struct {
	UUID        string           `json:"uuid"`
	TimeStamp   string           `json:"timestamp"`
	TaskInfo    *ConvertTaskInfo `json:"taskInfo"`
	Summary     *ConvertSummary  `json:"summary"`
	LogCat      string           `json:"logCat"`
	ProgressNum float64          `json:"progressNum"`
	Status      string           `json:"status"`
	StatusMsg   string           `json:"statusMsg"`
	Duration    string           `json:"duration"`
}

type SystemResourceUsage struct {
	OSName                string  `json:"osName"`
	ExecuteTime           string  `json:"executeTime"`
	CpuUsagePercent       float64 `json:"cpuUsagePercent"`
	MemUsageTotalAndUsed  string  `json:"memUsageTotalAndUsed"`
	MemUsagePercent       float64 `json:"memUsagePercent"`
	DiskUsageTotalAndUsed string  `json:"diskUsageTotalAndUsed"`
	DiskUsagePercent      float64 `json:"diskUsagePercent"`
}

var StartTimestamp int64

var VarSettingsVariable VarSettings

var LogVariable strings.Builder

// LogMutex 保护 LogVariable
var LogMutex sync.Mutex

var ConvertTaskQueue chan *ConvertTaskListData
var ConvertTaskList map[string]*ConvertTaskListData

// ConvertTaskMutex 保护 ConvertTaskList 及其中任务的全部字段
var ConvertTaskMutex sync.RWMutex
