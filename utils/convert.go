package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/biteup/biteup/bvid"
	"github.com/biteup/biteup/common"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"
)

// nowFunc 方便测试替换
var nowFunc = time.Now

// convertMutex 串行化 list.json 与 details 的读改写
var convertMutex sync.Mutex

const isoLayout = "2006-01-02T15:04:05.000Z"

type ConvertOptions struct {
	OriginDir  string
	DetailsDir string
	ListPath   string
	Force      bool
	DryRun     bool
	Workers    int
	UUID       string
	// OnProgress 每解析完一个文件回调一次，可能被并发调用
	OnProgress func(done, total int)
}

func pad(v int64) string {
	return fmt.Sprintf("%02d", v)
}

// EnsureHTTPS 将 // 与 http:// 开头的地址统一为 https
func EnsureHTTPS(u string) string {
	if u == "" {
		return ""
	}
	if strings.HasPrefix(u, "//") {
		return "https:" + u
	}
	if strings.HasPrefix(u, "http://") {
		return "https://" + strings.TrimPrefix(u, "http://")
	}
	return u
}

// ToISOString 将秒级时间戳转为 ISO 8601 字符串，非正数时使用当前时间
func ToISOString(ts int64) string {
	if ts > 0 {
		return time.Unix(ts, 0).UTC().Format(isoLayout)
	}
	return nowFunc().UTC().Format(isoLayout)
}

// FormatDuration 将秒数格式化为 MM:SS 或 HH:MM:SS
func FormatDuration(seconds int64) string {
	if seconds <= 0 {
		return "00:00"
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	if hours > 0 {
		return pad(hours) + ":" + pad(minutes) + ":" + pad(secs)
	}
	return pad(minutes) + ":" + pad(secs)
}

func trimOr(v string, fallback string) string {
	if s := strings.TrimSpace(v); s != "" {
		return s
	}
	return fallback
}

// originData 定位原始数据中的 data 对象，兼容完整接口响应与裸 data 对象
func originData(raw []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, &common.CommonError{Msg: "无效的原始数据: 不是合法的 JSON"}
	}
	root := gjson.ParseBytes(raw)
	if code := root.Get("code"); code.Exists() && code.Int() != 0 {
		return gjson.Result{}, &common.CommonError{Msg: "接口返回错误: code=" + code.String() + " message=" + root.Get("message").String()}
	}
	if data := root.Get("data"); data.Exists() && data.IsObject() {
		return data, nil
	}
	if root.Get("bvid").Exists() {
		return root, nil
	}
	return gjson.Result{}, &common.CommonError{Msg: "无效的原始数据: 缺少 data 字段"}
}

// BuildDetailItem 将视频接口原始数据转换为详情页记录
func BuildDetailItem(raw []byte) (*common.ContentItem, error) {
	data, err := originData(raw)
	if err != nil {
		return nil, err
	}
	id := strings.TrimSpace(data.Get("bvid").String())
	if id == "" {
		return nil, &common.CommonError{Msg: "无效的原始数据: 缺少 bvid"}
	}
	aid, err := bvid.Decode(id)
	if err != nil {
		return nil, &common.CommonError{Msg: "无效的原始数据: " + err.Error()}
	}
	if a := data.Get("aid"); a.Exists() && a.Int() != aid {
		return nil, &common.CommonError{Msg: fmt.Sprintf("无效的原始数据: aid(%d) 与 %s 不匹配(%d)", a.Int(), id, aid)}
	}

	owner := data.Get("owner")
	mid := owner.Get("mid").Int()
	uploaderID := "up_unknown"
	if mid != 0 {
		uploaderID = "up_" + strconv.FormatInt(mid, 10)
	}
	ownerName := strings.TrimSpace(owner.Get("name").String())

	var tags []string
	for _, key := range []string{"tname_v2", "tname"} {
		if v := data.Get(key).String(); v != "" {
			tags = append(tags, v)
		}
	}
	if tags == nil {
		tags = []string{}
	}

	publishTs := data.Get("pubdate")
	if !publishTs.Exists() || publishTs.Type == gjson.Null {
		publishTs = data.Get("ctime")
	}
	publishDate := ToISOString(publishTs.Int())

	videoURL := common.DefaultVideoURLPrefix + id
	profileURL := videoURL
	if mid != 0 {
		profileURL = common.DefaultSpaceURLPrefix + strconv.FormatInt(mid, 10)
	}

	status := common.ContentStatusDraft
	if state := data.Get("state"); state.Type == gjson.Number && state.Int() == 0 {
		status = common.ContentStatusPublished
	}

	return &common.ContentItem{
		BVID: id,
		Uploader: common.UploaderDetail{
			UploaderSummary: common.UploaderSummary{
				ID:       uploaderID,
				Name:     trimOr(ownerName, common.DefaultUnknownUploader),
				Avatar:   EnsureHTTPS(owner.Get("face").String()),
				Bio:      "",
				Verified: owner.Get("official.type").Int() == 1 || owner.Get("official.certType").Int() == 1,
			},
			FollowerCount: 0,
		},
		VideoInfo: common.VideoInfo{
			Title:       trimOr(data.Get("title").String(), common.DefaultUntitledVideo),
			VideoURL:    videoURL,
			Thumbnail:   EnsureHTTPS(data.Get("pic").String()),
			Duration:    FormatDuration(data.Get("duration").Int()),
			PublishDate: publishDate,
			LikeCount:   data.Get("stat.like").Int(),
			Description: strings.TrimSpace(data.Get("desc").String()),
		},
		SpecialtyProduct: common.SpecialtyProduct{
			Title:       common.DefaultProductTitle,
			Description: common.DefaultProductDescription,
			Tags:        tags,
		},
		ExternalLinks: []common.ExternalLink{
			{
				Title:    trimOr(ownerName, "UP主") + " · B站主页",
				URL:      profileURL,
				Type:     common.LinkTypeProfile,
				Platform: common.PlatformBilibili,
			},
			{
				Title:    "特色商品链接",
				URL:      videoURL,
				Type:     common.LinkTypePurchase,
				Platform: common.PlatformBilibili,
			},
			{
				Title:    "视频原链接",
				URL:      videoURL,
				Type:     common.LinkTypeVideo,
				Platform: common.PlatformBilibili,
			},
		},
		Metadata: common.ContentMetadata{
			CreatedAt: ToISOString(data.Get("ctime").Int()),
			UpdatedAt: publishDate,
			Status:    status,
			Category:  trimOr(data.Get("tname_v2").String(), trimOr(data.Get("tname").String(), common.DefaultUncategorized)),
			Region:    common.DefaultRegion,
			Featured:  false,
		},
	}, nil
}

// ToListItem 截取列表页需要的字段
func ToListItem(detail *common.ContentItem) common.ListItem {
	return common.ListItem{
		BVID:             detail.BVID,
		Uploader:         detail.Uploader.UploaderSummary,
		VideoInfo:        detail.VideoInfo,
		SpecialtyProduct: detail.SpecialtyProduct,
		Metadata:         detail.Metadata,
	}
}

func listOriginFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// ConvertOrigin 将 origin 目录下的原始数据转换为 details/<bvid>.json 并合并进 list.json
func ConvertOrigin(opts ConvertOptions) (common.ConvertSummary, error) {
	var summary common.ConvertSummary
	convertMutex.Lock()
	defer convertMutex.Unlock()
	files, err := listOriginFiles(opts.OriginDir)
	if err != nil {
		common.LogPrintln(opts.UUID, common.ConvStr, common.ErStr, "无法读取原始数据目录:", err)
		return summary, &common.CommonError{Msg: "无法读取原始数据目录: " + err.Error()}
	}
	list, err := LoadList(opts.ListPath)
	if err != nil {
		common.LogPrintln(opts.UUID, common.ConvStr, common.ErStr, "无法读取列表文件:", err)
		return summary, &common.CommonError{Msg: "无法读取列表文件: " + err.Error()}
	}
	common.LogPrintln(opts.UUID, common.ConvStr, "找到原始数据文件", len(files), "个")

	workers := opts.Workers
	if workers <= 0 {
		workers = common.DefaultConvertGoRoutines
	}
	details := make([]*common.ContentItem, len(files))
	var done int64
	g := new(errgroup.Group)
	g.SetLimit(workers)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			raw, err := os.ReadFile(f)
			if err != nil {
				return &common.CommonError{Msg: "读取文件失败: " + err.Error()}
			}
			detail, err := BuildDetailItem(raw)
			if err != nil {
				return &common.CommonError{Msg: filepath.Base(f) + ": " + err.Error()}
			}
			details[i] = detail
			n := atomic.AddInt64(&done, 1)
			if opts.OnProgress != nil {
				opts.OnProgress(int(n), len(files))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		common.LogPrintln(opts.UUID, common.ConvStr, common.ErStr, "转换失败:", err)
		return summary, err
	}

	listIndex := make(map[string]int, len(list))
	for i, item := range list {
		listIndex[item.BVID] = i
	}
	for _, detail := range details {
		detailPath := filepath.Join(opts.DetailsDir, detail.BVID+".json")
		if FileExists(detailPath) && !opts.Force {
			summary.SkippedDetails++
		} else {
			if !opts.DryRun {
				if err := WriteJSON(detailPath, detail); err != nil {
					common.LogPrintln(opts.UUID, common.ConvStr, common.ErStr, "写入详情文件失败:", err)
					return summary, &common.CommonError{Msg: "写入详情文件失败: " + err.Error()}
				}
			}
			summary.UpdatedDetails++
		}

		item := ToListItem(detail)
		if idx, ok := listIndex[detail.BVID]; ok {
			if opts.Force {
				list[idx] = item
				summary.UpdatedList++
			} else {
				summary.SkippedList++
			}
		} else {
			list = append(list, item)
			listIndex[detail.BVID] = len(list) - 1
			summary.UpdatedList++
		}
		summary.Processed++
	}

	if !opts.DryRun {
		if err := WriteJSON(opts.ListPath, list); err != nil {
			common.LogPrintln(opts.UUID, common.ConvStr, common.ErStr, "写入列表文件失败:", err)
			return summary, &common.CommonError{Msg: "写入列表文件失败: " + err.Error()}
		}
	}
	common.LogPrintf(opts.UUID, "%s 转换完成: 处理 %d, 更新详情 %d, 跳过详情 %d, 更新列表 %d, 跳过列表 %d\n",
		common.ConvStr, summary.Processed, summary.UpdatedDetails, summary.SkippedDetails, summary.UpdatedList, summary.SkippedList)
	if opts.DryRun {
		common.LogPrintln(opts.UUID, common.ConvStr, "提示：当前为 dry-run，未写入任何文件")
	}
	return summary, nil
}
