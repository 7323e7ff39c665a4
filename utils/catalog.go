package utils

import (
	"net/url"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/biteup/biteup/common"
)

// Catalog 保存已加载的列表与详情数据，可被并发读取
type Catalog struct {
	mu         sync.RWMutex
	listPath   string
	detailsDir string
	items      []common.ListItem
	details    map[string]*common.ContentItem
	linkTitles map[string][]string
}

func NewCatalog(listPath, detailsDir string) *Catalog {
	return &Catalog{
		listPath:   listPath,
		detailsDir: detailsDir,
		details:    make(map[string]*common.ContentItem),
		linkTitles: make(map[string][]string),
	}
}

// Load 重新读取磁盘数据，读取失败时保留旧数据
func (c *Catalog) Load() error {
	list, err := LoadList(c.listPath)
	if err != nil {
		common.LogPrintln("", common.DbStr, common.ErStr, "读取列表失败:", err)
		return err
	}
	details, err := LoadDetails(c.detailsDir)
	if err != nil {
		common.LogPrintln("", common.DbStr, common.ErStr, "读取详情失败:", err)
		return err
	}
	c.Replace(list, details)
	common.LogPrintln("", common.DbStr, "已加载列表", len(list), "条, 详情", len(details), "条")
	return nil
}

// Replace 用给定数据替换当前内容
func (c *Catalog) Replace(list []common.ListItem, details map[string]*common.ContentItem) {
	items := make([]common.ListItem, len(list))
	for i := range list {
		items[i] = enhanceListItem(list[i])
	}
	enhanced := make(map[string]*common.ContentItem, len(details))
	linkTitles := make(map[string][]string, len(details))
	for id, d := range details {
		e := enhanceDetailItem(*d)
		enhanced[id] = &e
		var titles []string
		for _, link := range e.ExternalLinks {
			if t := strings.TrimSpace(link.Title); t != "" {
				titles = append(titles, t)
			}
		}
		linkTitles[id] = titles
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = items
	c.details = enhanced
	c.linkTitles = linkTitles
}

// Save 将当前列表写回 list.json
func (c *Catalog) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return WriteJSON(c.listPath, c.items)
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Items 返回列表的副本
func (c *Catalog) Items() []common.ListItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]common.ListItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Catalog) Detail(id string) (*common.ContentItem, bool) {
	if id == "" {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.details[id]
	if !ok {
		return nil, false
	}
	cp := *d
	return &cp, true
}

type FilterOptions struct {
	Regions    []string `json:"regions"`
	Categories []string `json:"categories"`
}

// FilterOptions 按首次出现的顺序返回所有地区与分类
func (c *Catalog) FilterOptions() FilterOptions {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return filterOptionsOf(c.items)
}

func filterOptionsOf(items []common.ListItem) FilterOptions {
	opts := FilterOptions{Regions: []string{}, Categories: []string{}}
	seenRegion := make(map[string]bool)
	seenCategory := make(map[string]bool)
	for _, item := range items {
		if !seenRegion[item.Metadata.Region] {
			seenRegion[item.Metadata.Region] = true
			opts.Regions = append(opts.Regions, item.Metadata.Region)
		}
		if !seenCategory[item.Metadata.Category] {
			seenCategory[item.Metadata.Category] = true
			opts.Categories = append(opts.Categories, item.Metadata.Category)
		}
	}
	return opts
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// encodeURIComponent 与浏览器中同名函数的转义规则一致
func encodeURIComponent(s string) string {
	r := strings.NewReplacer("+", "%20", "%21", "!", "%27", "'", "%28", "(", "%29", ")", "%2A", "*")
	return r.Replace(url.QueryEscape(s))
}

func firstRune(s string, fallback string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	r, _ := utf8.DecodeRuneInString(s)
	return string(r)
}

func placeholderThumbnail(title string) string {
	char := firstRune(title, common.DefaultPlaceholderChar)
	svg := `<svg xmlns="http://www.w3.org/2000/svg" width="600" height="800" viewBox="0 0 600 800"><defs><linearGradient id="grad" x1="0%" y1="0%" x2="100%" y2="100%"><stop offset="0%" stop-color="#ff2e63"/><stop offset="100%" stop-color="#ff8a5c"/></linearGradient></defs><rect width="600" height="800" fill="url(#grad)"/><text x="50%" y="54%" font-family="'Noto Sans SC', 'PingFang SC', sans-serif" font-size="360" fill="#ffffff" text-anchor="middle" dominant-baseline="middle">` + char + `</text></svg>`
	return "data:image/svg+xml;utf8," + encodeURIComponent(svg)
}

func placeholderAvatar(name string) string {
	char := firstRune(name, common.DefaultPlaceholderChar)
	svg := `<svg xmlns="http://www.w3.org/2000/svg" width="160" height="160" viewBox="0 0 160 160"><defs><linearGradient id="avatar" x1="0%" y1="0%" x2="100%" y2="100%"><stop offset="0%" stop-color="#3a0ca3"/><stop offset="100%" stop-color="#ff2e63"/></linearGradient></defs><rect width="160" height="160" rx="36" fill="url(#avatar)"/><text x="50%" y="53%" font-family="'Noto Sans SC', 'PingFang SC', sans-serif" font-size="86" fill="#ffffff" text-anchor="middle" dominant-baseline="middle">` + char + `</text></svg>`
	return "data:image/svg+xml;utf8," + encodeURIComponent(svg)
}

func enhanceVideoInfo(v common.VideoInfo) common.VideoInfo {
	v.VideoURL = strings.TrimSpace(v.VideoURL)
	if v.VideoURL == "" {
		v.VideoURL = common.DefaultBilibiliURL
	}
	v.Thumbnail = strings.TrimSpace(v.Thumbnail)
	if v.Thumbnail == "" {
		v.Thumbnail = placeholderThumbnail(v.Title)
	}
	return v
}

func enhanceUploader(u common.UploaderSummary) common.UploaderSummary {
	u.Avatar = strings.TrimSpace(u.Avatar)
	if u.Avatar == "" {
		u.Avatar = placeholderAvatar(u.Name)
	}
	return u
}

func enhanceProduct(p common.SpecialtyProduct) common.SpecialtyProduct {
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return p
}

func enhanceListItem(item common.ListItem) common.ListItem {
	item.VideoInfo = enhanceVideoInfo(item.VideoInfo)
	item.Uploader = enhanceUploader(item.Uploader)
	item.SpecialtyProduct = enhanceProduct(item.SpecialtyProduct)
	return item
}

func enhanceDetailItem(item common.ContentItem) common.ContentItem {
	item.VideoInfo = enhanceVideoInfo(item.VideoInfo)
	item.Uploader.UploaderSummary = enhanceUploader(item.Uploader.UploaderSummary)
	item.SpecialtyProduct = enhanceProduct(item.SpecialtyProduct)
	links := make([]common.ExternalLink, len(item.ExternalLinks))
	for i, link := range item.ExternalLinks {
		link.URL = strings.TrimSpace(link.URL)
		links[i] = link
	}
	item.ExternalLinks = links
	return item
}
