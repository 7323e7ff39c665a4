package utils

import (
	"encoding/xml"
	"net/url"
	"os"
	"path/filepath"
	"regexp"

	"github.com/biteup/biteup/common"
)

const sitemapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

var baseURLPattern = regexp.MustCompile(`(?i)^https?://`)

type SitemapEntry struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

type sitemapURLSet struct {
	XMLName xml.Name       `xml:"urlset"`
	Xmlns   string         `xml:"xmlns,attr"`
	URLs    []SitemapEntry `xml:"url"`
}

var staticRoutes = []SitemapEntry{
	{Loc: "/", ChangeFreq: "daily", Priority: "1.0"},
	{Loc: "/about", ChangeFreq: "monthly", Priority: "0.5"},
	{Loc: "/links", ChangeFreq: "weekly", Priority: "0.6"},
}

// resolveURL 将站内路径拼接到 base 上，只有根路径保留末尾斜杠
func resolveURL(base *url.URL, pathname string) string {
	ref, err := url.Parse(pathname)
	if err != nil {
		return ""
	}
	u := base.ResolveReference(ref).String()
	if pathname != "/" && len(u) > 0 && u[len(u)-1] == '/' {
		u = u[:len(u)-1]
	}
	return u
}

func formatSitemapDate(value string) string {
	if value == "" {
		return ""
	}
	t := parseTime(value)
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(isoLayout)
}

// BuildSitemapEntries 生成静态页面与内容页的条目，按 loc 去重
func BuildSitemapEntries(baseURL string, items []common.ListItem) ([]SitemapEntry, error) {
	if !baseURLPattern.MatchString(baseURL) {
		return nil, &common.CommonError{Msg: "Base URL 必须包含协议, 例如 https://example.com"}
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, &common.CommonError{Msg: "无法解析 Base URL: " + err.Error()}
	}
	now := nowFunc().UTC().Format(isoLayout)

	var entries []SitemapEntry
	for _, route := range staticRoutes {
		entries = append(entries, SitemapEntry{
			Loc:        resolveURL(base, route.Loc),
			LastMod:    now,
			ChangeFreq: route.ChangeFreq,
			Priority:   route.Priority,
		})
	}
	for _, item := range items {
		if item.BVID == "" {
			continue
		}
		lastMod := formatSitemapDate(item.Metadata.UpdatedAt)
		if lastMod == "" {
			lastMod = formatSitemapDate(item.VideoInfo.PublishDate)
		}
		entries = append(entries, SitemapEntry{
			Loc:        resolveURL(base, "/content/"+item.BVID),
			LastMod:    lastMod,
			ChangeFreq: "weekly",
			Priority:   "0.7",
		})
	}

	seen := make(map[string]bool, len(entries))
	deduped := entries[:0]
	for _, e := range entries {
		if seen[e.Loc] {
			continue
		}
		seen[e.Loc] = true
		deduped = append(deduped, e)
	}
	return deduped, nil
}

func CreateSitemapXML(entries []SitemapEntry) ([]byte, error) {
	body, err := xml.MarshalIndent(sitemapURLSet{Xmlns: sitemapNamespace, URLs: entries}, "", "  ")
	if err != nil {
		return nil, err
	}
	out := append([]byte(xml.Header), body...)
	return append(out, '\n'), nil
}

func SitemapOutputPath() string {
	return filepath.Join(common.BiteupPublicPath, common.BiteupSitemapFileName)
}

// GenerateSitemap 生成 sitemap.xml 写入 outputPath，返回条目数量
func GenerateSitemap(baseURL string, items []common.ListItem, outputPath string) (int, error) {
	entries, err := BuildSitemapEntries(baseURL, items)
	if err != nil {
		common.LogPrintln("", common.SitemapStr, common.ErStr, err)
		return 0, err
	}
	data, err := CreateSitemapXML(entries)
	if err != nil {
		common.LogPrintln("", common.SitemapStr, common.ErStr, "生成 XML 失败:", err)
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return 0, err
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		common.LogPrintln("", common.SitemapStr, common.ErStr, "写入文件失败:", err)
		return 0, err
	}
	common.LogPrintf("", "%s Sitemap generated with %d entries at %s\n", common.SitemapStr, len(entries), outputPath)
	return len(entries), nil
}
