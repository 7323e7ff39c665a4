package utils

import (
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/biteup/biteup/common"
	"github.com/google/go-querystring/query"
)

// Query 首页的搜索与筛选条件，url 标签用于生成筛选链接
type Query struct {
	Q        string `url:"q,omitempty"`
	Region   string `url:"region,omitempty"`
	Category string `url:"category,omitempty"`
	Featured bool   `url:"featured,omitempty,int"`
	Sort     string `url:"sort,omitempty"`
	Page     int    `url:"page,omitempty"`
}

type PageItem struct {
	Page     int  `json:"page,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
}

type SearchResult struct {
	Items      []common.ListItem `json:"items"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	TotalPages int               `json:"totalPages"`
	Pages      []PageItem        `json:"pages"`
	Query      Query             `json:"query"`
	Filters    FilterOptions     `json:"filters"`
	Prev       string            `json:"prev,omitempty"`
	Next       string            `json:"next,omitempty"`
}

// ParseQuery 从 URL 参数解析查询条件，非法值回退到默认值
func ParseQuery(values url.Values) Query {
	q := Query{
		Q:        values.Get("q"),
		Region:   values.Get("region"),
		Category: values.Get("category"),
		Featured: values.Get("featured") == "1",
		Sort:     common.SortNewest,
		Page:     1,
	}
	if q.Region == "" {
		q.Region = common.FilterAll
	}
	if q.Category == "" {
		q.Category = common.FilterAll
	}
	if values.Get("sort") == common.SortPopular {
		q.Sort = common.SortPopular
	}
	if p, err := strconv.Atoi(values.Get("page")); err == nil && p > 0 {
		q.Page = p
	}
	return q
}

// compact 去掉默认值，使生成的链接与首页保持一致
func (q Query) compact() Query {
	if q.Region == common.FilterAll {
		q.Region = ""
	}
	if q.Category == common.FilterAll {
		q.Category = ""
	}
	if q.Sort == common.SortNewest {
		q.Sort = ""
	}
	if q.Page <= 1 {
		q.Page = 0
	}
	return q
}

func (q Query) Encode() string {
	v, err := query.Values(q.compact())
	if err != nil {
		return ""
	}
	return v.Encode()
}

// Link 返回 path 加上查询参数，无参数时只返回 path
func (q Query) Link(path string) string {
	s := q.Encode()
	if s == "" {
		return path
	}
	return path + "?" + s
}

// BuildPages 生成分页按钮，总页数超过 7 时用省略号折叠
func BuildPages(current, total int) []PageItem {
	if total <= 7 {
		pages := make([]PageItem, 0, total)
		for i := 1; i <= total; i++ {
			pages = append(pages, PageItem{Page: i})
		}
		return pages
	}
	pages := []PageItem{{Page: 1}}
	start := current - 1
	if start < 2 {
		start = 2
	}
	end := current + 1
	if end > total-1 {
		end = total - 1
	}
	if start > 2 {
		pages = append(pages, PageItem{Ellipsis: true})
	}
	for p := start; p <= end; p++ {
		pages = append(pages, PageItem{Page: p})
	}
	if end < total-1 {
		pages = append(pages, PageItem{Ellipsis: true})
	}
	return append(pages, PageItem{Page: total})
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (c *Catalog) matches(item common.ListItem, lowerSearch string) bool {
	haystack := []string{
		item.VideoInfo.Title,
		item.VideoInfo.Description,
		item.SpecialtyProduct.Title,
		item.SpecialtyProduct.Description,
		item.Uploader.Name,
		item.Metadata.Region,
		item.Metadata.Category,
	}
	haystack = append(haystack, item.SpecialtyProduct.Tags...)
	haystack = append(haystack, c.linkTitles[item.BVID]...)
	for _, v := range haystack {
		if strings.Contains(strings.ToLower(v), lowerSearch) {
			return true
		}
	}
	return false
}

// Search 按关键词、地区、分类、精选过滤，排序后分页
func (c *Catalog) Search(q Query, pageSize int) SearchResult {
	if pageSize <= 0 {
		pageSize = common.DefaultPageSize
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	opts := filterOptionsOf(c.items)
	if q.Region == "" || (q.Region != common.FilterAll && !contains(opts.Regions, q.Region)) {
		q.Region = common.FilterAll
	}
	if q.Category == "" || (q.Category != common.FilterAll && !contains(opts.Categories, q.Category)) {
		q.Category = common.FilterAll
	}
	if q.Sort != common.SortPopular {
		q.Sort = common.SortNewest
	}
	lowerSearch := strings.ToLower(strings.TrimSpace(q.Q))

	var filtered []common.ListItem
	for _, item := range c.items {
		if lowerSearch != "" && !c.matches(item, lowerSearch) {
			continue
		}
		if q.Region != common.FilterAll && item.Metadata.Region != q.Region {
			continue
		}
		if q.Category != common.FilterAll && item.Metadata.Category != q.Category {
			continue
		}
		if q.Featured && !item.Metadata.Featured {
			continue
		}
		filtered = append(filtered, item)
	}

	if q.Sort == common.SortPopular {
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].VideoInfo.LikeCount > filtered[j].VideoInfo.LikeCount
		})
	} else {
		sort.SliceStable(filtered, func(i, j int) bool {
			return parseTime(filtered[i].Metadata.CreatedAt).After(parseTime(filtered[j].Metadata.CreatedAt))
		})
	}

	totalPages := int(math.Ceil(float64(len(filtered)) / float64(pageSize)))
	if totalPages < 1 {
		totalPages = 1
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Page > totalPages {
		q.Page = totalPages
	}
	start := (q.Page - 1) * pageSize
	end := start + pageSize
	if end > len(filtered) {
		end = len(filtered)
	}
	items := []common.ListItem{}
	if start < end {
		items = append(items, filtered[start:end]...)
	}

	res := SearchResult{
		Items:      items,
		Total:      len(filtered),
		Page:       q.Page,
		TotalPages: totalPages,
		Pages:      BuildPages(q.Page, totalPages),
		Query:      q,
		Filters:    opts,
	}
	if q.Page > 1 {
		prev := q
		prev.Page--
		res.Prev = prev.Link("/")
	}
	if q.Page < totalPages {
		next := q
		next.Page++
		res.Next = next.Link("/")
	}
	return res
}
