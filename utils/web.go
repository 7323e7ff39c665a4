package utils

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/biteup/biteup/bvid"
	"github.com/biteup/biteup/common"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

type webHandler struct {
	catalog *Catalog
}

func pairResponse(p bvid.Pair) gin.H {
	return gin.H{
		"bvid":     p.BVID,
		"aid":      p.AID,
		"av":       p.AV(),
		"videoUrl": common.DefaultVideoURLPrefix + p.BVID,
		"apiUrl":   common.DefaultAPIViewURLPrefix + strconv.FormatInt(p.AID, 10),
	}
}

// BV2AV 接受 BV 号或包含 BV 号的链接
func (h *webHandler) BV2AV(c *gin.Context) {
	input := c.Query("input")
	id, ok := bvid.Extract(input)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "未能识别 BV 号，请检查输入是否正确。"})
		return
	}
	aid, err := bvid.Decode(id)
	if err != nil {
		common.LogPrintln("", common.WebStr, common.BvStr, common.ErStr, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "转换失败，请确认 BV 号是否填写完整。"})
		return
	}
	c.JSON(http.StatusOK, pairResponse(bvid.Pair{BVID: id, AID: aid}))
}

func (h *webHandler) AV2BV(c *gin.Context) {
	aid, err := bvid.ParseAV(c.Query("aid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "AV 号必须是非负整数"})
		return
	}
	id, err := bvid.Encode(aid)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, pairResponse(bvid.Pair{BVID: id, AID: aid}))
}

// Resolve 自动识别 BV 号或 AV 号
func (h *webHandler) Resolve(c *gin.Context) {
	p, err := bvid.Resolve(c.Query("input"))
	if err != nil {
		if errors.Is(err, bvid.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "未能识别 BV 号或 AV 号"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, pairResponse(p))
}

func (h *webHandler) Scan(c *gin.Context) {
	text := c.PostForm("text")
	if strings.TrimSpace(text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "文本不能为空"})
		return
	}
	results := ScanText(text)
	if results == nil {
		results = []ScanResult{}
	}
	c.JSON(http.StatusOK, gin.H{"data": results, "text": FormatScanResults(results)})
}

func (h *webHandler) ListItems(c *gin.Context) {
	q := ParseQuery(c.Request.URL.Query())
	c.JSON(http.StatusOK, h.catalog.Search(q, common.VarSettingsVariable.DefaultPageSize))
}

func (h *webHandler) GetItem(c *gin.Context) {
	detail, ok := h.catalog.Detail(c.Param("bvid"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "抱歉，未找到对应内容。"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":        detail,
		"categoryUrl": Query{Category: detail.Metadata.Category}.Link("/"),
	})
}

func (h *webHandler) GetFilters(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.FilterOptions())
}

func (h *webHandler) Sitemap(c *gin.Context) {
	entries, err := BuildSitemapEntries(common.VarSettingsVariable.DefaultSiteBaseURL, h.catalog.Items())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	data, err := CreateSitemapXML(entries)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", data)
}

func (h *webHandler) AddConvert(c *gin.Context) {
	force := c.PostForm("force") == "true"
	dryRun := c.PostForm("dryRun") == "true"
	uuidd := AddConvertTask(force, dryRun)
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("成功添加转换任务: %s", uuidd), "uuid": uuidd})
}

func (h *webHandler) GetConvertTaskList(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": ConvertTaskSnapshot()})
}

func (h *webHandler) GetConvertTaskLog(c *gin.Context) {
	logCat, ok := common.TaskLogSnapshot(c.Param("uuid"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "任务不存在"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": logCat})
}

func (h *webHandler) RemoveConvertTask(c *gin.Context) {
	if !DeleteConvertTask(c.Param("uuid")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "任务不存在"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "已删除任务"})
}

func (h *webHandler) ReloadCatalog(c *gin.Context) {
	if err := h.catalog.Load(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("已加载 %d 条内容", h.catalog.Len())})
}

func (h *webHandler) GetLog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": common.LogSnapshot()})
}

func (h *webHandler) GetStatus(c *gin.Context) {
	usage, err := GetSystemResourceUsage()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": usage, "version": common.BiteupVersionString, "items": h.catalog.Len()})
}

// NewRouter 注册全部 API 路由
func NewRouter(catalog *Catalog) *gin.Engine {
	h := &webHandler{catalog: catalog}
	r := gin.New()
	r.Use(gin.Recovery())
	if !common.MobileMode {
		r.Use(gin.Logger())
	}
	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/api/items")
	})
	r.GET("/sitemap.xml", h.Sitemap)
	api := r.Group("/api")
	{
		api.GET("/bv2av", h.BV2AV)
		api.GET("/av2bv", h.AV2BV)
		api.GET("/resolve", h.Resolve)
		api.POST("/scan", h.Scan)
		api.GET("/items", h.ListItems)
		api.GET("/items/:bvid", h.GetItem)
		api.GET("/filters", h.GetFilters)
		api.POST("/reload", h.ReloadCatalog)
		api.POST("/convert", h.AddConvert)
		api.GET("/convert-tasks", h.GetConvertTaskList)
		api.GET("/convert-tasks/:uuid/log", h.GetConvertTaskLog)
		api.DELETE("/convert-tasks/:uuid", h.RemoveConvertTask)
		api.GET("/log", h.GetLog)
		api.GET("/status", h.GetStatus)
	}
	return r
}

// WebServerInit 加载数据、启动任务协程并监听
func WebServerInit(host string, port int) error {
	catalog := NewCatalog(common.BiteupListPath, common.BiteupDetailsPath)
	if err := catalog.Load(); err != nil {
		common.LogPrintln("", common.WebStr, common.ErStr, "加载数据失败:", err)
		return err
	}
	ConvertTaskWorkerInit(catalog)
	if !common.DefaultWebServerDebugMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := NewRouter(catalog)
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	common.LogPrintln("", common.WebStr, "Web Server 在 "+addr+" 上监听")
	displayHost := host
	if displayHost == "" {
		displayHost = "127.0.0.1"
	}
	common.LogPrintln("", common.WebStr, "尝试访问: http://"+net.JoinHostPort(displayHost, strconv.Itoa(port))+"/api/items")
	if err := r.Run(addr); err != nil {
		common.LogPrintln("", common.WebStr, "Web Server 启动失败：", err)
		return err
	}
	return nil
}

func WebServer(host string, port int) {
	if port <= 0 {
		port = common.VarSettingsVariable.DefaultWebServerPort
	}
	if err := WebServerInit(host, port); err != nil {
		os.Exit(1)
	}
}
