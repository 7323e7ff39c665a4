package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/biteup/biteup/bvid"
	"github.com/biteup/biteup/common"
	"github.com/biteup/biteup/utils"
)

func initData(dataPath string) {
	common.StartTimestamp = time.Now().Unix()
	if err := utils.DataPathInit(dataPath); err != nil {
		common.LogPrintln("", common.InitStr, common.ErStr, "初始化工作目录失败:", err)
		os.Exit(1)
	}
	if err := utils.SettingsInit(common.BiteupSettingsPath); err != nil {
		common.LogPrintln("", common.InitStr, common.ErStr, "读取配置失败:", err)
		os.Exit(1)
	}
}

// firstInput 优先使用 -i，其次使用剩余的位置参数
func firstInput(flagValue string, args []string) string {
	if strings.TrimSpace(flagValue) != "" {
		return flagValue
	}
	return strings.Join(args, " ")
}

func runBV2AV(input string) int {
	id, ok := bvid.Extract(input)
	if !ok {
		fmt.Println(common.BvStr, common.ErStr, "未能识别 BV 号，请检查输入是否正确。")
		return 1
	}
	aid, err := bvid.Decode(id)
	if err != nil {
		fmt.Println(common.BvStr, common.ErStr, "转换失败，请确认 BV 号是否填写完整。")
		return 1
	}
	utils.PrintPair(common.BvStr, bvid.Pair{BVID: id, AID: aid})
	return 0
}

func runAV2BV(input string) int {
	aid, err := bvid.ParseAV(input)
	if err != nil {
		fmt.Println(common.AvStr, common.ErStr, "AV 号必须是非负整数")
		return 1
	}
	id, err := bvid.Encode(aid)
	if err != nil {
		fmt.Println(common.AvStr, common.ErStr, err)
		return 1
	}
	utils.PrintPair(common.AvStr, bvid.Pair{BVID: id, AID: aid})
	return 0
}

func runScan(path string, args []string) int {
	var text string
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Println(common.ScanStr, common.ErStr, "读取文件失败:", err)
			return 1
		}
		text = string(data)
	} else if len(args) > 0 {
		text = strings.Join(args, " ")
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Println(common.ScanStr, common.ErStr, "读取标准输入失败:", err)
			return 1
		}
		text = string(data)
	}
	results := utils.ScanText(text)
	if len(results) == 0 {
		fmt.Println(common.ScanStr, "未找到 BV 号")
		return 1
	}
	fmt.Println(utils.FormatScanResults(results))
	return 0
}

func runList(q utils.Query) int {
	catalog := utils.NewCatalog(common.BiteupListPath, common.BiteupDetailsPath)
	if err := catalog.Load(); err != nil {
		fmt.Println(common.ListStr, common.ErStr, "加载数据失败:", err)
		return 1
	}
	result := catalog.Search(q, common.VarSettingsVariable.DefaultPageSize)
	if result.Total == 0 {
		fmt.Println(common.ListStr, "没有找到相关内容")
		return 0
	}
	for _, item := range result.Items {
		fmt.Printf("%s  %s  %s  [%s/%s]  ♥%d\n", item.BVID, item.Uploader.Name, item.VideoInfo.Title, item.Metadata.Region, item.Metadata.Category, item.VideoInfo.LikeCount)
	}
	fmt.Printf("%s 第 %d/%d 页，共 %d 条\n", common.ListStr, result.Page, result.TotalPages, result.Total)
	return 0
}

func main() {
	runtime.GOMAXPROCS(runtime.NumCPU())
	flag.Usage = func() {
		fmt.Fprintf(os.Stdout, "Usage: %s [command] [options]\n", os.Args[0])
		fmt.Fprintln(os.Stdout, "Double-click to run: Start via automatic mode")
		fmt.Fprintln(os.Stdout, "\nCommands:")
		fmt.Fprintln(os.Stdout, "bv2av\t将 BV 号或包含 BV 号的链接转换为 AV 号")
		fmt.Fprintln(os.Stdout, " Options:")
		fmt.Fprintln(os.Stdout, " -i\tThe BV id or url to convert")
		fmt.Fprintln(os.Stdout, "av2bv\t将 AV 号转换为 BV 号")
		fmt.Fprintln(os.Stdout, " Options:")
		fmt.Fprintln(os.Stdout, " -i\tThe AV number to convert, with or without the av prefix")
		fmt.Fprintln(os.Stdout, "scan\t从文本中提取全部 BV 号并转换")
		fmt.Fprintln(os.Stdout, " Options:")
		fmt.Fprintln(os.Stdout, " -f\tThe text file to scan(default: arguments or stdin)")
		fmt.Fprintln(os.Stdout, "convert\t将 origin 目录中的原始数据转换为详情与列表文件")
		fmt.Fprintln(os.Stdout, " Options:")
		fmt.Fprintln(os.Stdout, " -force\tOverwrite existing details and list items")
		fmt.Fprintln(os.Stdout, " -dry-run\tCompute the summary without writing files")
		fmt.Fprintln(os.Stdout, "sitemap\t生成 sitemap.xml")
		fmt.Fprintln(os.Stdout, " Options:")
		fmt.Fprintln(os.Stdout, " -base-url\tThe site base url(default: $BASE_URL or settings)")
		fmt.Fprintln(os.Stdout, " -o\tThe output path(default: public/sitemap.xml)")
		fmt.Fprintln(os.Stdout, "list\t搜索与浏览内容列表")
		fmt.Fprintln(os.Stdout, " Options:")
		fmt.Fprintln(os.Stdout, " -q\tSearch keyword")
		fmt.Fprintln(os.Stdout, " -region\tRegion filter")
		fmt.Fprintln(os.Stdout, " -category\tCategory filter")
		fmt.Fprintln(os.Stdout, " -featured\tOnly featured items")
		fmt.Fprintln(os.Stdout, " -sort\tnewest or popular(default=newest)")
		fmt.Fprintln(os.Stdout, " -page\tPage number(default=1)")
		fmt.Fprintln(os.Stdout, "web\t启动 Web 服务")
		fmt.Fprintln(os.Stdout, " Options:")
		fmt.Fprintln(os.Stdout, " -host\tThe listen host(default=all interfaces)")
		fmt.Fprintln(os.Stdout, " -port\tThe listen port(default="+strconv.Itoa(common.DefaultWebServerPort)+")")
		fmt.Fprintln(os.Stdout, "help\tShow this help")
		fmt.Fprintln(os.Stdout, "\nconvert, sitemap, list and web accept -d to set the data directory(default=./"+common.BiteupWorkDirName+")")
		flag.PrintDefaults()
	}

	bv2avFlag := flag.NewFlagSet("bv2av", flag.ExitOnError)
	bv2avInput := bv2avFlag.String("i", "", "The BV id or url to convert")

	av2bvFlag := flag.NewFlagSet("av2bv", flag.ExitOnError)
	av2bvInput := av2bvFlag.String("i", "", "The AV number to convert")

	scanFlag := flag.NewFlagSet("scan", flag.ExitOnError)
	scanFile := scanFlag.String("f", "", "The text file to scan")

	convertFlag := flag.NewFlagSet("convert", flag.ExitOnError)
	convertForce := convertFlag.Bool("force", false, "Overwrite existing details and list items")
	convertDryRun := convertFlag.Bool("dry-run", false, "Compute the summary without writing files")
	convertData := convertFlag.String("d", "", "The data directory")

	sitemapFlag := flag.NewFlagSet("sitemap", flag.ExitOnError)
	sitemapBaseURL := sitemapFlag.String("base-url", "", "The site base url")
	sitemapOutput := sitemapFlag.String("o", "", "The output path")
	sitemapData := sitemapFlag.String("d", "", "The data directory")

	listFlag := flag.NewFlagSet("list", flag.ExitOnError)
	listQ := listFlag.String("q", "", "Search keyword")
	listRegion := listFlag.String("region", "", "Region filter")
	listCategory := listFlag.String("category", "", "Category filter")
	listFeatured := listFlag.Bool("featured", false, "Only featured items")
	listSort := listFlag.String("sort", common.SortNewest, "newest or popular")
	listPage := listFlag.Int("page", 1, "Page number")
	listData := listFlag.String("d", "", "The data directory")

	webFlag := flag.NewFlagSet("web", flag.ExitOnError)
	webHost := webFlag.String("host", "", "The listen host")
	webPort := webFlag.Int("port", 0, "The listen port")
	webData := webFlag.String("d", "", "The data directory")

	if len(os.Args) < 2 {
		initData("")
		utils.AutoRun()
		utils.PressEnterToContinue()
		return
	}
	switch os.Args[1] {
	case "bv2av":
		err := bv2avFlag.Parse(os.Args[2:])
		if err != nil {
			fmt.Println(common.BvStr, "参数解析错误")
			return
		}
		os.Exit(runBV2AV(firstInput(*bv2avInput, bv2avFlag.Args())))
	case "av2bv":
		err := av2bvFlag.Parse(os.Args[2:])
		if err != nil {
			fmt.Println(common.AvStr, "参数解析错误")
			return
		}
		os.Exit(runAV2BV(firstInput(*av2bvInput, av2bvFlag.Args())))
	case "scan":
		err := scanFlag.Parse(os.Args[2:])
		if err != nil {
			fmt.Println(common.ScanStr, "参数解析错误")
			return
		}
		os.Exit(runScan(*scanFile, scanFlag.Args()))
	case "convert":
		err := convertFlag.Parse(os.Args[2:])
		if err != nil {
			fmt.Println(common.ConvStr, "参数解析错误")
			return
		}
		initData(*convertData)
		if _, err := utils.ConvertWithProgress(*convertForce, *convertDryRun); err != nil {
			os.Exit(1)
		}
	case "sitemap":
		err := sitemapFlag.Parse(os.Args[2:])
		if err != nil {
			fmt.Println(common.SitemapStr, "参数解析错误")
			return
		}
		initData(*sitemapData)
		baseURL := *sitemapBaseURL
		if baseURL == "" {
			baseURL = os.Getenv("BASE_URL")
		}
		if baseURL == "" {
			baseURL = common.VarSettingsVariable.DefaultSiteBaseURL
		}
		output := *sitemapOutput
		if output == "" {
			output = utils.SitemapOutputPath()
		}
		list, err := utils.LoadList(common.BiteupListPath)
		if err != nil {
			fmt.Println(common.SitemapStr, common.ErStr, "读取列表文件失败:", err)
			os.Exit(1)
		}
		if _, err := utils.GenerateSitemap(baseURL, list, output); err != nil {
			os.Exit(1)
		}
	case "list":
		err := listFlag.Parse(os.Args[2:])
		if err != nil {
			fmt.Println(common.ListStr, "参数解析错误")
			return
		}
		initData(*listData)
		os.Exit(runList(utils.Query{
			Q:        *listQ,
			Region:   *listRegion,
			Category: *listCategory,
			Featured: *listFeatured,
			Sort:     *listSort,
			Page:     *listPage,
		}))
	case "web":
		err := webFlag.Parse(os.Args[2:])
		if err != nil {
			fmt.Println(common.WebStr, "参数解析错误")
			return
		}
		initData(*webData)
		host := *webHost
		if host == "" {
			host = common.VarSettingsVariable.DefaultWebServerHost
		}
		utils.WebServer(host, *webPort)
	case "help":
		flag.Usage()
		return
	case "-h":
		flag.Usage()
		return
	case "--help":
		flag.Usage()
		return
	default:
		fmt.Println("Unknown command:", os.Args[1])
		flag.Usage()
	}
}
