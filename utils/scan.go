package utils

import (
	"strings"

	"github.com/biteup/biteup/bvid"
	"github.com/biteup/biteup/common"
	"mvdan.cc/xurls/v2"
)

type ScanResult struct {
	Source string `json:"source,omitempty"`
	BVID   string `json:"bvid"`
	AID    int64  `json:"aid"`
	AV     string `json:"av"`
}

func findURLs(text string) []string {
	urls := xurls.Relaxed().FindAllString(text, -1)
	for i, u := range urls {
		if !strings.HasPrefix(u, "http") {
			urls[i] = "http://" + u
		}
	}
	return urls
}

// ScanText 找出文本中全部 BV 号并转换，Source 为该 BV 号所在的链接
func ScanText(text string) []ScanResult {
	urls := findURLs(text)
	var results []ScanResult
	for _, id := range bvid.ExtractAll(text) {
		aid, err := bvid.Decode(id)
		if err != nil {
			common.LogPrintln("", common.ScanStr, common.ErStr, "转换失败:", id, err)
			continue
		}
		r := ScanResult{BVID: id, AID: aid, AV: bvid.FormatAV(aid)}
		for _, u := range urls {
			if found, ok := bvid.Extract(u); ok && found == id {
				r.Source = u
				break
			}
		}
		results = append(results, r)
	}
	return results
}

func FormatScanResults(results []ScanResult) string {
	var b strings.Builder
	for _, r := range results {
		if r.Source != "" {
			b.WriteString("✅ " + r.Source + "\n")
		}
		b.WriteString("🆎 " + r.BVID + " ➡️ " + r.AV + "\n\n")
	}
	return strings.TrimSuffix(b.String(), "\n\n")
}
