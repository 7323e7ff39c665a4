package utils

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/biteup/biteup/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleOrigin = `{
  "code": 0,
  "message": "0",
  "data": {
    "bvid": "BV17x411w7KC",
    "aid": 170001,
    "title": "  自贡冷吃兔  ",
    "pic": "http://i0.hdslb.com/bfs/archive/cover.jpg",
    "desc": " 一口就上头 ",
    "duration": 3725,
    "pubdate": 1700000000,
    "ctime": 1699990000,
    "state": 0,
    "tname": "美食制作",
    "tname_v2": "",
    "owner": {
      "mid": 123,
      "name": "老王",
      "face": "//i0.hdslb.com/bfs/face/a.jpg",
      "official": {"type": 1}
    },
    "stat": {"like": 42}
  }
}`

func TestFormatDuration(t *testing.T) {
	cases := map[int64]string{
		-5:   "00:00",
		0:    "00:00",
		59:   "00:59",
		125:  "02:05",
		3600: "01:00:00",
		3725: "01:02:05",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatDuration(in), "seconds=%d", in)
	}
}

func TestEnsureHTTPS(t *testing.T) {
	assert.Equal(t, "", EnsureHTTPS(""))
	assert.Equal(t, "https://i0.hdslb.com/a.jpg", EnsureHTTPS("//i0.hdslb.com/a.jpg"))
	assert.Equal(t, "https://i0.hdslb.com/a.jpg", EnsureHTTPS("http://i0.hdslb.com/a.jpg"))
	assert.Equal(t, "https://i0.hdslb.com/a.jpg", EnsureHTTPS("https://i0.hdslb.com/a.jpg"))
}

func TestToISOString(t *testing.T) {
	assert.Equal(t, "2023-11-14T22:13:20.000Z", ToISOString(1700000000))

	old := nowFunc
	defer func() { nowFunc = old }()
	nowFunc = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 6e6, time.UTC) }
	assert.Equal(t, "2025-01-02T03:04:05.006Z", ToISOString(0))
}

func TestBuildDetailItem(t *testing.T) {
	item, err := BuildDetailItem([]byte(sampleOrigin))
	require.NoError(t, err)

	assert.Equal(t, "BV17x411w7KC", item.BVID)
	assert.Equal(t, "up_123", item.Uploader.ID)
	assert.Equal(t, "老王", item.Uploader.Name)
	assert.Equal(t, "https://i0.hdslb.com/bfs/face/a.jpg", item.Uploader.Avatar)
	assert.True(t, item.Uploader.Verified)

	assert.Equal(t, "自贡冷吃兔", item.VideoInfo.Title)
	assert.Equal(t, "https://www.bilibili.com/video/BV17x411w7KC", item.VideoInfo.VideoURL)
	assert.Equal(t, "https://i0.hdslb.com/bfs/archive/cover.jpg", item.VideoInfo.Thumbnail)
	assert.Equal(t, "01:02:05", item.VideoInfo.Duration)
	assert.Equal(t, "2023-11-14T22:13:20.000Z", item.VideoInfo.PublishDate)
	assert.EqualValues(t, 42, item.VideoInfo.LikeCount)
	assert.Equal(t, "一口就上头", item.VideoInfo.Description)

	assert.Equal(t, []string{"美食制作"}, item.SpecialtyProduct.Tags)
	assert.Equal(t, common.DefaultProductTitle, item.SpecialtyProduct.Title)

	require.Len(t, item.ExternalLinks, 3)
	assert.Equal(t, "老王 · B站主页", item.ExternalLinks[0].Title)
	assert.Equal(t, "https://space.bilibili.com/123", item.ExternalLinks[0].URL)
	assert.Equal(t, common.LinkTypeProfile, item.ExternalLinks[0].Type)
	assert.Equal(t, common.LinkTypePurchase, item.ExternalLinks[1].Type)
	assert.Equal(t, common.LinkTypeVideo, item.ExternalLinks[2].Type)

	assert.Equal(t, "2023-11-14T19:26:40.000Z", item.Metadata.CreatedAt)
	assert.Equal(t, item.VideoInfo.PublishDate, item.Metadata.UpdatedAt)
	assert.Equal(t, common.ContentStatusPublished, item.Metadata.Status)
	assert.Equal(t, "美食制作", item.Metadata.Category)
	assert.Equal(t, common.DefaultRegion, item.Metadata.Region)
	assert.False(t, item.Metadata.Featured)
}

func TestBuildDetailItemDefaults(t *testing.T) {
	item, err := BuildDetailItem([]byte(`{"bvid":"BV1xx411c7mD","state":-1}`))
	require.NoError(t, err)

	assert.Equal(t, "up_unknown", item.Uploader.ID)
	assert.Equal(t, common.DefaultUnknownUploader, item.Uploader.Name)
	assert.Equal(t, common.DefaultUntitledVideo, item.VideoInfo.Title)
	assert.Equal(t, "00:00", item.VideoInfo.Duration)
	assert.Equal(t, []string{}, item.SpecialtyProduct.Tags)
	assert.Equal(t, common.DefaultUncategorized, item.Metadata.Category)
	assert.Equal(t, common.ContentStatusDraft, item.Metadata.Status)
	assert.Equal(t, "UP主 · B站主页", item.ExternalLinks[0].Title)
	assert.Equal(t, item.VideoInfo.VideoURL, item.ExternalLinks[0].URL)
}

func TestBuildDetailItemRejects(t *testing.T) {
	cases := map[string]string{
		"not json":     `{"data":`,
		"api error":    `{"code":-404,"message":"啥都木有"}`,
		"no data":      `{"code":0}`,
		"no bvid":      `{"data":{"title":"x"}}`,
		"bad bvid":     `{"data":{"bvid":"BV1xx411c7m0"}}`,
		"aid mismatch": `{"data":{"bvid":"BV17x411w7KC","aid":170002}}`,
	}
	for name, raw := range cases {
		_, err := BuildDetailItem([]byte(raw))
		assert.Error(t, err, name)
	}
}

type convertDirs struct {
	origin  string
	details string
	list    string
}

func newConvertDirs(t *testing.T) convertDirs {
	t.Helper()
	root := t.TempDir()
	d := convertDirs{
		origin:  filepath.Join(root, "origin"),
		details: filepath.Join(root, "details"),
		list:    filepath.Join(root, "list.json"),
	}
	require.NoError(t, os.MkdirAll(d.origin, 0755))
	require.NoError(t, os.MkdirAll(d.details, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(d.origin, "a.json"), []byte(sampleOrigin), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(d.origin, "b.json"), []byte(`{"data":{"bvid":"BV1xx411c7mD","aid":2,"title":"第二条"}}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(d.origin, "notes.txt"), []byte("ignored"), 0644))
	return d
}

func (d convertDirs) options(force, dryRun bool) ConvertOptions {
	return ConvertOptions{
		OriginDir:  d.origin,
		DetailsDir: d.details,
		ListPath:   d.list,
		Force:      force,
		DryRun:     dryRun,
		Workers:    2,
	}
}

func TestConvertOrigin(t *testing.T) {
	d := newConvertDirs(t)

	var calls int
	opts := d.options(false, false)
	opts.Workers = 1
	opts.OnProgress = func(done, total int) {
		calls++
		assert.Equal(t, 2, total)
	}
	summary, err := ConvertOrigin(opts)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, common.ConvertSummary{Processed: 2, UpdatedDetails: 2, UpdatedList: 2}, summary)
	assert.FileExists(t, filepath.Join(d.details, "BV17x411w7KC.json"))
	assert.FileExists(t, filepath.Join(d.details, "BV1xx411c7mD.json"))

	list, err := LoadList(d.list)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "BV17x411w7KC", list[0].BVID)
	assert.Equal(t, "BV1xx411c7mD", list[1].BVID)

	summary, err = ConvertOrigin(d.options(false, false))
	require.NoError(t, err)
	assert.Equal(t, common.ConvertSummary{Processed: 2, SkippedDetails: 2, SkippedList: 2}, summary)

	summary, err = ConvertOrigin(d.options(true, false))
	require.NoError(t, err)
	assert.Equal(t, common.ConvertSummary{Processed: 2, UpdatedDetails: 2, UpdatedList: 2}, summary)

	list, err = LoadList(d.list)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestConvertOriginDryRun(t *testing.T) {
	d := newConvertDirs(t)

	summary, err := ConvertOrigin(d.options(false, true))
	require.NoError(t, err)
	assert.Equal(t, common.ConvertSummary{Processed: 2, UpdatedDetails: 2, UpdatedList: 2}, summary)
	assert.NoFileExists(t, d.list)
	assert.NoFileExists(t, filepath.Join(d.details, "BV17x411w7KC.json"))
}

func TestConvertOriginInvalidFile(t *testing.T) {
	d := newConvertDirs(t)
	require.NoError(t, os.WriteFile(filepath.Join(d.origin, "c.json"), []byte(`{"code":-400}`), 0644))

	_, err := ConvertOrigin(d.options(false, false))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "c.json")
	assert.NoFileExists(t, d.list)
}

func TestConvertOriginMissingDir(t *testing.T) {
	_, err := ConvertOrigin(ConvertOptions{OriginDir: filepath.Join(t.TempDir(), "nope")})
	assert.Error(t, err)
}

func seedCuratedList(t *testing.T, d convertDirs) {
	t.Helper()
	curated := common.ListItem{BVID: "BV17x411w7KC", VideoInfo: common.VideoInfo{Title: "手工整理"}}
	require.NoError(t, WriteJSON(d.list, []common.ListItem{curated}))
}

func TestConvertOriginConcurrentForce(t *testing.T) {
	for i := 0; i < 30; i++ {
		d := newConvertDirs(t)
		seedCuratedList(t, d)

		var wg sync.WaitGroup
		var forced, plain common.ConvertSummary
		var forcedErr, plainErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			forced, forcedErr = ConvertOrigin(d.options(true, false))
		}()
		go func() {
			defer wg.Done()
			plain, plainErr = ConvertOrigin(d.options(false, false))
		}()
		wg.Wait()
		require.NoError(t, forcedErr)
		require.NoError(t, plainErr)

		assert.Equal(t, 2, forced.UpdatedList)
		assert.Equal(t, 2, plain.UpdatedList+plain.SkippedList)

		list, err := LoadList(d.list)
		require.NoError(t, err)
		require.Len(t, list, 2, "run %d", i)
		assert.Equal(t, "自贡冷吃兔", list[0].VideoInfo.Title, "run %d", i)
		assert.Equal(t, "BV1xx411c7mD", list[1].BVID, "run %d", i)
	}
}
