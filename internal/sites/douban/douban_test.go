package douban

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio/folio/internal/catalog"
	"github.com/folio/folio/internal/sites"
	"github.com/folio/folio/internal/testutil"
)

const subjectPage = `<html><body>
<h1><span property="v:itemreviewed">活着</span></h1>
<div id="mainpic"><a class="nbg" href="#"><img src="https://img1.doubanio.com/view/subject/l/public/s29053580.jpg"></a></div>
<div id="info">
  <span><span class="pl"> 作者</span>: <a href="/author/1">余华</a></span><br/>
  <span class="pl">出版社:</span> 作家出版社<br/>
  <span class="pl">出版年:</span> 2012-8-1<br/>
  <span class="pl">页数:</span> 191<br/>
  <span class="pl">定价:</span> 20.00元<br/>
  <span class="pl">装帧:</span> 平装<br/>
  <span class="pl">丛书:</span>&nbsp;<a href="/series/1">余华作品（2012版）</a><br/>
  <span class="pl">ISBN:</span> 9787506365437<br/>
</div>
<div class="related_info">
  <h2><span>内容简介</span></h2>
  <div class="indent">
    <span class="short"><div class="intro"><p>short</p></div></span>
    <span class="all"><div class="intro"><p>地主少爷福贵嗜赌成性。</p><p>第二段。</p></div></span>
  </div>
</div>
<h2><span>这本书的其他版本</span> · · · <span class="pl">( <a href="https://book.douban.com/works/1008677">全部</a> )</span></h2>
</body></html>`

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/subject/4913064/":
			_, _ = io.WriteString(w, subjectPage)
		case "/works/1008677/":
			_, _ = io.WriteString(w, `<html><body><h1>活着 全部版本(91)</h1></body></html>`)
		case "/works/1/":
			_, _ = io.WriteString(w, `<html><body><h1> 全部版本(1)</h1></body></html>`)
		case "/subject/2/":
			_, _ = io.WriteString(w, `<html><body>检测到有异常请求从你的 IP 发出</body></html>`)
		case "/view/subject/l/public/s29053580.jpg":
			assert.Equal(t, "https://book.douban.com/subject/4913064/", r.Header.Get("Referer"))
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write([]byte{0xff, 0xd8})
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestBook_Scrape(t *testing.T) {
	server := newServer(t)
	defer server.Close()

	rc, err := NewBook(testutil.NewEnv(server)).Scrape(context.Background(), "4913064")
	require.NoError(t, err)

	md := rc.Metadata
	assert.Equal(t, "活着", md.Title)
	assert.Equal(t, []string{"余华"}, md.Authors)
	assert.Equal(t, "作家出版社", md.PubHouse)
	assert.Equal(t, 2012, md.PubYear)
	assert.Equal(t, 8, md.PubMonth)
	assert.Equal(t, 191, md.Pages)
	assert.Equal(t, "20.00元", md.Price)
	assert.Equal(t, "平装", md.Binding)
	assert.Equal(t, "余华作品（2012版）", md.Series)
	assert.Equal(t, "9787506365437", md.ISBN)
	assert.Equal(t, "地主少爷福贵嗜赌成性。\n第二段。", md.Brief)
	assert.Equal(t, "9787506365437", rc.LookupIDs[catalog.IDTypeISBN])
	assert.Equal(t, ".jpg", rc.CoverImageExt)

	require.Len(t, rc.RequiredResources, 1)
	req := rc.RequiredResources[0]
	assert.Equal(t, catalog.IDTypeDoubanBookWork, req.IDType)
	assert.Equal(t, "1008677", req.IDValue)
	assert.Equal(t, "活着", req.Title)
}

func TestBook_Blocked(t *testing.T) {
	server := newServer(t)
	defer server.Close()

	_, err := NewBook(testutil.NewEnv(server)).Scrape(context.Background(), "2")
	assert.ErrorIs(t, err, catalog.ErrFetch)
	assert.ErrorIs(t, err, ErrBlocked)
}

func TestWork_Scrape(t *testing.T) {
	server := newServer(t)
	defer server.Close()

	w := NewWork(testutil.NewEnv(server))
	rc, err := w.Scrape(context.Background(), "1008677")
	require.NoError(t, err)
	assert.Equal(t, "活着", rc.Metadata.Title)

	_, err = w.Scrape(context.Background(), "1")
	assert.ErrorIs(t, err, catalog.ErrParse)

	bypassed, ok := w.BypassScrape(catalog.RequiredResource{Title: "活着"})
	require.True(t, ok)
	assert.Equal(t, "活着", bypassed.Metadata.Title)
}

func TestPatterns(t *testing.T) {
	env := testutil.NewEnv(httptest.NewServer(http.NotFoundHandler()))
	reg := sites.NewBuilder().MustRegister(NewBook(env), NewWork(env)).Build()

	tests := []struct {
		url    string
		idType catalog.IDType
		id     string
	}{
		{"https://book.douban.com/subject/4913064/", catalog.IDTypeDoubanBook, "4913064"},
		{"http://m.douban.com/book/subject/4913064", catalog.IDTypeDoubanBook, "4913064"},
		{"https://book.douban.com/works/1008677", catalog.IDTypeDoubanBookWork, "1008677"},
	}
	for _, tt := range tests {
		site, err := reg.SiteByURL(tt.url)
		require.NoError(t, err, tt.url)
		assert.Equal(t, tt.idType, site.Info().IDType)
		assert.Equal(t, tt.id, site.IDValue)
	}
	assert.NoError(t, reg.Validate())
}

func TestParsePubDate(t *testing.T) {
	tests := []struct {
		in          string
		year, month int
	}{
		{"2012-8-1", 2012, 8},
		{"2012年8月", 2012, 8},
		{"8/2012", 2012, 8},
		{"1999", 1999, 0},
		{"2012-13", 2012, 0},
		{"", 0, 0},
	}
	for _, tt := range tests {
		y, m := parsePubDate(tt.in)
		assert.Equal(t, tt.year, y, tt.in)
		assert.Equal(t, tt.month, m, tt.in)
	}
}
