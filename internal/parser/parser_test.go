package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"quiz-rag/internal/apperr"
	"quiz-rag/internal/config"
)

func TestPreprocess(t *testing.T) {
	in := "Page Header 3\nHello,   world!! Costs $100...\n\n\n  Next line\nCompany Footer"
	assert.Equal(t, "Hello, world!! Costs 100. Next line", Preprocess(in))
}

func TestParseMarkdown(t *testing.T) {
	md := "# Photosynthesis\n\nPlants turn *light* into **sugar**.\n\n- chlorophyll\n- water\n\n```\nC6H12O6\n```\n"
	got, err := ParseMarkdown([]byte(md))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(got, "Photosynthesis\n\n"))
	assert.Contains(t, got, "Plants turn light into sugar.")
	assert.Contains(t, got, "chlorophyll\nwater")
	assert.Contains(t, got, "C6H12O6")
	for _, syntax := range []string{"#", "*", "```", "- "} {
		assert.NotContains(t, got, syntax)
	}
}

func TestParseXLSX(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"element", "symbol"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"gold", "Au"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	got, err := ParseXLSX(buf.Bytes())
	require.NoError(t, err)
	assert.Contains(t, got, "Sheet: Sheet1\n")
	assert.Contains(t, got, "element\tsymbol\n")
	assert.Contains(t, got, "gold\tAu\n")
}

func TestExtractTextFromXML(t *testing.T) {
	xml := `<w:body><w:p><w:r><w:t>First &amp; foremost</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Second</w:t><w:tab/><w:t>cell</w:t></w:r></w:p><w:p></w:p></w:body>`
	assert.Equal(t, "First & foremost\nSecond\tcell", extractTextFromXML(xml))
}

func TestParser_BinaryFormatsRejectGarbage(t *testing.T) {
	p := NewParser(nil)
	for _, name := range []string{config.SourcePDF, config.SourceDocx, config.SourceXlsx} {
		t.Run(name, func(t *testing.T) {
			_, err := p.Extract(context.Background(), config.Source{Name: name, Data: []byte("not a document")})
			require.Error(t, err)
			assert.ErrorIs(t, err, apperr.ErrDocumentParsing)
		})
	}
}

func TestParser_Extract(t *testing.T) {
	p := NewParser(nil)
	ctx := context.Background()

	got, err := p.Extract(ctx, config.Source{Name: config.SourceText, Data: []byte("plain text")})
	require.NoError(t, err)
	assert.Equal(t, "plain text", got)

	_, err = p.Extract(ctx, config.Source{Name: config.SourceYoutube, Data: []byte("https://youtu.be/x")})
	assert.ErrorIs(t, err, apperr.ErrNotImplemented)

	_, err = p.Extract(ctx, config.Source{Name: "fax"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestExtractAll_StopsAtFirstFailure(t *testing.T) {
	texts, err := ExtractAll(context.Background(), NewParser(nil), []config.Source{
		{Name: config.SourceText, Data: []byte("one")},
		{Name: config.SourceText, Data: []byte("two")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, texts)

	_, err = ExtractAll(context.Background(), NewParser(nil), []config.Source{
		{Name: config.SourceText, Data: []byte("one")},
		{Name: config.SourceVideo, Data: []byte("clip")},
	})
	assert.ErrorIs(t, err, apperr.ErrNotImplemented)
}

func TestWebExtractor(t *testing.T) {
	const page = `<html><head><style>p{}</style><script>var x = 1;</script></head><body>
<nav>Home | About</nav>
<header>Site banner</header>
<article><h1>Volcanoes</h1><p>Magma rises <b>through</b> the crust.</p></article>
<footer>Copyright</footer>
</body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
			fmt.Fprint(w, page)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	w := NewWebExtractor(srv.Client())

	got, err := w.Extract(context.Background(), srv.URL+"/ok")
	require.NoError(t, err)
	assert.Equal(t, "Volcanoes\nMagma rises\nthrough\nthe crust.", got)

	_, err = w.Extract(context.Background(), srv.URL+"/missing")
	require.ErrorIs(t, err, apperr.ErrWebPage)
	assert.Contains(t, err.Error(), "404")
}

func TestWebExtractor_FallsBackToLargestDiv(t *testing.T) {
	const page = `<html><body><div>short</div><div><p>the longest block of text</p></div></body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, page)
	}))
	defer srv.Close()

	got, err := NewParser(NewWebExtractor(srv.Client())).Extract(context.Background(),
		config.Source{Name: config.SourceWeb, Data: []byte(" " + srv.URL + " ")})
	require.NoError(t, err)
	assert.Equal(t, "the longest block of text", got)
}

func TestSourceFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("# notes"), 0o644))

	src, err := SourceFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.SourceMarkdown, src.Name)
	assert.Equal(t, []byte("# notes"), src.Data)

	_, err = SourceFromFile(filepath.Join(dir, "slides.pptx"))
	assert.Error(t, err)
}
