package parser

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"

	"quiz-rag/internal/apperr"
)

const userAgent = "Mozilla/5.0"

var noiseTags = []string{"script", "style", "header", "nav", "footer", "aside", "form", "noscript"}

// WebExtractor downloads a page and keeps the text of its main content.
type WebExtractor struct {
	client *http.Client
}

func NewWebExtractor(client *http.Client) *WebExtractor {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &WebExtractor{client: client}
}

func (w *WebExtractor) Extract(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", apperr.WebPage("invalid web url %q: %v", url, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := w.client.Do(req)
	if err != nil {
		return "", apperr.WebPage("failed to fetch %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperr.WebPage("Failed to extract web content with status code %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", apperr.WebPage("failed to parse html from %s: %v", url, err)
	}

	text := MainText(doc)
	log.Debug().Str("url", url).Int("length", len(text)).Msg("extracted web page")
	return text, nil
}

// MainText strips page chrome and returns the text of the article, main
// element or #content div, falling back to the div with the most text.
func MainText(doc *goquery.Document) string {
	doc.Find(strings.Join(noiseTags, ",")).Remove()

	main := doc.Find("article").First()
	if main.Length() == 0 {
		main = doc.Find("main").First()
	}
	if main.Length() == 0 {
		main = doc.Find("div#content").First()
	}
	if main.Length() == 0 {
		longest := 0
		doc.Find("div").Each(func(_ int, s *goquery.Selection) {
			if n := len(s.Text()); n > longest {
				longest = n
				main = s
			}
		})
	}
	if main.Length() == 0 {
		return ""
	}
	return textLines(main.Nodes[0])
}

// textLines joins the trimmed text nodes under n, one per line.
func textLines(n *html.Node) string {
	var lines []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				lines = append(lines, t)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(lines, "\n")
}
