package scrape

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Slide is the caption and image of one slideshow page.
type Slide struct {
	Number   int
	Caption  string
	ImageURL string
}

// ParseSlide extracts the caption and image URL from a slide page. Meta tags
// are preferred; the .narrative block is the fallback. ok is false when either
// value is missing. Relative image URLs are resolved against page.
func ParseSlide(r io.Reader, page *url.URL) (Slide, bool, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Slide{}, false, fmt.Errorf("parse slide: %w", err)
	}
	caption := strings.TrimSpace(doc.Find(`meta[name="description"]`).First().AttrOr("content", ""))
	image := doc.Find(`meta[property="og:image"]`).First().AttrOr("content", "")

	if caption == "" || image == "" {
		narrative := doc.Find("div.narrative").First()
		if narrative.Length() > 0 {
			if p := narrative.Find("p").First(); p.Length() > 0 {
				caption = strings.TrimSpace(p.Text())
			}
			if href, ok := narrative.Find("p.download-hires a").First().Attr("href"); ok {
				image = href
			}
		}
	}

	image = stripQuery(strings.TrimSpace(image))
	if image != "" && page != nil {
		if ref, err := url.Parse(image); err == nil {
			image = page.ResolveReference(ref).String()
		}
	}
	slide := Slide{Caption: caption, ImageURL: image}
	return slide, caption != "" && image != "", nil
}

func stripQuery(raw string) string {
	if i := strings.Index(raw, "?"); i >= 0 {
		return raw[:i]
	}
	return raw
}

// CaptionPage renders the file-description page for a caption from story.
func CaptionPage(caption string, story int) string {
	return fmt.Sprintf(`== File info ==
{{cs
| caption = %s
| source = {{bwn|%d}}
}}
==File license==
{{Baha'i World News Service}}`, caption, story)
}
