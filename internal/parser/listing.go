package parser

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Seletores da página de listagem (tema WooCommerce do site).
const (
	ProductLinkSelector = "a.woocommerce-LoopProduct-link"
	productPathMarker   = "/produto/"
	emptyListingText    = "Nenhum produto encontrado"
)

// ProductLinks returns the absolute product URLs of a listing page in
// document order. Duplicates are kept; callers dedupe per category.
func ProductLinks(doc *goquery.Document, pageURL *url.URL) []string {
	anchors := doc.Find(ProductLinkSelector)
	if anchors.Length() == 0 {
		anchors = doc.Find("a[href]").FilterFunction(func(_ int, s *goquery.Selection) bool {
			return strings.Contains(s.AttrOr("href", ""), productPathMarker)
		})
	}

	links := make([]string, 0, anchors.Length())
	anchors.Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		if abs, ok := resolve(pageURL, href); ok {
			links = append(links, abs)
		}
	})
	return links
}

// EndOfListing reports whether the page shows the "no products" marker used
// past the last page of a paginated category.
func EndOfListing(doc *goquery.Document) bool {
	end := false
	doc.Find("h3").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		end = strings.TrimSpace(s.Text()) == emptyListingText
		return !end
	})
	return end
}

func resolve(base *url.URL, href string) (string, bool) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if !ref.IsAbs() {
		return "", false
	}
	ref.Fragment = ""
	ref.RawFragment = ""
	return ref.String(), true
}
