// Package extract pulls candidate URLs out of a markdown document. It walks
// the markdown AST for link and image destinations, and parses any embedded
// raw HTML for href and src attributes.
package extract

import (
	"bytes"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// FromMarkdown returns every candidate URL in the document, in order of
// appearance. Duplicates are preserved; the caller decides scheme filtering
// and caching. Unparseable embedded HTML aborts with an error.
func FromMarkdown(source []byte) ([]string, error) {
	root := goldmark.New().Parser().Parse(text.NewReader(source))

	var urls []string
	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Link:
			urls = append(urls, string(node.Destination))
		case *ast.Image:
			urls = append(urls, string(node.Destination))
		case *ast.AutoLink:
			urls = append(urls, string(node.URL(source)))
		case *ast.HTMLBlock:
			var buf bytes.Buffer
			for i := 0; i < node.Lines().Len(); i++ {
				seg := node.Lines().At(i)
				buf.Write(seg.Value(source))
			}
			found, ferr := fromHTMLFragment(buf.Bytes())
			if ferr != nil {
				return ast.WalkStop, ferr
			}
			urls = append(urls, found...)
		case *ast.RawHTML:
			var buf bytes.Buffer
			for i := 0; i < node.Segments.Len(); i++ {
				seg := node.Segments.At(i)
				buf.Write(seg.Value(source))
			}
			found, ferr := fromHTMLFragment(buf.Bytes())
			if ferr != nil {
				return ast.WalkStop, ferr
			}
			urls = append(urls, found...)
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("extract urls: %w", err)
	}
	return urls, nil
}

// fromHTMLFragment collects img src and a href values from a raw HTML
// fragment embedded in the document.
func fromHTMLFragment(fragment []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(fragment))
	if err != nil {
		return nil, fmt.Errorf("parse embedded html: %w", err)
	}
	var urls []string
	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		if src, ok := sel.Attr("src"); ok {
			urls = append(urls, src)
		}
	})
	doc.Find("a").Each(func(_ int, sel *goquery.Selection) {
		if href, ok := sel.Attr("href"); ok {
			urls = append(urls, href)
		}
	})
	return urls, nil
}
