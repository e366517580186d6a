// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package export turns a book into an EPUB file.

The first section holds the title, authors and the description rendered from
Markdown. Every page then becomes its own section drawn by the page renderer with
the page active, so animated content is visible. Images the store can resolve
locally are embedded; others keep their remote URL.
*/
package export

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	epub "github.com/go-shiori/go-epub"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dast-sv/lectoflip/internal/core/book"
	"github.com/dast-sv/lectoflip/internal/flipbook/node"
	"github.com/dast-sv/lectoflip/internal/flipbook/render"
	"github.com/dast-sv/lectoflip/internal/flipbook/theme"
)

//go:embed epub.css
var stylesheet []byte

// Language is the declared language of exported books.
const Language = "es"

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(gmhtml.WithXHTML()),
)

// ImageResolver maps an image URL to a local file that can be embedded.
type ImageResolver interface {
	Resolve(url string) (string, bool)
}

// Builder writes EPUB files.
type Builder struct {
	renderer *render.Renderer
	images   ImageResolver
	logger   *slog.Logger
}

// NewBuilder constructs a [Builder].
func NewBuilder(renderer *render.Renderer, images ImageResolver, logger *slog.Logger) *Builder {
	return &Builder{renderer: renderer, images: images, logger: logger}
}

// build carries the state of one export.
type build struct {
	*Builder
	epub     *epub.Epub
	css      string
	embedded map[string]string
}

/*
EPUB writes b as an EPUB document to w.

Parameters:
  - context: context.Context (Checked between pages)
  - b: *book.Book (With pages)
  - w: io.Writer

Returns:
  - error: Rendering, packaging or write failures
*/
func (builder *Builder) EPUB(context context.Context, b *book.Book, w io.Writer) error {
	document, err := epub.NewEpub(b.Title)
	if err != nil {
		return fmt.Errorf("export: create epub: %w", err)
	}
	document.SetLang(Language)
	document.SetIdentifier("urn:uuid:" + b.ID)
	if len(b.Authors) > 0 {
		document.SetAuthor(strings.Join(b.Authors, ", "))
	}
	if b.Description != "" {
		document.SetDescription(node.PlainText(b.Description))
	}

	css, err := document.AddCSS("data:text/css;base64,"+base64.StdEncoding.EncodeToString(stylesheet), "book.css")
	if err != nil {
		return fmt.Errorf("export: add stylesheet: %w", err)
	}

	current := &build{Builder: builder, epub: document, css: css, embedded: make(map[string]string)}

	// 1. Title section
	if err := current.addTitle(b); err != nil {
		return err
	}

	// 2. One section per page
	for i := range b.Pages {
		if err := context.Err(); err != nil {
			return err
		}
		if err := current.addPage(context, i, b); err != nil {
			return err
		}
	}

	// 3. Package
	if _, err := document.WriteTo(w); err != nil {
		return fmt.Errorf("export: write epub: %w", err)
	}
	return nil
}

func (current *build) addTitle(b *book.Book) error {
	section := node.Div("book-front",
		node.El(atom.H1, node.Attrs("class", "book-title"), node.Text(b.Title)),
	)
	if len(b.Authors) > 0 {
		node.Append(section, node.El(atom.P, node.Attrs("class", "book-authors"), node.Text(strings.Join(b.Authors, ", "))))
	}
	if cover := current.embed(b.CoverURL); cover != "" {
		node.Append(section, node.El(atom.Img, node.Attrs("class", "book-cover", "src", cover, "alt", b.Title)))
	}

	var body bytes.Buffer
	if err := node.Write(&body, section); err != nil {
		return fmt.Errorf("export: render title: %w", err)
	}
	if b.Description != "" {
		var description bytes.Buffer
		if err := markdown.Convert([]byte(b.Description), &description); err != nil {
			return fmt.Errorf("export: render description: %w", err)
		}
		body.WriteString(`<div class="book-description">`)
		body.WriteString(node.Sanitize(description.String()))
		body.WriteString(`</div>`)
	}

	if _, err := current.epub.AddSection(body.String(), b.Title, "front.xhtml", current.css); err != nil {
		return fmt.Errorf("export: add title section: %w", err)
	}
	return nil
}

func (current *build) addPage(context context.Context, index int, b *book.Book) error {
	p := b.Pages[index]
	frame, err := current.renderer.Render(&p, true)
	if err != nil {
		return fmt.Errorf("export: render page %d: %w", index+1, err)
	}

	// Point every reference of the page's images at the embedded copies.
	candidates := []string{p.Image}
	if theme.IsURL(p.Background) {
		candidates = append(candidates, p.Background)
	}
	for _, url := range candidates {
		if internal := current.embed(url); internal != "" {
			rewrite(frame, url, internal)
		} else if url != "" {
			current.logger.DebugContext(context, "epub_image_not_embedded",
				slog.String("book_id", b.ID),
				slog.Int("page", index+1),
			)
		}
	}

	title := fmt.Sprintf("Página %d", index+1)
	filename := fmt.Sprintf("page-%03d.xhtml", index+1)
	if _, err := current.epub.AddSection(node.Render(frame), title, filename, current.css); err != nil {
		return fmt.Errorf("export: add page %d: %w", index+1, err)
	}
	return nil
}

// embed adds the image at url once and returns its internal path, or "" when the
// image cannot be resolved locally.
func (current *build) embed(url string) string {
	url = strings.TrimSpace(url)
	if url == "" || current.images == nil {
		return ""
	}
	if internal, ok := current.embedded[url]; ok {
		return internal
	}

	local, ok := current.images.Resolve(url)
	if !ok {
		return ""
	}

	filename := fmt.Sprintf("image-%03d%s", len(current.embedded)+1, filepath.Ext(local))
	internal, err := current.epub.AddImage(local, filename)
	if err != nil {
		current.logger.Warn("epub_image_failed", slog.String("file", filename), slog.Any("error", err))
		return ""
	}
	current.embedded[url] = internal
	return internal
}

// rewrite replaces url inside every src and style attribute under root.
func rewrite(root *html.Node, url, replacement string) {
	everyElement := func(*html.Node) bool { return true }
	for _, element := range node.Find(root, everyElement) {
		for i, attr := range element.Attr {
			if attr.Key == "src" || attr.Key == "style" {
				element.Attr[i].Val = strings.ReplaceAll(attr.Val, url, replacement)
			}
		}
	}
}
