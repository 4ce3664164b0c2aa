package reassemble

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"strings"

	treeblood "github.com/wyatt915/goldmark-treeblood"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"

	"github.com/joseph-ayodele/papertrans/constants"
	"github.com/joseph-ayodele/papertrans/internal/entity"
)

//go:embed assets/document.html.tmpl
var documentTemplate string

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
			extension.Strikethrough,
			treeblood.MathML(),
		),
		goldmark.WithRendererOptions(
			htmlrenderer.WithXHTML(),
		),
	)
	pageTemplate = template.Must(template.New("document").Parse(documentTemplate))
)

type renderedUnit struct {
	Kind         string
	Untranslated bool
	Body         template.HTML
}

type renderedPage struct {
	Number int
	Units  []renderedUnit
}

// RenderHTML renders the output as a standalone HTML page, one element per unit.
func RenderHTML(out entity.Output) ([]byte, error) {
	data := struct {
		Title       string
		SourceTitle string
		Abstract    template.HTML
		Tags        entity.Tags
		Degraded    bool
		Pages       []renderedPage
	}{
		Title:       out.Title,
		SourceTitle: out.SourceTitle,
		Tags:        out.Tags,
		Degraded:    out.Degraded,
	}

	abs, err := convert(out.Abstract)
	if err != nil {
		return nil, fmt.Errorf("render abstract: %w", err)
	}
	data.Abstract = abs

	for _, p := range out.Pages {
		rp := renderedPage{Number: p.Number}
		for i, u := range p.Units {
			body, err := renderUnit(u)
			if err != nil {
				return nil, fmt.Errorf("render page %d unit %d: %w", p.Number, i, err)
			}
			rp.Units = append(rp.Units, renderedUnit{Kind: string(u.Kind), Untranslated: u.Untranslated, Body: body})
		}
		data.Pages = append(data.Pages, rp)
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderUnit(u entity.Unit) (template.HTML, error) {
	switch {
	case u.IsFigure():
		return template.HTML(fmt.Sprintf(`<img src="%s" alt="figure p%d"/>`,
			template.HTMLEscapeString(u.ImageRef), u.Page)), nil
	case u.Kind == constants.KindFormula:
		return convert(displayMath(u.Text))
	default:
		return convert(u.Text)
	}
}

// displayMath wraps bare LaTeX in $$ so it is rendered as MathML.
func displayMath(s string) string {
	t := strings.TrimSpace(s)
	if strings.HasPrefix(t, "$") || strings.HasPrefix(t, "\\[") || strings.HasPrefix(t, constants.UntranslatedMarker) {
		return t
	}
	return "$$" + t + "$$"
}

func convert(md string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
