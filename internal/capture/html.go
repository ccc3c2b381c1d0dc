package capture

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"image/color"
	"image/png"
	"strings"

	"weekplan/internal/render"
)

var pageTmpl = template.Must(template.New("page").Parse(`<!doctype html>
<html><head><meta charset="utf-8">
<style>
html,body{margin:0;padding:0}
#doc{position:relative;overflow:hidden;font-family:"Go","Inter","Helvetica Neue",Arial,sans-serif}
#doc div{position:absolute;white-space:pre;box-sizing:border-box}
</style></head>
<body><div id="doc" data-ready="true" style="{{.Style}}">
{{- range .Elems}}
<div style="{{.Style}}">{{.Content}}</div>
{{- end}}
</div></body></html>
`))

type elem struct {
	Style   template.CSS
	Content string
}

type pageData struct {
	Style template.CSS
	Elems []elem
}

// HTML renders doc as a standalone page whose geometry matches the
// layout in CSS pixels.
func HTML(doc render.Document, bg render.Background) ([]byte, error) {
	docStyle, err := backgroundCSS(bg)
	if err != nil {
		return nil, err
	}
	data := pageData{
		Style: template.CSS(fmt.Sprintf("width:%spx;height:%spx;%s", px(doc.Width), px(doc.Height), docStyle)),
	}
	for _, b := range doc.Boxes {
		data.Elems = append(data.Elems, elem{Style: template.CSS(fmt.Sprintf(
			"left:%spx;top:%spx;width:%spx;height:%spx;border-radius:%spx;background:%s",
			px(b.X), px(b.Y), px(b.W), px(b.H), px(b.Radius), rgba(b.Fill)))})
	}
	for _, t := range doc.Texts {
		var sb strings.Builder
		fmt.Fprintf(&sb, "left:%spx;top:%spx;font-size:%spx;line-height:%spx;color:%s;%s",
			px(t.X), px(t.Y), px(t.Style.Size), px(t.Style.Line()), rgba(t.Color), faceCSS(t.Style.Face))
		if t.Align == render.AlignCenter {
			fmt.Fprintf(&sb, ";width:%spx;text-align:center", px(t.Width))
		}
		data.Elems = append(data.Elems, elem{Style: template.CSS(sb.String()), Content: t.Content})
	}

	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func backgroundCSS(bg render.Background) (string, error) {
	switch bg.Kind {
	case render.BackgroundColor, render.BackgroundGradient:
		return "background:" + bg.CSS, nil
	case render.BackgroundImage:
		if bg.Image == nil {
			return "", nil
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, bg.Image); err != nil {
			return "", fmt.Errorf("encode background: %w", err)
		}
		return "background-image:url(data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()) +
			");background-size:cover;background-position:center;background-repeat:no-repeat", nil
	}
	return "background:transparent", nil
}

func faceCSS(f render.FaceKind) string {
	switch f {
	case render.FaceMedium:
		return "font-weight:500"
	case render.FaceBold:
		return "font-weight:700"
	case render.FaceItalic:
		return "font-style:italic"
	case render.FaceTitle:
		return "font-weight:500;font-style:italic"
	}
	return "font-weight:400"
}

func rgba(c color.NRGBA) string {
	return fmt.Sprintf("rgba(%d,%d,%d,%.3f)", c.R, c.G, c.B, float64(c.A)/255)
}

func px(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}
