package render

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strings"
)

// Document geometry in CSS pixels.
const (
	DocWidth     = 375
	DocMinHeight = 667
	docPadding   = 20

	cardRadius   = 12
	cardGap      = 4
	timeColWidth = 70
)

var ErrEmptyLayout = errors.New("layout has zero size")

type FaceKind int

const (
	FaceRegular FaceKind = iota
	FaceMedium
	FaceBold
	FaceItalic
	FaceTitle
)

// TextStyle selects a face, a pixel size and a CSS-like line height.
type TextStyle struct {
	Face       FaceKind
	Size       float64
	LineHeight float64 // multiple of Size
}

// Line is the height of one line box.
func (s TextStyle) Line() float64 { return s.Size * s.LineHeight }

// Measurer reports the advance width of a string in CSS pixels.
type Measurer interface {
	Advance(style TextStyle, s string) float64
}

type Align int

const (
	AlignLeft Align = iota
	AlignCenter
)

// Box is a filled, optionally rounded rectangle.
type Box struct {
	X, Y, W, H float64
	Radius     float64
	Fill       color.NRGBA
}

// Text is one line of text. (X, Y) is the top-left of its line box; with
// AlignCenter the line is centered within Width.
type Text struct {
	X, Y    float64
	Width   float64
	Align   Align
	Style   TextStyle
	Color   color.NRGBA
	Content string
}

// Document is a display list: boxes are painted first, then texts.
type Document struct {
	Width, Height float64
	Scheme        Scheme
	Boxes         []Box
	Texts         []Text
}

var (
	titleStyle    = TextStyle{FaceTitle, 48, 1.0}
	weekStyle     = TextStyle{FaceMedium, 12, 1.3}
	dayStyle      = TextStyle{FaceBold, 12, 1.3}
	timeStyle     = TextStyle{FaceMedium, 9, 1.3}
	descStyle     = TextStyle{FaceRegular, 10, 1.3}
	freeStyle     = TextStyle{FaceItalic, 9, 1.3}
	verseStyle    = TextStyle{FaceItalic, 9, 1.3}
	verseRefStyle = TextStyle{FaceMedium, 8, 1.3}

	cardFill   = color.NRGBA{255, 255, 255, 181} // rgba(255,255,255,0.71)
	cardBorder = color.NRGBA{0, 0, 0, 26}        // 1px ring at 0.1
)

// Layout builds the export document: title block, seven day cards Monday
// to Sunday, then the verse when one is given. Height grows with the
// content and never drops below DocMinHeight.
func Layout(week Week, verse *Verse, bg Background, locale Locale, m Measurer) (Document, error) {
	if m == nil {
		return Document{}, errors.New("layout: measurer is required")
	}
	lb := LabelsFor(locale)
	doc := Document{Width: DocWidth, Scheme: SchemeFor(bg.Identity)}
	sc := doc.Scheme

	x := float64(docPadding)
	cw := float64(DocWidth - 2*docPadding)
	y := float64(docPadding) + 6

	// header
	title := titleStyle
	if w := m.Advance(title, lb.Title); w > cw {
		title.Size = math.Floor(title.Size * cw / w)
	}
	doc.Texts = append(doc.Texts, Text{X: x, Y: y, Width: cw, Align: AlignCenter, Style: title, Color: sc.Primary, Content: lb.Title})
	y += title.Line() + 20
	doc.Texts = append(doc.Texts, Text{X: x, Y: y, Width: cw, Align: AlignCenter, Style: weekStyle, Color: withAlpha(sc.Secondary, 0.8), Content: fmt.Sprintf(lb.WeekLabel, week.ISOWeek)})
	y += weekStyle.Line() + 6 + 2 + 12

	for i, day := range week.Days {
		y = layoutDay(&doc, m, lb, i, day, x, y, cw)
		if i < len(week.Days)-1 {
			y += cardGap
		}
	}

	if verse != nil && strings.TrimSpace(verse.Text) != "" {
		y += 10 + 8
		inner := cw - 24
		for _, line := range wrap(m, verseStyle, `"`+verse.Text+`"`, inner) {
			doc.Texts = append(doc.Texts, Text{X: x + 12, Y: y, Width: inner, Align: AlignCenter, Style: verseStyle, Color: sc.Text, Content: line})
			y += verseStyle.Line()
		}
		y += 3
		if verse.Reference != "" {
			doc.Texts = append(doc.Texts, Text{X: x + 12, Y: y, Width: inner, Align: AlignCenter, Style: verseRefStyle, Color: sc.Secondary, Content: "— " + verse.Reference})
			y += verseRefStyle.Line()
		}
		y += 8
	}

	y += docPadding
	doc.Height = math.Max(math.Ceil(y), DocMinHeight)
	return doc, nil
}

func layoutDay(doc *Document, m Measurer, lb Labels, i int, day Day, x, y, cw float64) float64 {
	sc := doc.Scheme
	top := y
	cardIdx := len(doc.Boxes)
	// placeholders, sized once the content height is known
	doc.Boxes = append(doc.Boxes, Box{}, Box{})

	name := day.DayName
	if name == "" {
		name = lb.DayName[i]
	}
	date := day.DateLabel
	if date == "" {
		date = name
	}

	y += 2
	doc.Texts = append(doc.Texts, Text{X: x + 12, Y: y, Style: dayStyle, Color: sc.Primary, Content: name})
	doc.Texts = append(doc.Texts, Text{X: x + 12 + m.Advance(dayStyle, name) + 4, Y: y, Style: dayStyle, Color: sc.Primary, Content: date})
	y += dayStyle.Line() + 6

	if len(day.Tasks) == 0 {
		y += 6 + 2
		doc.Texts = append(doc.Texts, Text{X: x, Y: y, Width: cw, Align: AlignCenter, Style: freeStyle, Color: withAlpha(sc.Secondary, 0.6), Content: lb.Free})
		y += freeStyle.Line() + 2 + 6
	} else {
		y += 4
		descX := x + 6 + timeColWidth + 3
		descW := cw - 12 - timeColWidth - 6
		for j, task := range day.Tasks {
			rowTop := y
			doc.Texts = append(doc.Texts, Text{X: x + 6 + 7, Y: rowTop + 2, Style: timeStyle, Color: sc.Text, Content: NormalizeTimeLabel(task.TimeRange)})

			lineY := rowTop + 1
			for _, line := range wrap(m, descStyle, task.Description, descW) {
				doc.Texts = append(doc.Texts, Text{X: descX, Y: lineY, Style: descStyle, Color: sc.Text, Content: line})
				lineY += descStyle.Line()
			}
			rowH := math.Max(2+timeStyle.Line(), lineY+1-rowTop)
			y = rowTop + rowH
			if j == len(day.Tasks)-1 {
				y += 12
			} else {
				y += 2
			}
		}
		y += 4
	}

	h := y - top
	doc.Boxes[cardIdx] = Box{X: x - 1, Y: top - 1, W: cw + 2, H: h + 2, Radius: cardRadius + 1, Fill: cardBorder}
	doc.Boxes[cardIdx+1] = Box{X: x, Y: top, W: cw, H: h, Radius: cardRadius, Fill: cardFill}
	return y
}

// wrap breaks s into lines no wider than maxW. Words wider than a line
// are split by rune.
func wrap(m Measurer, style TextStyle, s string, maxW float64) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}
	var lines []string
	cur := ""
	for _, w := range words {
		cand := w
		if cur != "" {
			cand = cur + " " + w
		}
		if m.Advance(style, cand) <= maxW {
			cur = cand
			continue
		}
		if cur != "" {
			lines = append(lines, cur)
			cur = ""
		}
		for m.Advance(style, w) > maxW {
			head, rest := splitToFit(m, style, w, maxW)
			lines = append(lines, head)
			w = rest
		}
		cur = w
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}

// splitToFit returns the longest prefix of w that fits, at least one rune.
func splitToFit(m Measurer, style TextStyle, w string, maxW float64) (string, string) {
	runes := []rune(w)
	n := 1
	for n < len(runes) && m.Advance(style, string(runes[:n+1])) <= maxW {
		n++
	}
	return string(runes[:n]), string(runes[n:])
}
