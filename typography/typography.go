package typography

import (
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// minLinePadding is the smallest gap, in px, kept between a font's size and
// its line height.
const minLinePadding = 2.0

// ScaleResult is a font size with a line height that stays on the rhythm.
type ScaleResult struct {
	FontSize   string
	LineHeight string
}

// Style renders r as inline CSS declarations.
func (r ScaleResult) Style() string {
	return "font-size: " + r.FontSize + "; line-height: " + r.LineHeight + ";"
}

// Typography computes spacing and generates CSS for a Theme.
type Typography struct {
	theme Theme
}

// New returns a Typography for t, filling zero sizes from Wordpress2016.
func New(t Theme) *Typography {
	base := Wordpress2016()
	if t.BaseFontSize <= 0 {
		t.BaseFontSize = base.BaseFontSize
	}
	if t.BaseLineHeight <= 0 {
		t.BaseLineHeight = base.BaseLineHeight
	}
	if t.ScaleRatio <= 0 {
		t.ScaleRatio = base.ScaleRatio
	}
	return &Typography{theme: t}
}

// Theme returns the theme in use.
func (t *Typography) Theme() Theme {
	return t.theme
}

func (t *Typography) lineHeightPx() float64 {
	return t.theme.BaseFontSize * t.theme.BaseLineHeight
}

// Rhythm returns the length of lines baseline lines in rem.
func (t *Typography) Rhythm(lines float64) string {
	return formatNumber(lines*t.lineHeightPx()/t.theme.BaseFontSize) + "rem"
}

// Scale returns the font size ScaleRatio^value times the base size, with a
// line height rounded up to the next half line.
func (t *Typography) Scale(value float64) ScaleResult {
	px := math.Pow(t.theme.ScaleRatio, value) * t.theme.BaseFontSize
	return ScaleResult{
		FontSize:   formatNumber(px/t.theme.BaseFontSize) + "rem",
		LineHeight: t.Rhythm(t.linesFor(px)),
	}
}

func (t *Typography) linesFor(px float64) float64 {
	lh := t.lineHeightPx()
	lines := math.Ceil(2*px/lh) / 2
	if lines*lh-px < minLinePadding*2 {
		lines += 0.5
	}
	return lines
}

func (t *Typography) helpers() Helpers {
	return Helpers{Rhythm: t.Rhythm, Scale: t.Scale}
}

// Styles returns the full rule set: base rules, then the theme's overrides,
// then site overrides.
func (t *Typography) Styles() Styles {
	th := t.theme
	h := t.helpers()
	block := Declarations{
		"margin-left":    "0",
		"margin-right":   "0",
		"margin-top":     "0",
		"padding-bottom": "0",
		"padding-left":   "0",
		"padding-right":  "0",
		"padding-top":    "0",
		"margin-bottom":  t.Rhythm(1),
	}
	s := Styles{
		{Selector: "html", Decls: Declarations{
			"font":                     formatNumber(th.BaseFontSize/16*100) + "%/" + formatNumber(th.BaseLineHeight) + " " + fontList(th.BodyFontFamily),
			"box-sizing":               "border-box",
			"overflow-y":               "scroll",
			"-webkit-text-size-adjust": "100%",
		}},
		{Selector: "*", Decls: Declarations{"box-sizing": "inherit"}},
		{Selector: "*:before", Decls: Declarations{"box-sizing": "inherit"}},
		{Selector: "*:after", Decls: Declarations{"box-sizing": "inherit"}},
		{Selector: "body", Decls: Declarations{
			"color":                     th.BodyColor,
			"font-family":               fontList(th.BodyFontFamily),
			"font-weight":               strconv.Itoa(th.BodyWeight),
			"word-wrap":                 "break-word",
			"font-kerning":              "normal",
			"margin":                    "0",
			"-ms-font-feature-settings": `"kern", "liga", "clig", "calt"`,
			"font-feature-settings":     `"kern", "liga", "clig", "calt"`,
		}},
		{Selector: "img", Decls: Declarations{"max-width": "100%"}},
		{Selector: "h1,h2,h3,h4,h5,h6,hgroup,ul,ol,dl,dd,p,figure,pre,table,fieldset,blockquote,form,noscript,iframe,img,hr,address", Decls: block},
		{Selector: "h1,h2,h3,h4,h5,h6", Decls: Declarations{
			"color":          th.HeaderColor,
			"font-family":    fontList(th.HeaderFontFamily),
			"font-weight":    strconv.Itoa(th.HeaderWeight),
			"text-rendering": "optimizeLegibility",
		}},
		{Selector: "b,strong,dt,th", Decls: Declarations{"font-weight": strconv.Itoa(th.BoldWeight)}},
		{Selector: "hr", Decls: Declarations{
			"background":    gray(80),
			"border":        "none",
			"height":        "1px",
			"margin-bottom": "calc(" + t.Rhythm(1) + " - 1px)",
		}},
		{Selector: "ol li,ul li", Decls: Declarations{"padding-left": "0"}},
		{Selector: "li", Decls: Declarations{"margin-bottom": "calc(" + t.Rhythm(1) + " / 2)"}},
		{Selector: "code,kbd,pre,samp", Decls: Declarations{"font-size": "0.85rem", "line-height": t.Rhythm(1)}},
		{Selector: "table", Decls: Declarations{"border-collapse": "collapse", "width": "100%"}},
		{Selector: "td,th", Decls: Declarations{
			"text-align":     "left",
			"border-bottom":  "1px solid " + gray(88),
			"padding-top":    t.Rhythm(1.0 / 2),
			"padding-bottom": "calc(" + t.Rhythm(1.0/2) + " - 1px)",
		}},
	}
	for i, v := range []float64{1, 3.0 / 5, 2.0 / 5, 0, -1.0 / 5, -1.5 / 5} {
		r := t.Scale(v)
		s = append(s, Rule{
			Selector: "h" + strconv.Itoa(i+1),
			Decls:    Declarations{"font-size": r.FontSize, "line-height": r.LineHeight},
		})
	}
	if th.OverrideThemeStyles != nil {
		s = s.Merge(th.OverrideThemeStyles(h))
	}
	if th.OverrideStyles != nil {
		s = s.Merge(th.OverrideStyles(h))
	}
	return s
}

// CSS renders Styles. Rules keep their order; declarations are sorted.
func (t *Typography) CSS() string {
	var b strings.Builder
	var media []Rule
	for _, r := range t.Styles() {
		if r.Media != "" {
			media = append(media, r)
			continue
		}
		writeRule(&b, r)
	}
	for i := 0; i < len(media); {
		q := media[i].Media
		b.WriteString(q)
		b.WriteString("{")
		for ; i < len(media) && media[i].Media == q; i++ {
			writeRule(&b, media[i])
		}
		b.WriteString("}")
	}
	return b.String()
}

func writeRule(b *strings.Builder, r Rule) {
	keys := make([]string, 0, len(r.Decls))
	for k := range r.Decls {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b.WriteString(r.Selector)
	b.WriteString("{")
	for _, k := range keys {
		fmt.Fprintf(b, "%s:%s;", k, r.Decls[k])
	}
	b.WriteString("}")
}

// GoogleFontsURL returns the stylesheet URL for the theme's web fonts, or ""
// when the theme uses none.
func (t *Typography) GoogleFontsURL() string {
	if len(t.theme.GoogleFonts) == 0 {
		return ""
	}
	families := make([]string, 0, len(t.theme.GoogleFonts))
	for _, f := range t.theme.GoogleFonts {
		fam := strings.ReplaceAll(f.Name, " ", "+")
		if len(f.Styles) > 0 {
			fam += ":" + strings.Join(f.Styles, ",")
		}
		families = append(families, fam)
	}
	return "https://fonts.googleapis.com/css?family=" + url.PathEscape(strings.Join(families, "|"))
}

// Injector receives the stylesheet when styles are injected live.
type Injector interface {
	InjectStyles(css string)
}

// InjectStyles hands t's stylesheet to inj unless env is "production", and
// reports whether it did.
func InjectStyles(env string, t *Typography, inj Injector) bool {
	if env == "production" || t == nil || inj == nil {
		return false
	}
	inj.InjectStyles(t.CSS())
	return true
}

func fontList(families []string) string {
	quoted := make([]string, len(families))
	for i, f := range families {
		switch f {
		case "serif", "sans-serif", "monospace", "cursive", "fantasy", "inherit":
			quoted[i] = f
		default:
			quoted[i] = "'" + f + "'"
		}
	}
	return strings.Join(quoted, ",")
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(math.Round(v*1e5)/1e5, 'f', -1, 64)
}
