// Package typography generates the blog's base stylesheet from a theme and
// exposes the vertical rhythm helpers the views use for spacing.
package typography

// MobileMediaQuery is the breakpoint used by theme rules for small screens.
const MobileMediaQuery = "@media only screen and (max-width:480px)"

// Declarations maps CSS properties to values.
type Declarations map[string]string

// Rule is one selector block, optionally nested in a media query.
type Rule struct {
	Media    string
	Selector string
	Decls    Declarations
}

// Styles is an ordered list of rules. Later rules for the same selector and
// media query are merged into the first one.
type Styles []Rule

// Merge returns s with the rules of other folded in.
func (s Styles) Merge(other Styles) Styles {
	out := make(Styles, 0, len(s)+len(other))
	for _, r := range s {
		out = append(out, Rule{Media: r.Media, Selector: r.Selector, Decls: copyDecls(r.Decls)})
	}
	for _, r := range other {
		merged := false
		for i := range out {
			if out[i].Media == r.Media && out[i].Selector == r.Selector {
				for k, v := range r.Decls {
					out[i].Decls[k] = v
				}
				merged = true
				break
			}
		}
		if !merged {
			out = append(out, Rule{Media: r.Media, Selector: r.Selector, Decls: copyDecls(r.Decls)})
		}
	}
	return out
}

func copyDecls(d Declarations) Declarations {
	c := make(Declarations, len(d))
	for k, v := range d {
		c[k] = v
	}
	return c
}

// GoogleFont is a font family requested from Google Fonts.
type GoogleFont struct {
	Name   string
	Styles []string
}

// Helpers are the functions theme overrides can use.
type Helpers struct {
	Rhythm func(lines float64) string
	Scale  func(value float64) ScaleResult
}

// Theme is the input to New. OverrideThemeStyles belongs to the base theme;
// OverrideStyles is for site-level changes on top of it.
type Theme struct {
	Title            string
	BaseFontSize     float64 // px
	BaseLineHeight   float64
	ScaleRatio       float64
	GoogleFonts      []GoogleFont
	HeaderFontFamily []string
	BodyFontFamily   []string
	HeaderColor      string
	BodyColor        string
	HeaderWeight     int
	BodyWeight       int
	BoldWeight       int

	OverrideThemeStyles func(h Helpers) Styles
	OverrideStyles      func(h Helpers) Styles
}

// gray mirrors the gray-percentage helper: black with 100-lightness opacity.
func gray(lightness int) string {
	return "hsla(0,0%,0%," + formatNumber(float64(100-lightness)/100) + ")"
}

// Wordpress2016 returns the "Wordpress Theme 2016" base theme.
func Wordpress2016() Theme {
	return Theme{
		Title:          "Wordpress Theme 2016",
		BaseFontSize:   16,
		BaseLineHeight: 1.75,
		ScaleRatio:     5.0 / 2,
		GoogleFonts: []GoogleFont{
			{Name: "Montserrat", Styles: []string{"700"}},
			{Name: "Merriweather", Styles: []string{"400", "400i", "700", "700i", "900", "900i"}},
		},
		HeaderFontFamily: []string{"Merriweather", "Georgia", "serif"},
		BodyFontFamily:   []string{"Merriweather", "Georgia", "serif"},
		HeaderColor:      "inherit",
		BodyColor:        "hsla(0,0%,0%,0.9)",
		HeaderWeight:     900,
		BodyWeight:       400,
		BoldWeight:       700,
		OverrideThemeStyles: func(h Helpers) Styles {
			quote := h.Scale(1.0 / 5)
			return Styles{
				{Selector: "h1", Decls: Declarations{"font-family": "Montserrat,sans-serif"}},
				{Selector: "blockquote", Decls: Declarations{
					"font-size":    quote.FontSize,
					"line-height":  quote.LineHeight,
					"color":        gray(41),
					"font-style":   "italic",
					"padding-left": h.Rhythm(13.0 / 16),
					"margin-left":  h.Rhythm(-1),
					"border-left":  h.Rhythm(3.0/16) + " solid " + gray(10),
				}},
				{Selector: "blockquote > :last-child", Decls: Declarations{"margin-bottom": "0"}},
				{Selector: "blockquote cite:before", Decls: Declarations{"content": `"— "`}},
				{Selector: "ul", Decls: Declarations{"list-style": "disc"}},
				{Selector: "ul,ol", Decls: Declarations{"margin-left": "0"}},
				{Media: MobileMediaQuery, Selector: "ul,ol", Decls: Declarations{"margin-left": h.Rhythm(1)}},
				{Media: MobileMediaQuery, Selector: "blockquote", Decls: Declarations{
					"margin-left":  h.Rhythm(-3.0 / 4),
					"margin-right": "0",
					"padding-left": h.Rhythm(9.0 / 16),
				}},
				{Selector: "h1,h2,h3,h4,h5,h6", Decls: Declarations{"margin-top": h.Rhythm(2)}},
				{Selector: "h4", Decls: Declarations{"letter-spacing": "0.140625em", "text-transform": "uppercase"}},
				{Selector: "h6", Decls: Declarations{"font-style": "italic"}},
				{Selector: "a", Decls: Declarations{
					"box-shadow":      "0 1px 0 0 currentColor",
					"color":           "#007acc",
					"text-decoration": "none",
				}},
				{Selector: "a:hover,a:active", Decls: Declarations{"box-shadow": "none"}},
				{Selector: "mark,ins", Decls: Declarations{
					"background":      "#007acc",
					"color":           "white",
					"padding":         h.Rhythm(1.0/16) + " " + h.Rhythm(1.0/8),
					"text-decoration": "none",
				}},
			}
		},
	}
}

// Blog returns the Wordpress2016 theme with its overrides replaced by the
// blog's colour variables, and without web fonts.
func Blog() Theme {
	t := Wordpress2016()
	t.BodyColor = "var(--color-background)"
	t.GoogleFonts = nil
	t.OverrideThemeStyles = func(h Helpers) Styles {
		return Styles{
			{Selector: "a.resp-image-link", Decls: Declarations{"box-shadow": "none"}},
			{Selector: "a", Decls: Declarations{"color": "var(--color-primary)"}},
			{Selector: "h2", Decls: Declarations{"color": "var(--color-tertiary)"}},
			{Selector: "blockquote", Decls: Declarations{
				"border-left": h.Rhythm(3.0/16) + " solid var(--color-blockquote-border)",
			}},
		}
	}
	return t
}
