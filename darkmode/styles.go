package darkmode

import "strings"

// StylesheetName is the file the colour scheme is published as.
const StylesheetName = "theme.css"

// Palette is one colour scheme. Text is published as --color-background,
// the variable the typography theme uses for the body text colour.
type Palette struct {
	Page             string
	Text             string
	Primary          string
	Tertiary         string
	BlockquoteBorder string
}

var (
	// Light is the default scheme.
	Light = Palette{
		Page:             "#ffffff",
		Text:             "hsla(0,0%,0%,0.9)",
		Primary:          "#007acc",
		Tertiary:         "#1a1a1a",
		BlockquoteBorder: "hsla(0,0%,0%,0.9)",
	}
	// Dark is used while the body has ClassDark.
	Dark = Palette{
		Page:             "#282c35",
		Text:             "rgba(255,255,255,0.88)",
		Primary:          "#ffa7c4",
		Tertiary:         "#e3e3e3",
		BlockquoteBorder: "rgba(255,255,255,0.5)",
	}
)

// imageFilter dims and inverts figures drawn for light backgrounds.
const imageFilter = "invert(0.87) hue-rotate(180deg)"

func (p Palette) declarations() string {
	return "background-color:" + p.Page + ";" +
		"--color-background:" + p.Text + ";" +
		"--color-primary:" + p.Primary + ";" +
		"--color-tertiary:" + p.Tertiary + ";" +
		"--color-blockquote-border:" + p.BlockquoteBorder + ";"
}

// CSS returns the colour scheme stylesheet: the theme variables for both
// body classes and the dark treatment of figure images. Images marked with
// data-dark-variant also switch on the body class, so pages rendered ahead
// of time follow the reader's preference without a script.
func CSS() string {
	var b strings.Builder
	b.WriteString("body,body." + ClassLight + "{" + Light.declarations() + "transition:color .2s ease-out,background-color .2s ease-out;}")
	b.WriteString("body." + ClassDark + "{" + Dark.declarations() + "}")
	b.WriteString("img.dark,body." + ClassDark + " img[data-dark-variant]{filter:" + imageFilter + ";}")
	b.WriteString("form.dark-toggle{margin:0;}form.dark-toggle label{cursor:pointer;}")
	return b.String()
}
