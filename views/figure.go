package views

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/apipath/blog/darkmode"
)

// FigureProps describe an image with a caption. With a non-nil Dark the
// image gets the "dark" class while the preference is on.
type FigureProps struct {
	Image   string
	Caption string
	Dark    darkmode.Preference
}

// Figure renders one image and its caption.
func Figure(props FigureProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		class := "m-0"
		if props.Dark != nil && props.Dark.Value() {
			class += " dark"
		}
		w := newWriter(ctx, out)
		w.raw(`<figure><img`)
		w.attr("class", class)
		w.attr("src", props.Image)
		w.attr("alt", props.Caption)
		if props.Dark != nil {
			w.raw(` data-dark-variant`)
		}
		w.raw(`><figcaption aria-hidden="true" class="text-center caption">`)
		w.text(props.Caption)
		w.raw(`</figcaption></figure>`)
		return w.err
	})
}
