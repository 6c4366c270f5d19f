package views

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/apipath/blog/darkmode"
)

// DarkToggle renders the dark-mode checkbox. When action is set the form
// posts there; darkmode.Script takes over when scripts run.
func DarkToggle(pref darkmode.Preference, action, csrf string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := newWriter(ctx, out)
		w.raw(`<form class="dark-toggle" method="post"`)
		if action != "" {
			w.attr("action", action)
			w.raw(` data-persist="server"`)
		}
		w.raw(`>`)
		if csrf != "" {
			w.raw(`<input type="hidden" name="_csrf"`)
			w.attr("value", csrf)
			w.raw(`>`)
		}
		w.raw(`<label><input type="checkbox" name="dark"`)
		if pref != nil && pref.Value() {
			w.raw(` checked`)
		}
		w.raw(`> Dark mode</label>`)
		if action != "" {
			w.raw(`<noscript><button type="submit">Switch</button></noscript>`)
		}
		w.raw(`</form>`)
		return w.err
	})
}
