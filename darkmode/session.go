package darkmode

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

// SessionName is the cookie session holding reader preferences.
const SessionName = "prefs"

const valueKey = "dark_mode"

// SessionPreference is a Store loaded from, and saved back to, the request's
// session. Create one per request.
type SessionPreference struct {
	*Store
	sess *sessions.Session
	c    echo.Context
	err  error
}

// FromSession loads the preference for the current request, or fallback
// when the reader never toggled. It needs the echo-contrib session
// middleware.
func FromSession(c echo.Context, fallback bool) (*SessionPreference, error) {
	sess, err := session.Get(SessionName, c)
	if err != nil {
		return nil, err
	}
	v, ok := sess.Values[valueKey].(bool)
	if !ok {
		v = fallback
	}
	p := &SessionPreference{Store: NewStore(v), sess: sess, c: c}
	p.Subscribe(p.save)
	return p, nil
}

func (p *SessionPreference) save(v bool) {
	p.sess.Values[valueKey] = v
	if err := p.sess.Save(p.c.Request(), p.c.Response()); err != nil {
		p.err = err
	}
}

// Err returns the last error from saving the session.
func (p *SessionPreference) Err() error {
	return p.err
}

// Current returns the request's preference, or fallback when there is no
// session.
func Current(c echo.Context, fallback bool) bool {
	p, err := FromSession(c, fallback)
	if err != nil {
		return fallback
	}
	return p.Value()
}

// ValueField is the form field carrying an explicit preference.
const ValueField = "value"

// ToggleHandler stores the reader's preference and redirects back to the
// page the form was posted from. A request carrying ValueField sets the
// preference to that value, so repeating it changes nothing; without it the
// preference flips once. onToggle, if set, receives the new value when it
// changed.
func ToggleHandler(fallback bool, onToggle func(bool)) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, err := FromSession(c, fallback)
		if err != nil {
			return err
		}
		before := p.Value()
		if raw := c.FormValue(ValueField); raw != "" {
			v, err := ParseValue(raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, err.Error())
			}
			p.Set(v)
		} else {
			p.Toggle()
		}
		if err := p.Err(); err != nil {
			return err
		}
		if onToggle != nil && p.Value() != before {
			onToggle(p.Value())
		}
		return c.Redirect(http.StatusSeeOther, redirectTarget(c.Request()))
	}
}

// ParseValue reads a form value: on, true or 1 for dark, off, false or 0
// for light.
func ParseValue(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid dark mode value %q", s)
}

// redirectTarget returns the Referer's path when it points at this host,
// otherwise "/".
func redirectTarget(r *http.Request) string {
	ref := r.Referer()
	if ref == "" {
		return "/"
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "/"
	}
	if u.Host != "" && u.Host != r.Host {
		return "/"
	}
	target := u.EscapedPath()
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return "/"
	}
	if u.RawQuery != "" {
		target += "?" + u.RawQuery
	}
	return target
}
