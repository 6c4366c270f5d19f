package blog

import (
	"encoding/json"
	"io"
)

// WebManifest is the manifest.webmanifest document.
type WebManifest struct {
	Name            string         `json:"name"`
	ShortName       string         `json:"short_name,omitempty"`
	Description     string         `json:"description,omitempty"`
	StartURL        string         `json:"start_url"`
	BackgroundColor string         `json:"background_color,omitempty"`
	ThemeColor      string         `json:"theme_color,omitempty"`
	Display         string         `json:"display,omitempty"`
	Icons           []ManifestIcon `json:"icons,omitempty"`
}

// NewWebManifest builds the manifest from configuration.
func NewWebManifest(cfg Config, icons []ManifestIcon) WebManifest {
	m := cfg.Manifest
	return WebManifest{
		Name:            m.Name,
		ShortName:       m.ShortName,
		Description:     cfg.SiteMetadata.Description,
		StartURL:        m.StartURL,
		BackgroundColor: m.BackgroundColor,
		ThemeColor:      m.ThemeColor,
		Display:         m.Display,
		Icons:           icons,
	}
}

// WriteTo writes the manifest as indented JSON.
func (m WebManifest) WriteTo(w io.Writer) (int64, error) {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return 0, err
	}
	n, err := w.Write(append(b, '\n'))
	return int64(n), err
}
