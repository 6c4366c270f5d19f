package blog

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// SiteMetadata is the site-wide data every page can read.
type SiteMetadata struct {
	Title       string `yaml:"title"`
	Author      Author `yaml:"author"`
	Description string `yaml:"description"`
	SiteURL     string `yaml:"siteUrl"`
	Social      Social `yaml:"social"`
	Work        Work   `yaml:"work"`
}

type Author struct {
	Name    string `yaml:"name"`
	Summary string `yaml:"summary"`
}

type Social struct {
	Twitter string `yaml:"twitter"`
	GitHub  string `yaml:"github"`
}

// Work is the author's employer. It is optional.
type Work struct {
	CompanyName string `yaml:"companyName"`
	Twitter     string `yaml:"twitter"`
}

func (a Author) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Name, validation.Required),
	)
}

func (s Social) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Twitter, validation.Required, validation.By(handle)),
		validation.Field(&s.GitHub, validation.Required, validation.By(handle)),
	)
}

func (m SiteMetadata) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Title, validation.Required),
		validation.Field(&m.Author),
		validation.Field(&m.SiteURL, validation.Required, validation.By(absoluteURL)),
		validation.Field(&m.Social),
	)
}

func handle(value any) error {
	s, _ := value.(string)
	if strings.ContainsAny(s, "/@ ") {
		return errors.New("must be a bare handle")
	}
	return nil
}

func absoluteURL(value any) error {
	s, _ := value.(string)
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("must be an absolute http(s) URL")
	}
	return nil
}

// Query returns the metadata value at a dotted path such as
// "social.twitter". A leading "site.siteMetadata." is accepted.
func (m SiteMetadata) Query(path string) (string, error) {
	key := strings.TrimPrefix(path, "site.siteMetadata.")
	var v string
	switch key {
	case "title":
		v = m.Title
	case "description":
		v = m.Description
	case "siteUrl":
		v = m.SiteURL
	case "author.name":
		v = m.Author.Name
	case "author.summary":
		v = m.Author.Summary
	case "social.twitter":
		v = m.Social.Twitter
	case "social.github":
		v = m.Social.GitHub
	case "work.companyName":
		v = m.Work.CompanyName
	case "work.twitter":
		v = m.Work.Twitter
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownField, path)
	}
	if v == "" {
		return "", fmt.Errorf("%w: %q", ErrEmptyField, path)
	}
	return v, nil
}
