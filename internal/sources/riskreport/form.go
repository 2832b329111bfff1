package riskreport

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/custodia-labs/vetta/internal/sources/htmltext"
)

// form is an HTML form ready to submit.
type form struct {
	action *url.URL
	values url.Values
	email  string
	pass   string
}

// findForm returns the first form on the page with an email or password
// field, resolving its action against page. Returns nil if none exists.
func findForm(doc *html.Node, page *url.URL) *form {
	for _, n := range htmltext.FindAll(doc, atom.Form) {
		f := &form{action: page, values: url.Values{}}
		if action := htmltext.Attr(n, "action"); action != "" {
			if u, err := page.Parse(action); err == nil {
				f.action = u
			}
		}
		for _, in := range htmltext.FindAll(n, atom.Input) {
			name := htmltext.Attr(in, "name")
			if name == "" {
				continue
			}
			switch {
			case isPasswordInput(in):
				f.pass = name
			case isEmailInput(in):
				f.email = name
			default:
				f.values.Set(name, htmltext.Attr(in, "value"))
			}
		}
		if f.email != "" || f.pass != "" {
			return f
		}
	}
	return nil
}

func isPasswordInput(n *html.Node) bool {
	return strings.EqualFold(htmltext.Attr(n, "type"), "password")
}

func isEmailInput(n *html.Node) bool {
	if strings.EqualFold(htmltext.Attr(n, "type"), "email") {
		return true
	}
	for _, attr := range []string{"name", "id", "placeholder", "autocomplete"} {
		if strings.Contains(strings.ToLower(htmltext.Attr(n, attr)), "email") {
			return true
		}
	}
	return false
}

// fill sets the credential fields the form has and returns the values to post.
func (f *form) fill(email, password string) url.Values {
	values := url.Values{}
	for k, v := range f.values {
		values[k] = append([]string(nil), v...)
	}
	if f.email != "" {
		values.Set(f.email, email)
	}
	if f.pass != "" {
		values.Set(f.pass, password)
	}
	return values
}
