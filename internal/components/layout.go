package components

import (
	"strings"

	"github.com/a-h/templ"
)

// CommonData is what every page needs regardless of its content.
type CommonData struct {
	SiteName  string
	Path      string
	Username  string // empty when nobody is logged in
	CSRFToken string
}

func (c CommonData) LoggedIn() bool { return c.Username != "" }

var publicNav = []struct{ href, label string }{
	{"/projects", "Projects"},
	{"/about", "About"},
	{"/about/services", "Services"},
	{"/news", "News"},
	{"/contact", "Contact"},
}

// Layout wraps body in the site chrome.
func Layout(common CommonData, title string, body templ.Component) templ.Component {
	return render(func(p *page) {
		p.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		p.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		p.raw("<title>")
		if title != "" {
			p.text(title + " | ")
		}
		p.text(common.SiteName)
		p.raw("</title>")
		p.raw(`<link rel="stylesheet" href="/static/css/site.css"></head><body>`)

		p.raw(`<header class="site-header"><a class="brand" href="/">`)
		p.text(common.SiteName)
		p.raw("</a><nav>")
		for _, item := range publicNav {
			if strings.HasPrefix(common.Path, item.href) {
				p.raw(`<a class="active"`)
			} else {
				p.raw("<a")
			}
			p.attr("href", item.href)
			p.raw(">")
			p.text(item.label)
			p.raw("</a>")
		}
		if common.LoggedIn() {
			p.link("/admin", "Admin")
			p.raw(`<form method="post" action="/logout" class="inline">`)
			p.csrf(common.CSRFToken)
			p.raw(`<button type="submit">Log out</button></form>`)
		}
		p.raw("</nav></header>")

		p.raw("<main>")
		p.component(body)
		p.raw("</main>")

		p.raw(`<footer class="site-footer"><p>`)
		p.text(common.SiteName)
		p.raw("</p></footer></body></html>")
	})
}

// ErrorPage is shown for every non-2xx HTML response.
func ErrorPage(common CommonData, code int, title, message string) templ.Component {
	return Layout(common, title, render(func(p *page) {
		p.raw(`<section class="error">`)
		p.rawf("<p class=\"code\">%d</p>", code)
		p.el("h1", title)
		p.el("p", message)
		p.link("/", "Back to the home page")
		p.raw("</section>")
	}))
}

// Login renders the admin sign-in form. username is echoed back on failure
// and next is where a successful login continues to.
func Login(common CommonData, username, next, errMsg string) templ.Component {
	return Layout(common, "Log in", render(func(p *page) {
		p.raw(`<section class="login"><h1>Log in</h1>`)
		if errMsg != "" {
			p.raw(`<p class="form-error">`)
			p.text(errMsg)
			p.raw("</p>")
		}
		p.raw(`<form method="post" action="/login">`)
		p.csrf(common.CSRFToken)
		if next != "" {
			p.raw(`<input type="hidden" name="next"`)
			p.attr("value", next)
			p.raw(">")
		}
		p.raw(`<label>Username <input type="text" name="username" required autocomplete="username"`)
		p.attr("value", username)
		p.raw(`></label>`)
		p.raw(`<label>Password <input type="password" name="password" required autocomplete="current-password"></label>`)
		p.raw(`<button type="submit">Log in</button></form></section>`)
	}))
}
