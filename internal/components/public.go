package components

import (
	"archsite/internal/content"
	"archsite/internal/storage"

	"github.com/a-h/templ"
)

func Home(common CommonData, intro templ.Component, featured, news []*storage.Entity) templ.Component {
	return Layout(common, "", render(func(p *page) {
		p.raw(`<section class="hero">`)
		p.el("h1", common.SiteName)
		p.component(intro)
		p.raw("</section>")

		if len(featured) > 0 {
			p.raw(`<section class="featured"><h2>Selected work</h2>`)
			cards(p, "/projects/", featured)
			p.link("/projects", "All projects")
			p.raw("</section>")
		}

		if len(news) > 0 {
			p.raw(`<section class="latest-news"><h2>News</h2>`)
			newsItems(p, news)
			p.link("/news", "All news")
			p.raw("</section>")
		}
	}))
}

func ProjectList(common CommonData, projects []*storage.Entity) templ.Component {
	return Layout(common, "Projects", render(func(p *page) {
		p.raw("<h1>Projects</h1>")
		if len(projects) == 0 {
			p.raw(`<p class="empty">No projects yet.</p>`)
			return
		}
		cards(p, "/projects/", projects)
	}))
}

func ProjectDetail(common CommonData, project *storage.Entity, body templ.Component) templ.Component {
	return Layout(common, project.Title, render(func(p *page) {
		p.raw(`<article class="project">`)
		p.image(project.Cover(), project.Title, 1920)
		p.el("h1", project.Title)

		p.raw(`<dl class="facts">`)
		fact(p, "Category", project.Category)
		fact(p, "Location", project.Location)
		if project.CompletionDate != "" {
			fact(p, "Completed", formatMonth(project.CompletionDate))
		}
		p.raw("</dl>")

		p.raw(`<p class="lead">`)
		p.text(project.Description)
		p.raw("</p>")
		p.raw(`<div class="prose">`)
		p.component(body)
		p.raw("</div>")
		gallery(p, project)
		p.raw("</article>")
	}))
}

// About shows both static page slots followed by the services.
func About(common CommonData, intro, vision templ.Component, services []*storage.Entity) templ.Component {
	return Layout(common, "About", render(func(p *page) {
		p.raw(`<section class="intro"><h1>About</h1><div class="prose">`)
		p.component(intro)
		p.raw("</div></section>")

		p.raw(`<section class="services"><h2>Services</h2>`)
		serviceItems(p, services)
		p.raw("</section>")

		p.raw(`<section class="vision"><h2>Vision</h2><div class="prose">`)
		p.component(vision)
		p.raw("</div></section>")
	}))
}

func ServiceList(common CommonData, services []*storage.Entity) templ.Component {
	return Layout(common, "Services", render(func(p *page) {
		p.raw("<h1>Services</h1>")
		serviceItems(p, services)
	}))
}

func ServiceDetail(common CommonData, service *storage.Entity, body templ.Component) templ.Component {
	return Layout(common, service.Title, render(func(p *page) {
		p.raw(`<article class="service">`)
		p.image(service.Cover(), service.Title, 1200)
		p.el("h1", service.Title)
		p.raw(`<p class="lead">`)
		p.text(service.Description)
		p.raw(`</p><div class="prose">`)
		p.component(body)
		p.raw("</div>")
		gallery(p, service)
		p.link("/about/services", "All services")
		p.raw("</article>")
	}))
}

func NewsList(common CommonData, news []*storage.Entity) templ.Component {
	return Layout(common, "News", render(func(p *page) {
		p.raw("<h1>News</h1>")
		if len(news) == 0 {
			p.raw(`<p class="empty">Nothing published yet.</p>`)
			return
		}
		newsItems(p, news)
	}))
}

func NewsDetail(common CommonData, item *storage.Entity, body templ.Component) templ.Component {
	return Layout(common, item.Title, render(func(p *page) {
		p.raw(`<article class="news">`)
		p.image(item.Cover(), item.Title, 1200)
		p.el("h1", item.Title)
		p.raw("<time")
		p.attr("datetime", item.PublishDate.Format(content.DateLayout))
		p.raw(">")
		p.text(formatDate(item.PublishDate))
		p.raw(`</time><div class="prose">`)
		p.component(body)
		p.raw("</div>")
		gallery(p, item)
		p.link("/news", "All news")
		p.raw("</article>")
	}))
}

// Contact renders the public contact form. values refill the inputs after a
// rejected post.
func Contact(common CommonData, values content.Fields, errs content.FieldErrors, sent bool) templ.Component {
	return Layout(common, "Contact", render(func(p *page) {
		p.raw(`<section class="contact"><h1>Contact</h1>`)
		if sent {
			p.raw(`<p class="form-success">Thank you, we will get back to you shortly.</p></section>`)
			return
		}
		p.raw(`<form method="post" action="/contact">`)
		p.csrf(common.CSRFToken)
		input(p, "text", "name", "Name", values["name"], errs, true)
		input(p, "email", "email", "Email", values["email"], errs, true)
		input(p, "tel", "phone", "Phone", values["phone"], errs, false)
		textarea(p, "message", "Message", values["message"], errs, 6)
		p.raw(`<button type="submit">Send</button></form></section>`)
	}))
}

func cards(p *page, base string, entities []*storage.Entity) {
	p.raw(`<ul class="cards">`)
	for _, e := range entities {
		p.raw("<li><a")
		p.attr("href", base+e.Slug)
		p.raw(">")
		p.image(e.Cover(), e.Title, 800)
		p.el("h3", e.Title)
		if e.Category != "" {
			p.raw(`<p class="category">`)
			p.text(e.Category)
			p.raw("</p>")
		}
		p.raw("</a></li>")
	}
	p.raw("</ul>")
}

func newsItems(p *page, news []*storage.Entity) {
	p.raw(`<ul class="news-list">`)
	for _, n := range news {
		p.raw("<li>")
		p.raw("<time")
		p.attr("datetime", n.PublishDate.Format(content.DateLayout))
		p.raw(">")
		p.text(formatDate(n.PublishDate))
		p.raw("</time>")
		p.link("/news/"+n.Slug, n.Title)
		if n.Description != "" {
			p.el("p", n.Description)
		}
		p.raw("</li>")
	}
	p.raw("</ul>")
}

func serviceItems(p *page, services []*storage.Entity) {
	if len(services) == 0 {
		p.raw(`<p class="empty">No services listed.</p>`)
		return
	}
	p.raw(`<ul class="service-list">`)
	for _, s := range services {
		p.raw("<li>")
		p.link("/about/services/"+s.Slug, s.Title)
		p.el("p", s.Description)
		p.raw("</li>")
	}
	p.raw("</ul>")
}

func gallery(p *page, e *storage.Entity) {
	if len(e.ContentImages) == 0 {
		return
	}
	p.raw(`<div class="gallery">`)
	for _, img := range e.ContentImages {
		p.image(img, e.Title, 1200)
	}
	p.raw("</div>")
}

func fact(p *page, label, value string) {
	if value == "" {
		return
	}
	p.el("dt", label)
	p.el("dd", value)
}

func input(p *page, typ, name, label, value string, errs content.FieldErrors, required bool) {
	p.raw("<label>")
	p.text(label)
	p.raw(" <input")
	p.attr("type", typ)
	p.attr("name", name)
	p.attr("value", value)
	if required {
		p.raw(" required")
	}
	p.raw("></label>")
	fieldError(p, name, errs)
}

func textarea(p *page, name, label, value string, errs content.FieldErrors, rows int) {
	p.raw("<label>")
	p.text(label)
	p.raw(" <textarea")
	p.attr("name", name)
	p.rawf(` rows="%d">`, rows)
	p.text(value)
	p.raw("</textarea></label>")
	fieldError(p, name, errs)
}

func fieldError(p *page, name string, errs content.FieldErrors) {
	if msg, ok := errs[name]; ok {
		p.raw(`<p class="field-error">`)
		p.text(msg)
		p.raw("</p>")
	}
}
