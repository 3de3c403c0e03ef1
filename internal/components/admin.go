package components

import (
	"archsite/internal/content"
	"archsite/internal/storage"
	"strconv"

	"github.com/a-h/templ"
)

// EntityForm is the state of an admin create or edit form.
type EntityForm struct {
	Kind   content.Kind
	ID     string // empty on create
	Values content.Fields
	Errors content.FieldErrors
	// Message is shown above the form for failures not tied to a field.
	Message string
	Cover   string
	Images  []string
}

func (f EntityForm) action() string {
	if f.ID == "" {
		return "/admin/" + f.Kind.Plural()
	}
	return "/admin/" + f.Kind.Plural() + "/" + f.ID
}

// EntityFormValues fills a form from a stored row.
func EntityFormValues(e *storage.Entity) content.Fields {
	f := content.Fields{
		"title":       e.Title,
		"slug":        e.Slug,
		"description": e.Description,
		"content":     e.Content,
	}
	switch e.Kind {
	case content.KindProject:
		f["category"] = e.Category
		f["location"] = e.Location
		f["completionDate"] = e.CompletionDate
		if e.IsFeatured {
			f["isFeatured"] = "on"
		}
	case content.KindNews:
		if !e.PublishDate.IsZero() {
			f["date"] = e.PublishDate.Format(content.DateLayout)
		}
		if e.IsPublished {
			f["isPublished"] = "on"
		}
	}
	return f
}

func adminLayout(common CommonData, title string, body templ.Component) templ.Component {
	return Layout(common, title, render(func(p *page) {
		p.raw(`<div class="admin"><nav class="admin-nav">`)
		p.link("/admin", "Dashboard")
		for _, k := range content.Kinds {
			p.link("/admin/"+k.Plural(), k.Label())
		}
		p.link("/admin/pages", "Pages")
		p.link("/admin/contacts", "Messages")
		p.raw(`</nav><div class="admin-body">`)
		p.component(body)
		p.raw("</div></div>")
	}))
}

func AdminDashboard(common CommonData, entities map[content.Kind]int64, contacts int64) templ.Component {
	return adminLayout(common, "Dashboard", render(func(p *page) {
		p.raw(`<h1>Dashboard</h1><ul class="stats">`)
		for _, k := range content.Kinds {
			p.raw("<li>")
			p.link("/admin/"+k.Plural(), k.Label())
			p.rawf(` <span class="count">%d</span></li>`, entities[k])
		}
		p.raw("<li>")
		p.link("/admin/contacts", "Messages")
		p.rawf(` <span class="count">%d</span></li></ul>`, contacts)
	}))
}

func AdminList(common CommonData, kind content.Kind, entities []*storage.Entity) templ.Component {
	return adminLayout(common, kind.Label(), render(func(p *page) {
		p.el("h1", kind.Label())
		p.raw(`<p><a class="button"`)
		p.attr("href", "/admin/"+kind.Plural()+"/new")
		p.raw(">New</a></p>")

		if len(entities) == 0 {
			p.raw(`<p class="empty">Nothing here yet.</p>`)
			return
		}

		p.raw(`<p class="count">`)
		p.text(countLabel(len(entities), "item"))
		p.raw("</p>")
		p.raw(`<table><thead><tr><th>Title</th><th>Slug</th><th>Status</th><th>Updated</th><th></th></tr></thead><tbody>`)
		for _, e := range entities {
			p.raw("<tr><td>")
			p.link("/admin/"+kind.Plural()+"/"+e.ID, e.Title)
			p.raw("</td>")
			p.el("td", e.Slug)
			p.el("td", status(e))
			p.el("td", formatDate(e.UpdatedAt))
			p.raw("<td>")
			deleteButton(p, common, "/admin/"+kind.Plural()+"/"+e.ID+"/delete", "Delete "+e.Title+"?")
			p.raw("</td></tr>")
		}
		p.raw("</tbody></table>")
	}))
}

func status(e *storage.Entity) string {
	switch e.Kind {
	case content.KindNews:
		if e.IsPublished {
			return "published"
		}
		return "draft"
	case content.KindProject:
		if e.IsFeatured {
			return "featured"
		}
	}
	return ""
}

func AdminEntityForm(common CommonData, form EntityForm) templ.Component {
	title := "New " + string(form.Kind)
	if form.ID != "" {
		title = "Edit " + string(form.Kind)
	}

	return adminLayout(common, title, render(func(p *page) {
		p.el("h1", title)
		if form.Message != "" {
			p.raw(`<p class="form-error">`)
			p.text(form.Message)
			p.raw("</p>")
		}

		p.raw(`<form method="post" enctype="multipart/form-data"`)
		p.attr("action", form.action())
		p.raw(">")
		p.csrf(common.CSRFToken)

		v, errs := form.Values, form.Errors
		input(p, "text", "title", "Title", v["title"], errs, true)
		input(p, "text", "slug", "Slug", v["slug"], errs, true)

		switch form.Kind {
		case content.KindProject:
			input(p, "text", "category", "Category", v["category"], errs, true)
			input(p, "text", "location", "Location", v["location"], errs, false)
			input(p, "month", "completionDate", "Completion date", v["completionDate"], errs, false)
			checkbox(p, "isFeatured", "Featured on the home page", v["isFeatured"] != "")
			textarea(p, "description", "Description", v["description"], errs, 3)
		case content.KindService:
			textarea(p, "description", "Description", v["description"], errs, 3)
		case content.KindNews:
			input(p, "date", "date", "Publish date", v["date"], errs, true)
			checkbox(p, "isPublished", "Published", v["isPublished"] != "")
			textarea(p, "description", "Summary", v["description"], errs, 3)
		}
		textarea(p, "content", "Content (markdown)", v["content"], errs, 16)

		p.raw(`<fieldset><legend>Cover image</legend>`)
		if form.Cover != "" {
			p.image(form.Cover, "current cover", 480)
			checkbox(p, "deleteCoverImage", "Remove cover", false)
		}
		p.raw(`<input type="file" name="coverImageFile" accept="image/*"></fieldset>`)

		p.raw(`<fieldset><legend>Images</legend>`)
		if len(form.Images) > 0 {
			p.raw(`<ul class="image-list">`)
			for _, img := range form.Images {
				p.raw("<li>")
				p.image(img, "", 480)
				p.raw(`<label><input type="checkbox" name="deleteImages"`)
				p.attr("value", img)
				p.raw("> Remove</label></li>")
			}
			p.raw("</ul>")
		}
		p.raw(`<input type="file" name="contentImagesFiles" accept="image/*" multiple></fieldset>`)

		p.raw(`<button type="submit">Save</button> `)
		p.link("/admin/"+form.Kind.Plural(), "Cancel")
		p.raw("</form>")
	}))
}

func AdminPages(common CommonData, pages []*storage.PageContent) templ.Component {
	return adminLayout(common, "Pages", render(func(p *page) {
		p.raw(`<h1>Pages</h1><ul class="page-slots">`)
		for _, pg := range pages {
			p.raw("<li>")
			p.link("/admin/pages/"+string(pg.Key), pg.Key.Title())
			p.el("p", pg.Key.Description())
			p.raw("</li>")
		}
		p.raw("</ul>")
	}))
}

func AdminPageForm(common CommonData, pg *storage.PageContent, errs content.FieldErrors) templ.Component {
	return adminLayout(common, pg.Key.Title(), render(func(p *page) {
		p.el("h1", pg.Key.Title())
		p.el("p", pg.Key.Description())
		p.raw(`<form method="post"`)
		p.attr("action", "/admin/pages/"+string(pg.Key))
		p.raw(">")
		p.csrf(common.CSRFToken)
		textarea(p, "content", "Content (markdown)", pg.Content, errs, 20)
		p.raw(`<button type="submit">Save</button> `)
		p.link("/admin/pages", "Cancel")
		p.raw("</form>")
	}))
}

func AdminContacts(common CommonData, msgs []*storage.ContactMessage) templ.Component {
	return adminLayout(common, "Messages", render(func(p *page) {
		p.raw(`<h1>Messages</h1>`)
		if len(msgs) == 0 {
			p.raw(`<p class="empty">No messages.</p>`)
			return
		}
		p.raw(`<ul class="messages">`)
		for _, m := range msgs {
			p.raw(`<li><p class="from">`)
			p.text(m.Name)
			p.raw(" &lt;")
			p.link("mailto:"+m.Email, m.Email)
			p.raw("&gt;")
			if m.Phone != nil {
				p.text(" " + *m.Phone)
			}
			p.raw("</p>")
			p.el("time", formatDate(m.CreatedAt))
			p.raw(`<p class="body">`)
			p.text(m.Message)
			p.raw("</p>")
			deleteButton(p, common, "/admin/contacts/"+m.ID+"/delete", "Delete this message?")
			p.raw("</li>")
		}
		p.raw("</ul>")
	}))
}

func checkbox(p *page, name, label string, checked bool) {
	p.raw(`<label><input type="checkbox"`)
	p.attr("name", name)
	if checked {
		p.raw(" checked")
	}
	p.raw("> ")
	p.text(label)
	p.raw("</label>")
}

func deleteButton(p *page, common CommonData, action, confirm string) {
	p.raw(`<form method="post" class="inline"`)
	p.attr("action", action)
	p.attr("data-confirm", confirm)
	p.raw(">")
	p.csrf(common.CSRFToken)
	p.raw(`<button type="submit" class="danger">Delete</button></form>`)
}

// countLabel renders "1 item" or "n items".
func countLabel(n int, singular string) string {
	if n == 1 {
		return "1 " + singular
	}
	return strconv.Itoa(n) + " " + singular + "s"
}
