package handlers

import (
	"archsite/internal/components"
	"archsite/internal/content"
	"net/http"
)

const (
	homeFeaturedLimit = 6
	homeNewsLimit     = 3
)

func (h *SiteHandler) HandleHome() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		q := h.Services.Query

		featured, err := q.FeaturedProjects(ctx, homeFeaturedLimit)
		if err != nil {
			h.fail(w, r, err)
			return
		}

		news, err := q.LatestNews(ctx, homeNewsLimit)
		if err != nil {
			h.fail(w, r, err)
			return
		}

		intro, err := h.Services.Pages.Get(ctx, content.PageIntro)
		if err != nil {
			h.fail(w, r, err)
			return
		}

		common := h.newCommonData(r)
		h.render(w, r, http.StatusOK, components.Home(common, h.markdown(intro.Content), featured, news))
	})
}

func (h *SiteHandler) HandleProjects() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		projects, err := h.Services.Query.ListPublished(r.Context(), content.KindProject)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.render(w, r, http.StatusOK, components.ProjectList(h.newCommonData(r), projects))
	})
}

func (h *SiteHandler) HandleProject() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		project, err := h.Services.Query.GetBySlug(r.Context(), content.KindProject, r.PathValue("slug"))
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.render(w, r, http.StatusOK, components.ProjectDetail(h.newCommonData(r), project, h.markdown(project.Content)))
	})
}

func (h *SiteHandler) HandleAbout() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		intro, err := h.Services.Pages.Get(ctx, content.PageIntro)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		vision, err := h.Services.Pages.Get(ctx, content.PageVision)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		services, err := h.Services.Query.ListPublished(ctx, content.KindService)
		if err != nil {
			h.fail(w, r, err)
			return
		}

		common := h.newCommonData(r)
		h.render(w, r, http.StatusOK, components.About(common, h.markdown(intro.Content), h.markdown(vision.Content), services))
	})
}

func (h *SiteHandler) HandleServices() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		services, err := h.Services.Query.ListPublished(r.Context(), content.KindService)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.render(w, r, http.StatusOK, components.ServiceList(h.newCommonData(r), services))
	})
}

func (h *SiteHandler) HandleService() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		service, err := h.Services.Query.GetBySlug(r.Context(), content.KindService, r.PathValue("slug"))
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.render(w, r, http.StatusOK, components.ServiceDetail(h.newCommonData(r), service, h.markdown(service.Content)))
	})
}

func (h *SiteHandler) HandleNewsList() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		news, err := h.Services.Query.ListPublished(r.Context(), content.KindNews)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.render(w, r, http.StatusOK, components.NewsList(h.newCommonData(r), news))
	})
}

// HandleNews answers 404 for drafts as well as for unknown slugs.
func (h *SiteHandler) HandleNews() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		item, err := h.Services.Query.GetBySlug(r.Context(), content.KindNews, r.PathValue("slug"))
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.render(w, r, http.StatusOK, components.NewsDetail(h.newCommonData(r), item, h.markdown(item.Content)))
	})
}
