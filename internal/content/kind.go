package content

import "fmt"

// Kind names one of the CRUD-managed content types.
type Kind string

const (
	KindProject Kind = "project"
	KindService Kind = "service"
	KindNews    Kind = "news"
)

// Kinds lists every content kind in admin menu order.
var Kinds = []Kind{KindProject, KindService, KindNews}

// ParseKind accepts the singular kind name or its plural URL segment.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "project", "projects":
		return KindProject, nil
	case "service", "services":
		return KindService, nil
	case "news":
		return KindNews, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Plural is the URL segment used by the admin routes.
func (k Kind) Plural() string {
	switch k {
	case KindProject:
		return "projects"
	case KindService:
		return "services"
	default:
		return string(k)
	}
}

// Label is the human readable name shown in the admin area.
func (k Kind) Label() string {
	switch k {
	case KindProject:
		return "Projects"
	case KindService:
		return "Services"
	case KindNews:
		return "News"
	}
	return string(k)
}
