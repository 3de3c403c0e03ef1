package content

import "fmt"

// PageKey identifies one of the fixed static text slots of the site.
type PageKey string

const (
	PageIntro  PageKey = "INTRO"
	PageVision PageKey = "VISION"
)

// PageKeys lists every slot in display order.
var PageKeys = []PageKey{PageIntro, PageVision}

var pageTitles = map[PageKey]string{
	PageIntro:  "Studio introduction",
	PageVision: "Future vision",
}

var pageDescriptions = map[PageKey]string{
	PageIntro:  "The introduction shown on the About page.",
	PageVision: "The vision and aspirations section of the About page.",
}

// ParsePageKey rejects anything outside the closed set of slots.
func ParsePageKey(s string) (PageKey, error) {
	k := PageKey(s)
	if _, ok := pageTitles[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPageKey, s)
	}
	return k, nil
}

func (k PageKey) Title() string {
	return pageTitles[k]
}

func (k PageKey) Description() string {
	return pageDescriptions[k]
}
