package content

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	DateLayout      = "2006-01-02"
	YearMonthLayout = "2006-01"
)

// Fields is a raw form submission keyed by form field name.
type Fields map[string]string

func (f Fields) text(key string) string {
	return strings.TrimSpace(f[key])
}

func (f Fields) checked(key string) bool {
	return Checked(f[key])
}

// Checked reads an HTML checkbox value: browsers send "on", APIs tend to send "true".
func Checked(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

// FieldErrors maps a form field name to a description of what is wrong with it.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := slices.Sorted(maps.Keys(fe))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+fe[k])
	}
	return "invalid fields: " + strings.Join(parts, "; ")
}

type ProjectInput struct {
	Title          string `form:"title" validate:"required,max=200"`
	Slug           string `form:"slug" validate:"required,max=100,slug"`
	Category       string `form:"category" validate:"required,max=100"`
	Description    string `form:"description" validate:"required,max=1000"`
	Content        string `form:"content" validate:"required"`
	Location       string `form:"location" validate:"max=200"`
	CompletionDate string `form:"completionDate" validate:"omitempty,yearmonth"`
	IsFeatured     bool   `form:"isFeatured"`
}

type ServiceInput struct {
	Title       string `form:"title" validate:"required,max=200"`
	Slug        string `form:"slug" validate:"required,max=100,slug"`
	Description string `form:"description" validate:"required,max=1000"`
	Content     string `form:"content" validate:"required"`
}

type NewsInput struct {
	Title       string `form:"title" validate:"required,max=200"`
	Slug        string `form:"slug" validate:"required,max=100,slug"`
	Description string `form:"description" validate:"max=1000"`
	Content     string `form:"content" validate:"required"`
	Date        string `form:"date" validate:"required,calendardate"`
	IsPublished bool   `form:"isPublished"`
}

type ContactInput struct {
	Name    string `form:"name" json:"name" validate:"required,max=100"`
	Email   string `form:"email" json:"email" validate:"required,email,max=254"`
	Phone   string `form:"phone" json:"phone" validate:"max=30"`
	Message string `form:"message" json:"message" validate:"required,min=5,max=5000"`
}

// Record is the normalized scalar part of a content entity. Kind specific
// fields stay at their zero value for the other kinds.
type Record struct {
	Kind        Kind
	Title       string
	Slug        string
	Description string
	Content     string

	// project
	Location       string
	Category       string
	CompletionDate string
	IsFeatured     bool

	// news
	PublishDate time.Time
	IsPublished bool
}

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

var getValidator = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report errors under the form field name rather than the Go field name
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("form"); name != "" {
			return name
		}
		return f.Name
	})

	v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	v.RegisterValidation("calendardate", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(DateLayout, fl.Field().String())
		return err == nil
	})
	v.RegisterValidation("yearmonth", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(YearMonthLayout, fl.Field().String())
		return err == nil
	})

	return v
})

// Validate schema-checks a submission for the given kind. It performs no I/O.
func Validate(kind Kind, raw Fields) (Record, FieldErrors) {
	switch kind {
	case KindProject:
		in := ProjectInput{
			Title:          raw.text("title"),
			Slug:           raw.text("slug"),
			Category:       raw.text("category"),
			Description:    raw.text("description"),
			Content:        raw.text("content"),
			Location:       raw.text("location"),
			CompletionDate: raw.text("completionDate"),
			IsFeatured:     raw.checked("isFeatured"),
		}
		if errs := check(in); errs != nil {
			return Record{}, errs
		}
		return Record{
			Kind:           kind,
			Title:          in.Title,
			Slug:           in.Slug,
			Description:    in.Description,
			Content:        in.Content,
			Location:       in.Location,
			Category:       in.Category,
			CompletionDate: in.CompletionDate,
			IsFeatured:     in.IsFeatured,
		}, nil

	case KindService:
		in := ServiceInput{
			Title:       raw.text("title"),
			Slug:        raw.text("slug"),
			Description: raw.text("description"),
			Content:     raw.text("content"),
		}
		if errs := check(in); errs != nil {
			return Record{}, errs
		}
		return Record{
			Kind:        kind,
			Title:       in.Title,
			Slug:        in.Slug,
			Description: in.Description,
			Content:     in.Content,
		}, nil

	case KindNews:
		in := NewsInput{
			Title:       raw.text("title"),
			Slug:        raw.text("slug"),
			Description: raw.text("description"),
			Content:     raw.text("content"),
			Date:        raw.text("date"),
			IsPublished: raw.checked("isPublished"),
		}
		if errs := check(in); errs != nil {
			return Record{}, errs
		}
		// already checked by the calendardate rule
		date, _ := time.Parse(DateLayout, in.Date)
		return Record{
			Kind:        kind,
			Title:       in.Title,
			Slug:        in.Slug,
			Description: in.Description,
			Content:     in.Content,
			PublishDate: date,
			IsPublished: in.IsPublished,
		}, nil
	}

	return Record{}, FieldErrors{"kind": fmt.Sprintf("%q is not a content kind", kind)}
}

// ValidateContact checks a public contact form submission.
func ValidateContact(raw Fields) (ContactInput, FieldErrors) {
	in := ContactInput{
		Name:    raw.text("name"),
		Email:   raw.text("email"),
		Phone:   raw.text("phone"),
		Message: raw.text("message"),
	}
	if errs := check(in); errs != nil {
		return ContactInput{}, errs
	}
	return in, nil
}

func check(in any) FieldErrors {
	err := getValidator().Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// only reachable with a programming error such as a non-struct input
		return FieldErrors{"form": err.Error()}
	}

	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = describe(fe)
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "slug":
		return "may only contain lowercase letters, digits and hyphens"
	case "email":
		return "must be a valid email address"
	case "calendardate":
		return "must be a date in YYYY-MM-DD format"
	case "yearmonth":
		return "must be a month in YYYY-MM format"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	}
	return fmt.Sprintf("failed the %q rule", fe.Tag())
}
