package content

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func validProject() Fields {
	return Fields{
		"title":          "Forest House",
		"slug":           "forest-house",
		"category":       "Residential",
		"description":    "A house among cedars",
		"content":        "## Forest House\n\nTimber and light.",
		"location":       "Hualien",
		"completionDate": "2024-05",
		"isFeatured":     "on",
	}
}

func TestValidateProject(t *testing.T) {
	t.Parallel()

	got, errs := Validate(KindProject, validProject())
	if errs != nil {
		t.Fatalf("unexpected field errors: %v", errs)
	}

	want := Record{
		Kind:           KindProject,
		Title:          "Forest House",
		Slug:           "forest-house",
		Description:    "A house among cedars",
		Content:        "## Forest House\n\nTimber and light.",
		Location:       "Hualien",
		Category:       "Residential",
		CompletionDate: "2024-05",
		IsFeatured:     true,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("record mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestValidateFieldErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		kind       Kind
		fields     Fields
		wantFields []string
	}{
		{
			name:       "project missing required",
			kind:       KindProject,
			fields:     Fields{"title": "  ", "slug": "ok"},
			wantFields: []string{"title", "category", "description", "content"},
		},
		{
			name: "project bad slug and completion date",
			kind: KindProject,
			fields: func() Fields {
				f := validProject()
				f["slug"] = "Forest House"
				f["completionDate"] = "May 2024"
				return f
			}(),
			wantFields: []string{"slug", "completionDate"},
		},
		{
			name:       "service slug with underscore",
			kind:       KindService,
			fields:     Fields{"title": "Planning", "slug": "urban_planning", "description": "d", "content": "c"},
			wantFields: []string{"slug"},
		},
		{
			name:       "news without date",
			kind:       KindNews,
			fields:     Fields{"title": "Award", "slug": "award-2025", "content": "c"},
			wantFields: []string{"date"},
		},
		{
			name:       "news impossible date",
			kind:       KindNews,
			fields:     Fields{"title": "Award", "slug": "award-2025", "content": "c", "date": "2025-02-30"},
			wantFields: []string{"date"},
		},
		{
			name:       "unknown kind",
			kind:       Kind("blog"),
			fields:     Fields{},
			wantFields: []string{"kind"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, errs := Validate(tt.kind, tt.fields)
			if len(errs) != len(tt.wantFields) {
				t.Fatalf("want %d field errors %v, got %v", len(tt.wantFields), tt.wantFields, errs)
			}
			for _, f := range tt.wantFields {
				msg, ok := errs[f]
				if !ok {
					t.Errorf("missing error for field %q in %v", f, errs)
					continue
				}
				if msg == "" || strings.EqualFold(msg, "invalid") {
					t.Errorf("field %q needs a descriptive message, got %q", f, msg)
				}
			}
		})
	}
}

func TestValidateNewsNormalizesDate(t *testing.T) {
	t.Parallel()

	rec, errs := Validate(KindNews, Fields{
		"title":       " Award ",
		"slug":        "award-2025",
		"content":     "We won.",
		"date":        "2025-12-15",
		"isPublished": "true",
	})
	if errs != nil {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if rec.Title != "Award" {
		t.Errorf("title should be trimmed, got %q", rec.Title)
	}
	if want := time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC); !rec.PublishDate.Equal(want) {
		t.Errorf("date: want %v, got %v", want, rec.PublishDate)
	}
	if !rec.IsPublished {
		t.Errorf("isPublished should be parsed from %q", "true")
	}
}

func TestValidateContact(t *testing.T) {
	t.Parallel()

	_, errs := ValidateContact(Fields{"name": "A", "email": "bad", "message": "hi"})
	if len(errs) != 2 {
		t.Fatalf("want errors for email and message, got %v", errs)
	}
	if errs["email"] != "must be a valid email address" {
		t.Errorf("email message: got %q", errs["email"])
	}
	if errs["message"] != "must be at least 5 characters" {
		t.Errorf("message message: got %q", errs["message"])
	}

	in, errs := ValidateContact(Fields{"name": "Ann", "email": "ann@example.com", "message": "Hello there", "phone": ""})
	if errs != nil {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if in.Email != "ann@example.com" {
		t.Errorf("email not carried over: %q", in.Email)
	}
}

func TestParsePageKey(t *testing.T) {
	t.Parallel()

	for _, k := range PageKeys {
		got, err := ParsePageKey(string(k))
		if err != nil || got != k {
			t.Errorf("ParsePageKey(%q) = %q, %v", k, got, err)
		}
		if k.Title() == "" {
			t.Errorf("page key %q has no title", k)
		}
	}

	if _, err := ParsePageKey("intro"); err == nil {
		t.Errorf("keys are case sensitive, expected an error for lowercase")
	}
	if _, err := ParsePageKey("HISTORY"); err == nil {
		t.Errorf("expected an error for an unknown key")
	}
}
