package validator

import "testing"

type record struct {
	Type     string   `json:"type" validate:"required,photo_type"`
	Filter   string   `json:"filter" validate:"required,photo_filter"`
	FilePath string   `json:"filePath" validate:"required"`
	URLs     []string `json:"photoUrls" validate:"min=1,max=3"`
}

func TestValidatePasses(t *testing.T) {
	errs := Validate(record{Type: "strip", Filter: "sepia", FilePath: "/uploads/a.jpg", URLs: []string{"a", "b", "c"}})
	if errs != nil {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestValidateCustomRules(t *testing.T) {
	errs := Validate(record{Type: "gif", Filter: "comic", URLs: []string{"a"}})
	got := map[string]string{}
	for _, e := range errs {
		got[e.Field] = e.Message
	}

	if got["type"] != "Invalid photo type. Must be: single or strip" {
		t.Fatalf("type: %q", got["type"])
	}
	if got["filter"] != "Invalid filter. Must be: normal, bw, sepia" {
		t.Fatalf("filter: %q", got["filter"])
	}
	if got["filePath"] != "This field is required" {
		t.Fatalf("filePath: %q", got["filePath"])
	}
	if _, ok := got["photoUrls"]; ok {
		t.Fatal("photoUrls should be valid")
	}
}
