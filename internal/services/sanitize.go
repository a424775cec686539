package services

import (
	"html"

	"github.com/microcosm-cc/bluemonday"

	"fintrack/internal/core"
)

var strictPolicy = bluemonday.StrictPolicy()

// containsMarkup reports whether the strict policy would alter s. Plain
// text such as "2 < 3 & 5 > 4" survives the policy unchanged once its
// entities are decoded again.
func containsMarkup(s string) bool {
	return html.UnescapeString(strictPolicy.Sanitize(s)) != s
}

// checkInput normalizes in and rejects free text carrying markup. Accepted
// text is stored exactly as sent.
func checkInput(in core.Input) (core.Input, error) {
	in = in.Normalize()
	fields := []struct {
		name  string
		value string
	}{
		{"category", in.Category},
		{"person", core.Deref(in.Person)},
		{"description", core.Deref(in.Description)},
	}
	for _, f := range fields {
		if containsMarkup(f.value) {
			return core.Input{}, core.InvalidArgument("%s must not contain markup", f.name)
		}
	}
	return in, nil
}
