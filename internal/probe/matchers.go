package probe

import (
	"strings"

	"github.com/nihmadev/Axion/internal/webpage"
)

// Matcher is one strategy in an ordered matcher list. Strategies are tried
// in sequence with early exit.
type Matcher struct {
	Name  string
	Match func(f *webpage.Field) bool
}

func typeIs(t string) func(*webpage.Field) bool {
	return func(f *webpage.Field) bool { return f.Type == t }
}

func autocompleteIs(v string) func(*webpage.Field) bool {
	return func(f *webpage.Field) bool { return f.Autocomplete == v }
}

func textWithNameContaining(sub string) func(*webpage.Field) bool {
	return func(f *webpage.Field) bool {
		return f.Type == "text" && strings.Contains(strings.ToLower(f.Name), sub)
	}
}

func textWithIDContaining(sub string) func(*webpage.Field) bool {
	return func(f *webpage.Field) bool {
		return f.Type == "text" && strings.Contains(strings.ToLower(f.ID), sub)
	}
}

func nameIs(v string) func(*webpage.Field) bool {
	return func(f *webpage.Field) bool { return strings.EqualFold(f.Name, v) }
}

func idIs(v string) func(*webpage.Field) bool {
	return func(f *webpage.Field) bool { return strings.EqualFold(f.ID, v) }
}

// PasswordMatchers identifies password-type fields.
var PasswordMatchers = []Matcher{
	{"type=password", typeIs("password")},
	{"autocomplete=current-password", autocompleteIs("current-password")},
	{"autocomplete=new-password", autocompleteIs("new-password")},
}

// UsernameMatchers identifies the companion username field, scoped to the
// password field's form (or the whole document when it has none). Order
// matters: attribute-based strategies first, most specific to least.
var UsernameMatchers = []Matcher{
	{"type=email", typeIs("email")},
	{"text+name~user", textWithNameContaining("user")},
	{"text+name~login", textWithNameContaining("login")},
	{"text+name~email", textWithNameContaining("email")},
	{"text+id~user", textWithIDContaining("user")},
	{"text+id~login", textWithIDContaining("login")},
	{"text+id~email", textWithIDContaining("email")},
	{"autocomplete=username", autocompleteIs("username")},
	{"autocomplete=email", autocompleteIs("email")},
	{"name=username", nameIs("username")},
	{"name=email", nameIs("email")},
	{"name=login", nameIs("login")},
	{"name=identifier", nameIs("identifier")},
	{"id=username", idIs("username")},
	{"id=email", idIs("email")},
	{"id=login", idIs("login")},
}

// matchesAny reports whether any matcher in the list accepts the field.
func matchesAny(list []Matcher, f *webpage.Field) bool {
	for _, m := range list {
		if m.Match(f) {
			return true
		}
	}
	return false
}

// isVisible applies the visibility requirement every candidate field must
// meet: computed style plus a laid-out bounding box.
func isVisible(f *webpage.Field) bool {
	if f == nil || f.Detached() {
		return false
	}
	style := f.Style()
	return style.Display != "none" &&
		style.Visibility != "hidden" &&
		style.Opacity != 0 &&
		f.HasLayout()
}
