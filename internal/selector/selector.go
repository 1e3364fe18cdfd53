// Package selector synthesizes a stable CSS selector for a captured
// element, used to point report consumers at the exact node an issue
// was raised against (§4.4).
package selector

import (
	"strings"

	"github.com/raysh454/design-review/internal/model"
)

// utilityPrefixes are exact-prefix matches (not substrings) for class
// names generated by atomic-CSS frameworks, which make poor, unstable
// selectors.
var utilityPrefixes = []string{
	"flex", "grid", "p-", "m-", "text-", "bg-", "w-", "h-", "col-", "row-", "d-", "css-",
}

const maxLocalClasses = 2
const maxAncestorClasses = 1
const maxAncestors = 3

// Synthesize builds a CSS selector for el using the priority ladder from
// §4.4: id wins outright; otherwise tag plus up to two non-utility
// classes, composed with up to three ancestor selectors (id, else tag
// plus one non-utility class) joined by " > ". Never returns empty,
// never errors.
func Synthesize(el model.ElementInfo, elements map[model.ElementHandle]model.ElementInfo) string {
	parts := []string{localSelector(el, maxLocalClasses)}

	cur := el
	for i := 0; i < maxAncestors; i++ {
		if cur.ParentHandle == "" {
			break
		}
		parent, ok := elements[cur.ParentHandle]
		if !ok {
			break
		}
		parts = append(parts, localSelector(parent, maxAncestorClasses))
		cur = parent
	}

	// parts were collected element-then-ancestors; reverse to outer-to-inner.
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}

	return strings.Join(parts, " > ")
}

// localSelector returns the selector for one element in isolation: id if
// present, else tag plus up to maxClasses non-utility classes in
// declared (outer-first) order.
func localSelector(el model.ElementInfo, maxClasses int) string {
	if el.ID != "" {
		return "#" + cssEscape(el.ID)
	}

	tag := el.Tag
	if tag == "" {
		tag = "*"
	}

	var sel strings.Builder
	sel.WriteString(tag)

	kept := 0
	for _, c := range el.Classes {
		if kept >= maxClasses {
			break
		}
		if c == "" || isUtilityClass(c) {
			continue
		}
		sel.WriteByte('.')
		sel.WriteString(cssEscape(c))
		kept++
	}

	return sel.String()
}

func isUtilityClass(class string) bool {
	lower := strings.ToLower(class)
	for _, prefix := range utilityPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// cssEscape escapes characters that are special in CSS identifier
// contexts. A conservative subset sufficient for id/class values
// captured from live pages.
func cssEscape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
