package model

import "strings"

// TagRoles maps HTML tag names to compact role codes.
var TagRoles = map[string]string{
	"button":   "btn",
	"a":        "lnk",
	"input":    "input",
	"textarea": "input",
	"select":   "input",
	"img":      "img",
	"svg":      "img",
	"span":     "txt",
	"p":        "txt",
	"label":    "txt",
	"ul":       "list",
	"ol":       "list",
	"li":       "row",
	"nav":      "toolbar",
	"div":      "group",
	"section":  "group",
	"main":     "group",
	"body":     "web",
}

// AriaRoles maps explicit ARIA role attribute values to role codes. An
// explicit role wins over the tag.
var AriaRoles = map[string]string{
	"button":     "btn",
	"link":       "lnk",
	"menuitem":   "menuitem",
	"tab":        "tab",
	"img":        "img",
	"navigation": "toolbar",
	"toolbar":    "toolbar",
}

// MapRole converts a tag name and optional ARIA role to a compact code.
func MapRole(tag, ariaRole string) string {
	if short, ok := AriaRoles[strings.ToLower(ariaRole)]; ok {
		return short
	}
	if short, ok := TagRoles[strings.ToLower(tag)]; ok {
		return short
	}
	return "other"
}
