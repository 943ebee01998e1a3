package tracer

import (
	"regexp"
	"strings"
)

// wikiLink matches [[ref]] and [[ref|alias]].
var wikiLink = regexp.MustCompile(`\[\[([^\[\]\n]+)\]\]`)

// Links extracts the distinct references named by wiki-style links in body,
// in order of first appearance. Aliases and #section suffixes are dropped.
func Links(body string) []string {
	var refs []string
	seen := make(map[string]bool)
	for _, m := range wikiLink.FindAllStringSubmatch(body, -1) {
		ref, _, _ := strings.Cut(m[1], "|")
		ref, _, _ = strings.Cut(ref, "#")
		ref = strings.TrimSpace(ref)
		if ref == "" || seen[ref] {
			continue
		}
		seen[ref] = true
		refs = append(refs, ref)
	}
	return refs
}
