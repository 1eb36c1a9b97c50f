package vaultpath

import (
	"regexp"
	"strings"
)

var wikiEmbed = regexp.MustCompile(`!?\[\[([^\]|]+)(?:\|[^\]]+)?\]\]`)

// AttachmentReferences returns the non-note targets of wiki links and embeds
// (![[image.png]], [[file.pdf|alias]]) in first-seen order without
// duplicates. Links to .md files are notes and are skipped.
func AttachmentReferences(content string) []string {
	matches := wikiEmbed.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	refs := make([]string, 0, len(matches))
	for _, m := range matches {
		target := m[1]
		if strings.HasSuffix(strings.ToLower(target), ".md") {
			continue
		}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		refs = append(refs, target)
	}
	return refs
}
