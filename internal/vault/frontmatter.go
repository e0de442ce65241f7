package vault

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	inlineTagRe = regexp.MustCompile(`(^|\s)#([\p{L}\p{N}/_-]+)`)
	wikiLinkRe  = regexp.MustCompile(`(!?)\[\[([^\]|#]+)(?:#[^\]|]*)?(?:\|[^\]]*)?\]\]`)
	headingRe   = regexp.MustCompile(`(?m)^#{1,6}\s+(.+)$`)
)

// noteDoc is the parsed form of a Markdown note.
type noteDoc struct {
	frontmatter map[string]interface{}
	body        string
}

// parseNote splits frontmatter from body and decodes the YAML block.
// A malformed YAML block yields an empty frontmatter, not an error; matching
// code treats missing metadata as a non-match.
func parseNote(content string) *noteDoc {
	doc := &noteDoc{
		frontmatter: map[string]interface{}{},
		body:        content,
	}

	if !strings.HasPrefix(content, "---\n") && !strings.HasPrefix(content, "---\r\n") {
		return doc
	}

	rest := content[strings.Index(content, "\n")+1:]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return doc
	}

	block := rest[:end]
	after := rest[end+len("\n---"):]
	if idx := strings.Index(after, "\n"); idx >= 0 {
		after = after[idx+1:]
	} else {
		after = ""
	}

	var fm map[string]interface{}
	if err := yaml.Unmarshal([]byte(block), &fm); err == nil && fm != nil {
		doc.frontmatter = fm
		doc.body = after
	}

	return doc
}

// tags collects frontmatter tags plus inline body tags, '#'-prefixed and
// de-duplicated, preserving first-seen order.
func (d *noteDoc) tags() []string {
	seen := make(map[string]bool)
	var out []string

	add := func(tag string) {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			return
		}
		if !strings.HasPrefix(tag, "#") {
			tag = "#" + tag
		}
		if !seen[tag] {
			seen[tag] = true
			out = append(out, tag)
		}
	}

	for _, key := range []string{"tags", "tag"} {
		switch v := d.frontmatter[key].(type) {
		case string:
			for _, t := range strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' }) {
				add(t)
			}
		case []interface{}:
			for _, item := range v {
				add(fmt.Sprintf("%v", item))
			}
		}
	}

	for _, m := range inlineTagRe.FindAllStringSubmatch(d.body, -1) {
		add("#" + m[2])
	}

	return out
}

// links returns non-embed wiki link targets; embeds returns embed targets.
func (d *noteDoc) links() []string {
	return d.linkTargets(false)
}

func (d *noteDoc) embeds() []string {
	return d.linkTargets(true)
}

func (d *noteDoc) linkTargets(embed bool) []string {
	var out []string
	for _, m := range wikiLinkRe.FindAllStringSubmatch(d.body, -1) {
		isEmbed := m[1] == "!"
		if isEmbed != embed {
			continue
		}
		target := strings.TrimSpace(m[2])
		if target != "" {
			out = append(out, target)
		}
	}
	return out
}

// headings returns heading texts in document order.
func (d *noteDoc) headings() []string {
	var out []string
	for _, m := range headingRe.FindAllStringSubmatch(d.body, -1) {
		out = append(out, strings.TrimSpace(m[1]))
	}
	return out
}

// property looks up a frontmatter key.
func (d *noteDoc) property(name string) (interface{}, bool) {
	v, ok := d.frontmatter[name]
	return v, ok
}
