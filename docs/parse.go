package docs

import (
	"errors"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMissingIdentity is returned by ParseDoc when the frontmatter has no
// _id or _label. Callers skip the file with a warning rather than abort
// the whole parse pass.
var ErrMissingIdentity = errors.New("docs: frontmatter missing _id or _label")

// ParsedDoc is the result of reading one rendered document back.
type ParsedDoc struct {
	FilePath     string
	RelativePath string
	Frontmatter  map[string]any
	Content      string
	Raw          []byte
}

const frontmatterFence = "---"

// ParseDoc splits raw into YAML frontmatter and body. It returns
// ErrMissingIdentity if the frontmatter lacks _id or _label; the caller
// decides whether that is fatal (it normally is not).
func ParseDoc(filePath, relativePath string, raw []byte) (ParsedDoc, error) {
	doc := ParsedDoc{FilePath: filePath, RelativePath: relativePath, Raw: raw}

	text := string(raw)
	if !strings.HasPrefix(text, frontmatterFence+"\n") {
		return doc, ErrMissingIdentity
	}
	rest := text[len(frontmatterFence)+1:]
	end := strings.Index(rest, "\n"+frontmatterFence)
	if end == -1 {
		return doc, ErrMissingIdentity
	}
	fmText := rest[:end]
	body := strings.TrimPrefix(rest[end+len(frontmatterFence)+1:], "\n")

	var fm map[string]any
	if err := yaml.Unmarshal([]byte(fmText), &fm); err != nil {
		return doc, err
	}
	doc.Frontmatter = fm
	doc.Content = strings.TrimPrefix(body, "\n")

	id, hasID := fm["_id"]
	label, hasLabel := fm["_label"]
	if !hasID || !hasLabel || id == "" || label == "" {
		return doc, ErrMissingIdentity
	}
	return doc, nil
}

// UserProperties strips the reserved frontmatter keys (_id, _label,
// _version, _syncHash) and returns everything else as user properties, with
// the body's content re-attached under "content" when non-empty.
func (d ParsedDoc) UserProperties() map[string]any {
	out := make(map[string]any, len(d.Frontmatter)+1)
	for k, v := range d.Frontmatter {
		switch k {
		case "_id", "_label", "_version", "_syncHash":
			continue
		default:
			out[k] = v
		}
	}
	content := d.Content
	if idx := strings.Index(content, diagramMarker); idx != -1 {
		content = content[:idx]
	}
	content = strings.TrimRight(content, "\n")
	if strings.TrimSpace(content) != "" {
		out["content"] = content
	}
	return out
}
