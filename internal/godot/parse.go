package godot

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Document is what Parse reads back from a SpriteFrames resource.
type Document struct {
	Type         string
	Format       int
	LoadSteps    int
	UID          string
	ExtResources []ExtResource
	// Animations lists clip names in file order.
	Animations []string
	// References counts ExtResource(...) uses in the resource body.
	References int
}

var (
	extRefPattern   = regexp.MustCompile(`ExtResource\("((?:[^"\\]|\\.)*)"\)`)
	animNamePattern = regexp.MustCompile(`"name":\s*&"((?:[^"\\]|\\.)*)"`)
	tagPattern      = regexp.MustCompile(`^\[([a-z_]+)(?:\s|\])`)
)

// Parse reads a SpriteFrames text resource and checks its structure: the
// gd_resource header comes first and declares type SpriteFrames and format
// 3; load_steps, when present, matches the declared resources; ext_resource
// ids are unique; every ExtResource reference is declared and every
// declaration is used; a [resource] section holds at least one uniquely
// named animation.
//
// Postcondition: Returns a non-nil Document or an error describing the first violation.
func Parse(data []byte) (*Document, error) {
	doc := &Document{}
	ids := make(map[string]bool)
	subResources := 0
	seenHeader := false
	seenResource := false
	var body strings.Builder

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		m := tagPattern.FindStringSubmatch(line)
		if m == nil {
			if seenResource {
				body.WriteString(line)
				body.WriteByte('\n')
			} else if strings.TrimSpace(line) != "" {
				return nil, fmt.Errorf("line %d: unexpected content outside a section", lineNo)
			}
			continue
		}
		tag, attrs, err := parseTag(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if !seenHeader && tag != "gd_resource" {
			return nil, fmt.Errorf("line %d: expected gd_resource header, got [%s]", lineNo, m[1])
		}
		switch tag {
		case "gd_resource":
			if seenHeader {
				return nil, fmt.Errorf("line %d: duplicate gd_resource header", lineNo)
			}
			seenHeader = true
			if err := readHeader(doc, attrs); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
		case "ext_resource":
			if seenResource {
				return nil, fmt.Errorf("line %d: ext_resource after [resource]", lineNo)
			}
			ext := ExtResource{ID: attrs["id"], Type: attrs["type"], Path: attrs["path"], UID: attrs["uid"]}
			if ext.ID == "" || ext.Type == "" || ext.Path == "" {
				return nil, fmt.Errorf("line %d: ext_resource needs id, type and path", lineNo)
			}
			if ids[ext.ID] {
				return nil, fmt.Errorf("line %d: duplicate ext_resource id %q", lineNo, ext.ID)
			}
			ids[ext.ID] = true
			doc.ExtResources = append(doc.ExtResources, ext)
		case "sub_resource":
			subResources++
		case "resource":
			if seenResource {
				return nil, fmt.Errorf("line %d: duplicate [resource] section", lineNo)
			}
			seenResource = true
		default:
			return nil, fmt.Errorf("line %d: unknown section [%s]", lineNo, tag)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scanning resource: %w", err)
	}

	if !seenHeader {
		return nil, fmt.Errorf("missing gd_resource header")
	}
	if !seenResource {
		return nil, fmt.Errorf("missing [resource] section")
	}
	if doc.LoadSteps != 0 && doc.LoadSteps != len(doc.ExtResources)+subResources+1 {
		return nil, fmt.Errorf("load_steps=%d but %d resources are declared",
			doc.LoadSteps, len(doc.ExtResources)+subResources+1)
	}

	used := make(map[string]bool)
	for _, m := range extRefPattern.FindAllStringSubmatch(body.String(), -1) {
		id := unquote(m[1])
		if !ids[id] {
			return nil, fmt.Errorf("ExtResource(%q) is not declared", id)
		}
		used[id] = true
		doc.References++
	}
	for _, ext := range doc.ExtResources {
		if !used[ext.ID] {
			return nil, fmt.Errorf("ext_resource %q (%s) is never used", ext.ID, ext.Path)
		}
	}

	names := make(map[string]bool)
	for _, m := range animNamePattern.FindAllStringSubmatch(body.String(), -1) {
		name := unquote(m[1])
		if names[name] {
			return nil, fmt.Errorf("animation %q defined twice", name)
		}
		names[name] = true
		doc.Animations = append(doc.Animations, name)
	}
	if len(doc.Animations) == 0 {
		return nil, fmt.Errorf("resource defines no animations")
	}
	return doc, nil
}

func readHeader(doc *Document, attrs map[string]string) error {
	doc.Type = attrs["type"]
	if doc.Type != "SpriteFrames" {
		return fmt.Errorf("resource type must be SpriteFrames, got %q", doc.Type)
	}
	format, err := strconv.Atoi(attrs["format"])
	if err != nil || format != 3 {
		return fmt.Errorf("resource format must be 3, got %q", attrs["format"])
	}
	doc.Format = format
	if ls, ok := attrs["load_steps"]; ok {
		n, err := strconv.Atoi(ls)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid load_steps %q", ls)
		}
		doc.LoadSteps = n
	}
	doc.UID = attrs["uid"]
	return nil
}

// parseTag splits `[name key=value key="quoted value"]` into its parts.
func parseTag(line string) (string, map[string]string, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "[") || !strings.HasSuffix(line, "]") {
		return "", nil, fmt.Errorf("malformed section header %q", line)
	}
	s := line[1 : len(line)-1]
	name, rest, _ := strings.Cut(s, " ")
	attrs := make(map[string]string)
	for {
		rest = strings.TrimLeft(rest, " ")
		if rest == "" {
			return name, attrs, nil
		}
		key, after, ok := strings.Cut(rest, "=")
		if !ok || key == "" || strings.ContainsAny(key, " \"") {
			return "", nil, fmt.Errorf("malformed attribute in %q", line)
		}
		var value string
		if strings.HasPrefix(after, `"`) {
			end := closingQuote(after)
			if end < 0 {
				return "", nil, fmt.Errorf("unterminated string in %q", line)
			}
			value = unquote(after[1:end])
			rest = after[end+1:]
		} else {
			value, rest, _ = strings.Cut(after, " ")
		}
		attrs[key] = value
	}
}

// closingQuote returns the index of the quote that closes s[0], skipping
// escaped quotes, or -1.
func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}
