package ini

import (
	"io"
	"os"
	"sort"
	"strings"
)

// =========================
// Serialization
// =========================

// maxLineLength bounds the width of emitted setting lines.
const maxLineLength = 120

// lineSep is the physical line separator of emitted text. Wrap break-points
// are searched on the configured join string, which re-parses back into the
// same value.
const lineSep = "\n"

// Write renders the tree as canonical extended INI text.
func (c *ConfigParser) Write() (string, error) {
	var b strings.Builder
	if err := c.writeSection(&b, c.tree, 0); err != nil {
		return "", err
	}
	return b.String(), nil
}

// WriteTo renders the tree into w.
func (c *ConfigParser) WriteTo(w io.Writer) (int64, error) {
	text, err := c.Write()
	if err != nil {
		return 0, err
	}
	n, err := io.WriteString(w, text)
	return int64(n), err
}

// WriteFile renders the tree into the file at path.
func (c *ConfigParser) WriteFile(path string) error {
	text, err := c.Write()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(text), 0o644)
}

// writeSection renders one section: leaf settings first, nested sections
// after, both sorted lexicographically.
func (c *ConfigParser) writeSection(b *strings.Builder, section *Section, depth int) error {
	var settings, sections []string
	for key, value := range section.Items {
		if _, ok := value.(*Section); ok {
			sections = append(sections, key)
		} else {
			settings = append(settings, key)
		}
	}
	sort.Strings(settings)
	sort.Strings(sections)

	settingDepth := max(0, depth-1)
	for _, key := range settings {
		if err := c.writeSetting(b, key, section.Items[key], settingDepth); err != nil {
			return err
		}
	}

	for _, name := range sections {
		sub := section.Items[name].(*Section)
		b.WriteString(strings.Repeat(" ", depth*c.indent))
		b.WriteString("[" + name + "]" + lineSep)

		if err := c.writeSection(b, sub, depth+1); err != nil {
			return err
		}

		// Separate adjacent sections, unless the subsection already ends in
		// a nested section of its own.
		nested := false
		for _, value := range sub.Items {
			if _, ok := value.(*Section); ok {
				nested = true
				break
			}
		}
		if !nested {
			b.WriteString(lineSep)
		}
	}
	return nil
}

func (c *ConfigParser) writeSetting(b *strings.Builder, key string, value any, settingDepth int) error {
	annotation, text, err := c.uncast(value)
	if err != nil {
		return err
	}
	if annotation != "" {
		annotation = "(" + annotation + ") "
	}

	title := strings.Repeat(" ", settingDepth*c.indent) + annotation + key + " = "

	// Continuation lines align one column past the setting's indent level.
	whitespace := strings.Repeat(" ", 1+settingDepth*c.indent)

	var configValue string
	if len(title)+len(text) < maxLineLength || !strings.Contains(text, c.join) {
		// The whole setting fits on one line, or it has no break point.
		configValue = text
	} else {
		configValue = c.wrapValue(text, len(title), settingDepth, whitespace)
	}

	b.WriteString(title + alignBreaks(configValue, whitespace) + lineSep)
	return nil
}

// wrapValue greedily breaks value on join-string boundaries so each emitted
// line stays within the width budget. The window is searched right-to-left
// for a boundary; failing that, the next boundary forward extends the
// window; failing that, the remainder is emitted unbroken.
func (c *ConfigParser) wrapValue(value string, titleLen, settingDepth int, whitespace string) string {
	var config strings.Builder

	start, end := 0, maxLineLength-titleLen
	if end < start {
		end = start
	}
	lineLength := maxLineLength - (settingDepth*c.indent + 1)

	for {
		if end > len(value) {
			// Final window holding the rest of the value.
			config.WriteString(value[start:])
			break
		}

		splitPoint := strings.LastIndex(value[start:end], c.join)
		if splitPoint == -1 {
			nextSplit := strings.Index(value[end:], c.join)
			if nextSplit == -1 {
				// No further break point anywhere; emit the rest.
				config.WriteString(value[start:])
				break
			}
			end += nextSplit
		} else {
			end = start + splitPoint
		}

		config.WriteString(value[start:end] + lineSep + whitespace)

		// Jump over the consumed join string.
		start, end = end+len(c.join), end+len(c.join)+lineLength
	}

	return config.String()
}

// alignBreaks prefixes the alignment whitespace onto any emitted line that
// lacks it, so raw breaks already present in the value indent consistently.
func alignBreaks(value, whitespace string) string {
	if !strings.Contains(value, lineSep) {
		return value
	}
	parts := strings.Split(value, lineSep)
	for i := 1; i < len(parts); i++ {
		if !strings.HasPrefix(parts[i], whitespace) {
			parts[i] = whitespace + parts[i]
		}
	}
	return strings.Join(parts, lineSep)
}
