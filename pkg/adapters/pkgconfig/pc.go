// Package pkgconfig implements the package catalog over pkg-config ".pc"
// files, the way installed component packages describe themselves.
package pkgconfig

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
)

// File is a parsed ".pc" file.
type File struct {
	// Variables are the "name=value" definitions, expanded.
	Variables map[string]string
	// Fields are the "Keyword: value" lines (Name, Version, Cflags...), expanded.
	Fields map[string]string
}

// Parse parses the content of a ".pc" file. "${name}" references are expanded
// against the variables defined before them; unknown references expand to
// nothing.
func Parse(data []byte) (*File, error) {
	f := &File{Variables: make(map[string]string), Fields: make(map[string]string)}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	var pending string
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.HasSuffix(line, "\\") {
			pending += strings.TrimSuffix(line, "\\")
			continue
		}
		line = strings.TrimSpace(pending + line)
		pending = ""
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if line == "" {
			continue
		}

		sep := strings.IndexAny(line, "=:")
		if sep <= 0 {
			return nil, fmt.Errorf("line %d: expected 'name=value' or 'Keyword: value', got %q", lineNo, line)
		}
		key := strings.TrimSpace(line[:sep])
		value := f.expand(strings.TrimSpace(line[sep+1:]))
		if line[sep] == '=' {
			f.Variables[key] = value
		} else {
			f.Fields[key] = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) expand(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	var b strings.Builder
	for {
		start := strings.Index(s, "${")
		if start < 0 {
			b.WriteString(s)
			return b.String()
		}
		end := strings.IndexByte(s[start:], '}')
		if end < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:start])
		b.WriteString(f.Variables[s[start+2:start+end]])
		s = s[start+end+1:]
	}
}

// Variable returns the expanded value of a variable.
func (f *File) Variable(name string) string { return f.Variables[name] }

// Version returns the Version field.
func (f *File) Version() string { return f.Fields["Version"] }
