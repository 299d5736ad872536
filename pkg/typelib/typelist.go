package typelib

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
)

// Typelist is the parsed content of a type kit's ".typelist" file.
type Typelist struct {
	// All lists every declared type name, in file order.
	All []string
	// Exported is the subset of All registered on the remote type system.
	Exported []string
}

// ParseTypelist parses one "<type name> [0|1]" declaration per line. A missing
// flag means exported. Blank lines and lines starting with '#' are ignored.
func ParseTypelist(data []byte) (Typelist, error) {
	var tl Typelist
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		name := fields[0]
		exported := true
		switch len(fields) {
		case 1:
		case 2:
			switch fields[1] {
			case "1":
			case "0":
				exported = false
			default:
				return Typelist{}, fmt.Errorf("typelist line %d: invalid export flag %q", lineNo, fields[1])
			}
		default:
			return Typelist{}, fmt.Errorf("typelist line %d: expected '<name> [0|1]', got %q", lineNo, line)
		}

		tl.All = append(tl.All, name)
		if exported {
			tl.Exported = append(tl.Exported, name)
		}
	}
	if err := scanner.Err(); err != nil {
		return Typelist{}, err
	}
	return tl, nil
}

// TypelistPath derives the typelist file path from a type registry path by
// replacing its extension (conventionally ".tlb").
func TypelistPath(registryPath string) string {
	if i := strings.LastIndexByte(registryPath, '.'); i > strings.LastIndexByte(registryPath, '/') {
		return registryPath[:i] + ".typelist"
	}
	return registryPath + ".typelist"
}
