package config

import (
	"fmt"
	"strconv"
	"strings"
)

// RenderDefaultTOML renders a TOML config with defaults from GetConfigOptions.
func RenderDefaultTOML() string {
	var out []string
	out = append(out, "# Restaurant platform configuration (TOML)", "")
	top, sections, order := splitSections(GetConfigOptions())
	for _, o := range top {
		out = appendOption(out, o)
	}
	for _, name := range order {
		out = append(out, "["+name+"]")
		for _, o := range sections[name] {
			out = appendOption(out, o)
		}
	}
	return strings.Join(out, "\n")
}

// UpdateTOML appends options missing from existing and comments out keys the
// schema no longer knows. It reports whether anything changed.
func UpdateTOML(existing string) (string, bool) {
	known := make(map[string]bool)
	for _, o := range GetConfigOptions() {
		known[o.Key] = true
	}

	seen := make(map[string]bool)
	section := ""
	changed := false
	lines := strings.Split(existing, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trim := strings.TrimSpace(line)
		switch {
		case trim == "" || strings.HasPrefix(trim, "#"):
			out = append(out, line)
			continue
		case strings.HasPrefix(trim, "[") && strings.HasSuffix(trim, "]"):
			section = strings.TrimSpace(trim[1 : len(trim)-1])
			out = append(out, line)
			continue
		}
		key, ok := parseTOMLKey(line)
		if !ok {
			out = append(out, line)
			continue
		}
		if section != "" {
			key = section + "." + key
		}
		seen[key] = true
		if !known[key] {
			indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
			out = append(out, indent+"# OUTDATED: option removed from config schema", indent+"# "+strings.TrimLeft(line, " \t"))
			changed = true
			continue
		}
		out = append(out, line)
	}

	var missing []ConfigOption
	for _, o := range GetConfigOptions() {
		if !seen[o.Key] {
			missing = append(missing, o)
		}
	}
	if len(missing) == 0 {
		return strings.Join(out, "\n"), changed
	}
	return strings.Join(insertMissing(out, missing), "\n"), true
}

// insertMissing places top-level options before the first table and section
// options at the end of their existing table, or in a new one.
func insertMissing(lines []string, missing []ConfigOption) []string {
	top, sections, order := splitSections(missing)
	block := func(opts []ConfigOption) []string {
		out := []string{"# Added by config update"}
		for _, o := range opts {
			out = appendOption(out, o)
		}
		return out
	}
	done := make(map[string]bool)
	closeSection := func(res []string, name string) []string {
		if opts, ok := sections[name]; ok && !done[name] {
			done[name] = true
			res = append(res, block(opts)...)
		}
		return res
	}

	res := make([]string, 0, len(lines))
	section, topDone := "", len(top) == 0
	for _, line := range lines {
		trim := strings.TrimSpace(line)
		if strings.HasPrefix(trim, "[") && strings.HasSuffix(trim, "]") {
			if !topDone {
				res = append(res, block(top)...)
				topDone = true
			}
			res = closeSection(res, section)
			section = strings.TrimSpace(trim[1 : len(trim)-1])
		}
		res = append(res, line)
	}
	if !topDone {
		res = append(res, block(top)...)
	}
	res = closeSection(res, section)
	for _, name := range order {
		if done[name] {
			continue
		}
		res = append(res, "["+name+"]")
		res = append(res, block(sections[name])...)
	}
	return res
}

// splitSections separates dotted keys into TOML tables, keeping first-seen
// order. Section entries carry the key without its prefix.
func splitSections(opts []ConfigOption) ([]ConfigOption, map[string][]ConfigOption, []string) {
	var top []ConfigOption
	sections := make(map[string][]ConfigOption)
	var order []string
	for _, o := range opts {
		name, key, ok := strings.Cut(o.Key, ".")
		if !ok {
			top = append(top, o)
			continue
		}
		if _, exists := sections[name]; !exists {
			order = append(order, name)
		}
		sections[name] = append(sections[name], ConfigOption{Key: key, Default: o.Default, Comment: o.Comment})
	}
	return top, sections, order
}

func parseTOMLKey(line string) (string, bool) {
	idx := strings.Index(line, "=")
	if idx == -1 {
		return "", false
	}
	key := strings.TrimSpace(line[:idx])
	if key == "" || strings.HasPrefix(key, "[") || strings.HasPrefix(key, "\"") || strings.HasPrefix(key, "'") {
		return "", false
	}
	return key, true
}

func appendOption(out []string, o ConfigOption) []string {
	if o.Comment != "" {
		out = append(out, "# "+o.Comment)
	}
	return append(out, o.Key+" = "+tomlValue(o.Default), "")
}

func tomlValue(v any) string {
	switch t := v.(type) {
	case string:
		return strconv.Quote(t)
	case []string:
		quoted := make([]string, len(t))
		for i, s := range t {
			quoted[i] = strconv.Quote(s)
		}
		return "[" + strings.Join(quoted, ", ") + "]"
	default:
		return fmt.Sprint(t)
	}
}
