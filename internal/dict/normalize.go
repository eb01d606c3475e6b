// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package dict

import "strings"

// Sep separates path segments of a slot key.
const Sep = "/"

var keyReplacer = strings.NewReplacer(`\`, Sep, " ", "-")

// Normalize returns the canonical form of a slot key: backslashes become
// slashes, spaces become dashes and letters are lower-cased.
func Normalize(key string) string {
	return strings.ToLower(keyReplacer.Replace(key))
}

// Join builds a key from path segments, skipping empty ones.
func Join(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.Trim(p, Sep); p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, Sep)
}

// Parent returns the group path of key, or "" for a top-level key.
func Parent(key string) string {
	if i := strings.LastIndex(key, Sep); i >= 0 {
		return key[:i]
	}
	return ""
}

// Base returns the last segment of key.
func Base(key string) string {
	return key[strings.LastIndex(key, Sep)+1:]
}

// InGroup reports whether key lies anywhere under group.
func InGroup(key, group string) bool {
	return group != "" && strings.HasPrefix(key, group+Sep)
}

// ShortName strips the editable root prefix from key. Keys outside the root
// are returned unchanged.
func ShortName(key, root string) string {
	if InGroup(key, root) {
		return key[len(root)+len(Sep):]
	}
	return key
}
