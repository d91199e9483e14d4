// Plotshare - Garden Sharing and Community Marketplace
// Copyright 2026 Plotshare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plotshare/plotshare

package market

import "strings"

// boardPath is a sanitized taskboard location: the directory part plus the
// final segment, which names the board.
type boardPath struct {
	Path  string
	Title string
}

// sanitizePath normalizes a raw board path. A single trailing slash is
// dropped, the last segment becomes the title, and the remainder becomes
// an absolute directory path with a trailing slash.
//
//	"gardens/veg-patch"  -> {"/gardens/", "veg-patch"}
//	"a/b/c/"             -> {"/a/b/", "c"}
//	"solo"               -> {"/", "solo"}
func sanitizePath(raw string) boardPath {
	sanitized := strings.TrimSuffix(raw, "/")

	parts := strings.Split(sanitized, "/")
	title := parts[len(parts)-1]
	dir := "/" + strings.Join(parts[:len(parts)-1], "/")
	if !strings.HasSuffix(dir, "/") {
		dir += "/"
	}

	return boardPath{Path: dir, Title: title}
}
