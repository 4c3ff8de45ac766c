package web

import (
	"embed"
)

// staticFiles holds the embedded control page and its script.
// The final binary includes all files under static/.
//
//go:embed static/*
var staticFiles embed.FS
