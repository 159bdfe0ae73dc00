package config

// EmbeddedTMDBKey is injected at build time and used as the default TMDB
// key. Environment variables and the config file override it.
//
// Build with:
//
//	go build -ldflags "-X 'github.com/folio/folio/internal/config.EmbeddedTMDBKey=xxx'"
var EmbeddedTMDBKey string
