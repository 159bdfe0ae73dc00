package config

// Version is set at build time with -ldflags "-X .../config.Version=...".
var Version = "dev"
