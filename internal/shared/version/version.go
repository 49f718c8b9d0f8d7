package version

// Version is stamped at build time with -ldflags "-X kextdiff/internal/shared/version.Version=...".
var Version = "dev"
