package version

// Version is the application version, overridable at build time with
// -ldflags "-X github.com/jkoestner/folioflex/internal/version.Version=...".
var Version = "dev"
