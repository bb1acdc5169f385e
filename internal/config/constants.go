package config

// Version is the interpreter version, overridable at build time.
var Version = "0.2.0"

// SourceFileExt is the canonical source file extension.
const SourceFileExt = ".chor"

// ConfigFileName is the per-project configuration file discovered
// upward from the source directory.
const ConfigFileName = "chorus.yaml"
