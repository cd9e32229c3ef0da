// Package config loads and validates quaestor's YAML configuration.
//
// Configuration resolves in three layers: values from the file, defaults
// for anything left unset, and QUAESTOR_SECTION_FIELD environment variable
// overrides on top. The final result is validated as a whole and every
// problem is reported in one pass.
package config
