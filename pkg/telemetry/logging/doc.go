// Package logging builds the process-wide slog logger. Output can be
// filtered by level, formatted as JSON or text, and passed through a
// redactor that masks PAN-like digit runs so card data captured as
// evidence never reaches log sinks in the clear.
package logging
