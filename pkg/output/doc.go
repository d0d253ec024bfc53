// Package output renders command results for the terminal or for machines.
//
// Listings support four formats: aligned text, a pterm table, JSON and YAML.
// Everything else (sync plans, transfers, prune results, errors) is text,
// styled with lipgloss when colour is enabled.
package output
