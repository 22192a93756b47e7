// Command wcagscan is the command line client for the WCAG scanner service.
// It supervises the local server process, starts and follows scans, and
// renders results as tables, JSON, or a live dashboard.
package main
