// Package main is the entry point for the fieldlens backend CLI.
//
// fieldlens resolves the project's directory layout into a validated path
// registry and drives batch field extraction over document images through
// an external inference service.
//
// Modes:
//   - paths: resolve and print every registered path
//   - provision: create all registered directories
//   - batch: run an extraction prompt over the input directory
//
// Configuration:
//   - Environment variables (12-factor); PROJECT_ROOT, USER_HOME and
//     TEMP_DIR are required
//   - CLI flags override environment variables
//
// Usage:
//
//	# Inspect the resolved layout
//	./fieldlens -mode paths
//
//	# Create every registered directory
//	./fieldlens -mode provision
//
//	# Extract invoice numbers from every image in data/input
//	./fieldlens -mode batch -prompt basic_extraction
//
// Observability:
//   - METRICS_ADDR (or -metrics) exposes Prometheus metrics at /metrics
//     for the duration of the run
//
// Signals:
//   - SIGINT, SIGTERM: cancel an in-flight batch run
package main
