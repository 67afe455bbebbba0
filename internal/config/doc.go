// Package config loads, normalizes, and validates avshelf configuration data.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours the AVSHELF_LIBRARY_DIR environment override. The
// Config type centralizes every knob the organizer, image downloader, scanner
// and CLI need so library and metadata directories are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, canonical enum strings, and clear validation errors.
package config
