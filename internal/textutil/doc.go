// Package textutil provides filename and path-segment helpers.
//
// Sanitize turns arbitrary metadata strings (titles, actress names, studios)
// into a single safe path component, and TruncateComponent bounds a component's
// length in runes while keeping any file extension intact.
package textutil
