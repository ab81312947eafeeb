// Package textutil provides text sanitization helpers for building
// filesystem-safe path segments from user-supplied values such as clan names.
package textutil
