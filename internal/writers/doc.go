// Package writers holds helpers for the output stream: detecting a reader
// that went away and unbuffering stdout for interactive use.
package writers
