// Package devkit provides a scriptable wallet connector and conformance
// checks for connector and storage implementations.
package devkit
