//go:build !ORT

package provider

import "github.com/knights-analytics/hugot"

// newHugotSession uses the pure-Go inference backend. Build with -tags ORT
// to link against ONNX Runtime instead.
func newHugotSession() (*hugot.Session, error) {
	return hugot.NewGoSession()
}
