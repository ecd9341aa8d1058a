// Package testutil holds helpers shared by package tests.
package testutil

import (
	"os"
	"testing"
)

// SkipIfNoNetwork skips the test if PEDRITO_TEST_SKIP_NETWORK is set. Use it
// for tests that bind or dial loopback sockets, which sandboxed runners may
// forbid.
func SkipIfNoNetwork(t *testing.T) {
	t.Helper()
	if os.Getenv("PEDRITO_TEST_SKIP_NETWORK") != "" {
		t.Skip("skipping network test: PEDRITO_TEST_SKIP_NETWORK is set")
	}
}
