// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Common helpers include source tree fixtures (WriteTree, MustWriteFile,
// MustReadFile), environment and directory management (MustSetenv, MustChdir)
// and throwaway git repositories (InitRepo).
package testutil
