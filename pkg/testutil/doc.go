// Package testutil starts throwaway backing services for integration tests.
// Everything here is excluded from regular builds by the integration tag.
package testutil
