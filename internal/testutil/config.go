package testutil

import (
	"testing"

	"github.com/spf13/viper"
)

// ResetConfig resets the global viper instance now and again when the test completes.
func ResetConfig(t *testing.T) {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)
}
