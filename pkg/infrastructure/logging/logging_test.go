package logging

import (
	"context"
	"errors"
	"testing"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recorder(lines *[]string) logr.Logger {
	return funcr.New(func(prefix, args string) {
		*lines = append(*lines, args)
	}, funcr.Options{Verbosity: DEBUG})
}

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		format    Format
		verbosity int
		wantErr   string
	}{
		{"console", FormatConsole, INFO, ""},
		{"json", FormatJSON, DEBUG, ""},
		{"plain", FormatPlain, TRACE, ""},
		{"default", "", INFO, ""},
		{"unknown", "xml", INFO, `logging: unknown format "xml"`},
		{"negative", FormatConsole, -1, "logging: verbosity cannot be negative, got -1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.format, tt.verbosity)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, log.V(tt.verbosity).Enabled())
			assert.False(t, log.V(tt.verbosity+1).Enabled())
		})
	}
}

func TestFromContext(t *testing.T) {
	assert.Equal(t, logr.Discard(), FromContext(context.Background()))

	var lines []string
	ctx := NewContext(context.Background(), recorder(&lines))
	FromContext(ctx).Info("hello")
	assert.Len(t, lines, 1)
}

func TestTime(t *testing.T) {
	var lines []string
	ctx := NewContext(context.Background(), recorder(&lines))

	func() (err error) {
		defer Time(ctx, "load")(&err)
		return nil
	}()
	func() (err error) {
		defer Time(ctx, "solve")(&err)
		return errors.New("boom")
	}()

	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"msg"="operation finished" "op"="load"`)
	assert.Contains(t, lines[1], `"msg"="operation failed" "error"="boom" "op"="solve"`)
}
