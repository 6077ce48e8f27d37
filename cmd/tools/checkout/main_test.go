package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunPrintsTotals(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-rules", "", "AAA", "", "EEB", "a"}, &stdout, &stderr)

	require.Equal(t, 1, code)
	require.Equal(t, "130\n0\n80\n-1\n", stdout.String())
	require.Empty(t, stderr.String())
}

func TestRunJSON(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-rules", "", "-json", "AAAAA", "X!"}, &stdout, &stderr)
	require.Equal(t, 1, code)

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 2)

	var ok summary
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &ok))
	require.True(t, ok.Valid)
	require.Equal(t, int64(250), ok.Subtotal)
	require.Equal(t, int64(200), ok.Total)
	require.Equal(t, int64(50), ok.Discount)

	var bad summary
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &bad))
	require.False(t, bad.Valid)
	require.Equal(t, int64(-1), bad.Total)
	require.Contains(t, bad.Error, "invalid item")
}

func TestRunWithRulesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
items:
  - code: A
    price: 10
    multi_buy:
      - quantity: 2
        price: 15
`), 0o600))

	var stdout, stderr bytes.Buffer
	code := run([]string{"-rules", path, "AAA", "B"}, &stdout, &stderr)
	require.Equal(t, 1, code)
	require.Equal(t, "25\n-1\n", stdout.String())
}

func TestRunUsageErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.Equal(t, 2, run(nil, &stdout, &stderr))
	require.Contains(t, stderr.String(), "usage")

	stderr.Reset()
	require.Equal(t, 2, run([]string{"-rules", filepath.Join(t.TempDir(), "missing.yaml"), "A"}, &stdout, &stderr))
	require.Contains(t, stderr.String(), "read rules")
}
