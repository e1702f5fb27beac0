package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs(t *testing.T) {
	c, err := parseArgs(nil)
	require.NoError(t, err)
	assert.Equal(t, &command{dir: "migrations", action: "up"}, c)

	c, err = parseArgs([]string{"-dir", "db/sql", "down"})
	require.NoError(t, err)
	assert.Equal(t, &command{dir: "db/sql", action: "down"}, c)

	c, err = parseArgs([]string{"force", "3"})
	require.NoError(t, err)
	assert.Equal(t, 3, c.version)
}

func TestParseArgs_Errors(t *testing.T) {
	for _, args := range [][]string{{"force"}, {"force", "x"}, {"sideways"}} {
		_, err := parseArgs(args)
		assert.Error(t, err, args)
	}
}
