package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chrisuehlinger/tabshell/config"
)

func TestLoggerConfig(t *testing.T) {
	lc := loggerConfig(config.Log{Level: "DEBUG", Development: true})
	assert.Equal(t, "debug", lc.Level)
	assert.True(t, lc.Development)
	assert.Equal(t, []string{"stderr"}, lc.OutputPaths)

	lc = loggerConfig(config.Log{})
	assert.Equal(t, "info", lc.Level)
	assert.False(t, lc.Development)
}
