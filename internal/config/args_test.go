package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telhawk-systems/logblock/internal/models"
)

func TestParseStartDate(t *testing.T) {
	got, err := ParseStartDate("2017-01-01.13:00:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2017, 1, 1, 13, 0, 0, 0, time.UTC), got)

	_, err = ParseStartDate("2017-01-01.13:00.00")
	assert.Error(t, err)

	_, err = ParseStartDate("2017-01-01 13:00:00")
	assert.Error(t, err, "space separator is the log format, not the argument format")
}

func TestParseRunArgs_Pass(t *testing.T) {
	rc, err := ParseRunArgs(RunArgs{
		AccessLog: "data/access.log",
		StartDate: "2017-01-01.13:00:00",
		Duration:  "hourly",
		Threshold: "100",
	})
	require.NoError(t, err)

	assert.Equal(t, "data/access.log", rc.AccessLog)
	assert.Equal(t, "access.log", rc.FileName())
	assert.Equal(t, time.Date(2017, 1, 1, 13, 0, 0, 0, time.UTC), rc.Window.Start)
	assert.Equal(t, "2017-01-01 13:00:00", rc.Window.Start.Format(models.WindowLayout))
	assert.Equal(t, models.Hourly, rc.Window.Duration)
	assert.Equal(t, 1, rc.Window.Duration.Hours())
	assert.Equal(t, 100, rc.Threshold)
	assert.Equal(t, DefaultConfigPath, rc.ConfigPath)
}

func TestParseRunArgs_Daily(t *testing.T) {
	rc, err := ParseRunArgs(RunArgs{
		AccessLog:  "/var/log/web/access.log",
		StartDate:  "2017-01-01.00:00:00",
		Duration:   "DAILY",
		Threshold:  "250",
		ConfigPath: "/etc/logblock/parser.conf",
	})
	require.NoError(t, err)

	assert.Equal(t, models.Daily, rc.Window.Duration)
	assert.Equal(t, time.Date(2017, 1, 2, 0, 0, 0, 0, time.UTC), rc.Window.End())
	assert.Equal(t, "/etc/logblock/parser.conf", rc.ConfigPath)
}

func TestParseRunArgs_Fail(t *testing.T) {
	valid := RunArgs{
		AccessLog: "data/access.log",
		StartDate: "2017-01-01.13:00:00",
		Duration:  "hourly",
		Threshold: "100",
	}

	tests := []struct {
		name      string
		mutate    func(a *RunArgs)
		wantField string
	}{
		{"bad start date", func(a *RunArgs) { a.StartDate = "qwer-01-01.13:00:00" }, "startDate"},
		{"missing start date", func(a *RunArgs) { a.StartDate = "" }, "startDate"},
		{"unknown duration", func(a *RunArgs) { a.Duration = "weekly" }, "duration"},
		{"missing duration", func(a *RunArgs) { a.Duration = "" }, "duration"},
		{"non-integer threshold", func(a *RunArgs) { a.Threshold = "hello" }, "threshold"},
		{"zero threshold", func(a *RunArgs) { a.Threshold = "0" }, "threshold"},
		{"negative threshold", func(a *RunArgs) { a.Threshold = "-5" }, "threshold"},
		{"missing access log", func(a *RunArgs) { a.AccessLog = "  " }, "accesslog"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := valid
			tt.mutate(&args)

			_, err := ParseRunArgs(args)
			require.Error(t, err)

			var validationErr *models.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.wantField, validationErr.Field)
			assert.Equal(t, models.ExitValidation, models.ExitCode(err))
		})
	}
}
