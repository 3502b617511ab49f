package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		want    slog.Level
		wantErr bool
	}{
		{name: "Empty", level: "", want: slog.LevelInfo},
		{name: "Debug", level: "debug", want: slog.LevelDebug},
		{name: "UpperWarn", level: "WARN", want: slog.LevelWarn},
		{name: "Warning", level: "warning", want: slog.LevelWarn},
		{name: "Error", level: "error", want: slog.LevelError},
		{name: "Unknown", level: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(tt.level)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestCommonLogger_JSON(t *testing.T) {
	buf := new(bytes.Buffer)
	c := NewConfig("tests")
	c.Format = FormatJSON
	c.Writer = buf

	l, err := CommonLogger(c)
	require.NoError(t, err)

	l.Info("hello", slog.String(KeyGuild, "123"))

	rec := make(map[string]any)
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "hello", rec["msg"])
	require.Equal(t, "tests", rec[KeyApp])
	require.Equal(t, "123", rec[KeyGuild])
}

func TestCommonLogger_Invalid(t *testing.T) {
	_, err := CommonLogger(nil)
	require.Error(t, err)

	c := NewConfig("tests")
	c.Format = "xml"
	_, err = CommonLogger(c)
	require.Error(t, err)
}
