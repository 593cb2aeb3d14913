package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func propertiesCmd(t *testing.T) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "x", Run: func(*cobra.Command, []string) {}}
	cmd.Flags().Int("parallel", 1, "")
	cmd.Flags().String("report-type", "plain", "")
	cmd.Flags().Bool("quiet", false, "")
	cmd.Flags().String("properties-file", "", "")
	return cmd
}

func writeProperties(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "props.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestApplyProperties(t *testing.T) {
	cmd := propertiesCmd(t)
	require.NoError(t, cmd.Flags().Parse([]string{"--report-type=table"}))

	require.NoError(t, applyProperties(cmd, writeProperties(t, "parallel: 4\nreport-type: json\nquiet: true\n")))

	parallel, _ := cmd.Flags().GetInt("parallel")
	reportType, _ := cmd.Flags().GetString("report-type")
	quiet, _ := cmd.Flags().GetBool("quiet")
	assert.Equal(t, 4, parallel)
	assert.Equal(t, "table", reportType, "command line wins")
	assert.True(t, quiet)
}

func TestApplyProperties_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "unknown key", content: "colour: red\n", want: `unknown property "colour"`},
		{name: "bad value", content: "parallel: many\n", want: "invalid value for parallel"},
		{name: "recursive", content: "properties-file: other.yaml\n", want: "cannot be set from a properties file"},
		{name: "not a mapping", content: "- a\n- b\n", want: "failed to parse properties file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := applyProperties(propertiesCmd(t), writeProperties(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Equal(t, ExitCodeInvalidConfig, getExitCode(err))
		})
	}
}

func TestApplyProperties_MissingFile(t *testing.T) {
	err := applyProperties(propertiesCmd(t), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read properties file")
}
