package plugin

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"verdict/internal/failure"
)

// CommandSpec is the input of BuildCommand.
type CommandSpec struct {
	ExecCmd   string
	ExecFlags string
	// Files are the fixture paths passed to the analyzer.
	Files []string
	// ConfigDir is the directory of the governing configuration file.
	ConfigDir string
}

// BuildCommand assembles "<execCmd> <execFlags> <files...>". When execCmd or
// execFlags contain "{{" they are rendered as a text/template with the sprig
// function map and the CommandSpec as data, e.g.
//
//	execCmd: "{{ .ConfigDir }}/bin/analyzer"
//	execFlags: "--files={{ .Files | join \",\" }}"
//
// Files are appended unless the template refers to .Files itself.
func BuildCommand(spec CommandSpec) (string, error) {
	head := joinNonEmpty(spec.ExecCmd, spec.ExecFlags)
	if !strings.Contains(head, "{{") {
		return joinNonEmpty(append([]string{head}, spec.Files...)...), nil
	}

	tmpl, err := template.New("command").Funcs(sprig.TxtFuncMap()).Option("missingkey=error").Parse(head)
	if err != nil {
		return "", failure.Wrap(failure.ProcessExecution, "build command", spec.Files, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, spec); err != nil {
		return "", failure.Wrap(failure.ProcessExecution, "build command", spec.Files, err)
	}
	rendered := strings.TrimSpace(buf.String())
	if strings.Contains(head, ".Files") {
		return rendered, nil
	}
	return joinNonEmpty(append([]string{rendered}, spec.Files...)...), nil
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
