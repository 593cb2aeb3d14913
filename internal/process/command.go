package process

import (
	"runtime"
	"strings"

	"verdict/pkg/logging"
)

// Platform selects the shell used to run commands.
type Platform int

const (
	// Unix runs commands with sh -c.
	Unix Platform = iota
	// Windows runs commands with cmd /C.
	Windows
)

func (p Platform) String() string {
	if p == Windows {
		return "windows"
	}
	return "unix"
}

// CurrentPlatform returns the platform of the running binary.
func CurrentPlatform() Platform {
	if runtime.GOOS == "windows" {
		return Windows
	}
	return Unix
}

// PrepareCommand returns the argv that runs command on platform.
func PrepareCommand(p Platform, command string) []string {
	if p == Windows {
		return []string{"cmd", "/C", RewriteEchoCommand(command)}
	}
	return []string{"sh", "-c", command}
}

// RewriteEchoCommand rewrites each "echo <text>" segment of a cmd.exe command
// into `echo | set /p="<text>"`. Segments are split on "&&", or on ";" when
// there is no "&&". The closing quote goes before the first ">" or "2>" of a
// segment so that redirections stay outside the quoted text. Segments without
// echo are only trimmed. A command already using "echo | set" is returned
// unchanged, and so is one that echoes quoted text, with a warning.
func RewriteEchoCommand(command string) string {
	compact := strings.Join(strings.Fields(command), "")
	if strings.Contains(compact, "echo|set") {
		return command
	}
	if strings.Contains(compact, `echo"`) {
		logging.Warn("ProcessRunner", `Command %q echoes quoted text; use echo | set /p="..." to avoid extra whitespace on Windows`, command)
		return command
	}
	if !strings.Contains(command, "echo ") {
		return command
	}

	sep := ""
	switch {
	case strings.Contains(command, "&&"):
		sep = "&&"
	case strings.Contains(command, ";"):
		sep = ";"
	}

	var segments []string
	if sep == "" {
		segments = []string{command}
	} else {
		segments = strings.Split(command, sep)
	}

	for i, seg := range segments {
		seg = strings.TrimSpace(seg)
		if strings.Contains(seg, "echo ") {
			seg = rewriteEchoSegment(seg)
		}
		segments[i] = seg
	}

	if sep == "" {
		return segments[0]
	}
	return strings.Join(segments, " "+sep+" ")
}

func rewriteEchoSegment(seg string) string {
	seg = strings.Replace(seg, "echo ", `echo | set /p="`, 1)

	insertAt := len(seg)
	for _, redirect := range []string{">", "2>"} {
		if i := strings.Index(seg, redirect); i >= 0 && i < insertAt {
			insertAt = i
		}
	}

	head := strings.TrimRight(seg[:insertAt], " \t") + `"`
	if insertAt == len(seg) {
		return head
	}
	return head + " " + seg[insertAt:]
}
