package warning

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"verdict/internal/failure"
	"verdict/pkg/logging"
)

// Pattern locates warning fields in a line. Group indexes are 1-based and 0
// means the field is not captured.
type Pattern struct {
	Regexp        *regexp.Regexp
	FileNameGroup int
	LineGroup     int
	ColumnGroup   int
	MessageGroup  int
}

// Extractor turns fixture comments and analyzer output into warnings.
type Extractor struct {
	// Expected matches comments in fixtures.
	Expected Pattern
	// Actual matches analyzer stdout lines.
	Actual Pattern
	// Placeholder marks a line relative to the comment, like "$line+1".
	Placeholder string
}

// ExtractExpected returns the warnings declared in the lines of fixture
// fileName. An empty line group resolves to the first line after the block of
// consecutive warning comments; a placeholder value resolves relative to the
// comment's own line.
func (e Extractor) ExtractExpected(fileName string, lines []string) ([]Warning, error) {
	var out []Warning
	for idx, text := range lines {
		m := e.Expected.Regexp.FindStringSubmatchIndex(text)
		if m == nil {
			continue
		}
		message, err := requiredGroup(m, text, e.Expected.MessageGroup, "warning message")
		if err != nil {
			return nil, failure.Wrap(failure.ResourceFormat, "extract expected", []string{fileName}, err)
		}
		w := Warning{Message: message, FileName: fileName}

		if e.Expected.LineGroup > 0 {
			raw, err := optionalGroup(m, text, e.Expected.LineGroup, "line number")
			if err != nil {
				return nil, failure.Wrap(failure.ResourceFormat, "extract expected", []string{fileName}, err)
			}
			line, err := e.resolveLine(raw, idx, lines, fileName)
			if err != nil {
				return nil, failure.Wrap(failure.ResourceFormat, "extract expected", []string{fileName}, err)
			}
			w.Line = intPtr(line)
		}
		if w.Column, err = column(m, text, e.Expected.ColumnGroup); err != nil {
			return nil, failure.Wrap(failure.ResourceFormat, "extract expected", []string{fileName}, err)
		}
		out = append(out, w)
	}
	return out, nil
}

// ExtractActual returns the warnings reported in analyzer output. File names
// are reduced to their base name. When the pattern has no file name group,
// defaultFile is used.
func (e Extractor) ExtractActual(lines []string, defaultFile string) ([]Warning, error) {
	var out []Warning
	for _, text := range lines {
		m := e.Actual.Regexp.FindStringSubmatchIndex(text)
		if m == nil {
			continue
		}
		message, err := requiredGroup(m, text, e.Actual.MessageGroup, "warning message")
		if err != nil {
			return nil, failure.Wrap(failure.ResourceFormat, "extract actual", nil, err)
		}
		w := Warning{Message: message, FileName: defaultFile}

		if e.Actual.FileNameGroup > 0 {
			name, err := requiredGroup(m, text, e.Actual.FileNameGroup, "file name")
			if err != nil {
				return nil, failure.Wrap(failure.ResourceFormat, "extract actual", nil, err)
			}
			w.FileName = filepath.Base(strings.TrimSpace(name))
		}
		if e.Actual.LineGroup > 0 {
			raw, err := optionalGroup(m, text, e.Actual.LineGroup, "line number")
			if err != nil {
				return nil, failure.Wrap(failure.ResourceFormat, "extract actual", nil, err)
			}
			if raw != "" {
				n, err := strconv.Atoi(raw)
				if err != nil || !isDigits(raw) {
					return nil, failure.New(failure.ResourceFormat, "extract actual", nil,
						"line number <%s> in [%s] is not a number", raw, text)
				}
				w.Line = intPtr(n)
			}
		}
		if w.Column, err = column(m, text, e.Actual.ColumnGroup); err != nil {
			return nil, failure.Wrap(failure.ResourceFormat, "extract actual", nil, err)
		}
		out = append(out, w)
	}
	return out, nil
}

func (e Extractor) resolveLine(raw string, idx int, lines []string, fileName string) (int, error) {
	switch {
	case raw == "":
		return ResolvePlaceholderLine(lines, idx, e.Expected.Regexp, fileName), nil
	case isDigits(raw):
		return strconv.Atoi(raw)
	case e.Placeholder != "" && raw[0] == e.Placeholder[0]:
		offset := raw
		if i := strings.LastIndex(raw, e.Placeholder); i >= 0 {
			offset = raw[i+len(e.Placeholder):]
		}
		n := 0
		if offset != "" {
			var err error
			if n, err = strconv.Atoi(offset); err != nil {
				return 0, &formatError{msg: "could not extract line number from <" + raw + ">: " + err.Error()}
			}
		}
		return idx + 1 + n, nil
	default:
		return 0, &formatError{msg: "the group <" + raw + "> is neither a number nor a placeholder"}
	}
}

// ResolvePlaceholderLine returns the line a warning comment at index anchor
// refers to: anchor + 1 plus the number of consecutive lines from anchor on
// that match pattern. A result beyond the last line is clamped to the line
// count and logged.
func ResolvePlaceholderLine(lines []string, anchor int, pattern *regexp.Regexp, fileName string) int {
	count := 0
	for i := anchor; i < len(lines) && pattern.MatchString(lines[i]); i++ {
		count++
	}
	line := anchor + 1 + count
	if line > len(lines) {
		logging.Warn("WarningExtractor", "Some warnings are at the end of %s; they will be assigned line %d", fileName, len(lines))
		return len(lines)
	}
	return line
}

type formatError struct{ msg string }

func (e *formatError) Error() string { return e.msg }

// requiredGroup reads group idx, which must exist and have participated.
func requiredGroup(m []int, text string, idx int, what string) (string, error) {
	if idx <= 0 || 2*idx+1 >= len(m) || m[2*idx] < 0 {
		return "", &formatError{msg: "could not extract " + what + " from line [" + text + "]: group " + strconv.Itoa(idx) + " did not match"}
	}
	return text[m[2*idx]:m[2*idx+1]], nil
}

// optionalGroup reads group idx; a group that did not participate reads as "".
func optionalGroup(m []int, text string, idx int, what string) (string, error) {
	if 2*idx+1 >= len(m) {
		return "", &formatError{msg: "could not extract " + what + " from line [" + text + "]: no group " + strconv.Itoa(idx)}
	}
	if m[2*idx] < 0 {
		return "", nil
	}
	return text[m[2*idx]:m[2*idx+1]], nil
}

func column(m []int, text string, idx int) (*int, error) {
	if idx <= 0 {
		return nil, nil
	}
	raw, err := optionalGroup(m, text, idx, "column number")
	if err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil || !isDigits(raw) {
		return nil, nil
	}
	return intPtr(n), nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
