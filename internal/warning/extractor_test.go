package warning

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"verdict/internal/failure"
)

func defaultExtractor() Extractor {
	return Extractor{
		Expected: Pattern{
			Regexp:       regexp.MustCompile(`;warn:(\$line[+-]?\d*|\d*):(\d+): (.+)`),
			LineGroup:    1,
			ColumnGroup:  2,
			MessageGroup: 3,
		},
		Actual: Pattern{
			Regexp:        regexp.MustCompile(`(.+):(\d+):(\d+): (.+)`),
			FileNameGroup: 1,
			LineGroup:     2,
			ColumnGroup:   3,
			MessageGroup:  4,
		},
		Placeholder: "$line",
	}
}

func lines(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "code"
	}
	return out
}

func TestExtractExpected_ExplicitLine(t *testing.T) {
	src := []string{
		"package a;",
		"// ;warn:5:1: unused import",
		"import java.util.List;",
	}
	ws, err := defaultExtractor().ExtractExpected("A.java", src)
	require.NoError(t, err)
	require.Len(t, ws, 1)

	assert.Equal(t, "unused import", ws[0].Message)
	assert.Equal(t, 5, *ws[0].Line)
	assert.Equal(t, 1, *ws[0].Column)
	assert.Equal(t, "A.java", ws[0].FileName)
}

func TestExtractExpected_PlaceholderOffsets(t *testing.T) {
	src := lines(10)
	src[3] = "// ;warn:$line:2: on this line"
	src[4] = "// ;warn:$line+2:2: two below"
	src[5] = "// ;warn:$line-1:2: one above"

	ws, err := defaultExtractor().ExtractExpected("A.java", src)
	require.NoError(t, err)
	require.Len(t, ws, 3)

	assert.Equal(t, 4, *ws[0].Line)
	assert.Equal(t, 7, *ws[1].Line)
	assert.Equal(t, 5, *ws[2].Line)
}

func TestExtractExpected_EmptyLineScansForward(t *testing.T) {
	src := lines(8)
	src[2] = "// ;warn::1: first"
	src[3] = "// ;warn::5: second"

	ws, err := defaultExtractor().ExtractExpected("A.java", src)
	require.NoError(t, err)
	require.Len(t, ws, 2)

	// both refer to the first code line after the comment block (line 5)
	assert.Equal(t, 5, *ws[0].Line)
	assert.Equal(t, 5, *ws[1].Line)
}

func TestExtractExpected_NeitherNumberNorPlaceholder(t *testing.T) {
	e := defaultExtractor()
	e.Expected.Regexp = regexp.MustCompile(`;warn:([^:]*):(\d+): (.+)`)

	_, err := e.ExtractExpected("A.java", []string{"// ;warn:abc:1: msg"})
	require.Error(t, err)
	assert.True(t, failure.IsKind(err, failure.ResourceFormat))
	assert.Contains(t, err.Error(), "neither a number nor a placeholder")
}

func TestExtractExpected_BadPlaceholderOffset(t *testing.T) {
	e := defaultExtractor()
	e.Expected.Regexp = regexp.MustCompile(`;warn:([^:]*):(\d+): (.+)`)

	_, err := e.ExtractExpected("A.java", []string{"// ;warn:$line+x:1: msg"})
	require.Error(t, err)
	assert.True(t, failure.IsKind(err, failure.ResourceFormat))
}

func TestExtractExpected_MissingMessageGroup(t *testing.T) {
	e := defaultExtractor()
	e.Expected.Regexp = regexp.MustCompile(`;warn:(\d*):(\d+)(?:: (.+))?`)

	_, err := e.ExtractExpected("A.java", []string{"// ;warn:3:1"})
	require.Error(t, err)
	assert.True(t, failure.IsKind(err, failure.ResourceFormat))
	assert.Contains(t, err.Error(), "warning message")
}

func TestExtractExpected_ColumnDisabled(t *testing.T) {
	e := defaultExtractor()
	e.Expected.ColumnGroup = 0

	ws, err := e.ExtractExpected("A.java", []string{"// ;warn:1:9: msg"})
	require.NoError(t, err)
	require.Len(t, ws, 1)
	assert.Nil(t, ws[0].Column)
}

func TestExtractActual(t *testing.T) {
	out := []string{
		"Analyzing 2 files",
		"/abs/path/A.java:5:1: unused import",
		"B.java:10:3: shadowed variable",
		"done",
	}
	ws, err := defaultExtractor().ExtractActual(out, "")
	require.NoError(t, err)
	require.Len(t, ws, 2)

	assert.Equal(t, "A.java", ws[0].FileName)
	assert.Equal(t, 5, *ws[0].Line)
	assert.Equal(t, "B.java", ws[1].FileName)
	assert.Equal(t, "shadowed variable", ws[1].Message)
}

func TestExtractActual_DefaultFileName(t *testing.T) {
	e := defaultExtractor()
	e.Actual = Pattern{
		Regexp:       regexp.MustCompile(`^(\d+): (.+)$`),
		LineGroup:    1,
		MessageGroup: 2,
	}

	ws, err := e.ExtractActual([]string{"7: trailing whitespace"}, "C.java")
	require.NoError(t, err)
	require.Len(t, ws, 1)
	assert.Equal(t, "C.java", ws[0].FileName)
	assert.Nil(t, ws[0].Column)
}

func TestResolvePlaceholderLine(t *testing.T) {
	pattern := regexp.MustCompile(`;warn:`)

	t.Run("consecutive matches push the line down", func(t *testing.T) {
		src := lines(20)
		src[10] = "// ;warn::1: a"
		src[11] = "// ;warn::1: b"
		assert.Equal(t, 13, ResolvePlaceholderLine(src, 10, pattern, "A.java"))
	})

	t.Run("clamped at end of file", func(t *testing.T) {
		src := lines(3)
		src[1] = "// ;warn::1: a"
		src[2] = "// ;warn::1: b"
		assert.Equal(t, 3, ResolvePlaceholderLine(src, 1, pattern, "A.java"))
	})

	t.Run("no matches from anchor", func(t *testing.T) {
		assert.Equal(t, 6, ResolvePlaceholderLine(lines(10), 5, pattern, "A.java"))
	})
}

func TestWarningString(t *testing.T) {
	w := Warning{Message: "unused import", Line: intPtr(5), Column: intPtr(1), FileName: "A.java"}
	assert.Equal(t, "A.java:5:1: unused import", w.String())

	assert.Equal(t, "A.java: msg", Warning{Message: "msg", FileName: "A.java"}.String())
	assert.Equal(t, "[A.java:5:1: unused import, x]", Format([]Warning{w, {Message: "x"}}))
	assert.True(t, strings.HasPrefix(Format(nil), "["))
}
