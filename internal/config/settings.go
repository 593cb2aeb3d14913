package config

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// Defaults applied after merging.
const (
	DefaultActualWarningsPattern   = `(.+):(\d+):(\d+): (.+)`
	DefaultExpectedWarningsPattern = `;warn:(\$line[+-]?\d*|\d*):(\d+): (.+)`
	DefaultTestNamePattern         = `.*Test\.\w+`
	DefaultLinePlaceholder         = "$line"
	DefaultTestSuffix              = "Test"
	DefaultExpectedSuffix          = "Expected"
	DefaultTimeout                 = 10 * time.Second
	DefaultBatchSize               = 1
)

// Settings is the resolved configuration of a node.
type Settings struct {
	General GeneralSettings
	Warn    *WarnSettings
	Fix     *FixSettings
}

// GeneralSettings are resolved general settings.
type GeneralSettings struct {
	ExecCmd                 string
	Description             string
	SuiteName               string
	Tags                    []string
	ExcludedTests           []string
	Timeout                 time.Duration
	IgnoreTechnicalComments bool
}

// WarnSettings are resolved warn plugin settings. Group indexes of 0 mean
// the field is not captured.
type WarnSettings struct {
	ExecFlags          string
	ActualPattern      *regexp.Regexp
	ExpectedPattern    *regexp.Regexp
	LineGroup          int
	ColumnGroup        int
	MessageGroup       int
	FileNameGroupOut   int
	LineGroupOut       int
	ColumnGroupOut     int
	MessageGroupOut    int
	ExactWarningsMatch bool
	BatchSize          int
	LinePlaceholder    string
	TestNamePattern    *regexp.Regexp
}

// FixSettings are resolved fix plugin settings.
type FixSettings struct {
	ExecFlags      string
	TestSuffix     string
	ExpectedSuffix string
	BatchSize      int
}

func valueOr[T any](p *T, def T) T {
	if p != nil {
		return *p
	}
	return def
}

// ResolveSettings applies defaults to an effective File and compiles its
// patterns. location is used for error reporting.
func ResolveSettings(location string, f File) (*Settings, error) {
	errs := &ConfigurationErrorCollection{}
	s := &Settings{General: resolveGeneral(location, f.General, errs)}
	if f.Warn != nil {
		s.Warn = resolveWarn(location, f.Warn, errs)
	}
	if f.Fix != nil {
		s.Fix = resolveFix(location, f.Fix, errs)
	}
	if err := errs.ErrOrNil(); err != nil {
		return nil, err
	}
	return s, nil
}

func resolveGeneral(location string, g *GeneralSection, errs *ConfigurationErrorCollection) GeneralSettings {
	if g == nil {
		g = &GeneralSection{}
	}
	gs := GeneralSettings{
		ExecCmd:                 valueOr(g.ExecCmd, ""),
		Description:             valueOr(g.Description, ""),
		SuiteName:               valueOr(g.SuiteName, ""),
		Tags:                    g.Tags,
		ExcludedTests:           g.ExcludedTests,
		Timeout:                 valueOr(g.Timeout, DefaultTimeout),
		IgnoreTechnicalComments: valueOr(g.IgnoreTechnicalComments, false),
	}
	for _, pattern := range gs.ExcludedTests {
		if !doublestar.ValidatePattern(pattern) {
			errs.Add(NewConfigurationErrorWithDetails(location, "general", ErrorTypeValidation,
				fmt.Sprintf("excludedTests pattern %q is not a valid glob", pattern), doublestar.ErrBadPattern.Error(),
				[]string{"Check for unbalanced [ ] or { } in the pattern"}))
		}
	}
	if gs.Timeout <= 0 {
		errs.Add(NewConfigurationError(location, "general", ErrorTypeValidation,
			fmt.Sprintf("timeout must be positive, got %s", gs.Timeout)))
	}
	return gs
}

func resolveWarn(location string, w *WarnSection, errs *ConfigurationErrorCollection) *WarnSettings {
	ws := &WarnSettings{
		ExecFlags:          valueOr(w.ExecFlags, ""),
		LineGroup:          valueOr(w.LineCaptureGroup, 1),
		ColumnGroup:        valueOr(w.ColumnCaptureGroup, 2),
		MessageGroup:       valueOr(w.MessageCaptureGroup, 3),
		FileNameGroupOut:   valueOr(w.FileNameCaptureGroupOut, 1),
		LineGroupOut:       valueOr(w.LineCaptureGroupOut, 2),
		ColumnGroupOut:     valueOr(w.ColumnCaptureGroupOut, 3),
		MessageGroupOut:    valueOr(w.MessageCaptureGroupOut, 4),
		ExactWarningsMatch: valueOr(w.ExactWarningsMatch, true),
		BatchSize:          valueOr(w.BatchSize, DefaultBatchSize),
		LinePlaceholder:    valueOr(w.LinePlaceholder, DefaultLinePlaceholder),
	}

	ws.ActualPattern = compile(location, "warn", "actualWarningsPattern",
		valueOr(w.ActualWarningsPattern, DefaultActualWarningsPattern), errs)
	ws.ExpectedPattern = compile(location, "warn", "expectedWarningsPattern",
		valueOr(w.ExpectedWarningsPattern, DefaultExpectedWarningsPattern), errs)
	// fixture names must match the whole pattern
	ws.TestNamePattern = compile(location, "warn", "testNamePattern",
		"^(?:"+valueOr(w.TestNamePattern, DefaultTestNamePattern)+")$", errs)

	if ws.BatchSize < 1 {
		errs.Add(NewConfigurationError(location, "warn", ErrorTypeValidation,
			fmt.Sprintf("batchSize must be at least 1, got %d", ws.BatchSize)))
	}
	if ws.FileNameGroupOut == 0 && ws.BatchSize > 1 {
		errs.Add(NewConfigurationErrorWithDetails(location, "warn", ErrorTypeValidation,
			fmt.Sprintf("batchSize is %d but fileNameCaptureGroupOut is 0", ws.BatchSize),
			"warnings without a file name cannot be attributed to a fixture of a multi-fixture batch",
			[]string{"Set batchSize to 1", "Capture the file name with fileNameCaptureGroupOut"}))
	}
	if ws.LinePlaceholder == "" {
		errs.Add(NewConfigurationError(location, "warn", ErrorTypeValidation, "linePlaceholder must not be empty"))
	}
	if ws.ExpectedPattern != nil {
		checkGroups(location, "expectedWarningsPattern", ws.ExpectedPattern, map[string]int{
			"lineCaptureGroup":    ws.LineGroup,
			"columnCaptureGroup":  ws.ColumnGroup,
			"messageCaptureGroup": ws.MessageGroup,
		}, errs)
		if ws.MessageGroup == 0 {
			errs.Add(NewConfigurationError(location, "warn", ErrorTypeValidation, "messageCaptureGroup is required"))
		}
	}
	if ws.ActualPattern != nil {
		checkGroups(location, "actualWarningsPattern", ws.ActualPattern, map[string]int{
			"fileNameCaptureGroupOut": ws.FileNameGroupOut,
			"lineCaptureGroupOut":     ws.LineGroupOut,
			"columnCaptureGroupOut":   ws.ColumnGroupOut,
			"messageCaptureGroupOut":  ws.MessageGroupOut,
		}, errs)
		if ws.MessageGroupOut == 0 {
			errs.Add(NewConfigurationError(location, "warn", ErrorTypeValidation, "messageCaptureGroupOut is required"))
		}
	}
	return ws
}

func resolveFix(location string, f *FixSection, errs *ConfigurationErrorCollection) *FixSettings {
	fs := &FixSettings{
		ExecFlags:      valueOr(f.ExecFlags, ""),
		TestSuffix:     valueOr(f.TestSuffix, DefaultTestSuffix),
		ExpectedSuffix: valueOr(f.ExpectedSuffix, DefaultExpectedSuffix),
		BatchSize:      valueOr(f.BatchSize, DefaultBatchSize),
	}
	if fs.BatchSize < 1 {
		errs.Add(NewConfigurationError(location, "fix", ErrorTypeValidation,
			fmt.Sprintf("batchSize must be at least 1, got %d", fs.BatchSize)))
	}
	if fs.TestSuffix == fs.ExpectedSuffix {
		errs.Add(NewConfigurationError(location, "fix", ErrorTypeValidation,
			fmt.Sprintf("testSuffix and expectedSuffix must differ, both are %q", fs.TestSuffix)))
	}
	return fs
}

func compile(location, section, field, expr string, errs *ConfigurationErrorCollection) *regexp.Regexp {
	re, err := regexp.Compile(expr)
	if err != nil {
		errs.Add(NewConfigurationErrorWithDetails(location, section, ErrorTypeValidation,
			fmt.Sprintf("%s is not a valid regular expression", field), err.Error(),
			[]string{"Patterns use Go RE2 syntax; look-around and backreferences are not supported"}))
		return nil
	}
	return re
}

func checkGroups(location, patternField string, re *regexp.Regexp, groups map[string]int, errs *ConfigurationErrorCollection) {
	for _, name := range slices.Sorted(maps.Keys(groups)) {
		idx := groups[name]
		if idx < 0 || idx > re.NumSubexp() {
			errs.Add(NewConfigurationError(location, "warn", ErrorTypeValidation,
				fmt.Sprintf("%s is %d but %s has only %d capture groups", name, idx, patternField, re.NumSubexp())))
		}
	}
}
