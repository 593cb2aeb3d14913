package config

import (
	"path/filepath"
	"slices"
	"time"
)

// FileName is the name of a configuration file.
const FileName = "verdict.yaml"

// IsConfigFile reports whether path names a configuration file.
func IsConfigFile(path string) bool {
	return filepath.Base(path) == FileName
}

// PluginKind identifies a plugin section.
type PluginKind string

const (
	KindWarn PluginKind = "warn"
	KindFix  PluginKind = "fix"
)

// File is the decoded content of one verdict.yaml. A nil section is absent.
type File struct {
	General *GeneralSection `yaml:"general,omitempty" json:"general,omitempty"`
	Warn    *WarnSection    `yaml:"warn,omitempty" json:"warn,omitempty"`
	Fix     *FixSection     `yaml:"fix,omitempty" json:"fix,omitempty"`
}

// PluginKinds lists the plugin sections present, in execution order.
func (f File) PluginKinds() []PluginKind {
	var kinds []PluginKind
	if f.Warn != nil {
		kinds = append(kinds, KindWarn)
	}
	if f.Fix != nil {
		kinds = append(kinds, KindFix)
	}
	return kinds
}

// GeneralSection holds settings shared by every plugin of a node.
type GeneralSection struct {
	ExecCmd                 *string        `yaml:"execCmd,omitempty" json:"execCmd,omitempty"`
	Description             *string        `yaml:"description,omitempty" json:"description,omitempty"`
	SuiteName               *string        `yaml:"suiteName,omitempty" json:"suiteName,omitempty"`
	Tags                    []string       `yaml:"tags,omitempty" json:"tags,omitempty"`
	ExcludedTests           []string       `yaml:"excludedTests,omitempty" json:"excludedTests,omitempty"`
	Timeout                 *time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	IgnoreTechnicalComments *bool          `yaml:"ignoreTechnicalComments,omitempty" json:"ignoreTechnicalComments,omitempty"`
}

// WarnSection configures the warn plugin.
type WarnSection struct {
	ExecFlags               *string `yaml:"execFlags,omitempty" json:"execFlags,omitempty"`
	ActualWarningsPattern   *string `yaml:"actualWarningsPattern,omitempty" json:"actualWarningsPattern,omitempty"`
	ExpectedWarningsPattern *string `yaml:"expectedWarningsPattern,omitempty" json:"expectedWarningsPattern,omitempty"`
	LineCaptureGroup        *int    `yaml:"lineCaptureGroup,omitempty" json:"lineCaptureGroup,omitempty"`
	ColumnCaptureGroup      *int    `yaml:"columnCaptureGroup,omitempty" json:"columnCaptureGroup,omitempty"`
	MessageCaptureGroup     *int    `yaml:"messageCaptureGroup,omitempty" json:"messageCaptureGroup,omitempty"`
	FileNameCaptureGroupOut *int    `yaml:"fileNameCaptureGroupOut,omitempty" json:"fileNameCaptureGroupOut,omitempty"`
	LineCaptureGroupOut     *int    `yaml:"lineCaptureGroupOut,omitempty" json:"lineCaptureGroupOut,omitempty"`
	ColumnCaptureGroupOut   *int    `yaml:"columnCaptureGroupOut,omitempty" json:"columnCaptureGroupOut,omitempty"`
	MessageCaptureGroupOut  *int    `yaml:"messageCaptureGroupOut,omitempty" json:"messageCaptureGroupOut,omitempty"`
	ExactWarningsMatch      *bool   `yaml:"exactWarningsMatch,omitempty" json:"exactWarningsMatch,omitempty"`
	BatchSize               *int    `yaml:"batchSize,omitempty" json:"batchSize,omitempty"`
	LinePlaceholder         *string `yaml:"linePlaceholder,omitempty" json:"linePlaceholder,omitempty"`
	TestNamePattern         *string `yaml:"testNamePattern,omitempty" json:"testNamePattern,omitempty"`
}

// FixSection configures the fix plugin.
type FixSection struct {
	ExecFlags      *string `yaml:"execFlags,omitempty" json:"execFlags,omitempty"`
	TestSuffix     *string `yaml:"testSuffix,omitempty" json:"testSuffix,omitempty"`
	ExpectedSuffix *string `yaml:"expectedSuffix,omitempty" json:"expectedSuffix,omitempty"`
	BatchSize      *int    `yaml:"batchSize,omitempty" json:"batchSize,omitempty"`
}

// Merge returns child layered over parent. Neither argument is modified.
func Merge(parent, child File) File {
	return File{
		General: mergeGeneral(parent.General, child.General),
		Warn:    mergeWarn(parent.Warn, child.Warn),
		Fix:     mergeFix(parent.Fix, child.Fix),
	}
}

func pick[T any](parent, child *T) *T {
	if child != nil {
		return child
	}
	return parent
}

func pickSlice(parent, child []string) []string {
	if child != nil {
		return slices.Clone(child)
	}
	return slices.Clone(parent)
}

func mergeGeneral(parent, child *GeneralSection) *GeneralSection {
	switch {
	case parent == nil && child == nil:
		return nil
	case parent == nil:
		parent = &GeneralSection{}
	case child == nil:
		child = &GeneralSection{}
	}
	return &GeneralSection{
		ExecCmd:                 pick(parent.ExecCmd, child.ExecCmd),
		Description:             pick(parent.Description, child.Description),
		SuiteName:               pick(parent.SuiteName, child.SuiteName),
		Tags:                    pickSlice(parent.Tags, child.Tags),
		ExcludedTests:           pickSlice(parent.ExcludedTests, child.ExcludedTests),
		Timeout:                 pick(parent.Timeout, child.Timeout),
		IgnoreTechnicalComments: pick(parent.IgnoreTechnicalComments, child.IgnoreTechnicalComments),
	}
}

func mergeWarn(parent, child *WarnSection) *WarnSection {
	switch {
	case parent == nil && child == nil:
		return nil
	case parent == nil:
		parent = &WarnSection{}
	case child == nil:
		child = &WarnSection{}
	}
	return &WarnSection{
		ExecFlags:               pick(parent.ExecFlags, child.ExecFlags),
		ActualWarningsPattern:   pick(parent.ActualWarningsPattern, child.ActualWarningsPattern),
		ExpectedWarningsPattern: pick(parent.ExpectedWarningsPattern, child.ExpectedWarningsPattern),
		LineCaptureGroup:        pick(parent.LineCaptureGroup, child.LineCaptureGroup),
		ColumnCaptureGroup:      pick(parent.ColumnCaptureGroup, child.ColumnCaptureGroup),
		MessageCaptureGroup:     pick(parent.MessageCaptureGroup, child.MessageCaptureGroup),
		FileNameCaptureGroupOut: pick(parent.FileNameCaptureGroupOut, child.FileNameCaptureGroupOut),
		LineCaptureGroupOut:     pick(parent.LineCaptureGroupOut, child.LineCaptureGroupOut),
		ColumnCaptureGroupOut:   pick(parent.ColumnCaptureGroupOut, child.ColumnCaptureGroupOut),
		MessageCaptureGroupOut:  pick(parent.MessageCaptureGroupOut, child.MessageCaptureGroupOut),
		ExactWarningsMatch:      pick(parent.ExactWarningsMatch, child.ExactWarningsMatch),
		BatchSize:               pick(parent.BatchSize, child.BatchSize),
		LinePlaceholder:         pick(parent.LinePlaceholder, child.LinePlaceholder),
		TestNamePattern:         pick(parent.TestNamePattern, child.TestNamePattern),
	}
}

func mergeFix(parent, child *FixSection) *FixSection {
	switch {
	case parent == nil && child == nil:
		return nil
	case parent == nil:
		parent = &FixSection{}
	case child == nil:
		child = &FixSection{}
	}
	return &FixSection{
		ExecFlags:      pick(parent.ExecFlags, child.ExecFlags),
		TestSuffix:     pick(parent.TestSuffix, child.TestSuffix),
		ExpectedSuffix: pick(parent.ExpectedSuffix, child.ExpectedSuffix),
		BatchSize:      pick(parent.BatchSize, child.BatchSize),
	}
}
