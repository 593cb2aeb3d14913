package main

import (
	"testing"

	"verdict/cmd"
)

func TestVersion(t *testing.T) {
	// Test default version
	if version != "dev" {
		t.Errorf("Expected default version to be 'dev', got %s", version)
	}
}

func TestSetVersion(t *testing.T) {
	original := cmd.GetVersion()
	defer cmd.SetVersion(original)

	cmd.SetVersion("2.3.4-beta.1")
	if got := cmd.GetVersion(); got != "2.3.4-beta.1" {
		t.Errorf("Expected version 2.3.4-beta.1, got %s", got)
	}
}
