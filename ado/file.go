package ado

import (
	"fmt"
	"github.com/spf13/afero"
	"unicode/utf8"
)

// ReadPipelineFile returns the file's text unchanged so it can be sent as a
// yamlOverride. The content must be valid UTF-8.
func ReadPipelineFile(fs afero.Fs, path string) (string, error) {
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return "", fmt.Errorf("ReadPipelineFile: failed to read %s: %w", path, err)
	}
	if !utf8.Valid(content) {
		return "", fmt.Errorf("ReadPipelineFile: %s is not valid UTF-8", path)
	}
	return string(content), nil
}
