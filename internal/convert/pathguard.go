package convert

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureOutputNotSame rejects an output path that resolves to one of
// the input paths, so a conversion can never clobber its own source.
func EnsureOutputNotSame(output string, inputs []string) error {
	outNorm, err := normalizeForCompare(output)
	if err != nil {
		return classifyf(KindInvalidInput, "failed to normalize output path %s: %v", output, err)
	}
	for _, input := range inputs {
		inNorm, err := normalizeForCompare(input)
		if err != nil {
			return classifyf(KindInvalidInput, "failed to normalize input path %s: %v", input, err)
		}
		if outNorm == inNorm {
			return classifyf(KindInvalidInput,
				"refusing to overwrite source file: output %s matches input %s", output, input)
		}
	}
	return nil
}

// normalizeForCompare resolves symlinks for paths that exist and falls
// back to an absolute lexical form for paths that do not exist yet
// (typically the output file).
func normalizeForCompare(path string) (string, error) {
	if _, err := os.Stat(path); err == nil {
		resolved, err := filepath.EvalSymlinks(path)
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", path, err)
		}
		return filepath.Abs(resolved)
	}
	return filepath.Abs(path)
}
