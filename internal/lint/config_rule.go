package lint

import (
	"bytes"
	"errors"
	"io"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/dosanma1/crxpack/internal/config"
)

var yamlLinePattern = regexp.MustCompile(`line (\d+): (.*)$`)

// ConfigRule checks the pipeline's own crxpack.yaml for unknown keys and
// type mismatches.
type ConfigRule struct{}

func (ConfigRule) Name() string { return "config" }

// CheckFile decodes data strictly into config.Config.
func (r ConfigRule) CheckFile(path string, data []byte) []Issue {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg config.Config
	err := dec.Decode(&cfg)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var messages []string
	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) {
		messages = typeErr.Errors
	} else {
		messages = []string{err.Error()}
	}

	issues := make([]Issue, 0, len(messages))
	for _, msg := range messages {
		issue := Issue{
			File:     path,
			Line:     1,
			Column:   1,
			Rule:     r.Name(),
			Severity: SeverityError,
			Message:  msg,
		}
		if m := yamlLinePattern.FindStringSubmatch(msg); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				issue.Line = n
				issue.Message = m[2]
			}
		}
		issues = append(issues, issue)
	}
	return issues
}
