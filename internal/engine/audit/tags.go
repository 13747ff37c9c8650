package audit

import (
	"bufio"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"codegraph/internal/core/errors"
)

// Finding is one reference-tag syntax violation.
type Finding struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Message string `json:"message"`
}

const tagMarker = "@see{"

// Tag targets are symbol paths like pkg/auth.Login or pkg/auth#Login.
var tagTargetPattern = regexp.MustCompile(`^[\w/.#-]+$`)

// ValidateTags checks every @see{target} annotation under path, which may
// be a single file or a directory walked recursively. Violations come
// back as findings; only filesystem failures surface as errors.
func ValidateTags(path string) ([]Finding, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.AddContext(
			errors.Wrap(err, errors.CodeIO, "stat tag path"), errors.CtxPath, path)
	}

	var findings []Finding
	if !info.IsDir() {
		return validateFile(path)
	}

	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() {
			return walkErr
		}
		fileFindings, err := validateFile(p)
		if err != nil {
			return err
		}
		findings = append(findings, fileFindings...)
		return nil
	})
	if err != nil {
		return nil, errors.AddContext(
			errors.Wrap(err, errors.CodeIO, "walk tag path"), errors.CtxPath, path)
	}

	sort.Slice(findings, func(i, j int) bool {
		if findings[i].File != findings[j].File {
			return findings[i].File < findings[j].File
		}
		return findings[i].Line < findings[j].Line
	})
	return findings, nil
}

func validateFile(path string) ([]Finding, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.AddContext(
			errors.Wrap(err, errors.CodeIO, "open tag file"), errors.CtxPath, path)
	}
	defer f.Close()

	var findings []Finding
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		findings = append(findings, checkLine(path, line, scanner.Text())...)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.AddContext(
			errors.Wrap(err, errors.CodeIO, "read tag file"), errors.CtxPath, path)
	}
	return findings, nil
}

// checkLine validates every tag occurrence on one line. A line may carry
// several tags.
func checkLine(path string, line int, text string) []Finding {
	var findings []Finding
	rest := text
	for {
		idx := strings.Index(rest, tagMarker)
		if idx < 0 {
			return findings
		}
		rest = rest[idx+len(tagMarker):]

		end := strings.IndexByte(rest, '}')
		if end < 0 {
			findings = append(findings, Finding{
				File: path, Line: line, Message: "unclosed reference tag, missing '}'",
			})
			return findings
		}
		target := rest[:end]
		rest = rest[end+1:]

		switch {
		case target == "":
			findings = append(findings, Finding{
				File: path, Line: line, Message: "empty reference tag target",
			})
		case !tagTargetPattern.MatchString(target):
			findings = append(findings, Finding{
				File: path, Line: line,
				Message: "invalid characters in reference tag target " + strconv.Quote(target),
			})
		}
	}
}
