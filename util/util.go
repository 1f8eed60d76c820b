package util

import (
	"os"
	"regexp"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/pkg/errors"
)

// Data is a generic map type for template rendering context.
type Data map[string]interface{}

func render(tmpl *template.Template, variables Data) (string, error) {
	var buf strings.Builder
	if err := tmpl.Execute(&buf, variables); err != nil {
		return "", errors.Wrap(err, "failed to render template")
	}
	return buf.String(), nil
}

// Delimiters of variable references in configured strings. Plain {{ }}
// belongs to the commands themselves (docker inspect -f, kubectl -o
// go-template) and passes through untouched.
const (
	LeftDelim  = "${{"
	RightDelim = "}}"
)

// RenderString parses and executes tmplStr with the sprig function map,
// using ${{ }} as action delimiters. Referencing an undefined variable is an
// error rather than "<no value>". Strings without ${{ are returned as is.
func RenderString(tmplStr string, variables Data) (string, error) {
	if !strings.Contains(tmplStr, LeftDelim) {
		return tmplStr, nil
	}
	tmpl, err := template.New("").
		Delims(LeftDelim, RightDelim).
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		Parse(tmplStr)
	if err != nil {
		return "", errors.Wrap(err, "failed to parse template string")
	}
	return render(tmpl, variables)
}

// FileExists checks if a file exists at the given path and is not a directory.
func FileExists(filePath string) bool {
	info, err := os.Stat(filePath)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// EnsureDir creates a directory if it does not already exist.
func EnsureDir(dirPath string) error {
	if err := os.MkdirAll(dirPath, os.ModePerm); err != nil {
		return errors.Wrapf(err, "failed to create directory %s", dirPath)
	}
	return nil
}

// TruncateString shortens a string to a maximum length, appending an ellipsis if truncation occurs.
// The ellipsis counts towards maxLength.
func TruncateString(s string, maxLength int, ellipsis string) string {
	if len(s) <= maxLength {
		return s
	}
	if maxLength <= len(ellipsis) {
		if maxLength < 0 {
			maxLength = 0
		}
		return ellipsis[:maxLength]
	}
	return s[:maxLength-len(ellipsis)] + ellipsis
}

// UniqueStrings returns the unique strings of slice in order of first appearance.
func UniqueStrings(slice []string) []string {
	seen := make(map[string]struct{}, len(slice))
	result := make([]string, 0, len(slice))
	for _, str := range slice {
		if _, ok := seen[str]; !ok {
			seen[str] = struct{}{}
			result = append(result, str)
		}
	}
	return result
}

// CombineErrors joins the non-nil errors into one, or returns nil.
func CombineErrors(errs ...error) error {
	var msgs []string
	for _, err := range errs {
		if err != nil {
			msgs = append(msgs, err.Error())
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	return errors.New(strings.Join(msgs, "; "))
}

// FirstNonEmpty returns the first non-empty string from a list of strings.
func FirstNonEmpty(strs ...string) string {
	for _, s := range strs {
		if s != "" {
			return s
		}
	}
	return ""
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFileName maps an arbitrary reference such as "docker.io/bitnami/kafka:3.6"
// to a name usable as a single path element.
func SanitizeFileName(name string) string {
	s := unsafeNameChars.ReplaceAllString(name, "_")
	s = strings.Trim(s, "._")
	if s == "" {
		return "unnamed"
	}
	return s
}
