package kube

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	utilyaml "k8s.io/apimachinery/pkg/util/yaml"

	"github.com/mensylisir/xmstack/util"
)

// ResolveManifests expands each glob pattern relative to baseDir. Matches of
// one pattern are sorted; patterns keep their declared order. A pattern
// that matches nothing is an error so that a typo does not deploy half a
// component.
func ResolveManifests(baseDir string, patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		abs := pattern
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(baseDir, pattern)
		}
		matches, err := doublestar.FilepathGlob(abs, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid manifest pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("manifest pattern %q matched no files under %s", pattern, baseDir)
		}
		sort.Strings(matches)
		files = append(files, matches...)
	}
	return util.UniqueStrings(files), nil
}

// ResolveManifestsFS is ResolveManifests for globs relative to the root of
// fsys.
func ResolveManifestsFS(fsys fs.FS, patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid manifest pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("manifest pattern %q matched no built-in files", pattern)
		}
		sort.Strings(matches)
		files = append(files, matches...)
	}
	return util.UniqueStrings(files), nil
}

// DecodeManifests splits a multi-document YAML or JSON stream into objects.
// Empty documents are skipped.
func DecodeManifests(data []byte) ([]*unstructured.Unstructured, error) {
	decoder := utilyaml.NewYAMLOrJSONDecoder(bytes.NewReader(data), 4096)
	var objs []*unstructured.Unstructured
	for i := 0; ; i++ {
		var raw map[string]interface{}
		if err := decoder.Decode(&raw); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("failed to decode document %d: %w", i, err)
		}
		if len(raw) == 0 {
			continue
		}
		obj := &unstructured.Unstructured{Object: raw}
		if obj.GetKind() == "" || obj.GetAPIVersion() == "" {
			return nil, fmt.Errorf("document %d has no apiVersion or kind", i)
		}
		if obj.GetName() == "" {
			return nil, fmt.Errorf("document %d (%s) has no metadata.name", i, obj.GetKind())
		}
		objs = append(objs, obj)
	}
	return objs, nil
}

// ReadManifests reads and decodes every file in order.
func ReadManifests(files []string) ([]*unstructured.Unstructured, error) {
	return readManifests(os.ReadFile, files)
}

// ReadManifestsFS reads and decodes every file of fsys in order.
func ReadManifestsFS(fsys fs.FS, files []string) ([]*unstructured.Unstructured, error) {
	return readManifests(func(name string) ([]byte, error) {
		return fs.ReadFile(fsys, name)
	}, files)
}

func readManifests(read func(string) ([]byte, error), files []string) ([]*unstructured.Unstructured, error) {
	var objs []*unstructured.Unstructured
	for _, f := range files {
		data, err := read(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read manifest %s: %w", f, err)
		}
		decoded, err := DecodeManifests(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
		objs = append(objs, decoded...)
	}
	return objs, nil
}

// Describe renders an object as Kind/namespace/name for log lines.
func Describe(obj *unstructured.Unstructured) string {
	if ns := obj.GetNamespace(); ns != "" {
		return fmt.Sprintf("%s/%s/%s", obj.GetKind(), ns, obj.GetName())
	}
	return fmt.Sprintf("%s/%s", obj.GetKind(), obj.GetName())
}
