package configlet

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/newtron-network/ifconf/pkg/util"
)

// FilterInterfaces names the built-in subtree filter used for reads.
const FilterInterfaces = "interfaces"

//go:embed fragments/*.xml
var builtinFS embed.FS

// Library is a named set of fragments.
type Library struct {
	fragments map[string]*Fragment
}

// NewLibrary creates an empty library.
func NewLibrary() *Library {
	return &Library{fragments: make(map[string]*Fragment)}
}

// Builtin returns the fragments shipped with ifconf: interface-ip, loopback,
// delete-interface, delete-interface-ip and the interfaces read filter.
func Builtin() (*Library, error) {
	return loadFS(builtinFS, "fragments")
}

// LoadDir loads every *.xml file in dir as a fragment named after the file.
func LoadDir(dir string) (*Library, error) {
	return loadFS(os.DirFS(dir), ".")
}

// List returns the names of all fragment files in dir.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading fragment directory %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".xml") {
			names = append(names, strings.TrimSuffix(entry.Name(), ".xml"))
		}
	}
	return names, nil
}

func loadFS(fsys fs.FS, dir string) (*Library, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading fragment directory: %w", err)
	}

	lib := NewLibrary()
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".xml") {
			continue
		}
		data, err := fs.ReadFile(fsys, filepath.ToSlash(filepath.Join(dir, entry.Name())))
		if err != nil {
			return nil, fmt.Errorf("reading fragment %s: %w", entry.Name(), err)
		}
		name := strings.TrimSuffix(entry.Name(), ".xml")
		desc, body := splitDescription(string(data))
		f, err := New(name, desc, body)
		if err != nil {
			return nil, err
		}
		lib.Add(f)
	}
	return lib, nil
}

// splitDescription peels a leading <!-- comment --> off a fragment file and
// returns it as the description.
func splitDescription(s string) (string, string) {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "<!--") {
		return "", trimmed
	}
	end := strings.Index(trimmed, "-->")
	if end < 0 {
		return "", trimmed
	}
	return strings.TrimSpace(trimmed[4:end]), strings.TrimSpace(trimmed[end+3:])
}

// Add inserts or replaces a fragment.
func (l *Library) Add(f *Fragment) {
	l.fragments[f.Name] = f
}

// Merge copies every fragment of other into l, replacing same-named entries.
func (l *Library) Merge(other *Library) *Library {
	if other == nil {
		return l
	}
	for _, f := range other.fragments {
		l.Add(f)
	}
	return l
}

// Get looks up a fragment by name.
func (l *Library) Get(name string) (*Fragment, error) {
	f, ok := l.fragments[name]
	if !ok {
		return nil, util.NewNotFoundError("fragment", name)
	}
	return f, nil
}

// Names returns all fragment names, sorted.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.fragments))
	for n := range l.fragments {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of fragments.
func (l *Library) Len() int {
	return len(l.fragments)
}

// Filter resolves a read filter given either a fragment name or inline XML.
// An empty ref selects the built-in interfaces filter.
func (l *Library) Filter(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		ref = FilterInterfaces
	}
	if strings.HasPrefix(ref, "<") {
		return ref, nil
	}
	f, err := l.Get(ref)
	if err != nil {
		return "", err
	}
	if len(f.Variables) > 0 {
		return "", fmt.Errorf("filter %s has placeholders %s", f.Name, strings.Join(f.Variables, ", "))
	}
	return f.Body, nil
}
