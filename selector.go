package form

import "github.com/gobwas/glob"

// fieldSelector decides whether a decoded part should be retained, by
// name pattern and by whether the part carries a file. It generalizes
// the teacher's plain name-slice matching (centpd/lib/mail/form/form.go's
// textfields/filefields, matched with asciiutils.EqualFoldString) to
// glob patterns, since a caller accepting "attachment[0]".."attachment[9]"
// or similar cannot express that as a literal name list.
type fieldSelector struct {
	fields glob.Glob
	files  glob.Glob
}

// NewFieldSelector compiles a selector from two glob patterns (syntax per
// gobwas/glob, e.g. "*", "file_*", "{a,b,c}"). Either may be "" to reject
// every part of that kind; either may be "*" to accept every part of
// that kind.
func NewFieldSelector(fieldPattern, filePattern string) (*fieldSelector, error) {
	sel := &fieldSelector{}
	if fieldPattern != "" {
		g, err := glob.Compile(fieldPattern)
		if err != nil {
			return nil, err
		}
		sel.fields = g
	}
	if filePattern != "" {
		g, err := glob.Compile(filePattern)
		if err != nil {
			return nil, err
		}
		sel.files = g
	}
	return sel, nil
}

// allows reports whether the part named name, file-bearing per isFile,
// should be retained.
func (s *fieldSelector) allows(name string, isFile bool) bool {
	if isFile {
		return s.files != nil && s.files.Match(name)
	}
	return s.fields != nil && s.fields.Match(name)
}
