package names

import (
	"path/filepath"
	"strings"
)

// BlendPath is an external file reference as stored in a .blend file:
// forward-slash normalized, and classified as blendfile-relative ("//..."),
// absolute, or (on a corrupted/foreign file) neither.
type BlendPath struct {
	raw string
}

// NewBlendPath normalizes backslashes to forward slashes and wraps the
// result, matching Blender's on-disk path convention regardless of the
// platform that wrote the file.
func NewBlendPath(path string) BlendPath {
	return BlendPath{raw: strings.ReplaceAll(path, "\\", "/")}
}

// String returns the normalized path.
func (p BlendPath) String() string { return p.raw }

// IsBlendfileRelative reports whether the path starts with "//".
func (p BlendPath) IsBlendfileRelative() bool {
	return strings.HasPrefix(p.raw, "//")
}

// IsAbsolute reports whether the path is a POSIX absolute path or a
// Windows drive-letter path (e.g. "C:/..." or "C:\\...").
func (p BlendPath) IsAbsolute() bool {
	if p.IsBlendfileRelative() {
		return false
	}
	if strings.HasPrefix(p.raw, "/") {
		return true
	}
	if len(p.raw) >= 3 && isDriveLetter(p.raw[0]) && p.raw[1] == ':' && (p.raw[2] == '/' || p.raw[2] == '\\') {
		return true
	}
	return false
}

func isDriveLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// Resolve returns the filesystem path this reference points to, joining
// a blendfile-relative path against baseDir (the directory containing the
// .blend file) and returning absolute paths unchanged.
func (p BlendPath) Resolve(baseDir string) string {
	if p.IsAbsolute() {
		return p.raw
	}
	rel := p.raw
	if p.IsBlendfileRelative() {
		rel = rel[2:]
	}
	return filepath.Join(baseDir, filepath.FromSlash(rel))
}

// IsSequencePattern reports whether the path contains a printf-style
// frame-number placeholder (e.g. "####"), left unexpanded by the core.
func (p BlendPath) IsSequencePattern() bool {
	return strings.Contains(p.raw, "####")
}
