package association

import (
	"path/filepath"
	"strings"
)

// NormalizePath resolves p to a clean, absolute, slash-separated path.
// Relative paths resolve against root, or the working directory when root
// is empty. Backslashes are treated as separators.
func NormalizePath(root, p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" || strings.ContainsRune(p, 0) {
		return "", ErrInvalidPath
	}
	p = filepath.FromSlash(strings.ReplaceAll(p, `\`, "/"))

	if !filepath.IsAbs(p) && !isDriveAbs(p) {
		if root != "" {
			p = filepath.Join(filepath.FromSlash(strings.ReplaceAll(root, `\`, "/")), p)
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return "", ErrInvalidPath
		}
		p = abs
	}
	return filepath.ToSlash(filepath.Clean(p)), nil
}

// isDriveAbs reports a Windows drive path such as C:/src, which callers may
// send to a server on any OS.
func isDriveAbs(p string) bool {
	p = filepath.ToSlash(p)
	return len(p) >= 3 && p[1] == ':' && p[2] == '/' &&
		((p[0] >= 'a' && p[0] <= 'z') || (p[0] >= 'A' && p[0] <= 'Z'))
}

var languages = map[string]string{
	".go":    "go",
	".py":    "python",
	".pyi":   "python",
	".js":    "javascript",
	".jsx":   "javascript",
	".mjs":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".java":  "java",
	".kt":    "kotlin",
	".rs":    "rust",
	".c":     "c",
	".h":     "c",
	".cc":    "cpp",
	".cpp":   "cpp",
	".hpp":   "cpp",
	".cs":    "csharp",
	".rb":    "ruby",
	".php":   "php",
	".swift": "swift",
	".scala": "scala",
	".sh":    "shell",
	".sql":   "sql",
	".md":    "markdown",
	".json":  "json",
	".yaml":  "yaml",
	".yml":   "yaml",
	".toml":  "toml",
	".html":  "html",
	".css":   "css",
}

// DetectLanguage maps a file extension to a language name, or "".
func DetectLanguage(path string) string {
	return languages[strings.ToLower(filepath.Ext(path))]
}
