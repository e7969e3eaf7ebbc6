// Package classify maps file extensions to the coarse Kind tags the rest of
// the pipeline dispatches on.
package classify

import (
	"path/filepath"
	"strings"

	"github.com/kaipakiran/khoj/internal/store"
)

// codeExtensions are extensions classified as Code rather than plain Text.
var codeExtensions = map[string]bool{
	".rs": true, ".py": true, ".js": true, ".jsx": true, ".ts": true, ".tsx": true,
	".java": true, ".c": true, ".h": true, ".cpp": true, ".cc": true, ".cxx": true,
	".hpp": true, ".go": true, ".rb": true, ".php": true, ".cs": true, ".swift": true,
	".kt": true, ".scala": true, ".sh": true, ".bash": true, ".zsh": true,
	".lua": true, ".pl": true, ".r": true, ".sql": true, ".json": true, ".yaml": true,
	".yml": true, ".toml": true, ".xml": true, ".html": true, ".css": true, ".scss": true,
	".proto": true,
}

var markdownExtensions = map[string]bool{
	".md": true, ".markdown": true, ".mdx": true,
}

var pdfExtensions = map[string]bool{".pdf": true}

var docxExtensions = map[string]bool{".docx": true}

var xlsxExtensions = map[string]bool{".xlsx": true, ".xls": true}

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true, ".webp": true,
}

var archiveExtensions = map[string]bool{
	".zip": true, ".tar": true, ".gz": true, ".tgz": true, ".bz2": true,
	".xz": true, ".7z": true, ".rar": true,
}

var textExtensions = map[string]bool{
	".txt": true, ".log": true, ".csv": true, ".ini": true, ".cfg": true, ".conf": true,
}

// Kind classifies path by its extension alone; the extension is lower-cased
// before lookup so e.g. ".PNG" still resolves to Image.
func Kind(path string) store.Kind {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case codeExtensions[ext]:
		return store.KindCode
	case markdownExtensions[ext]:
		return store.KindMarkdown
	case pdfExtensions[ext]:
		return store.KindPDF
	case docxExtensions[ext]:
		return store.KindDocx
	case xlsxExtensions[ext]:
		return store.KindXlsx
	case imageExtensions[ext]:
		return store.KindImage
	case archiveExtensions[ext]:
		return store.KindArchive
	case textExtensions[ext]:
		return store.KindText
	case ext == "":
		return store.KindUnknown
	default:
		return store.KindUnknown
	}
}
