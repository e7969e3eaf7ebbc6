package extract

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/fumiama/go-docx"
	"github.com/ledongthuc/pdf"

	"github.com/kaipakiran/khoj/internal/errs"
	"github.com/kaipakiran/khoj/internal/store"
)

// languageByExtension maps a Code file's extension to the language tag
// recorded alongside its extracted content.
var languageByExtension = map[string]string{
	".rs": "rust", ".py": "python", ".js": "javascript", ".ts": "typescript",
	".java": "java", ".c": "c", ".cpp": "cpp", ".cc": "cpp", ".cxx": "cpp",
	".go": "go", ".rb": "ruby", ".php": "php", ".cs": "csharp",
	".swift": "swift", ".kt": "kotlin", ".scala": "scala",
	".sh": "shell", ".bash": "shell",
}

// Content dispatches on kind to produce the extracted text, word count, and
// (for Code) language tag for the file at absPath.
func Content(absPath string, kind store.Kind) (*store.Content, error) {
	var text string
	var err error

	switch kind {
	case store.KindPDF:
		text, err = extractPDF(absPath)
	case store.KindDocx:
		text, err = extractDocx(absPath)
	case store.KindText, store.KindCode, store.KindMarkdown, store.KindUnknown:
		text, err = readUTF8(absPath)
	case store.KindImage:
		return nil, errs.UnsupportedFileType("image text extraction is not supported")
	case store.KindXlsx:
		return nil, errs.UnsupportedFileType("spreadsheet extraction is not supported")
	case store.KindArchive:
		return nil, errs.UnsupportedFileType("archive extraction is not supported")
	default:
		return nil, errs.UnsupportedFileType(fmt.Sprintf("unknown kind %q", kind))
	}
	if err != nil {
		return nil, err
	}

	language := ""
	if kind == store.KindCode {
		language = languageForExtension(absPath)
	}

	return &store.Content{
		Text:      text,
		WordCount: len(strings.Fields(text)),
		Language:  language,
	}, nil
}

func languageForExtension(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := languageByExtension[ext]; ok {
		return lang
	}
	return "unknown"
}

func readUTF8(path string) (string, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return "", errs.Io("read file", err)
	}
	if !utf8.Valid(contents) {
		return "", errs.Io("invalid UTF-8", fmt.Errorf("%s is not valid UTF-8", path))
	}
	return string(contents), nil
}

// extractPDF wraps the PDF text extractor in a recover() boundary: some
// malformed PDFs drive the underlying library to panic rather than return
// an error, and the pipeline must never let one bad file abort the process.
func extractPDF(path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errs.Extraction("PDF extraction panicked", fmt.Errorf("%v", r))
		}
	}()

	f, r, openErr := pdf.Open(path)
	if openErr != nil {
		return "", errs.Extraction("PDF extraction failed", openErr)
	}
	defer f.Close()

	var buf bytes.Buffer
	reader, readErr := r.GetPlainText()
	if readErr != nil {
		return "", errs.Extraction("PDF extraction failed", readErr)
	}
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", errs.Extraction("PDF extraction failed", err)
	}

	return buf.String(), nil
}

// extractDocx walks paragraph → run → text leaves, joining runs with
// spaces and paragraphs with newlines.
func extractDocx(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errs.Io("open docx", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", errs.Io("stat docx", err)
	}

	doc, err := docx.Parse(f, info.Size())
	if err != nil {
		return "", errs.Extraction("DOCX extraction failed", err)
	}

	var sb strings.Builder
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		first := true
		for _, child := range para.Children {
			run, ok := child.(*docx.Run)
			if !ok || run.Text == nil {
				continue
			}
			if !first {
				sb.WriteByte(' ')
			}
			sb.WriteString(run.Text.Text)
			first = false
		}
		sb.WriteByte('\n')
	}

	return sb.String(), nil
}
