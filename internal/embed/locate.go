package embed

import (
	"os"
	"path/filepath"
)

// searchDirs returns the ordered list of directories models are looked up
// in: ./models, ../models, ~/.khoj/models, and each ancestor of the
// executable's directory named "models". Model acquisition/download is out
// of scope; these directories are expected to be populated out-of-band.
func searchDirs() []string {
	dirs := []string{
		filepath.Join(".", "models"),
		filepath.Join("..", "models"),
	}

	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".khoj", "models"))
	}

	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		for {
			dirs = append(dirs, filepath.Join(dir, "models"))
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	return dirs
}

// FindModelFile searches the standard model directories for name, returning
// the first existing match. Returns "", false if none is found.
func FindModelFile(name string) (string, bool) {
	for _, dir := range searchDirs() {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

// TextModelFiles locates the text embedder's model + tokenizer.
func TextModelFiles() (modelPath, tokenizerPath string, ok bool) {
	modelPath, ok1 := FindModelFile("model.onnx")
	tokenizerPath, ok2 := FindModelFile("tokenizer.json")
	return modelPath, tokenizerPath, ok1 && ok2
}

// ClipImageModelFile locates the CLIP vision tower.
func ClipImageModelFile() (path string, ok bool) {
	return FindModelFile("clip_vision.onnx")
}

// ClipTextModelFiles locates the CLIP text tower + its tokenizer.
func ClipTextModelFiles() (modelPath, tokenizerPath string, ok bool) {
	modelPath, ok1 := FindModelFile("clip_text.onnx")
	tokenizerPath, ok2 := FindModelFile("clip_tokenizer.json")
	return modelPath, tokenizerPath, ok1 && ok2
}
