package embed

import (
	"image"
	"math"
	"os"

	"golang.org/x/image/draw"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/kaipakiran/khoj/internal/errs"
)

// ImageDimension is the output dimension of CLIP ViT-B/32's vision tower.
const ImageDimension = 512

// clipImageSize is CLIP's standard square input resolution.
const clipImageSize = 224

// CLIP's published ImageNet-derived normalization constants, per channel.
var clipMean = [3]float32{0.48145466, 0.4578275, 0.40821073}
var clipStd = [3]float32{0.26862954, 0.26130258, 0.27577711}

// ImageEmbedder produces L2-normalized CLIP image embeddings.
type ImageEmbedder struct {
	session *Session
}

// NewImageEmbedder loads the CLIP vision tower ONNX model.
func NewImageEmbedder(modelPath string) (*ImageEmbedder, error) {
	session, err := NewSession(modelPath, []string{"pixel_values"}, []string{"image_embeds"})
	if err != nil {
		return nil, err
	}
	return &ImageEmbedder{session: session}, nil
}

// EmbedFile decodes, preprocesses, and embeds the image at path.
func (e *ImageEmbedder) EmbedFile(path string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Io("open image", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errs.Extraction("decode image", err)
	}

	return e.Embed(img)
}

// Embed runs the CLIP preprocessing pipeline (Lanczos resize to 224x224,
// ImageNet-style channel normalization, CHW layout) and the vision tower.
func (e *ImageEmbedder) Embed(img image.Image) ([]float32, error) {
	pixels := PreprocessImage(img, clipImageSize)

	shape := []int64{1, 3, int64(clipImageSize), int64(clipImageSize)}
	flat, _, err := e.session.RunFloat32(shape, pixels)
	if err != nil {
		return nil, err
	}

	return Normalize(flat), nil
}

// Close releases the underlying ONNX session.
func (e *ImageEmbedder) Close() error {
	return e.session.Close()
}

// PreprocessImage resizes img to size x size with a Lanczos filter,
// normalizes each RGB channel against CLIP's published mean/std, and
// returns the result as a channel-first (CHW) float32 slice.
func PreprocessImage(img image.Image, size int) []float32 {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	lanczos.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)

	out := make([]float32, 3*size*size)
	plane := size * size
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			r, g, b, _ := dst.At(x, y).RGBA()
			idx := y*size + x
			out[0*plane+idx] = (float32(r)/65535 - clipMean[0]) / clipStd[0]
			out[1*plane+idx] = (float32(g)/65535 - clipMean[1]) / clipStd[1]
			out[2*plane+idx] = (float32(b)/65535 - clipMean[2]) / clipStd[2]
		}
	}
	return out
}

// lanczos is a 3-lobe Lanczos resampling kernel; x/image/draw ships
// NearestNeighbor/BiLinear/CatmullRom but no named Lanczos kernel, so it is
// defined here from the standard windowed-sinc formula.
var lanczos = draw.Kernel{Support: 3, At: lanczosAt}

func lanczosAt(x float64) float64 {
	if x == 0 {
		return 1
	}
	ax := math.Abs(x)
	if ax >= 3 {
		return 0
	}
	piX := math.Pi * x
	return 3 * math.Sin(piX) * math.Sin(piX/3) / (piX * piX)
}
