package embed

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/kaipakiran/khoj/internal/errs"
)

var initOnce sync.Once
var initErr error

// ensureRuntime initializes the process-wide ONNX Runtime environment
// exactly once; every Session created afterwards shares it.
func ensureRuntime() error {
	initOnce.Do(func() {
		if ort.IsInitialized() {
			return
		}
		initErr = ort.InitializeEnvironment()
	})
	return initErr
}

// Session wraps a single ONNX Runtime inference session for one model
// file. Sessions are not shared across goroutines by this type — callers
// needing concurrency should pool Sessions (see internal/embedpool).
type Session struct {
	inputNames  []string
	outputNames []string
	raw         *ort.DynamicAdvancedSession
}

// buildSessionOptions mirrors embedding/mod.rs's session builder: graph
// optimization level "all" and 4 intra-op threads, tuned for the
// single-process batch workload khoj runs (one `khoj index` invocation
// embedding many files, not a request-serving pool).
func buildSessionOptions() (*ort.SessionOptions, error) {
	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("create session options: %w", err)
	}
	if err := opts.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableAll); err != nil {
		opts.Destroy()
		return nil, fmt.Errorf("set graph optimization level: %w", err)
	}
	if err := opts.SetIntraOpNumThreads(4); err != nil {
		opts.Destroy()
		return nil, fmt.Errorf("set intra-op thread count: %w", err)
	}
	return opts, nil
}

// NewSession loads the ONNX model at modelPath, wiring it to the named
// input and output tensors.
func NewSession(modelPath string, inputNames, outputNames []string) (*Session, error) {
	if err := ensureRuntime(); err != nil {
		return nil, errs.Embedding("initialize onnx runtime", err)
	}

	opts, err := buildSessionOptions()
	if err != nil {
		return nil, errs.Embedding("configure onnx session options", err)
	}
	defer opts.Destroy()

	raw, err := ort.NewDynamicAdvancedSession(modelPath, inputNames, outputNames, opts)
	if err != nil {
		return nil, errs.Embedding("load onnx model "+modelPath, err)
	}

	return &Session{inputNames: inputNames, outputNames: outputNames, raw: raw}, nil
}

// RunInt64 runs the session with int64 input tensors (BERT/CLIP-text
// token inputs) and returns the first output tensor's flat data and shape.
func (s *Session) RunInt64(shape []int64, inputs map[string][]int64) ([]float32, []int64, error) {
	inputTensors := make([]ort.Value, 0, len(s.inputNames))
	defer func() {
		for _, t := range inputTensors {
			t.Destroy()
		}
	}()

	ortShape := ort.NewShape(shape...)
	for _, name := range s.inputNames {
		data, ok := inputs[name]
		if !ok {
			return nil, nil, errs.New(errs.KindEmbedding, "missing onnx input "+name)
		}
		tensor, err := ort.NewTensor(ortShape, data)
		if err != nil {
			return nil, nil, errs.Embedding("build onnx input tensor", err)
		}
		inputTensors = append(inputTensors, tensor)
	}

	return s.run(inputTensors)
}

// RunFloat32 runs the session with a float32 input tensor (CLIP image
// pixel_values) and returns the first output tensor's flat data and shape.
func (s *Session) RunFloat32(shape []int64, data []float32) ([]float32, []int64, error) {
	ortShape := ort.NewShape(shape...)
	tensor, err := ort.NewTensor(ortShape, data)
	if err != nil {
		return nil, nil, errs.Embedding("build onnx input tensor", err)
	}
	defer tensor.Destroy()

	return s.run([]ort.Value{tensor})
}

func (s *Session) run(inputTensors []ort.Value) ([]float32, []int64, error) {
	outputTensors := make([]ort.Value, len(s.outputNames))
	if err := s.raw.Run(inputTensors, outputTensors); err != nil {
		return nil, nil, errs.Embedding("run onnx inference", err)
	}
	defer func() {
		for _, t := range outputTensors {
			if t != nil {
				t.Destroy()
			}
		}
	}()

	out, ok := outputTensors[0].(*ort.Tensor[float32])
	if !ok {
		return nil, nil, errs.New(errs.KindEmbedding, "unexpected onnx output tensor type")
	}
	return out.GetData(), out.GetShape(), nil
}

// Close releases the session's native resources.
func (s *Session) Close() error {
	if s.raw == nil {
		return nil
	}
	return s.raw.Destroy()
}
