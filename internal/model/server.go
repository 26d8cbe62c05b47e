package model

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Brownie44l1/riceleaf-api/internal/imaging"
	ort "github.com/yalue/onnxruntime_go"
)

type Options struct {
	ModelPath    string
	MetadataPath string
	LibraryPath  string

	// Normalization and Layout override the metadata when set.
	Normalization string
	Layout        string
}

// Server runs the ONNX model. Tensors are allocated per call so Predict is
// safe for concurrent use.
type Server struct {
	session       *ort.DynamicAdvancedSession
	Metadata      Metadata
	normalization string
	layout        string
	inputShape    ort.Shape
	outputShape   ort.Shape
}

var envOnce struct {
	sync.Mutex
	refs int
}

func NewServer(opts Options) (*Server, error) {
	metadata, err := LoadMetadata(opts.MetadataPath)
	if err != nil {
		return nil, err
	}

	normalization := metadata.Normalization
	if opts.Normalization != "" {
		normalization = opts.Normalization
	}

	layout := metadata.Layout
	if opts.Layout != "" {
		layout = opts.Layout
	}
	layout = strings.ToLower(layout)
	if err := CheckRecipe(normalization, layout); err != nil {
		return nil, err
	}

	if err := acquireEnvironment(opts.LibraryPath); err != nil {
		return nil, err
	}

	session, err := ort.NewDynamicAdvancedSession(opts.ModelPath,
		[]string{metadata.InputName}, []string{metadata.OutputName}, nil)
	if err != nil {
		releaseEnvironment()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &Server{
		session:       session,
		Metadata:      metadata,
		normalization: normalization,
		layout:        layout,
		inputShape:    ort.NewShape(metadata.InputShape...),
		outputShape:   ort.NewShape(metadata.OutputShape...),
	}, nil
}

func (s *Server) Classes() []string {
	return s.Metadata.Classes
}

func (s *Server) ImageSize() int {
	return s.Metadata.ImageSize
}

func (s *Server) Predict(_ context.Context, grid *imaging.PixelGrid) ([]float32, error) {
	if grid.Width != s.Metadata.ImageSize || grid.Height != s.Metadata.ImageSize {
		return nil, fmt.Errorf("grid is %dx%d, model expects %dx%d",
			grid.Width, grid.Height, s.Metadata.ImageSize, s.Metadata.ImageSize)
	}

	inputData, err := Preprocess(grid, s.normalization, s.layout)
	if err != nil {
		return nil, err
	}

	inputTensor, err := ort.NewTensor(s.inputShape, inputData)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	outputTensor, err := ort.NewEmptyTensor[float32](s.outputShape)
	if err != nil {
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	if err := s.session.Run([]ort.Value{inputTensor}, []ort.Value{outputTensor}); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	outputData := outputTensor.GetData()
	probs := make([]float32, len(outputData))
	copy(probs, outputData)

	return probs, nil
}

func (s *Server) Close() {
	if s.session != nil {
		s.session.Destroy()
		s.session = nil
		releaseEnvironment()
	}
}

func acquireEnvironment(libraryPath string) error {
	envOnce.Lock()
	defer envOnce.Unlock()

	if envOnce.refs == 0 {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	}
	envOnce.refs++
	return nil
}

func releaseEnvironment() {
	envOnce.Lock()
	defer envOnce.Unlock()

	envOnce.refs--
	if envOnce.refs == 0 {
		ort.DestroyEnvironment()
	}
}
