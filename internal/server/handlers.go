package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/patrickmn/go-cache"

	"github.com/ironsheep/bowlcheck/internal/imaging"
	"github.com/ironsheep/bowlcheck/internal/ingredient"
	"github.com/ironsheep/bowlcheck/internal/pipeline"
	"github.com/ironsheep/bowlcheck/internal/reconcile"
	"github.com/ironsheep/bowlcheck/internal/segment"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "bowl_verify").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	case "bowl_verify":
		return s.handleBowlVerify(ctx, args)
	case "bowl_verify_batch":
		return s.handleBowlVerifyBatch(ctx, args)
	case "bowl_segment":
		return s.handleBowlSegment(args)
	case "ingredient_registry":
		return s.handleIngredientRegistry()
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// loadFresh returns the decoded photo at path together with a key that
// changes whenever the file does. A changed file is evicted from the image
// cache before loading.
func (s *Server) loadFresh(path string) (string, error) {
	if path == "" {
		return "", errors.New("path is required")
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("%s|%d|%d", path, info.ModTime().UnixNano(), info.Size())
	if _, cached := s.reports.Get(key); !cached {
		s.images.Evict(path)
	}
	return key, nil
}

// === Verification Handlers ===

type bowlVerifyArgs struct {
	Path     string `json:"path"`
	CropsDir string `json:"crops_dir"`
}

type bowlVerifyResult struct {
	*pipeline.Report
	Cached bool              `json:"cached"`
	Error  string            `json:"error,omitempty"`
	Crops  map[string]string `json:"crops,omitempty"`
}

func (r bowlVerifyResult) cached() bowlVerifyResult {
	r.Cached = true
	r.Crops = nil
	return r
}

func (s *Server) handleBowlVerify(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a bowlVerifyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	key, err := s.loadFresh(a.Path)
	if err != nil {
		return nil, err
	}
	if v, ok := s.reports.Get(key); ok && a.CropsDir == "" {
		return v.(bowlVerifyResult).cached(), nil
	}

	img, err := s.images.Load(a.Path)
	if err != nil {
		return nil, err
	}
	rep, err := s.pipeline.Process(ctx, img)
	out := bowlVerifyResult{Report: rep}
	switch {
	case errors.Is(err, reconcile.ErrInsufficientData):
		out.Error = err.Error()
	case err != nil:
		return nil, err
	}
	s.reports.Set(key, out, cache.DefaultExpiration)
	s.log.Debug("report cached", "path", a.Path, "run_id", rep.RunID)

	if a.CropsDir != "" {
		crops, err := imaging.SaveCrops(a.CropsDir, a.Path, rep.Segmentation.Bowl.Image, rep.Segmentation.Receipt.Image)
		if err != nil {
			return nil, fmt.Errorf("save crops: %w", err)
		}
		out.Crops = crops
	}
	return out, nil
}

type bowlVerifyBatchArgs struct {
	Paths       []string `json:"paths"`
	Concurrency int      `json:"concurrency"`
}

type batchSummary struct {
	Total     int             `json:"total"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Results   []pipeline.Item `json:"results"`
}

func (s *Server) handleBowlVerifyBatch(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a bowlVerifyBatchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Paths) == 0 {
		return nil, errors.New("paths must not be empty")
	}
	if a.Concurrency <= 0 {
		a.Concurrency = s.concurrency
	}

	items := s.pipeline.ProcessBatch(ctx, a.Paths, a.Concurrency, nil)
	out := batchSummary{Total: len(items), Results: items}
	for _, it := range items {
		if it.Success {
			out.Succeeded++
		} else {
			out.Failed++
		}
	}
	return out, nil
}

// === Segmentation Handler ===

type bowlSegmentArgs struct {
	Path          string `json:"path"`
	IncludeImages bool   `json:"include_images"`
}

type bowlSegmentResult struct {
	segment.Segmentation
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	ReceiptColor string `json:"receipt_mean_color"`
	BowlColor    string `json:"bowl_mean_color"`
	ReceiptJPEG  string `json:"receipt_jpeg_base64,omitempty"`
	BowlJPEG     string `json:"bowl_jpeg_base64,omitempty"`
}

func (s *Server) handleBowlSegment(args json.RawMessage) (interface{}, error) {
	var a bowlSegmentArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if _, err := s.loadFresh(a.Path); err != nil {
		return nil, err
	}
	img, err := s.images.Load(a.Path)
	if err != nil {
		return nil, err
	}

	seg := s.pipeline.Segment(img)
	out := bowlSegmentResult{
		Segmentation: seg,
		Width:        img.Bounds().Dx(),
		Height:       img.Bounds().Dy(),
		ReceiptColor: imaging.MeanColor(seg.Receipt.Image),
		BowlColor:    imaging.MeanColor(seg.Bowl.Image),
	}
	if a.IncludeImages {
		if out.ReceiptJPEG, err = encodeCrop(seg.Receipt); err != nil {
			return nil, err
		}
		if out.BowlJPEG, err = encodeCrop(seg.Bowl); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func encodeCrop(r segment.Region) (string, error) {
	if r.Empty() {
		return "", nil
	}
	data, err := imaging.EncodeJPEG(r.Image, 85)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// === Registry Handler ===

type registryResult struct {
	Count       int                `json:"count"`
	Ingredients []ingredient.Entry `json:"ingredients"`
}

func (s *Server) handleIngredientRegistry() (interface{}, error) {
	reg := s.pipeline.Registry()
	return registryResult{Count: reg.Len(), Ingredients: reg.Entries()}, nil
}
