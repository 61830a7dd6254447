package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to a photo showing the bowl and its receipt (png, jpg, gif, bmp, tiff or webp)",
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name: "bowl_verify",
			Description: "Check that a bowl matches its receipt. Splits the photo into receipt and bowl, reads the receipt, " +
				"identifies visible ingredients and reports matched, missing and unexpected ingredients with a match percentage. " +
				"match_percentage is null when the receipt could not be read.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"crops_dir": map[string]interface{}{
						"type":        "string",
						"description": "Optional directory to save the receipt and bowl crops as <name>_receipt.jpg and <name>_bowl.jpg",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "bowl_verify_batch",
			Description: "Run bowl_verify on several photos. A failing photo is reported in its own entry and does not stop the batch.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"paths": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Absolute paths to the photos",
					},
					"concurrency": map[string]interface{}{
						"type":        "integer",
						"description": "Photos processed at once. Default from server configuration",
					},
				},
				"required": []string{"paths"},
			},
		},
		{
			Name:        "bowl_segment",
			Description: "Locate the receipt and the bowl in a photo without reading or matching anything. Useful to check why a verification went wrong.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"include_images": map[string]interface{}{
						"type":        "boolean",
						"description": "Also return both crops as base64-encoded JPEG. Default false",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "ingredient_registry",
			Description: "List the known ingredients with their aliases and color signatures.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
