package server

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	s := New(newTestPipeline(&fakeOCR{}), Options{})
	if s == nil {
		t.Fatal("New() returned nil")
	}
	if s.images == nil || s.reports == nil {
		t.Fatal("New() did not initialize caches")
	}
	if s.concurrency != 4 {
		t.Errorf("default concurrency: got %d, want 4", s.concurrency)
	}
}

func TestMCPRequest_Unmarshal(t *testing.T) {
	tests := []struct {
		name       string
		json       string
		wantID     interface{}
		wantMethod string
	}{
		{
			"string id",
			`{"jsonrpc":"2.0","id":"test-1","method":"tools/list"}`,
			"test-1",
			"tools/list",
		},
		{
			"number id",
			`{"jsonrpc":"2.0","id":42,"method":"ping"}`,
			float64(42), // JSON numbers decode as float64
			"ping",
		},
		{
			"null id",
			`{"jsonrpc":"2.0","id":null,"method":"initialize"}`,
			nil,
			"initialize",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req MCPRequest
			if err := json.Unmarshal([]byte(tt.json), &req); err != nil {
				t.Fatalf("Failed to unmarshal: %v", err)
			}
			if req.ID != tt.wantID {
				t.Errorf("ID: got %v (%T), want %v (%T)", req.ID, req.ID, tt.wantID, tt.wantID)
			}
			if req.Method != tt.wantMethod {
				t.Errorf("Method: got %s, want %s", req.Method, tt.wantMethod)
			}
		})
	}
}

func TestHandleRequest_Initialize(t *testing.T) {
	s := New(newTestPipeline(&fakeOCR{}), Options{})
	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: 1, Method: "initialize"})

	if resp == nil || resp.Error != nil {
		t.Fatalf("unexpected response: %+v", resp)
	}
	result := resp.Result.(map[string]interface{})
	info := result["serverInfo"].(map[string]interface{})
	if info["name"] != "bowlcheck" {
		t.Errorf("server name: got %v", info["name"])
	}
	if info["version"] != Version {
		t.Errorf("server version: got %v, want %s", info["version"], Version)
	}
}

func TestHandleRequest_Routing(t *testing.T) {
	s := New(newTestPipeline(&fakeOCR{}), Options{})
	ctx := context.Background()

	if resp := s.handleRequest(ctx, &MCPRequest{Method: "notifications/initialized"}); resp != nil {
		t.Errorf("notification should get no response, got %+v", resp)
	}

	ping := s.handleRequest(ctx, &MCPRequest{JSONRPC: "2.0", ID: 2, Method: "ping"})
	if ping == nil || ping.Error != nil {
		t.Errorf("ping failed: %+v", ping)
	}

	unknown := s.handleRequest(ctx, &MCPRequest{JSONRPC: "2.0", ID: 3, Method: "resources/list"})
	if unknown.Error == nil || unknown.Error.Code != -32601 {
		t.Errorf("unknown method: got %+v", unknown.Error)
	}
	if !strings.Contains(unknown.Error.Message, "resources/list") {
		t.Errorf("error should name the method: %s", unknown.Error.Message)
	}
}

func TestServe(t *testing.T) {
	s := New(newTestPipeline(&fakeOCR{}), Options{})

	in := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		``,
		`not json`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"ingredient_registry"}}`,
	}, "\n")

	var out bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Serve(ctx, strings.NewReader(in), &out); err != nil {
		t.Fatalf("Serve failed: %v", err)
	}

	dec := json.NewDecoder(&out)
	var ids []float64
	for dec.More() {
		var resp MCPResponse
		if err := dec.Decode(&resp); err != nil {
			t.Fatalf("bad response line: %v", err)
		}
		if resp.Error != nil {
			t.Errorf("response %v carried an error: %+v", resp.ID, resp.Error)
		}
		ids = append(ids, resp.ID.(float64))
	}
	if len(ids) != 3 || ids[0] != 1 || ids[1] != 2 || ids[2] != 3 {
		t.Errorf("response ids: got %v, want [1 2 3]", ids)
	}
}

func TestServe_Cancelled(t *testing.T) {
	s := New(newTestPipeline(&fakeOCR{}), Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := s.Serve(ctx, strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`+"\n"), &out)
	if err != context.Canceled {
		t.Errorf("got %v, want context.Canceled", err)
	}
	if out.Len() != 0 {
		t.Errorf("no response expected after cancel, got %q", out.String())
	}
}
