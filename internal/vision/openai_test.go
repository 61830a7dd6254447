package vision

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ironsheep/bowlcheck/internal/remote"
)

func testBowl() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{230, 90, 50, 255})
		}
	}
	return img
}

// completion wraps content in a chat-completions response body.
func completion(content string) string {
	body, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 0,
		"model":   "gpt-4o",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
	})
	return string(body)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenAI {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewOpenAI(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1"})
	if err != nil {
		t.Fatalf("NewOpenAI failed: %v", err)
	}
	return c
}

func TestOpenAI_Classify(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path: got %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("authorization: got %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completion(`{"detected_ingredients":[{"ingredient":"Salmon","confidence":86.2,"from_reference":true}],"summary":"Salmon bowl."}`)))
	})

	res, err := c.Classify(context.Background(), testBowl(), []string{"Salmon", "Tuna"}, []string{"Salmon"})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].Ingredient != "Salmon" || !res.Items[0].FromReference {
		t.Errorf("items: got %+v", res.Items)
	}
	if res.Summary != "Salmon bowl." {
		t.Errorf("summary: got %q", res.Summary)
	}

	if got["model"] != "gpt-4o" {
		t.Errorf("model: got %v", got["model"])
	}
	if rf, _ := got["response_format"].(map[string]any); rf["type"] != "json_object" {
		t.Errorf("response_format: got %v", got["response_format"])
	}
	msgs, _ := got["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("messages: got %d, want 2", len(msgs))
	}
	user, _ := msgs[1].(map[string]any)
	parts, _ := user["content"].([]any)
	if len(parts) != 2 {
		t.Fatalf("user content parts: got %d, want 2", len(parts))
	}
	imgPart, _ := parts[1].(map[string]any)
	url, _ := imgPart["image_url"].(map[string]any)
	if u, _ := url["url"].(string); !strings.HasPrefix(u, "data:image/jpeg;base64,") {
		t.Errorf("image part is not a JPEG data URI: %.40s", u)
	}
}

func TestOpenAI_ClassifyErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   error
	}{
		{"server error", http.StatusServiceUnavailable, `{"error":{"message":"overloaded","type":"server_error"}}`, remote.ErrTransient},
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down","type":"rate_limit"}}`, remote.ErrTransient},
		{"bad key", http.StatusUnauthorized, `{"error":{"message":"invalid key","type":"auth"}}`, remote.ErrUnavailable},
		{"prose reply", http.StatusOK, completion("Sorry, I can't tell."), remote.ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := c.Classify(context.Background(), testBowl(), []string{"Salmon"}, nil)
			if !errors.Is(err, tt.kind) {
				t.Errorf("expected %v, got %v", tt.kind, err)
			}
		})
	}
}

func TestOpenAI_EmptyImage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for an empty image")
	})
	_, err := c.Classify(context.Background(), image.NewRGBA(image.Rectangle{}), []string{"Salmon"}, nil)
	if !errors.Is(err, remote.ErrMalformedResponse) {
		t.Errorf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestNewOpenAI_NoKey(t *testing.T) {
	if _, err := NewOpenAI(Config{}); !errors.Is(err, remote.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}
