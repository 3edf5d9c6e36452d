package chat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTestRouter(t *testing.T, rec *recorder) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc, store := newTestService(t, rec)
	seedProcessed(t, store, "d1", "Vacation: 20 days.", nil)
	r := gin.New()
	h := NewHandler(svc)
	h.RegisterRoutes(r)
	h.RegisterHistoryRoutes(r)
	return r, svc
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestChatReturnsAnswer(t *testing.T) {
	router, _ := newTestRouter(t, &recorder{answer: "20 days."})

	resp := do(router, http.MethodPost, "/chat", `{"documentId":"d1","message":"How many vacation days?","sessionId":"s1"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var body struct {
		Success   bool   `json:"success"`
		Content   string `json:"content"`
		Timestamp string `json:"timestamp"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || body.Content != "20 days." || body.Timestamp == "" {
		t.Fatalf("unexpected response %+v", body)
	}

	hist := do(router, http.MethodGet, "/documents/d1/chats/s1", "")
	if hist.Code != http.StatusOK {
		t.Fatalf("expected 200 for history, got %d", hist.Code)
	}
	var h struct {
		Messages []Message `json:"messages"`
	}
	if err := json.Unmarshal(hist.Body.Bytes(), &h); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(h.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(h.Messages))
	}
}

func TestChatMissingFields(t *testing.T) {
	router, _ := newTestRouter(t, &recorder{answer: "x"})

	resp := do(router, http.MethodPost, "/chat", `{"documentId":"d1"}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "Missing required fields: documentId, message") {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}

func TestChatUnprocessedDocument(t *testing.T) {
	router, _ := newTestRouter(t, &recorder{answer: "x"})

	resp := do(router, http.MethodPost, "/chat", `{"documentId":"other","message":"q"}`)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestChatCompletionFailureIs500(t *testing.T) {
	router, _ := newTestRouter(t, &recorder{err: errTest})

	resp := do(router, http.MethodPost, "/chat", `{"documentId":"d1","message":"q"}`)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	if strings.Contains(resp.Body.String(), errTest.Error()) {
		t.Fatalf("internal error leaked: %s", resp.Body.String())
	}
}

func TestChatInvalidJSON(t *testing.T) {
	router, _ := newTestRouter(t, &recorder{answer: "x"})

	resp := do(router, http.MethodPost, "/chat", `{not json`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
