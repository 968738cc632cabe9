package clickup

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func withTestServer(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(handler)
	old := baseURL
	baseURL = srv.URL
	t.Cleanup(func() {
		baseURL = old
		srv.Close()
	})
}

func TestCreateTask_SendsTokenAndPayload(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody createTaskRequest

	withTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(createTaskResponse{ID: "86abc123"})
	})

	c := New("pk_test_token")
	id, err := c.CreateTask("901", "Acme Media — Kickoff", "Lead: Dana")
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	if id != "86abc123" {
		t.Errorf("task id = %q, want 86abc123", id)
	}
	if gotPath != "/list/901/task" {
		t.Errorf("path = %q, want /list/901/task", gotPath)
	}
	// ClickUp token is raw, not Bearer-prefixed.
	if gotAuth != "pk_test_token" {
		t.Errorf("Authorization = %q, want raw token", gotAuth)
	}
	if gotBody.Name != "Acme Media — Kickoff" || gotBody.Status != "to do" {
		t.Errorf("body = %+v, want name and status 'to do'", gotBody)
	}
}

func TestCreateTask_NonOKStatus(t *testing.T) {
	withTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	c := New("bad_token")
	if _, err := c.CreateTask("901", "x", "y"); err == nil {
		t.Fatal("CreateTask succeeded on 401 response")
	}
}

func TestCreateTask_MissingID(t *testing.T) {
	withTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	c := New("pk_test_token")
	if _, err := c.CreateTask("901", "x", "y"); err == nil {
		t.Fatal("CreateTask succeeded without a task id in the response")
	}
}
