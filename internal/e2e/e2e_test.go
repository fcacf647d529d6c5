package e2e

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"ggufctl/pkg/types"
)

func TestE2E_ModelsStatusEvents(t *testing.T) {
	srv, a := newLaunchedServer(t, fixtureConfig(t, buildFakeServer(t)), "gemma")

	resp, body := httpGet(t, srv.URL+"/models")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/models %d %s", resp.StatusCode, body)
	}
	var models types.ModelsResponse
	if err := json.Unmarshal(body, &models); err != nil {
		t.Fatalf("/models json: %v", err)
	}
	// gemma and smolvlm aliases plus alpha.gguf
	if len(models.Models) != 3 {
		t.Fatalf("expected 3 models, got %+v", models.Models)
	}

	resp, body = httpGet(t, srv.URL+"/status")
	var st types.StatusResponse
	if err := json.Unmarshal(body, &st); err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("/status %d %s", resp.StatusCode, body)
	}
	if st.Model.ID != "gemma" || !st.Ready || st.PID != a.Handle().PID() || st.Model.ProjectionPath == "" {
		t.Fatalf("status=%+v", st)
	}

	resp, body = httpGet(t, srv.URL+"/events")
	var evs types.EventsResponse
	if err := json.Unmarshal(body, &evs); err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("/events %d %s", resp.StatusCode, body)
	}
	if len(evs.Events) != 2 || evs.Events[0].Name != "spawn_start" || evs.Events[1].Name != "spawn_ready" {
		t.Fatalf("events=%+v", evs.Events)
	}

	resp, body = httpGet(t, srv.URL+"/metrics")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "ggufctl_server_launches_total") {
		t.Fatalf("/metrics missing launch counter")
	}
}

func TestE2E_PromptBothProtocols(t *testing.T) {
	srv, _ := newLaunchedServer(t, fixtureConfig(t, buildFakeServer(t)), "gemma")

	for _, body := range []string{
		`{"prompt":"hello"}`,
		`{"prompt":"hello","protocol":"native","grammar":"yesno"}`,
		`{"prompt":"hello","schema":"caption","system":["Be terse."]}`,
	} {
		resp, out := postPrompt(t, srv.URL, body)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s -> %d %s", body, resp.StatusCode, out)
		}
		var pr types.PromptResponse
		if err := json.Unmarshal(out, &pr); err != nil || pr.Content != "echo: hello" {
			t.Fatalf("%s -> %s", body, out)
		}
	}
}

func TestE2E_PromptErrors(t *testing.T) {
	srv, _ := newLaunchedServer(t, fixtureConfig(t, buildFakeServer(t)), "alpha.gguf")

	cases := []struct {
		body string
		want int
	}{
		{`{"prompt":"x","grammar":"missing","protocol":"native"}`, http.StatusNotFound},
		{`{"prompt":"x","grammar":"yesno"}`, http.StatusBadRequest},
		{`{"prompt":"x","protocol":"grpc"}`, http.StatusBadRequest},
		{`{"prompt":"x","grammar":"yesno","schema":"caption","protocol":"native"}`, http.StatusBadRequest},
		{`{"prompt":""}`, http.StatusBadRequest},
	}
	for _, c := range cases {
		resp, out := postPrompt(t, srv.URL, c.body)
		if resp.StatusCode != c.want {
			t.Fatalf("%s -> %d %s, want %d", c.body, resp.StatusCode, out, c.want)
		}
		var e types.ErrorResponse
		if err := json.Unmarshal(out, &e); err != nil || e.Code != c.want || e.Error == "" {
			t.Fatalf("%s -> error body %s", c.body, out)
		}
	}
}

func TestE2E_DeleteServerTerminates(t *testing.T) {
	srv, a := newLaunchedServer(t, fixtureConfig(t, buildFakeServer(t)), "gemma")
	h := a.Handle()
	stopped := make(chan struct{})
	a.OnShutdown(func() { close(stopped) })

	resp, body := httpDo(t, http.MethodDelete, srv.URL+"/server", nil)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("DELETE /server %d %s", resp.StatusCode, body)
	}
	<-stopped
	if !h.Exited() {
		t.Fatalf("llama-server still running after DELETE /server")
	}
	resp, _ = httpGet(t, srv.URL+"/readyz")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("/readyz after stop = %d", resp.StatusCode)
	}
	resp, _ = postPrompt(t, srv.URL, `{"prompt":"x"}`)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("/prompt after stop = %d", resp.StatusCode)
	}
}
