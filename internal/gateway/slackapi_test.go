package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/slack-go/slack"
)

// fakeSlackAPI serves the Web API methods the bot calls and records the
// form values of every call.
type fakeSlackAPI struct {
	t      *testing.T
	server *httptest.Server

	mu           sync.Mutex
	calls        map[string][]map[string]string
	uploadStatus int
	uploads      int
	permalink    string
}

func newFakeSlackAPI(t *testing.T) *fakeSlackAPI {
	t.Helper()
	f := &fakeSlackAPI{t: t, calls: map[string][]map[string]string{}, uploadStatus: http.StatusOK, permalink: "https://files.slack.com/files-pri/T1-F1/pie_chart.png"}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat.postMessage", func(w http.ResponseWriter, r *http.Request) {
		f.record("chat.postMessage", r)
		f.reply(w, map[string]any{"ok": true, "channel": r.FormValue("channel"), "ts": "1700000000.000100"})
	})
	mux.HandleFunc("/api/files.getUploadURLExternal", func(w http.ResponseWriter, r *http.Request) {
		f.record("files.getUploadURLExternal", r)
		f.reply(w, map[string]any{"ok": true, "upload_url": f.server.URL + "/upload/F1", "file_id": "F1"})
	})
	mux.HandleFunc("/api/files.completeUploadExternal", func(w http.ResponseWriter, r *http.Request) {
		f.record("files.completeUploadExternal", r)
		f.reply(w, map[string]any{"ok": true, "files": []map[string]string{{"id": "F1", "title": "chart"}}})
	})
	mux.HandleFunc("/api/files.info", func(w http.ResponseWriter, r *http.Request) {
		f.record("files.info", r)
		f.reply(w, map[string]any{"ok": true, "file": map[string]any{"id": "F1", "name": "pie_chart.png", "permalink": f.permalink}})
	})
	mux.HandleFunc("/upload/F1", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.uploads++
		status := f.uploadStatus
		f.mu.Unlock()
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if _, _, err := r.FormFile("file"); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte("OK - 123"))
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeSlackAPI) client() *slack.Client {
	return slack.New("xoxb-test", slack.OptionAPIURL(f.server.URL+"/api/"))
}

func (f *fakeSlackAPI) record(method string, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		f.t.Errorf("ParseForm(%s) error = %v", method, err)
	}
	values := map[string]string{}
	for key := range r.Form {
		values[key] = r.Form.Get(key)
	}
	f.mu.Lock()
	f.calls[method] = append(f.calls[method], values)
	f.mu.Unlock()
}

func (f *fakeSlackAPI) reply(w http.ResponseWriter, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		f.t.Errorf("encode reply error = %v", err)
	}
}

func (f *fakeSlackAPI) callsTo(method string) []map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}
