package daemonclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"kinetic/internal/api"
	"kinetic/internal/services/ipreg"
)

func TestStatusSendsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		if r.URL.Path != "/api/status" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"running":true,"pid":42}`)
	}))
	defer srv.Close()

	client := New(srv.URL, "secret")
	status, err := client.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Running || status.PID != 42 {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestVideosEncodesFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if query.Get("category") != "Cooking" || query.Get("search") != "knife" || query.Get("owner") != "0xAA" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		fmt.Fprint(w, `{"videos":[{"id":"v1","title":"Knife Skills"}]}`)
	}))
	defer srv.Close()

	client := New(srv.URL, "")
	videos, err := client.Videos(context.Background(), VideoFilter{Category: "Cooking", Search: "knife", Owner: "0xAA"})
	if err != nil {
		t.Fatalf("Videos: %v", err)
	}
	if len(videos) != 1 || videos[0].ID != "v1" {
		t.Fatalf("unexpected videos: %+v", videos)
	}
}

func TestUploadBuildsMultipartRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(8 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("missing file part: %v", err)
		}
		file.Close()
		if header.Filename != "clip.mp4" {
			t.Errorf("unexpected filename %q", header.Filename)
		}
		if ct := header.Header.Get("Content-Type"); ct != "video/mp4" {
			t.Errorf("unexpected content type %q", ct)
		}
		if r.FormValue("walletAddress") != "0xAA" {
			t.Errorf("unexpected wallet %q", r.FormValue("walletAddress"))
		}
		fmt.Fprint(w, `{"success":true,"ipfsHash":"bafy-clip"}`)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte("fake video"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	client := New(srv.URL, "")
	resp, err := client.Upload(context.Background(), path, "0xAA")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !resp.Success || resp.IPFSHash != "bafy-clip" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestSessionActionPaths(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		var req api.AttachLicenseRequest
		if r.URL.Path == "/api/sessions/s1/license" {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if req.Terms.Type != ipreg.TypeStandard {
				t.Errorf("unexpected terms type %q", req.Terms.Type)
			}
		}
		fmt.Fprint(w, `{"session":{"id":"s1","step":"complete"}}`)
	}))
	defer srv.Close()

	client := New(srv.URL, "")
	sess, err := client.AttachLicense(context.Background(), "s1", ipreg.Terms{Type: ipreg.TypeStandard})
	if err != nil {
		t.Fatalf("AttachLicense: %v", err)
	}
	if gotPath != "/api/sessions/s1/license" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if sess.Step != "complete" {
		t.Fatalf("unexpected step %q", sess.Step)
	}
}

func TestErrorResponsesSurfaceDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":"caller does not own this video"}`)
	}))
	defer srv.Close()

	client := New(srv.URL, "")
	err := client.DeleteVideo(context.Background(), "v1", "0xBB")
	if err == nil {
		t.Fatal("expected error")
	}
	if got := err.Error(); got != "daemon returned 403: caller does not own this video" {
		t.Fatalf("unexpected error: %q", got)
	}
}

func TestDeleteVideoSendsOwnerQuery(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, `{"success":true}`)
	}))
	defer srv.Close()

	client := New(srv.URL, "")
	if err := client.DeleteVideo(context.Background(), "v1", "0xAA"); err != nil {
		t.Fatalf("DeleteVideo: %v", err)
	}
	if gotQuery != "ownerAddress=0xAA" {
		t.Fatalf("unexpected query %q", gotQuery)
	}
}

func TestReadPIDMissingFile(t *testing.T) {
	pid, err := ReadPID(filepath.Join(t.TempDir(), "absent.pid"))
	if err != nil {
		t.Fatalf("ReadPID: %v", err)
	}
	if pid != 0 {
		t.Fatalf("expected 0 for missing pid file, got %d", pid)
	}
}
