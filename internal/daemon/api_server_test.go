package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"kinetic/internal/api"
	"kinetic/internal/catalog"
	"kinetic/internal/logging"
	"kinetic/internal/services"
	"kinetic/internal/testsupport"
)

func newTestDaemon(t *testing.T, opts ...testsupport.ConfigOption) *Daemon {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenStore(t, cfg)
	d, err := New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

func videoUpload(t *testing.T, fieldName, fileName, contentType string, size int) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fieldName, fileName))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}
	if _, err := part.Write(bytes.Repeat([]byte{0x5a}, size)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestUploadPinsFile(t *testing.T) {
	pinSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pinning/pinFileToIPFS" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"IpfsHash":"bafy-upload","PinSize":2048,"Timestamp":"2026-01-01T00:00:00Z"}`)
	}))
	defer pinSrv.Close()

	d := newTestDaemon(t, testsupport.WithPinningService(pinSrv.URL, "https://gateway.test/ipfs/"))
	body, contentType := videoUpload(t, "file", "clip.mp4", "video/mp4", 4096)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	d.server.handleUpload(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d: %s", w.Code, w.Body.String())
	}
	var resp api.UploadResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.IPFSHash != "bafy-upload" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if !strings.Contains(resp.GatewayURL, "bafy-upload") {
		t.Fatalf("expected gateway url, got %q", resp.GatewayURL)
	}
}

func TestUploadMetadataPinsJSON(t *testing.T) {
	pinSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pinning/pinJSONToIPFS" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"IpfsHash":"bafy-meta","PinSize":128,"Timestamp":"2026-01-01T00:00:00Z"}`)
	}))
	defer pinSrv.Close()

	d := newTestDaemon(t, testsupport.WithPinningService(pinSrv.URL, "https://gateway.test/ipfs/"))
	body := strings.NewReader(`{"name":"Knife Sharpening","description":"sharpening demo"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/upload/metadata", body)
	w := httptest.NewRecorder()
	d.server.handleUploadMetadata(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d: %s", w.Code, w.Body.String())
	}
	var resp api.MetadataUploadResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.IPFSHash != "bafy-meta" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestUploadMetadataRejectsNonObject(t *testing.T) {
	d := newTestDaemon(t)
	req := httptest.NewRequest(http.MethodPost, "/api/upload/metadata", strings.NewReader("not json"))
	w := httptest.NewRecorder()
	d.server.handleUploadMetadata(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestUploadRejectsMissingFile(t *testing.T) {
	d := newTestDaemon(t)
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	_ = writer.WriteField("walletAddress", "0xAA")
	_ = writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	d.server.handleUpload(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestUploadRejectsNonVideo(t *testing.T) {
	d := newTestDaemon(t)
	body, contentType := videoUpload(t, "file", "notes.txt", "text/plain", 64)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	d.server.handleUpload(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestUploadRejectsOversizeFile(t *testing.T) {
	d := newTestDaemon(t)
	d.server.maxUpload = 1 << 10
	body, contentType := videoUpload(t, "file", "big.mp4", "video/mp4", 4<<10)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	d.server.handleUpload(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestUploadWithoutPinningService(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Pinning.JWT = ""
	store := testsupport.MustOpenStore(t, cfg)
	d, err := New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	body, contentType := videoUpload(t, "file", "clip.mp4", "video/mp4", 64)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	d.server.handleUpload(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func verifyBody(wallet string) *bytes.Buffer {
	payload := api.VerifyRequest{
		WalletAddress:     wallet,
		Proof:             "0xproof",
		MerkleRoot:        "0xroot",
		NullifierHash:     "0xnull",
		VerificationLevel: "orb",
	}
	data, _ := json.Marshal(payload)
	return bytes.NewBuffer(data)
}

func TestVerifyMarksAccount(t *testing.T) {
	idSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":true,"nullifier_hash":"0xnull"}`)
	}))
	defer idSrv.Close()

	d := newTestDaemon(t, testsupport.WithIdentityService(idSrv.URL))
	req := httptest.NewRequest(http.MethodPost, "/api/verify-worldid", verifyBody("0xAbCd"))
	w := httptest.NewRecorder()
	d.server.handleVerify(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp api.VerifyResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Verified {
		t.Fatal("expected verified result")
	}
	body := w.Body.String()
	if !strings.Contains(body, `"nullifier_hash":"0xnull"`) || !strings.Contains(body, `"verification_level":"orb"`) {
		t.Fatalf("expected provider-style proof fields on the wire, got %s", body)
	}

	account, err := d.store.GetAccount(context.Background(), "0xabcd")
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if !account.IsVerified {
		t.Fatal("expected account to be marked verified")
	}
}

func TestVerifyRejectedProof(t *testing.T) {
	idSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"code":"invalid_proof","detail":"proof replay detected"}`)
	}))
	defer idSrv.Close()

	d := newTestDaemon(t, testsupport.WithIdentityService(idSrv.URL))
	req := httptest.NewRequest(http.MethodPost, "/api/verify-worldid", verifyBody(""))
	w := httptest.NewRecorder()
	d.server.handleVerify(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	var resp api.VerifyResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Success || resp.Verified {
		t.Fatalf("expected rejected response, got %+v", resp)
	}
}

func TestVerifyProviderFailure(t *testing.T) {
	idSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer idSrv.Close()

	d := newTestDaemon(t, testsupport.WithIdentityService(idSrv.URL))
	req := httptest.NewRequest(http.MethodPost, "/api/verify-worldid", verifyBody(""))
	w := httptest.NewRecorder()
	d.server.handleVerify(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "Verification failed") {
		t.Fatalf("expected verification failure detail, got %s", w.Body.String())
	}
}

func TestVideoRoutes(t *testing.T) {
	d := newTestDaemon(t)
	video := testsupport.NewVideo(t, d.store, "Sharpening a Chisel", "0xAA")

	req := httptest.NewRequest(http.MethodGet, "/api/videos/"+video.ID, nil)
	w := httptest.NewRecorder()
	d.server.handleVideo(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/videos/missing", nil)
	w = httptest.NewRecorder()
	d.server.handleVideo(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	update := []byte(`{"ownerAddress":"0xBB","updates":{"title":"Renamed"}}`)
	req = httptest.NewRequest(http.MethodPut, "/api/videos/"+video.ID, bytes.NewReader(update))
	w = httptest.NewRecorder()
	d.server.handleVideo(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign caller, got %d: %s", w.Code, w.Body.String())
	}

	update = []byte(`{"ownerAddress":"0xAA","updates":{"title":"Renamed"}}`)
	req = httptest.NewRequest(http.MethodPut, "/api/videos/"+video.ID, bytes.NewReader(update))
	w = httptest.NewRecorder()
	d.server.handleVideo(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 update, got %d: %s", w.Code, w.Body.String())
	}
	if body := w.Body.String(); !strings.Contains(body, `"success":true`) || !strings.Contains(body, `"title":"Renamed"`) {
		t.Fatalf("expected {success, video} update response, got %s", body)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/videos/"+video.ID+"?ownerAddress=0xAA", nil)
	w = httptest.NewRecorder()
	d.server.handleVideo(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 delete, got %d: %s", w.Code, w.Body.String())
	}
	if body := w.Body.String(); !strings.Contains(body, `"success":true`) {
		t.Fatalf("expected {success} delete response, got %s", body)
	}

	if _, err := d.store.GetVideo(context.Background(), video.ID); err == nil {
		t.Fatal("expected video to be deleted")
	}
}

func TestCreateVideoRoute(t *testing.T) {
	d := newTestDaemon(t)

	body := []byte(`{"title":"Hand Plane Tuning","skillCategory":"Craftsmanship","videoIpfsHash":"bafyvid","ownerAddress":"0xCc00000000000000000000000000000000000003"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/videos", bytes.NewReader(body))
	w := httptest.NewRecorder()
	d.server.handleVideos(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if got := w.Body.String(); !strings.Contains(got, `"success":true`) || !strings.Contains(got, `"videoCid":"bafyvid"`) {
		t.Fatalf("expected {success, video} create response, got %s", got)
	}

	missing := []byte(`{"title":"No Hash","skillCategory":"Craftsmanship","ownerAddress":"0xCc00000000000000000000000000000000000003"}`)
	req = httptest.NewRequest(http.MethodPost, "/api/videos", bytes.NewReader(missing))
	w = httptest.NewRecorder()
	d.server.handleVideos(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without videoIpfsHash, got %d: %s", w.Code, w.Body.String())
	}
}

func TestVideoListFilters(t *testing.T) {
	d := newTestDaemon(t)
	testsupport.NewVideo(t, d.store, "Knife Skills", "0xAA")
	testsupport.NewVideo(t, d.store, "Sourdough Basics", "0xBB")

	req := httptest.NewRequest(http.MethodGet, "/api/videos?owner=0xAA", nil)
	w := httptest.NewRecorder()
	d.server.handleVideos(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp api.VideoListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Videos) != 1 {
		t.Fatalf("expected 1 video for owner filter, got %d", len(resp.Videos))
	}
}

func TestSessionRoutes(t *testing.T) {
	idSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":true,"nullifier_hash":"0xnull"}`)
	}))
	defer idSrv.Close()

	d := newTestDaemon(t, testsupport.WithIdentityService(idSrv.URL))

	create, _ := json.Marshal(api.CreateSessionRequest{WalletAddress: "0xAA"})
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", bytes.NewReader(create))
	w := httptest.NewRecorder()
	d.server.handleSessions(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created api.SessionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	id := created.Session.ID

	post := func(action string, payload any) *httptest.ResponseRecorder {
		data, _ := json.Marshal(payload)
		req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/"+action, bytes.NewReader(data))
		w := httptest.NewRecorder()
		d.server.handleSession(w, req)
		return w
	}

	if w := post("advance", struct{}{}); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 advancing an empty session, got %d", w.Code)
	}

	if w := post("upload", api.AttachUploadRequest{ContentID: "bafy-clip", FileName: "clip.mp4"}); w.Code != http.StatusOK {
		t.Fatalf("expected 200 upload, got %d: %s", w.Code, w.Body.String())
	}
	if w := post("verify", api.VerifyRequest{Proof: "0xp", MerkleRoot: "0xr", NullifierHash: "0xn", VerificationLevel: "orb"}); w.Code != http.StatusOK {
		t.Fatalf("expected 200 verify, got %d: %s", w.Code, w.Body.String())
	}
	if w := post("advance", struct{}{}); w.Code != http.StatusOK {
		t.Fatalf("expected 200 advance, got %d: %s", w.Code, w.Body.String())
	}
	if w := post("details", api.SetDetailsRequest{Title: "Knife Care", SkillCategory: "Craftsmanship"}); w.Code != http.StatusOK {
		t.Fatalf("expected 200 details, got %d: %s", w.Code, w.Body.String())
	}
	if w := post("back", struct{}{}); w.Code != http.StatusOK {
		t.Fatalf("expected 200 back, got %d: %s", w.Code, w.Body.String())
	}
	if w := post("bogus", struct{}{}); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown action, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/sessions/"+id, nil)
	w = httptest.NewRecorder()
	d.server.handleSession(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 session fetch, got %d", w.Code)
	}
	var fetched api.SessionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &fetched); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if fetched.Session.Step != "upload" {
		t.Fatalf("expected session back on upload step, got %q", fetched.Session.Step)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/sessions/"+id, nil)
	w = httptest.NewRecorder()
	d.server.handleSession(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 discard, got %d", w.Code)
	}
	if d.sessions.Count() != 0 {
		t.Fatal("expected session to be discarded")
	}
}

func TestCategoriesRoute(t *testing.T) {
	d := newTestDaemon(t)
	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	w := httptest.NewRecorder()
	d.server.handleCategories(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp api.CategoriesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Categories) != len(catalog.SkillCategories) {
		t.Fatalf("expected %d categories, got %d", len(catalog.SkillCategories), len(resp.Categories))
	}
}

func TestAuthMiddleware(t *testing.T) {
	handler := authMiddleware("secret", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	w := httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 with valid token, got %d", w.Code)
	}

	open := authMiddleware("", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	w = httptest.NewRecorder()
	open(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected empty token to pass through, got %d", w.Code)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	handler := requestIDMiddleware(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := services.RequestIDFromContext(r.Context()); !ok {
			t.Error("expected request id in context")
		}
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	w := httptest.NewRecorder()
	handler(w, req)
	if w.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected generated X-Request-Id header")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("X-Request-Id", "req-123")
	w = httptest.NewRecorder()
	handler(w, req)
	if got := w.Header().Get("X-Request-Id"); got != "req-123" {
		t.Fatalf("expected caller request id echoed back, got %q", got)
	}
}
