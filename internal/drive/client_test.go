package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// fakeDrive is a minimal in-memory Drive API backend covering the calls the
// client makes: folder search, folder create, metadata get, delete, and the
// resumable upload protocol.
type fakeDrive struct {
	mu        sync.Mutex
	server    *httptest.Server
	folders   map[string]*drive.File // id -> folder
	files     map[string]*drive.File // id -> uploaded file
	nextID    int
	uploadBuf []byte // bytes received through the resumable session

	createCalls int
	listCalls   int
	deleteCalls int
	putCalls    int

	failVerify bool // make metadata get of uploaded files return 404
}

func newFakeDrive() *fakeDrive {
	f := &fakeDrive{
		folders: make(map[string]*drive.File),
		files:   make(map[string]*drive.File),
		nextID:  1,
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	return f
}

func (f *fakeDrive) close() {
	f.server.Close()
}

func (f *fakeDrive) client(t *testing.T) *Client {
	t.Helper()
	service, err := drive.NewService(context.Background(),
		option.WithoutAuthentication(),
		option.WithEndpoint(f.server.URL))
	if err != nil {
		t.Fatalf("failed to create drive service: %v", err)
	}
	return NewClientWithService(service, &ClientOptions{
		Logger: slog.New(slog.DiscardHandler),
	})
}

func (f *fakeDrive) addFolder(name, parentID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := fmt.Sprintf("folder-%d", f.nextID)
	f.nextID++
	f.folders[id] = &drive.File{
		Id:       id,
		Name:     name,
		MimeType: FolderMimeType,
		Parents:  []string{parentID},
	}
	return id
}

func (f *fakeDrive) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.URL.Path == "/upload/session":
		// Chunks arrive as POSTs to the session URI. Intermediate chunks
		// carry "bytes first-last/*"; only the final chunk has a numeric
		// total.
		f.putCalls++
		body, _ := io.ReadAll(r.Body)
		f.uploadBuf = append(f.uploadBuf, body...)

		var first, last, total int64
		n, _ := fmt.Sscanf(r.Header.Get("Content-Range"), "bytes %d-%d/%d", &first, &last, &total)
		if n < 3 || last+1 < total {
			// Intermediate chunk. The client sends X-GUploader-No-308, so
			// "incomplete" is signaled with 200 plus the override header
			// rather than a literal 308.
			w.Header().Set("Range", fmt.Sprintf("bytes=0-%d", last))
			w.Header().Set("X-Http-Status-Code-Override", "308")
			w.WriteHeader(http.StatusOK)
			return
		}
		id := fmt.Sprintf("file-%d", f.nextID)
		f.nextID++
		f.files[id] = &drive.File{Id: id, Size: int64(len(f.uploadBuf))}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(f.files[id])

	case r.Method == http.MethodPost && strings.Contains(r.URL.Path, "/upload/"):
		if r.URL.Query().Get("uploadType") == "resumable" {
			// Resumable session initiation: chunks arrive at the session URI.
			w.Header().Set("Location", f.server.URL+"/upload/session")
			w.WriteHeader(http.StatusOK)
			return
		}
		// Media that fits in one chunk is sent as a single multipart POST
		// and the file JSON is expected in the response body.
		body, _ := io.ReadAll(r.Body)
		id := fmt.Sprintf("file-%d", f.nextID)
		f.nextID++
		f.files[id] = &drive.File{Id: id, Size: int64(len(body))}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(f.files[id])

	case r.Method == http.MethodGet && r.URL.Path == "/files":
		f.listCalls++
		query := r.URL.Query().Get("q")
		matches := []*drive.File{}
		for _, folder := range f.folders {
			if strings.Contains(query, fmt.Sprintf("name='%s'", folder.Name)) &&
				strings.Contains(query, fmt.Sprintf("'%s' in parents", folder.Parents[0])) {
				matches = append(matches, folder)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(&drive.FileList{Files: matches})

	case r.Method == http.MethodPost && r.URL.Path == "/files":
		f.createCalls++
		var meta drive.File
		json.NewDecoder(r.Body).Decode(&meta)
		id := fmt.Sprintf("folder-%d", f.nextID)
		f.nextID++
		meta.Id = id
		f.folders[id] = &meta
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(&meta)

	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/files/"):
		id := strings.TrimPrefix(r.URL.Path, "/files/")
		if folder, ok := f.folders[id]; ok {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(folder)
			return
		}
		if file, ok := f.files[id]; ok && !f.failVerify {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(file)
			return
		}
		http.Error(w, `{"error": {"code": 404, "message": "not found"}}`, http.StatusNotFound)

	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/files/"):
		f.deleteCalls++
		id := strings.TrimPrefix(r.URL.Path, "/files/")
		delete(f.folders, id)
		delete(f.files, id)
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "unexpected request", http.StatusBadRequest)
	}
}

func TestVerifyFolder(t *testing.T) {
	fake := newFakeDrive()
	defer fake.close()

	id := fake.addFolder("Recordings", "root")
	client := fake.client(t)

	info, err := client.VerifyFolder(context.Background(), id)
	if err != nil {
		t.Fatalf("VerifyFolder failed: %v", err)
	}
	if info.ID != id {
		t.Errorf("expected id %s, got %s", id, info.ID)
	}
	if info.Name != "Recordings" {
		t.Errorf("expected name Recordings, got %s", info.Name)
	}
}

func TestVerifyFolderNotFound(t *testing.T) {
	fake := newFakeDrive()
	defer fake.close()

	client := fake.client(t)

	_, err := client.VerifyFolder(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error for missing folder")
	}
	if !strings.Contains(err.Error(), "verifyFolder") {
		t.Errorf("expected verifyFolder in error, got: %v", err)
	}
}

func TestVerifyFolderEmptyID(t *testing.T) {
	fake := newFakeDrive()
	defer fake.close()

	client := fake.client(t)

	if _, err := client.VerifyFolder(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty folder id")
	}
}

func TestEnsureFolderReusesExisting(t *testing.T) {
	fake := newFakeDrive()
	defer fake.close()

	existing := fake.addFolder("2024-01-02", "root")
	client := fake.client(t)

	id, err := client.EnsureFolder(context.Background(), "2024-01-02", "root")
	if err != nil {
		t.Fatalf("EnsureFolder failed: %v", err)
	}
	if id != existing {
		t.Errorf("expected existing folder %s, got %s", existing, id)
	}
	if fake.createCalls != 0 {
		t.Errorf("expected no create calls, got %d", fake.createCalls)
	}
}

func TestEnsureFolderCreatesWhenMissing(t *testing.T) {
	fake := newFakeDrive()
	defer fake.close()

	client := fake.client(t)

	id, err := client.EnsureFolder(context.Background(), "2024-01-02", "root")
	if err != nil {
		t.Fatalf("EnsureFolder failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected a folder id")
	}
	if fake.createCalls != 1 {
		t.Errorf("expected one create call, got %d", fake.createCalls)
	}
}

func TestEnsureFolderIdempotent(t *testing.T) {
	fake := newFakeDrive()
	defer fake.close()

	client := fake.client(t)

	first, err := client.EnsureFolder(context.Background(), "2024-01-02", "root")
	if err != nil {
		t.Fatalf("first EnsureFolder failed: %v", err)
	}
	second, err := client.EnsureFolder(context.Background(), "2024-01-02", "root")
	if err != nil {
		t.Fatalf("second EnsureFolder failed: %v", err)
	}
	if first != second {
		t.Errorf("expected same folder id, got %s and %s", first, second)
	}
	if fake.createCalls != 1 {
		t.Errorf("expected exactly one create call, got %d", fake.createCalls)
	}
}

func TestEnsureFolderValidation(t *testing.T) {
	fake := newFakeDrive()
	defer fake.close()

	client := fake.client(t)

	if _, err := client.EnsureFolder(context.Background(), "", "root"); err == nil {
		t.Error("expected error for empty name")
	}
	if _, err := client.EnsureFolder(context.Background(), "2024-01-02", ""); err == nil {
		t.Error("expected error for empty parent id")
	}
}

func TestUploadFile(t *testing.T) {
	fake := newFakeDrive()
	defer fake.close()

	dir := t.TempDir()
	localPath := filepath.Join(dir, "Standup_2024-01-02_10-00-00.mp4")
	// Larger than two chunks so the upload goes through the resumable
	// session rather than a single multipart POST.
	content := bytes.Repeat([]byte("x"), 2*UploadChunkSize+512)
	if err := os.WriteFile(localPath, content, 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	client := fake.client(t)

	var lastTransferred, lastTotal int64
	var calls int
	id, err := client.UploadFile(context.Background(), localPath, "folder-dest",
		func(transferred, total int64) {
			calls++
			lastTransferred = transferred
			lastTotal = total
		})
	if err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected a file id")
	}
	if fake.putCalls < 3 {
		t.Errorf("expected at least 3 chunk uploads, got %d", fake.putCalls)
	}
	if int64(len(fake.uploadBuf)) != int64(len(content)) {
		t.Errorf("expected %d bytes received, got %d", len(content), len(fake.uploadBuf))
	}
	if calls == 0 {
		t.Fatal("expected progress callback to be called")
	}
	if lastTransferred != int64(len(content)) {
		t.Errorf("expected final transferred %d, got %d", len(content), lastTransferred)
	}
	if lastTotal != int64(len(content)) {
		t.Errorf("expected total %d, got %d", len(content), lastTotal)
	}
	if _, err := os.Stat(localPath); err != nil {
		t.Errorf("local file should be untouched after upload: %v", err)
	}
}

func TestUploadFileSingleChunk(t *testing.T) {
	fake := newFakeDrive()
	defer fake.close()

	dir := t.TempDir()
	localPath := filepath.Join(dir, "chat.txt")
	if err := os.WriteFile(localPath, []byte("small asset"), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	client := fake.client(t)

	id, err := client.UploadFile(context.Background(), localPath, "folder-dest", nil)
	if err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected a file id")
	}
	// Sub-chunk media goes out as one multipart POST, no session PUTs.
	if fake.putCalls != 0 {
		t.Errorf("expected no chunk uploads for sub-chunk media, got %d", fake.putCalls)
	}
}

func TestUploadFileVerifyFailureDeletesRemote(t *testing.T) {
	fake := newFakeDrive()
	defer fake.close()
	fake.failVerify = true

	dir := t.TempDir()
	localPath := filepath.Join(dir, "recording.mp4")
	if err := os.WriteFile(localPath, []byte("content"), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	client := fake.client(t)

	_, err := client.UploadFile(context.Background(), localPath, "folder-dest", nil)
	if err == nil {
		t.Fatal("expected error when verification fails")
	}
	if fake.deleteCalls != 1 {
		t.Errorf("expected one delete call for the partial remote object, got %d", fake.deleteCalls)
	}
	if _, statErr := os.Stat(localPath); statErr != nil {
		t.Errorf("local file should survive a failed upload: %v", statErr)
	}
}

func TestUploadFileMissingLocal(t *testing.T) {
	fake := newFakeDrive()
	defer fake.close()

	client := fake.client(t)

	_, err := client.UploadFile(context.Background(), "/nonexistent/file.mp4", "folder-dest", nil)
	if err == nil {
		t.Fatal("expected error for missing local file")
	}
	if fake.deleteCalls != 0 {
		t.Errorf("no remote object was created, expected no delete calls, got %d", fake.deleteCalls)
	}
}

func TestDeleteFile(t *testing.T) {
	fake := newFakeDrive()
	defer fake.close()

	id := fake.addFolder("gone", "root")
	client := fake.client(t)

	if err := client.DeleteFile(context.Background(), id); err != nil {
		t.Fatalf("DeleteFile failed: %v", err)
	}
	if fake.deleteCalls != 1 {
		t.Errorf("expected one delete call, got %d", fake.deleteCalls)
	}
	if err := client.DeleteFile(context.Background(), ""); err == nil {
		t.Error("expected error for empty file id")
	}
}

func TestEscapeQueryTerm(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"2024-01-02", "2024-01-02"},
		{"it's", `it\'s`},
		{`back\slash`, `back\\slash`},
	}
	for _, tt := range tests {
		if got := escapeQueryTerm(tt.input); got != tt.expected {
			t.Errorf("escapeQueryTerm(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func TestMimeTypeFor(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"video.mp4", "video/mp4"},
		{"audio.m4a", "audio/mp4"},
		{"transcript.vtt", "text/vtt"},
		{"chat.txt", "text/plain"},
		{"unknown.bin", DefaultUploadMimeType},
	}
	for _, tt := range tests {
		if got := mimeTypeFor(tt.name); got != tt.expected {
			t.Errorf("mimeTypeFor(%q) = %q, expected %q", tt.name, got, tt.expected)
		}
	}
}

func TestUploadStateString(t *testing.T) {
	tests := []struct {
		state    UploadState
		expected string
	}{
		{UploadPending, "pending"},
		{UploadInProgress, "in_progress"},
		{UploadDone, "done"},
		{UploadFailed, "failed"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.expected {
			t.Errorf("UploadState(%d).String() = %q, expected %q", tt.state, got, tt.expected)
		}
	}
}
