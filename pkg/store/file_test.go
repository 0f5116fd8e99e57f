package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/Sternrassler/sf-bulk-report/pkg/auth"
	"github.com/Sternrassler/sf-bulk-report/pkg/client"
)

func sampleResult() *auth.AuthorizationResult {
	return &auth.AuthorizationResult{
		ID:          "https://login.salesforce.com/id/00D/005",
		AccessToken: "00D!abc",
		InstanceURL: "https://example.my.salesforce.com",
		IssuedAt:    "1700000000000",
		Signature:   "sig=",
		TokenType:   "Bearer",
	}
}

func TestNewFileStore_DefaultPath(t *testing.T) {
	if got := NewFileStore("").Path(); got != DefaultFileName {
		t.Errorf("Path() = %q, want %q", got, DefaultFileName)
	}
}

func TestFileStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(filepath.Join(t.TempDir(), "oauth_response.json"))

	if err := s.Save(ctx, sampleResult()); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if !reflect.DeepEqual(loaded, sampleResult()) {
		t.Errorf("Load() = %+v, want %+v", loaded, sampleResult())
	}

	info, err := os.Stat(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("cache file mode = %o, want 600", info.Mode().Perm())
	}
}

func TestFileStore_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(filepath.Join(t.TempDir(), "cache.json"))

	if err := s.Save(ctx, sampleResult()); err != nil {
		t.Fatal(err)
	}
	updated := sampleResult()
	updated.AccessToken = "00D!new"
	if err := s.Save(ctx, updated); err != nil {
		t.Fatal(err)
	}

	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.AccessToken != "00D!new" {
		t.Errorf("AccessToken = %q, want 00D!new", loaded.AccessToken)
	}
}

func TestFileStore_LoadMissing(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "missing.json"))

	_, err := s.Load(context.Background())
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Load() error = %v, want ErrCacheMiss", err)
	}
}

func TestFileStore_LoadCorrupt(t *testing.T) {
	tests := []struct {
		name          string
		content       string
		wantMalformed bool
	}{
		{"not json", `{not json`, false},
		{"wrong shape", `[1,2,3]`, false},
		{"missing fields", `{"access_token":"t","token_type":"Bearer"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cache.json")
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatal(err)
			}

			_, err := NewFileStore(path).Load(context.Background())

			var corrupt *CorruptCacheError
			if !errors.As(err, &corrupt) {
				t.Fatalf("Load() error = %v, want *CorruptCacheError", err)
			}
			if corrupt.Location != path {
				t.Errorf("Location = %q, want %q", corrupt.Location, path)
			}

			var malformed *client.MalformedResponseError
			if got := errors.As(err, &malformed); got != tt.wantMalformed {
				t.Errorf("errors.As(MalformedResponseError) = %v, want %v", got, tt.wantMalformed)
			}
		})
	}
}

func TestFileStore_SaveNil(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "cache.json"))
	if err := s.Save(context.Background(), nil); err == nil {
		t.Error("Save(nil) should fail")
	}
	if _, err := os.Stat(s.Path()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("cache file should not exist after failed save: %v", err)
	}
}

func TestFileStore_Clear(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(filepath.Join(t.TempDir(), "cache.json"))

	if err := s.Clear(ctx); err != nil {
		t.Errorf("Clear() on empty store failed: %v", err)
	}

	if err := s.Save(ctx, sampleResult()); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}
	if _, err := s.Load(ctx); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Load() after Clear() error = %v, want ErrCacheMiss", err)
	}
}

func TestCorruptCacheError(t *testing.T) {
	inner := errors.New("unexpected end of JSON input")
	err := &CorruptCacheError{Location: "oauth_response.json", Err: inner}

	if got := err.Error(); got != "corrupt credential cache oauth_response.json: unexpected end of JSON input" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, inner) {
		t.Error("CorruptCacheError should unwrap to the decode error")
	}
}

var _ Store = (*FileStore)(nil)
var _ Store = (*RedisStore)(nil)
