package photorepo

import (
	"context"
	"errors"
	"testing"

	"github.com/rocknbirra/galleryctl/internal/photorepo/photorepotest"
)

func newTestClient(t *testing.T, srv *photorepotest.Server, token string) *Client {
	t.Helper()
	c, err := NewClient(Options{Owner: "RocknBirra", Token: token, BaseURL: srv.APIURL()})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return c
}

func TestCreateRepositoryIsIdempotent(t *testing.T) {
	srv := photorepotest.NewServer()
	defer srv.Close()
	c := newTestClient(t, srv, "")
	ctx := context.Background()

	if err := c.CreateRepository(ctx, "RocknBirra-Foto2025", "Photo gallery for 2025"); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !srv.HasRepo("RocknBirra-Foto2025") {
		t.Error("Expected repository to exist")
	}
	if err := c.CreateRepository(ctx, "RocknBirra-Foto2025", "Photo gallery for 2025"); err != nil {
		t.Errorf("Expected existing repository to be accepted, got %v", err)
	}
}

func TestListDirectory(t *testing.T) {
	srv := photorepotest.NewServer()
	defer srv.Close()
	srv.Put("photos", "14-06-25/a.jpg", []byte("aaa"))
	srv.Put("photos", "14-06-25/b.png", []byte("bbb"))
	srv.Put("photos", "14-06-25/nested/c.jpg", []byte("ccc"))
	srv.Put("photos", "15-06-25/d.jpg", []byte("ddd"))
	c := newTestClient(t, srv, "")

	files, err := c.ListDirectory(context.Background(), "photos", "14-06-25")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("Expected 2 files, got %v", files)
	}
	if files["a.jpg"] != photorepotest.SHA([]byte("aaa")) {
		t.Errorf("Expected sha of a.jpg, got %s", files["a.jpg"])
	}
	if _, ok := files["nested"]; ok {
		t.Error("Expected directories to be skipped")
	}
}

func TestListDirectoryErrors(t *testing.T) {
	srv := photorepotest.NewServer()
	defer srv.Close()
	srv.Put("photos", "14-06-25/a.jpg", []byte("aaa"))
	ctx := context.Background()

	c := newTestClient(t, srv, "")
	_, err := c.ListDirectory(ctx, "photos", "01-01-25")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	srv.Token = "secret"
	_, err = newTestClient(t, srv, "wrong").ListDirectory(ctx, "photos", "14-06-25")
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized, got %v", err)
	}
	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) || remoteErr.Status != 401 {
		t.Errorf("Expected RemoteError with status 401, got %v", err)
	}

	if _, err := newTestClient(t, srv, "secret").ListDirectory(ctx, "photos", "14-06-25"); err != nil {
		t.Errorf("Expected valid token to work, got %v", err)
	}

	addr := srv.APIURL()
	srv.Close()
	offline, err := NewClient(Options{Owner: "RocknBirra", BaseURL: addr})
	if err != nil {
		t.Fatal(err)
	}
	_, err = offline.ListDirectory(ctx, "photos", "14-06-25")
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("Expected ErrNetwork, got %v", err)
	}
}

func TestUploadAndDeleteFile(t *testing.T) {
	srv := photorepotest.NewServer()
	defer srv.Close()
	c := newTestClient(t, srv, "")
	ctx := context.Background()

	if err := c.CreateRepository(ctx, "photos", ""); err != nil {
		t.Fatal(err)
	}
	if err := c.UploadFile(ctx, "photos", "14-06-25", "a.jpg", []byte{0xff, 0xd8, 0x00}); err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	got, ok := srv.Content("photos", "14-06-25/a.jpg")
	if !ok || len(got) != 3 || got[0] != 0xff {
		t.Errorf("Expected uploaded bytes, got %v", got)
	}

	if err := c.UploadFile(ctx, "photos", "14-06-25", "a.jpg", []byte("again")); err == nil {
		t.Error("Expected second create to fail")
	}

	if err := c.DeleteFile(ctx, "photos", "14-06-25", "a.jpg", "not-the-sha"); !errors.Is(err, ErrRemote) {
		t.Errorf("Expected ErrRemote for stale sha, got %v", err)
	}
	if err := c.DeleteFile(ctx, "photos", "14-06-25", "a.jpg", ""); err == nil {
		t.Error("Expected error for missing sha")
	}

	files, err := c.ListDirectory(ctx, "photos", "14-06-25")
	if err != nil {
		t.Fatal(err)
	}
	if err := c.DeleteFile(ctx, "photos", "14-06-25", "a.jpg", files["a.jpg"]); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if names := srv.Files("photos", "14-06-25"); len(names) != 0 {
		t.Errorf("Expected no files left, got %v", names)
	}
}

func TestWriteBranch(t *testing.T) {
	tests := []struct {
		name   string
		branch string
		want   string
	}{
		{"unset uses repository default", "", ""},
		{"main uses repository default", "main", ""},
		{"other branch is sent", "gh-pages", "gh-pages"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := photorepotest.NewServer()
			defer srv.Close()
			c, err := NewClient(Options{Owner: "RocknBirra", Branch: tt.branch, BaseURL: srv.APIURL()})
			if err != nil {
				t.Fatal(err)
			}
			ctx := context.Background()

			if err := c.CreateRepository(ctx, "photos", ""); err != nil {
				t.Fatal(err)
			}
			if err := c.UploadFile(ctx, "photos", "14-06-25", "a.jpg", []byte("x")); err != nil {
				t.Fatalf("upload failed: %v", err)
			}
			if err := c.DeleteFile(ctx, "photos", "14-06-25", "a.jpg", photorepotest.SHA([]byte("x"))); err != nil {
				t.Fatalf("delete failed: %v", err)
			}

			got := srv.Branches()
			if len(got) != 2 || got[0] != tt.want || got[1] != tt.want {
				t.Errorf("Expected branch %q on both writes, got %q", tt.want, got)
			}
		})
	}
}

func TestURLs(t *testing.T) {
	c, err := NewClient(Options{Owner: "RocknBirra"})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := c.RawBaseURL("RocknBirra-Foto2025", "14-06-25"), "https://raw.githubusercontent.com/RocknBirra/RocknBirra-Foto2025/main/14-06-25"; got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
	if got, want := c.CloneURL("RocknBirra-Foto2025"), "https://github.com/RocknBirra/RocknBirra-Foto2025.git"; got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}
