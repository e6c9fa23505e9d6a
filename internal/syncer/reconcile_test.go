package syncer

import (
	"context"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rocknbirra/galleryctl/internal/imaging"
	"github.com/rocknbirra/galleryctl/internal/imaging/imagingtest"
	"github.com/rocknbirra/galleryctl/internal/photorepo"
	"github.com/rocknbirra/galleryctl/internal/photorepo/photorepotest"
)

const (
	testRepo = "RocknBirra-Foto2025"
	testDate = "14-06-25"
)

type fixture struct {
	srv      *photorepotest.Server
	client   *photorepo.Client
	input    string
	temp     string
	thumbs   []string
	recorder *recordingWatermarker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv := photorepotest.NewServer()
	t.Cleanup(srv.Close)

	client, err := photorepo.NewClient(photorepo.Options{Owner: "RocknBirra", BaseURL: srv.APIURL()})
	if err != nil {
		t.Fatal(err)
	}

	root := t.TempDir()
	f := &fixture{
		srv:    srv,
		client: client,
		input:  filepath.Join(root, "input"),
		temp:   filepath.Join(root, "tmp"),
		thumbs: []string{filepath.Join(root, "406px"), filepath.Join(root, "768px")},
		recorder: &recordingWatermarker{
			next: &imaging.Watermarker{Logo: imagingtest.Solid(20, 10, color.NRGBA{B: 255, A: 255}), MarginBottom: 5},
		},
	}
	for _, dir := range append([]string{f.input, f.temp}, f.thumbs...) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
	}
	return f
}

func (f *fixture) reconciler() *Reconciler {
	return &Reconciler{Remote: f.client, Watermarker: f.recorder, TempRoot: f.temp}
}

func (f *fixture) request() Request {
	return Request{InputDir: f.input, Repo: testRepo, Date: testDate, ThumbDirs: f.thumbs}
}

// recordingWatermarker remembers which scratch files it produced.
type recordingWatermarker struct {
	next    Watermarker
	outputs []string
	fail    map[string]bool
}

func (w *recordingWatermarker) Apply(src, dst string) error {
	if w.fail[filepath.Base(src)] {
		return errors.New("cannot decode")
	}
	w.outputs = append(w.outputs, dst)
	return w.next.Apply(src, dst)
}

func TestReconcile(t *testing.T) {
	f := newFixture(t)
	imagingtest.Write(t, filepath.Join(f.input, "a.jpg"), imagingtest.JPEG(t, imagingtest.Solid(120, 80, color.NRGBA{R: 255, A: 255}), 6))
	imagingtest.Write(t, filepath.Join(f.input, "b.png"), imagingtest.PNG(t, imagingtest.Solid(60, 90, color.NRGBA{G: 255, A: 255})))
	imagingtest.Write(t, filepath.Join(f.input, "keep.jpg"), imagingtest.JPEG(t, imagingtest.Solid(10, 10, color.NRGBA{A: 255}), 0))
	imagingtest.Write(t, filepath.Join(f.input, "readme.txt"), []byte("ignored"))

	f.srv.Put(testRepo, testDate+"/c.jpg", []byte("old"))
	f.srv.Put(testRepo, testDate+"/keep.jpg", []byte("already there"))
	for _, dir := range f.thumbs {
		imagingtest.Write(t, filepath.Join(dir, "c.webp"), []byte("thumb"))
		imagingtest.Write(t, filepath.Join(dir, "keep.webp"), []byte("thumb"))
	}

	result, err := f.reconciler().Run(context.Background(), f.request())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !reflect.DeepEqual(result.Deleted, []string{"c.jpg"}) {
		t.Errorf("Expected c.jpg deleted, got %v", result.Deleted)
	}
	if !reflect.DeepEqual(result.Uploaded, []string{"a.jpg", "b.png"}) {
		t.Errorf("Expected a.jpg and b.png uploaded, got %v", result.Uploaded)
	}
	if !reflect.DeepEqual(result.Final, []string{"a.jpg", "b.png", "keep.jpg"}) {
		t.Errorf("Expected final list to mirror local files, got %v", result.Final)
	}
	if result.ThumbsRemoved != 2 {
		t.Errorf("Expected 2 thumbnails removed, got %d", result.ThumbsRemoved)
	}

	if got := f.srv.Files(testRepo, testDate); !reflect.DeepEqual(got, result.Final) {
		t.Errorf("Expected remote to equal local set %v, got %v", result.Final, got)
	}
	if kept, _ := f.srv.Content(testRepo, testDate+"/keep.jpg"); string(kept) != "already there" {
		t.Error("Expected unchanged file to be left alone")
	}

	for _, dir := range f.thumbs {
		if _, err := os.Stat(filepath.Join(dir, "c.webp")); !os.IsNotExist(err) {
			t.Errorf("Expected c.webp removed from %s", dir)
		}
		if _, err := os.Stat(filepath.Join(dir, "keep.webp")); err != nil {
			t.Errorf("Expected keep.webp to survive in %s", dir)
		}
	}

	uploaded, _ := f.srv.Content(testRepo, testDate+"/a.jpg")
	tmp := filepath.Join(f.temp, "a.jpg")
	imagingtest.Write(t, tmp, uploaded)
	w, h, err := imaging.Dimensions(tmp)
	if err != nil {
		t.Fatalf("uploaded a.jpg is not an image: %v", err)
	}
	if w != 80 || h != 120 {
		t.Errorf("Expected uploaded a.jpg rotated to 80x120, got %dx%d", w, h)
	}
	os.Remove(tmp)

	assertEmpty(t, f.temp)
}

func TestReconcileSkipsFailedPhotos(t *testing.T) {
	f := newFixture(t)
	imagingtest.Write(t, filepath.Join(f.input, "good.jpg"), imagingtest.JPEG(t, imagingtest.Solid(20, 10, color.NRGBA{A: 255}), 0))
	imagingtest.Write(t, filepath.Join(f.input, "broken.jpg"), []byte("garbage"))
	imagingtest.Write(t, filepath.Join(f.input, "refused.jpg"), imagingtest.JPEG(t, imagingtest.Solid(20, 10, color.NRGBA{A: 255}), 0))
	f.srv.Put(testRepo, "other/x.jpg", nil)
	f.srv.FailUploads["refused.jpg"] = true

	result, err := f.reconciler().Run(context.Background(), f.request())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !reflect.DeepEqual(result.Uploaded, []string{"good.jpg"}) {
		t.Errorf("Expected only good.jpg uploaded, got %v", result.Uploaded)
	}
	if !reflect.DeepEqual(result.FailedMark, []string{"broken.jpg"}) {
		t.Errorf("Expected broken.jpg to fail watermarking, got %v", result.FailedMark)
	}
	if !reflect.DeepEqual(result.FailedUpload, []string{"refused.jpg"}) {
		t.Errorf("Expected refused.jpg to fail upload, got %v", result.FailedUpload)
	}
	if len(result.Final) != 3 {
		t.Errorf("Expected final list to hold all local files, got %v", result.Final)
	}

	assertEmpty(t, f.temp)
}

func TestReconcileListingFailure(t *testing.T) {
	f := newFixture(t)
	imagingtest.Write(t, filepath.Join(f.input, "a.jpg"), imagingtest.JPEG(t, imagingtest.Solid(20, 10, color.NRGBA{A: 255}), 0))
	f.srv.Token = "required"

	result, err := f.reconciler().Run(context.Background(), f.request())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Uploaded) != 0 || !reflect.DeepEqual(result.FailedUpload, []string{"a.jpg"}) {
		t.Errorf("Expected unauthorized upload to be recorded as failed, got %+v", result)
	}
	if !reflect.DeepEqual(result.Final, []string{"a.jpg"}) {
		t.Errorf("Expected final list [a.jpg], got %v", result.Final)
	}
}

func TestReconcileMissingInput(t *testing.T) {
	f := newFixture(t)
	req := f.request()
	req.InputDir = filepath.Join(f.input, "nope")

	if _, err := f.reconciler().Run(context.Background(), req); err == nil {
		t.Error("Expected error for missing input directory")
	}
}

func assertEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected scratch space cleaned up, found %d entries", len(entries))
	}
}
