package blob

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func TestFSPutAndURL(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFS(dir, "https://cdn.example.com/")
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}

	url, err := fs.Put(context.Background(), "avatars/u1/pic.png", "image/png", strings.NewReader("pngdata"), 7)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if url != "https://cdn.example.com/avatars/u1/pic.png" {
		t.Fatalf("unexpected url %q", url)
	}

	data, err := os.ReadFile(filepath.Join(dir, "avatars", "u1", "pic.png"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "pngdata" {
		t.Fatalf("unexpected contents %q", data)
	}
}

func TestFSRejectsTraversal(t *testing.T) {
	fs, err := NewFS(t.TempDir(), "http://localhost")
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}

	for _, key := range []string{"../escape.png", "/abs.png", "."} {
		if _, err := fs.Put(context.Background(), key, "image/png", strings.NewReader("x"), 1); err == nil {
			t.Fatalf("expected rejection for key %q", key)
		}
	}
}

type fakeS3 struct {
	input *s3.PutObjectInput
	err   error
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3Put(t *testing.T) {
	fake := &fakeS3{}
	store := &S3{client: fake, bucket: "avatars", baseURL: "https://cdn.example.com"}

	url, err := store.Put(context.Background(), "avatars/u1/pic.png", "image/png", strings.NewReader("pngdata"), 7)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if url != "https://cdn.example.com/avatars/u1/pic.png" {
		t.Fatalf("unexpected url %q", url)
	}
	if fake.input == nil || *fake.input.Bucket != "avatars" || *fake.input.Key != "avatars/u1/pic.png" {
		t.Fatalf("unexpected put input: %+v", fake.input)
	}
	if *fake.input.ContentType != "image/png" || *fake.input.ContentLength != 7 {
		t.Fatalf("unexpected metadata: %+v", fake.input)
	}
}

func TestS3PutError(t *testing.T) {
	fake := &fakeS3{err: errors.New("boom")}
	store := &S3{client: fake, bucket: "avatars", baseURL: "http://localhost/avatars"}

	if _, err := store.Put(context.Background(), "k", "image/png", strings.NewReader("x"), 1); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewS3Validation(t *testing.T) {
	if _, err := NewS3(S3Config{}); err == nil {
		t.Fatal("expected config error")
	}
	if _, err := NewS3(S3Config{Endpoint: "http://localhost:9000", Region: "us-east-1", Bucket: "b"}); err == nil {
		t.Fatal("expected credentials error")
	}
}
