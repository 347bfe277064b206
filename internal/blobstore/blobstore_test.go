package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/ksred/purchase-orders-api/pkg/apperror"
)

func TestFileStoreOverwrites(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := store.Put(ctx, "exports/po-1.csv", "text/csv", []byte("first")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Put(ctx, "exports/po-1.csv", "text/csv", []byte("second")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := store.Get(ctx, "exports/po-1.csv")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "second" {
		t.Fatalf("Get = %q, want second", got)
	}
}

func TestFileStoreMissingAndInvalidKeys(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := store.Get(ctx, "exports/none.csv"); !apperror.Is(err, apperror.KindNotFound) {
		t.Fatalf("Get missing: err = %v, want not found", err)
	}
	if err := store.Put(ctx, "../escape.csv", "text/csv", nil); !apperror.Is(err, apperror.KindValidation) {
		t.Fatalf("Put escape: err = %v, want validation", err)
	}
}

func TestFileStoreKeysWithDots(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	for _, key := range []string{"requests/o1/quote..v2.pdf", "exports/po..1.csv", "exports/..hidden.csv"} {
		if err := store.Put(ctx, key, "text/csv", []byte(key)); err != nil {
			t.Fatalf("Put(%q): %v", key, err)
		}
		got, err := store.Get(ctx, key)
		if err != nil {
			t.Fatalf("Get(%q): %v", key, err)
		}
		if string(got) != key {
			t.Fatalf("Get(%q) = %q", key, got)
		}
	}

	for _, key := range []string{"", "/", "..", "exports/../../x.csv", "a/.."} {
		if err := store.Put(ctx, key, "text/csv", nil); !apperror.Is(err, apperror.KindValidation) {
			t.Errorf("Put(%q): err = %v, want validation", key, err)
		}
	}
}

type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
	putErr  error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[key] = body
	f.types[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func TestS3StorePutGet(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	store := newS3Store(fake, "po-exports")

	if err := store.Put(ctx, "exports/po-1.csv", "text/csv", []byte("a,b\n")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if fake.types["po-exports/exports/po-1.csv"] != "text/csv" {
		t.Fatalf("content type not forwarded: %v", fake.types)
	}

	got, err := store.Get(ctx, "exports/po-1.csv")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "a,b\n" {
		t.Fatalf("Get = %q", got)
	}

	if _, err := store.Get(ctx, "exports/none.csv"); !apperror.Is(err, apperror.KindNotFound) {
		t.Fatalf("missing key: err = %v, want not found", err)
	}
}

func TestS3StoreBackendError(t *testing.T) {
	fake := newFakeS3()
	fake.putErr = errors.New("access denied")
	store := newS3Store(fake, "po-exports")

	err := store.Put(context.Background(), "k", "text/csv", []byte("x"))
	if !apperror.Is(err, apperror.KindBackendUnavailable) {
		t.Fatalf("err = %v, want backend unavailable", err)
	}
}
