package archive //nolint:testpackage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/oracle/oci-go-sdk/v65/objectstorage"
)

var errPutObjectFailed = errors.New("object storage: put object failed")

type fakeObjectStorageClient struct {
	requests []objectstorage.PutObjectRequest
	err      error
}

func (f *fakeObjectStorageClient) PutObject(
	_ context.Context,
	request objectstorage.PutObjectRequest,
) (objectstorage.PutObjectResponse, error) {
	if f.err != nil {
		return objectstorage.PutObjectResponse{}, f.err
	}

	if _, err := io.ReadAll(request.PutObjectBody); err != nil {
		return objectstorage.PutObjectResponse{}, err
	}

	f.requests = append(f.requests, request)

	return objectstorage.PutObjectResponse{}, nil
}

func TestClientArchiveUploadsFileUnderItsBaseName(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "0007")

	if err := os.WriteFile(path, []byte("results"), 0o644); err != nil {
		t.Fatalf("failed to write fixture file: %v", err)
	}

	fake := &fakeObjectStorageClient{}

	client, err := newTestClient(fake, "ns", "bucket", "ocid1.compartment.oc1..test")
	if err != nil {
		t.Fatalf("newTestClient returned unexpected error: %v", err)
	}

	if err := client.Archive(context.Background(), path); err != nil {
		t.Fatalf("Archive returned unexpected error: %v", err)
	}

	if len(fake.requests) != 1 {
		t.Fatalf("expected exactly one PutObject call, got %d", len(fake.requests))
	}

	got := fake.requests[0]
	if got.ObjectName == nil || *got.ObjectName != "0007" {
		t.Fatalf("expected object name %q, got %v", "0007", got.ObjectName)
	}

	if got.NamespaceName == nil || *got.NamespaceName != "ns" {
		t.Fatalf("expected namespace %q, got %v", "ns", got.NamespaceName)
	}

	if got.BucketName == nil || *got.BucketName != "bucket" {
		t.Fatalf("expected bucket %q, got %v", "bucket", got.BucketName)
	}
}

func TestClientArchivePropagatesPutObjectErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "0001")

	if err := os.WriteFile(path, []byte("results"), 0o644); err != nil {
		t.Fatalf("failed to write fixture file: %v", err)
	}

	client, err := newTestClient(&fakeObjectStorageClient{err: errPutObjectFailed}, "ns", "bucket", "ocid1.compartment.oc1..test")
	if err != nil {
		t.Fatalf("newTestClient returned unexpected error: %v", err)
	}

	if err := client.Archive(context.Background(), path); err == nil {
		t.Fatal("expected Archive to propagate the PutObject error")
	}
}

func TestClientArchiveMissingFileReturnsError(t *testing.T) {
	t.Parallel()

	client, err := newTestClient(&fakeObjectStorageClient{}, "ns", "bucket", "ocid1.compartment.oc1..test")
	if err != nil {
		t.Fatalf("newTestClient returned unexpected error: %v", err)
	}

	if err := client.Archive(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected Archive to fail reading a missing file")
	}
}

func TestNewTestClientRejectsMissingFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		namespace     string
		bucket        string
		compartmentID string
	}{
		{name: "missing namespace", namespace: "", bucket: "bucket", compartmentID: "ocid1.compartment.oc1..test"},
		{name: "missing bucket", namespace: "ns", bucket: "", compartmentID: "ocid1.compartment.oc1..test"},
		{name: "missing compartment", namespace: "ns", bucket: "bucket", compartmentID: ""},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := newTestClient(&fakeObjectStorageClient{}, tt.namespace, tt.bucket, tt.compartmentID); err == nil {
				t.Fatalf("expected an error for %s", tt.name)
			}
		})
	}
}

func TestNewTestClientRejectsNilClient(t *testing.T) {
	t.Parallel()

	if _, err := newTestClient(nil, "ns", "bucket", "ocid1.compartment.oc1..test"); err == nil {
		t.Fatal("expected an error for a nil object storage client")
	}
}
