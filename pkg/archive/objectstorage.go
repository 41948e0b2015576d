// Package archive optionally uploads completed batch output files to OCI
// Object Storage, so a batch run's results survive past the local
// filesystem it was driven from.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/oracle/oci-go-sdk/v65/common/auth"
	"github.com/oracle/oci-go-sdk/v65/objectstorage"
)

var (
	errMissingBucket        = errors.New("archive: bucket is required")
	errMissingNamespace     = errors.New("archive: namespace is required")
	errMissingCompartmentID = errors.New("archive: compartment ID is required")
	errMissingClient        = errors.New("archive: object storage client is required")
	errNilClient            = errors.New("archive: client receiver is nil")
)

type objectStorageClient interface {
	PutObject(
		ctx context.Context,
		request objectstorage.PutObjectRequest,
	) (objectstorage.PutObjectResponse, error)
}

// Client archives local files into a single OCI Object Storage bucket,
// one object per archived file named after its base filename.
type Client struct {
	objects       objectStorageClient
	namespace     string
	bucket        string
	compartmentID string
}

// NewInstancePrincipalClient constructs a Client backed by the OCI Go SDK
// using instance principal authentication, the same credential source the
// batch driver's host would use when running on OCI compute.
func NewInstancePrincipalClient(namespace, bucket, compartmentID string) (*Client, error) {
	if namespace == "" {
		return nil, errMissingNamespace
	}

	if bucket == "" {
		return nil, errMissingBucket
	}

	if compartmentID == "" {
		return nil, errMissingCompartmentID
	}

	provider, err := auth.InstancePrincipalConfigurationProvider()
	if err != nil {
		return nil, fmt.Errorf("build instance principal provider: %w", err)
	}

	objectStorageClient, err := objectstorage.NewObjectStorageClientWithConfigurationProvider(provider)
	if err != nil {
		return nil, fmt.Errorf("create object storage client: %w", err)
	}

	return newClient(&objectStorageClient, namespace, bucket, compartmentID)
}

func newClient(objects objectStorageClient, namespace, bucket, compartmentID string) (*Client, error) {
	if objects == nil {
		return nil, errMissingClient
	}

	if namespace == "" {
		return nil, errMissingNamespace
	}

	if bucket == "" {
		return nil, errMissingBucket
	}

	if compartmentID == "" {
		return nil, errMissingCompartmentID
	}

	return &Client{
		objects:       objects,
		namespace:     namespace,
		bucket:        bucket,
		compartmentID: compartmentID,
	}, nil
}

// Archive reads the local file at path and uploads it to the configured
// bucket under an object name equal to its base filename. Archival
// failure never fails the batch that produced the file; callers log and
// continue.
func (c *Client) Archive(ctx context.Context, path string) error {
	if c == nil {
		return errNilClient
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %q for archival: %w", path, err)
	}

	objectName := filepath.Base(path)

	request := objectstorage.PutObjectRequest{
		NamespaceName: &c.namespace,
		BucketName:    &c.bucket,
		ObjectName:    &objectName,
		ContentLength: int64Ptr(int64(len(data))),
		PutObjectBody: io.NopCloser(bytes.NewReader(data)),
	}

	_, err = c.objects.PutObject(ctx, request)
	if err != nil {
		return fmt.Errorf("put object %q: %w", objectName, err)
	}

	return nil
}

func int64Ptr(v int64) *int64 {
	return &v
}

// newTestClient exposes the constructor hook for unit tests.
func newTestClient(objects objectStorageClient, namespace, bucket, compartmentID string) (*Client, error) {
	return newClient(objects, namespace, bucket, compartmentID)
}
