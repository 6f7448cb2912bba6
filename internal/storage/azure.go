package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// BlobStore implements Store on top of an Azure Blob Storage container.
type BlobStore struct {
	client    *azblob.Client
	container string
}

// blobClientOptions applies the shared transport policy. Transient storage
// faults retry inside the SDK so the pipeline only sees settled errors.
func blobClientOptions() *azblob.ClientOptions {
	return &azblob.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{MaxRetries: 3},
		},
	}
}

// NewBlobStore connects to the storage account at serviceURL using the
// default credential chain (env, workload identity, CLI).
func NewBlobStore(serviceURL, container string) (*BlobStore, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("building azure credential: %w", err)
	}

	client, err := azblob.NewClient(serviceURL, cred, blobClientOptions())
	if err != nil {
		return nil, fmt.Errorf("creating blob client: %w", err)
	}

	return &BlobStore{client: client, container: container}, nil
}

// NewBlobStoreFromConnectionString connects using a storage account
// connection string, for local development against Azurite.
func NewBlobStoreFromConnectionString(connectionString, container string) (*BlobStore, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, blobClientOptions())
	if err != nil {
		return nil, fmt.Errorf("creating blob client: %w", err)
	}
	return &BlobStore{client: client, container: container}, nil
}

func (s *BlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.client.DownloadStream(ctx, s.container, key, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("downloading %s: %w", key, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return data, nil
}

func (s *BlobStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	opts := &azblob.UploadBufferOptions{}
	if contentType != "" {
		opts.HTTPHeaders = &blob.HTTPHeaders{BlobContentType: &contentType}
	}
	if _, err := s.client.UploadBuffer(ctx, s.container, key, data, opts); err != nil {
		return fmt.Errorf("uploading %s: %w", key, err)
	}
	return nil
}

func (s *BlobStore) Head(ctx context.Context, key string) (ObjectInfo, error) {
	blobClient := s.client.ServiceClient().NewContainerClient(s.container).NewBlobClient(key)
	props, err := blobClient.GetProperties(ctx, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return ObjectInfo{}, ErrNotFound
		}
		return ObjectInfo{}, fmt.Errorf("getting properties of %s: %w", key, err)
	}

	info := ObjectInfo{Key: key}
	if props.ContentLength != nil {
		info.Size = *props.ContentLength
	}
	if props.LastModified != nil {
		info.LastModified = *props.LastModified
	}
	return info, nil
}

func (s *BlobStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	pager := s.client.NewListBlobsFlatPager(s.container, &azblob.ListBlobsFlatOptions{
		Prefix: &prefix,
	})

	var infos []ObjectInfo
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", prefix, err)
		}
		for _, item := range page.Segment.BlobItems {
			info := ObjectInfo{}
			if item.Name != nil {
				info.Key = *item.Name
			}
			if item.Properties != nil {
				if item.Properties.ContentLength != nil {
					info.Size = *item.Properties.ContentLength
				}
				if item.Properties.LastModified != nil {
					info.LastModified = *item.Properties.LastModified
				}
			}
			infos = append(infos, info)
		}
	}
	return infos, nil
}
