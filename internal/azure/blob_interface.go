package azure

import (
	"context"
	"io"
)

// BlobStorage defines the interface for blob storage operations
// This interface allows for easier testing with mock implementations
type BlobStorage interface {
	UploadReport(ctx context.Context, patientID, filename, contentType string, data []byte) (string, error)
	DownloadReport(ctx context.Context, blobName string) ([]byte, error)
	UploadAnnouncement(ctx context.Context, patientID, notificationID string, audioStream io.Reader) (string, error)
	DownloadAnnouncement(ctx context.Context, blobName string) ([]byte, error)
}

// Ensure BlobStorageClient implements BlobStorage interface
var _ BlobStorage = (*BlobStorageClient)(nil)
var _ BlobStorage = (*MockBlobStorageClient)(nil)
