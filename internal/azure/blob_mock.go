package azure

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// MockBlobStorageClient is an in-memory implementation of BlobStorage for
// local runs and tests
type MockBlobStorageClient struct {
	Storage map[string][]byte
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewMockBlobStorageClient creates a new mock blob storage client
func NewMockBlobStorageClient(logger *zap.Logger) *MockBlobStorageClient {
	return &MockBlobStorageClient{
		Storage: make(map[string][]byte),
		logger:  logger,
	}
}

// UploadReport stores a report in memory
func (c *MockBlobStorageClient) UploadReport(ctx context.Context, patientID, filename, contentType string, data []byte) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename is required")
	}
	blobName := ReportBlobName(patientID, filename)
	c.put(blobName, data)
	return blobName, nil
}

// DownloadReport reads a report from memory
func (c *MockBlobStorageClient) DownloadReport(ctx context.Context, blobName string) ([]byte, error) {
	return c.get(blobName)
}

// UploadAnnouncement stores reminder audio in memory
func (c *MockBlobStorageClient) UploadAnnouncement(ctx context.Context, patientID, notificationID string, audioStream io.Reader) (string, error) {
	// Read audio data from stream
	audioData, err := io.ReadAll(audioStream)
	if err != nil {
		return "", fmt.Errorf("failed to read audio stream: %w", err)
	}

	blobName := AnnouncementBlobName(patientID, notificationID)
	c.put(blobName, audioData)
	return blobName, nil
}

// DownloadAnnouncement reads reminder audio from memory
func (c *MockBlobStorageClient) DownloadAnnouncement(ctx context.Context, blobName string) ([]byte, error) {
	return c.get(blobName)
}

func (c *MockBlobStorageClient) put(blobName string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Storage[blobName] = bytes.Clone(data)

	if c.logger != nil {
		c.logger.Info("mock: blob uploaded",
			zap.String("blob_name", blobName),
			zap.Int("size_bytes", len(data)),
		)
	}
}

func (c *MockBlobStorageClient) get(blobName string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, exists := c.Storage[blobName]
	if !exists {
		return nil, fmt.Errorf("blob not found: %s", blobName)
	}

	return bytes.Clone(data), nil
}

// Clear removes all data from in-memory storage
func (c *MockBlobStorageClient) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Storage = make(map[string][]byte)
}

// ListBlobs returns all blob names in storage, sorted
func (c *MockBlobStorageClient) ListBlobs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	blobs := make([]string, 0, len(c.Storage))
	for name := range c.Storage {
		blobs = append(blobs, name)
	}
	sort.Strings(blobs)

	return blobs
}
