package azure

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"go.uber.org/zap"
)

// BlobStorageClient wraps Azure Blob Storage SDK for report and
// announcement files
type BlobStorageClient struct {
	client                *azblob.Client
	reportContainer       string
	announcementContainer string
	logger                *zap.Logger
}

// NewBlobStorageClient creates a new Azure Blob Storage client
func NewBlobStorageClient(accountName, accountKey, reportContainer, announcementContainer string, logger *zap.Logger) (*BlobStorageClient, error) {
	if accountName == "" || accountKey == "" || reportContainer == "" || announcementContainer == "" {
		return nil, fmt.Errorf("accountName, accountKey, reportContainer and announcementContainer are required")
	}

	// Create service URL
	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", accountName)

	// Create shared key credential
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create shared key credential: %w", err)
	}

	// Create blob client
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}

	return &BlobStorageClient{
		client:                client,
		reportContainer:       reportContainer,
		announcementContainer: announcementContainer,
		logger:                logger,
	}, nil
}

// ReportBlobName returns the blob name of a patient report file
func ReportBlobName(patientID, filename string) string {
	return fmt.Sprintf("reports/%s/%s", patientID, filename)
}

// AnnouncementBlobName returns the blob name of a spoken reminder
func AnnouncementBlobName(patientID, notificationID string) string {
	return fmt.Sprintf("announcements/%s/%s.mp3", patientID, notificationID)
}

// UploadReport uploads a generated report of a patient
func (c *BlobStorageClient) UploadReport(ctx context.Context, patientID, filename, contentType string, data []byte) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename is required")
	}
	blobName := ReportBlobName(patientID, filename)
	if err := c.upload(ctx, c.reportContainer, blobName, contentType, data); err != nil {
		return "", fmt.Errorf("failed to upload report: %w", err)
	}
	return blobName, nil
}

// DownloadReport downloads a previously generated report
func (c *BlobStorageClient) DownloadReport(ctx context.Context, blobName string) ([]byte, error) {
	data, err := c.download(ctx, c.reportContainer, blobName)
	if err != nil {
		return nil, fmt.Errorf("failed to download report: %w", err)
	}
	return data, nil
}

// UploadAnnouncement uploads the synthesized audio of a reminder
func (c *BlobStorageClient) UploadAnnouncement(ctx context.Context, patientID, notificationID string, audioStream io.Reader) (string, error) {
	blobName := AnnouncementBlobName(patientID, notificationID)

	// Read audio data from stream
	audioData, err := io.ReadAll(audioStream)
	if err != nil {
		c.logger.Error("failed to read audio stream",
			zap.String("blob_name", blobName),
			zap.Error(err),
		)
		return "", fmt.Errorf("failed to read audio stream: %w", err)
	}

	if err := c.upload(ctx, c.announcementContainer, blobName, "audio/mpeg", audioData); err != nil {
		return "", fmt.Errorf("failed to upload announcement: %w", err)
	}
	return blobName, nil
}

// DownloadAnnouncement downloads the audio of a reminder
func (c *BlobStorageClient) DownloadAnnouncement(ctx context.Context, blobName string) ([]byte, error) {
	data, err := c.download(ctx, c.announcementContainer, blobName)
	if err != nil {
		return nil, fmt.Errorf("failed to download announcement: %w", err)
	}
	return data, nil
}

func (c *BlobStorageClient) upload(ctx context.Context, container, blobName, contentType string, data []byte) error {
	c.logger.Info("uploading blob",
		zap.String("container", container),
		zap.String("blob_name", blobName),
		zap.Int("size_bytes", len(data)),
	)

	// Get blob client
	blobClient := c.client.ServiceClient().NewContainerClient(container).NewBlockBlobClient(blobName)

	// Upload with metadata
	_, err := blobClient.UploadBuffer(ctx, data, &azblob.UploadBufferOptions{
		Metadata: map[string]*string{
			"contenttype": toPtr(contentType),
		},
	})
	if err != nil {
		c.logger.Error("failed to upload blob",
			zap.String("blob_name", blobName),
			zap.Error(err),
		)
		return err
	}

	c.logger.Info("blob uploaded successfully", zap.String("blob_name", blobName))
	return nil
}

func (c *BlobStorageClient) download(ctx context.Context, container, blobName string) ([]byte, error) {
	c.logger.Info("downloading blob",
		zap.String("container", container),
		zap.String("blob_name", blobName),
	)

	// Get blob client
	blobClient := c.client.ServiceClient().NewContainerClient(container).NewBlockBlobClient(blobName)

	// Download blob
	downloadResponse, err := blobClient.DownloadStream(ctx, nil)
	if err != nil {
		c.logger.Error("failed to download blob",
			zap.String("blob_name", blobName),
			zap.Error(err),
		)
		return nil, err
	}
	defer downloadResponse.Body.Close()

	// Read all data
	data, err := io.ReadAll(downloadResponse.Body)
	if err != nil {
		c.logger.Error("failed to read blob data",
			zap.String("blob_name", blobName),
			zap.Error(err),
		)
		return nil, err
	}

	c.logger.Info("blob downloaded successfully",
		zap.String("blob_name", blobName),
		zap.Int("size_bytes", len(data)),
	)

	return data, nil
}

// toPtr is a helper function to convert a value to a pointer
func toPtr(s string) *string {
	return &s
}
