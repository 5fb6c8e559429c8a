package azure

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// SpeechServiceClient wraps the Azure Speech Service text-to-speech REST API
type SpeechServiceClient struct {
	subscriptionKey string
	region          string
	voice           string
	ttsEndpoint     string // For testing purposes
	httpClient      *http.Client
	logger          *zap.Logger
}

// NewSpeechServiceClient creates a new Azure Speech Service client
func NewSpeechServiceClient(subscriptionKey, region, voice string, logger *zap.Logger) (*SpeechServiceClient, error) {
	if subscriptionKey == "" || region == "" {
		return nil, fmt.Errorf("subscriptionKey and region are required")
	}
	if voice == "" {
		voice = "es-ES-ElviraNeural"
	}

	return &SpeechServiceClient{
		subscriptionKey: subscriptionKey,
		region:          region,
		voice:           voice,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}, nil
}

func escapeSSML(text string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(text))
	return buf.String()
}

// TextToSpeech converts text to MP3 audio spoken in language
func (c *SpeechServiceClient) TextToSpeech(ctx context.Context, text string, language string) ([]byte, error) {
	c.logger.Info("starting text-to-speech synthesis",
		zap.String("language", language),
		zap.String("voice", c.voice),
		zap.Int("text_length", len(text)),
	)

	// Create SSML request
	ssml := fmt.Sprintf(`<speak version='1.0' xml:lang='%s'>
		<voice xml:lang='%s' name='%s'>
			%s
		</voice>
	</speak>`, language, language, c.voice, escapeSSML(text))

	// Create request to Text-to-Speech REST API
	url := fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", c.region)
	if c.ttsEndpoint != "" {
		url = c.ttsEndpoint + "/cognitiveservices/v1"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBufferString(ssml))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set headers
	req.Header.Set("Ocp-Apim-Subscription-Key", c.subscriptionKey)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", "audio-16khz-32kbitrate-mono-mp3")
	req.Header.Set("User-Agent", "VitalVision-Backend")

	// Send request
	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("text-to-speech request failed", zap.Error(err))
		return nil, fmt.Errorf("text-to-speech request failed: %w", err)
	}
	defer resp.Body.Close()

	// Check response status
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error("text-to-speech request failed",
			zap.Int("status_code", resp.StatusCode),
			zap.String("response", string(body)),
		)
		return nil, fmt.Errorf("text-to-speech request failed with status %d: %s", resp.StatusCode, string(body))
	}

	// Read audio data
	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}

	c.logger.Info("text-to-speech synthesis completed",
		zap.Int("audio_size_bytes", len(audioData)),
		zap.Duration("processing_time", time.Since(startTime)),
	)

	return audioData, nil
}
