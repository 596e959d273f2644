package services

import (
	"fmt"
	"sync"
)

// MockS3Service is a mock implementation of S3Service for testing
type MockS3Service struct {
	artifacts map[string][]byte // map of S3 key to artifact content
	mu        sync.RWMutex

	// FailPresign makes GetPresignedURL fail to simulate S3 errors
	FailPresign bool
}

// NewMockS3Service creates a new mock S3 service
func NewMockS3Service() *MockS3Service {
	return &MockS3Service{
		artifacts: make(map[string][]byte),
	}
}

// SetAsMockForTesting sets this mock as the global S3 service instance for testing
func (m *MockS3Service) SetAsMockForTesting() {
	SetS3Service(m)
}

// UploadArtifact simulates storing an export artifact
func (m *MockS3Service) UploadArtifact(filename string, content []byte, contentType string) (string, error) {
	s3Key := fmt.Sprintf("exports/mock_%s", filename)

	stored := make([]byte, len(content))
	copy(stored, content)

	m.mu.Lock()
	m.artifacts[s3Key] = stored
	m.mu.Unlock()

	return s3Key, nil
}

// GetPresignedURL simulates generating a presigned URL
func (m *MockS3Service) GetPresignedURL(s3Key string) (string, error) {
	if m.FailPresign {
		return "", fmt.Errorf("mock presign failure for %s", s3Key)
	}
	if s3Key == "" {
		return "", nil
	}

	m.mu.RLock()
	_, exists := m.artifacts[s3Key]
	m.mu.RUnlock()

	if !exists {
		return "", fmt.Errorf("artifact not found in mock S3: %s", s3Key)
	}

	return fmt.Sprintf("https://test-bucket.s3.us-east-1.amazonaws.com/%s?mock=true", s3Key), nil
}

// DeleteArtifact simulates deleting a stored artifact
func (m *MockS3Service) DeleteArtifact(s3Key string) error {
	if s3Key == "" {
		return nil
	}

	m.mu.Lock()
	delete(m.artifacts, s3Key)
	m.mu.Unlock()

	return nil
}

// Artifacts returns all stored artifacts (for testing assertions)
func (m *MockS3Service) Artifacts() map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string][]byte, len(m.artifacts))
	for k, v := range m.artifacts {
		out[k] = v
	}
	return out
}

// ArtifactExists checks if an artifact exists in mock storage
func (m *MockS3Service) ArtifactExists(s3Key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.artifacts[s3Key]
	return exists
}

// Clear removes all artifacts from mock storage
func (m *MockS3Service) Clear() {
	m.mu.Lock()
	m.artifacts = make(map[string][]byte)
	m.mu.Unlock()
}
