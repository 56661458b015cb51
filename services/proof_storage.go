package services

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	appConfig "github.com/barakat-platform/kitchen-orders-api/config"
)

// ProofStorage stores buyer payment screenshots. Staff never receive the
// raw bytes; notifications embed a short-lived presigned URL instead.
type ProofStorage interface {
	Put(ctx context.Context, orderID string, content []byte, contentType string) (string, error)
	URL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// S3ProofStorage keeps payment proofs in an S3 bucket
type S3ProofStorage struct {
	client *s3.Client
	bucket string
}

var proofStorageInstance ProofStorage

// InitProofStorage initializes the S3-backed proof storage
func InitProofStorage() (ProofStorage, error) {
	cfg := appConfig.GetConfig()

	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.AWSRegion),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	proofStorageInstance = &S3ProofStorage{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.AWSS3Bucket,
	}
	return proofStorageInstance, nil
}

// GetProofStorage returns the initialized proof storage instance
func GetProofStorage() ProofStorage {
	return proofStorageInstance
}

// SetProofStorage sets the proof storage instance (primarily for testing)
func SetProofStorage(storage ProofStorage) {
	proofStorageInstance = storage
}

// Put uploads a payment proof and returns its storage key
func (s *S3ProofStorage) Put(ctx context.Context, orderID string, content []byte, contentType string) (string, error) {
	key := fmt.Sprintf("proofs/%s_%d.png", orderID, time.Now().Unix())

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload payment proof: %w", err)
	}
	return key, nil
}

// URL generates a presigned URL valid for one hour
func (s *S3ProofStorage) URL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}

	presignClient := s3.NewPresignClient(s.client)
	request, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = time.Hour
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	log.Printf("Generated presigned proof URL for key %s", key)
	return request.URL, nil
}

// Delete removes a payment proof
func (s *S3ProofStorage) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete payment proof: %w", err)
	}
	return nil
}

// MockProofStorage is an in-memory ProofStorage for tests
type MockProofStorage struct {
	mu     sync.RWMutex
	proofs map[string][]byte
}

// NewMockProofStorage creates an empty mock proof storage
func NewMockProofStorage() *MockProofStorage {
	return &MockProofStorage{proofs: make(map[string][]byte)}
}

// SetAsMockForTesting sets this mock as the global proof storage instance
func (m *MockProofStorage) SetAsMockForTesting() {
	SetProofStorage(m)
}

// Put stores the proof in memory
func (m *MockProofStorage) Put(ctx context.Context, orderID string, content []byte, contentType string) (string, error) {
	key := fmt.Sprintf("proofs/mock_%s.png", orderID)
	m.mu.Lock()
	m.proofs[key] = content
	m.mu.Unlock()
	return key, nil
}

// URL returns a fake presigned URL when the key exists
func (m *MockProofStorage) URL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.proofs[key]; !ok {
		return "", fmt.Errorf("proof %s not found", key)
	}
	return "https://mock-bucket.example.com/" + key + "?signed=true", nil
}

// Delete removes the proof from memory
func (m *MockProofStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.proofs, key)
	m.mu.Unlock()
	return nil
}
