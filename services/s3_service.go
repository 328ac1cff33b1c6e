package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const (
	photoPrefix      = "profile-photos/"
	presignExpiry    = 5 * time.Minute
	readLinkValidity = 24 * time.Hour
)

// PhotoService stores profile photos in S3 and hands out presigned URLs.
// Photo bytes never pass through this process.
type PhotoService struct {
	Client *s3.Client
	Bucket string
}

func NewPhotoService(cfg aws.Config, bucket string) *PhotoService {
	return &PhotoService{Client: s3.NewFromConfig(cfg), Bucket: bucket}
}

func (s *PhotoService) presigner() *s3.PresignClient {
	return s3.NewPresignClient(s.Client)
}

// GenerateUploadURL returns a presigned PUT URL plus the object key the
// client must report back once the upload finishes.
func (s *PhotoService) GenerateUploadURL(ctx context.Context, userID, fileName, fileType string) (string, string, error) {
	key := photoPrefix + userID + "/" + uuid.NewString() + "-" + fileName
	params := &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(fileType),
	}
	presigned, err := s.presigner().PresignPutObject(ctx, params, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", "", fmt.Errorf("presign upload: %w", err)
	}
	return presigned.URL, key, nil
}

// GenerateReadURL returns a presigned GET URL for a stored photo key.
func (s *PhotoService) GenerateReadURL(ctx context.Context, key string) (string, error) {
	params := &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	}
	presigned, err := s.presigner().PresignGetObject(ctx, params, s3.WithPresignExpires(readLinkValidity))
	if err != nil {
		return "", fmt.Errorf("presign read: %w", err)
	}
	return presigned.URL, nil
}

// ResolvePhotoRef copies a platform-hosted image into the photo bucket and
// returns the stored object key. The platform reference is a URL the chat
// provider exposes for a short window, so the copy pins the photo before the
// reference expires.
func (s *PhotoService) ResolvePhotoRef(ctx context.Context, userID, imageRef string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageRef, nil)
	if err != nil {
		return "", fmt.Errorf("build image fetch: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch platform image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch platform image: status %d", resp.StatusCode)
	}

	key := photoPrefix + userID + "/" + uuid.NewString()
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		Body:        resp.Body,
		ContentType: aws.String(resp.Header.Get("Content-Type")),
	}
	if resp.ContentLength >= 0 {
		input.ContentLength = aws.Int64(resp.ContentLength)
	}
	if _, err := s.Client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("store photo: %w", err)
	}
	return key, nil
}
