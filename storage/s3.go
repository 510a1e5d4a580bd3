package storage

import (
	"bytes"
	"fmt"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"

	"studiopulse_go/config"
)

// StorageService stores uploaded images (organization logos, student photos)
// and generated export files in S3.
type StorageService struct {
	s3Client *s3.S3
	bucket   string
}

// NewStorageService creates a new storage service
func NewStorageService() (*StorageService, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(config.AppConfig.AWSRegion),
		Credentials: credentials.NewStaticCredentials(
			config.AppConfig.AWSAccessKeyID,
			config.AppConfig.AWSSecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %v", err)
	}

	return &StorageService{
		s3Client: s3.New(sess),
		bucket:   config.AppConfig.S3BucketName,
	}, nil
}

// UploadFile uploads a file to S3, converting images to WebP first.
func (s *StorageService) UploadFile(file *multipart.FileHeader, folder string, organizationID uint) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %v", err)
	}
	defer src.Close()

	fileBytes, err := io.ReadAll(src)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %v", err)
	}

	var finalBytes []byte
	var finalExtension string

	if s.isImageFile(file.Filename) {
		webpBytes, err := s.convertToWebP(fileBytes)
		if err != nil {
			return "", fmt.Errorf("failed to convert to WebP: %v", err)
		}
		finalBytes = webpBytes
		finalExtension = "webp"
	} else {
		finalBytes = fileBytes
		finalExtension = s.getFileExtension(file.Filename)
	}

	return s.putObject(folder, organizationID, finalExtension, finalBytes)
}

// UploadBytes uploads an in-memory file, such as a generated XLSX export.
func (s *StorageService) UploadBytes(data []byte, folder string, organizationID uint, extension string) (string, error) {
	return s.putObject(folder, organizationID, extension, data)
}

func (s *StorageService) putObject(folder string, organizationID uint, extension string, data []byte) (string, error) {
	now := time.Now()
	randomID := uuid.New().String()[:16]
	key := fmt.Sprintf("%s/%d/%d/%02d/%02d/%s.%s",
		folder,
		organizationID,
		now.Year(),
		now.Month(),
		now.Day(),
		randomID,
		extension,
	)

	_, err := s.s3Client.PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(s.getContentType(extension)),
		ACL:         aws.String("public-read"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %v", err)
	}

	url := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s",
		s.bucket,
		config.AppConfig.AWSRegion,
		key,
	)
	return url, nil
}

// DeleteFile deletes a file from S3
func (s *StorageService) DeleteFile(fileURL string) error {
	key := s.extractKeyFromURL(fileURL)
	if key == "" {
		return fmt.Errorf("invalid file URL")
	}

	_, err := s.s3Client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})

	return err
}

// isImageFile checks if the file is an image based on extension
func (s *StorageService) isImageFile(filename string) bool {
	ext := strings.ToLower(s.getFileExtension(filename))
	imageExtensions := []string{"jpg", "jpeg", "png", "gif", "bmp", "tiff"}

	for _, imgExt := range imageExtensions {
		if ext == imgExt {
			return true
		}
	}
	return false
}

// getFileExtension extracts file extension from filename
func (s *StorageService) getFileExtension(filename string) string {
	ext := filepath.Ext(filename)
	if len(ext) > 1 {
		return strings.ToLower(ext[1:])
	}
	return ""
}

// convertToWebP converts image to WebP format using the external cwebp tool
// when available (avoids cgo/libwebp linking). Falls back to the original
// bytes when the tool is missing or fails.
func (s *StorageService) convertToWebP(imageBytes []byte) ([]byte, error) {
	cwebpPath, err := exec.LookPath("cwebp")
	if err != nil {
		return imageBytes, nil
	}

	inFile, err := os.CreateTemp("", "img-input-*")
	if err != nil {
		return imageBytes, nil
	}
	defer func() {
		inFile.Close()
		os.Remove(inFile.Name())
	}()

	if _, err := inFile.Write(imageBytes); err != nil {
		return imageBytes, nil
	}

	outFile, err := os.CreateTemp("", "img-out-*.webp")
	if err != nil {
		return imageBytes, nil
	}
	outFile.Close()
	defer os.Remove(outFile.Name())

	cmd := exec.Command(cwebpPath, "-q", "80", inFile.Name(), "-o", outFile.Name())
	if err := cmd.Run(); err != nil {
		return imageBytes, nil
	}

	outBytes, err := os.ReadFile(outFile.Name())
	if err != nil {
		return imageBytes, nil
	}

	return outBytes, nil
}

// getContentType returns the MIME type for the file extension
func (s *StorageService) getContentType(extension string) string {
	switch strings.ToLower(extension) {
	case "webp":
		return "image/webp"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "csv":
		return "text/csv"
	case "pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// extractKeyFromURL extracts the S3 key from a full URL
func (s *StorageService) extractKeyFromURL(url string) string {
	// Example URL: https://bucket.s3.region.amazonaws.com/path/to/file.ext
	parts := strings.Split(url, ".amazonaws.com/")
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}
