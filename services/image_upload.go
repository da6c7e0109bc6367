package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rpupo63/rooms-blog-backend/config"
	"github.com/rpupo63/rooms-blog-backend/errs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/webp"
)

const (
	// MaxImageSize is the largest upload accepted, 5MB
	MaxImageSize = 5 << 20

	DefaultImageBucket = "blog-images"
)

var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// ObjectPutter is the slice of the S3 client the uploader uses
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// RoomMembership answers whether a user may upload into a room
type RoomMembership interface {
	IsMember(ctx context.Context, roomID uuid.UUID, userID string) (bool, error)
}

type UploadedImage struct {
	URL    string `json:"url"`
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ImageUploader stores post images in an S3 compatible bucket under
// rooms/{roomId}/{userId}/{token}.{ext}.
type ImageUploader struct {
	client    ObjectPutter
	perms     RoomMembership
	bucket    string
	publicURL string
	logger    zerolog.Logger
}

func NewImageUploader(client ObjectPutter, perms RoomMembership, bucket, publicURL string) *ImageUploader {
	if bucket == "" {
		bucket = DefaultImageBucket
	}
	return &ImageUploader{
		client:    client,
		perms:     perms,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		logger:    log.With().Str("component", "imageUploader").Logger(),
	}
}

// NewImageUploaderFromConfig builds an S3 client for STORAGE_S3_ENDPOINT
// (Supabase storage speaks the S3 protocol). Public URLs are
// STORAGE_PUBLIC_URL/{path}, defaulting to the Supabase public object URL.
func NewImageUploaderFromConfig(ctx context.Context, cfg map[string]string, perms RoomMembership) (*ImageUploader, error) {
	bucket := config.GetString(cfg, "STORAGE_BUCKET", DefaultImageBucket)

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(config.GetString(cfg, "STORAGE_REGION", "us-east-1")),
	}
	if keyID := config.GetString(cfg, "STORAGE_ACCESS_KEY_ID", ""); keyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(keyID, config.GetString(cfg, "STORAGE_SECRET_ACCESS_KEY", ""), ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errs.NewConfigError("storage", err)
	}

	endpoint := config.GetString(cfg, "STORAGE_S3_ENDPOINT", "")
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	publicURL := config.GetString(cfg, "STORAGE_PUBLIC_URL", "")
	if publicURL == "" {
		if supabaseURL := config.GetString(cfg, "SUPABASE_URL", ""); supabaseURL != "" {
			publicURL = strings.TrimRight(supabaseURL, "/") + "/storage/v1/object/public/" + bucket
		}
	}
	if publicURL == "" {
		return nil, errs.NewEnvironmentVariableError("STORAGE_PUBLIC_URL")
	}
	return NewImageUploader(client, perms, bucket, publicURL), nil
}

// Upload checks the caller belongs to the room, then that the file is a
// real jpeg, png, gif or webp of at most MaxImageSize bytes, and stores it.
func (u *ImageUploader) Upload(ctx context.Context, userID string, roomID uuid.UUID, file io.Reader) (*UploadedImage, error) {
	if userID == "" {
		return nil, errs.Unauthorized
	}

	isMember, err := u.perms.IsMember(ctx, roomID, userID)
	if err != nil {
		u.logger.Error().Err(err).Str("roomID", roomID.String()).Msg("membership lookup failed, denying upload")
		denied := errs.NewPermissionDeniedError("You must be a member of this room to upload images")
		denied.Cause = err
		return nil, denied
	}
	if !isMember {
		return nil, errs.NewPermissionDeniedError("You must be a member of this room to upload images")
	}

	data, err := io.ReadAll(io.LimitReader(file, MaxImageSize+1))
	if err != nil {
		return nil, errs.NewBadRequestError("could not read file")
	}
	if len(data) == 0 {
		return nil, errs.NewValidationError("file", "No file provided")
	}
	if len(data) > MaxImageSize {
		return nil, errs.NewValidationError("file", "File too large. Maximum size is 5MB.")
	}

	contentType := http.DetectContentType(data)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, errs.NewValidationError("file", "Invalid file type. Only JPEG, PNG, GIF, and WebP are allowed.")
	}
	imgCfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, errs.NewValidationError("file", "File is not a readable image")
	}

	key := fmt.Sprintf("rooms/%s/%s/%s.%s", roomID, userID, strings.ReplaceAll(uuid.NewString(), "-", ""), ext)
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		u.logger.Error().Err(err).Str("key", key).Msg("image upload failed")
		return nil, errs.NewDependencyFailure("image storage", "upload image", err)
	}

	u.logger.Info().Str("key", key).Int("bytes", len(data)).Msg("image uploaded")
	return &UploadedImage{
		URL:    u.publicURL + "/" + key,
		Path:   key,
		Width:  imgCfg.Width,
		Height: imgCfg.Height,
	}, nil
}
