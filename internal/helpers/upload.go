package helpers

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const (
	AvatarFolder = "avatars"
	CoverFolder  = "covers"
)

// MediaUploader pushes a locally staged file to external media storage
// and returns a stable URL for the uploaded asset.
type MediaUploader interface {
	Upload(ctx context.Context, localPath, folder string) (string, error)
}

type CloudinaryUploader struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryUploader(cld *cloudinary.Cloudinary) *CloudinaryUploader {
	return &CloudinaryUploader{cld: cld}
}

func (cu *CloudinaryUploader) Upload(ctx context.Context, localPath, folder string) (string, error) {
	if strings.TrimSpace(localPath) == "" {
		return "", fmt.Errorf("no file path provided for upload")
	}

	uploadResult, err := cu.cld.Upload.Upload(ctx, localPath, uploader.UploadParams{
		Folder: folder,
		Tags:   []string{"streambay"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %v", localPath, err)
	}
	return uploadResult.SecureURL, nil
}
