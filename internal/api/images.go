package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/saeid-a/tradechat/internal/models"
)

// UploadImage posts the image as multipart field "image" and returns the
// image id assigned by the server.
func (c *Client) UploadImage(ctx context.Context, filename string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("image", filepath.Base(filename))
	if err != nil {
		return "", fmt.Errorf("create image form field: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("copy image: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	var resp models.ImageResponse
	if err := c.do(ctx, http.MethodPost, "/v1/images", nil, &buf, writer.FormDataContentType(), &resp); err != nil {
		return "", err
	}
	if resp.ImageID == "" {
		return "", fmt.Errorf("upload image: empty image id in response")
	}
	return resp.ImageID, nil
}
