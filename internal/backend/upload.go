package backend

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/sakanhub/listing/internal/model"
)

// UploadResult is the asset reference returned by the upload endpoints.
// Path is origin-relative, URL is absolute.
type UploadResult struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

type filePart struct {
	field string
	file  *model.File
}

func buildMultipart(fields map[string]string, files []filePart) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for key, value := range fields {
		if err := w.WriteField(key, value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", key, err)
		}
	}

	for _, fp := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`,
			fp.field, escapeQuotes(fp.file.Name)))
		header.Set("Content-Type", fp.file.ContentType)
		part, err := w.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("create part %s: %w", fp.field, err)
		}
		if _, err := part.Write(fp.file.Data); err != nil {
			return nil, "", fmt.Errorf("write part %s: %w", fp.field, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func escapeQuotes(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

// UploadImage uploads a single image via the generic uploader.
func (c *Client) UploadImage(ctx context.Context, f *model.File) (*UploadResult, error) {
	body, contentType, err := buildMultipart(nil, []filePart{{field: "image", file: f}})
	if err != nil {
		return nil, err
	}
	var res UploadResult
	if err := c.do(ctx, http.MethodPost, "/upload/image", body, contentType, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// UploadImages uploads a batch of images via the multi-file uploader.
// Results come back in request order.
func (c *Client) UploadImages(ctx context.Context, files []*model.File) ([]UploadResult, error) {
	parts := make([]filePart, 0, len(files))
	for _, f := range files {
		parts = append(parts, filePart{field: "images[]", file: f})
	}
	body, contentType, err := buildMultipart(nil, parts)
	if err != nil {
		return nil, err
	}
	var res []UploadResult
	if err := c.do(ctx, http.MethodPost, "/upload/images", body, contentType, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// UploadVideo uploads the listing video.
func (c *Client) UploadVideo(ctx context.Context, f *model.File) (*UploadResult, error) {
	body, contentType, err := buildMultipart(
		map[string]string{"context": "property"},
		[]filePart{{field: "video", file: f}},
	)
	if err != nil {
		return nil, err
	}
	var res UploadResult
	if err := c.do(ctx, http.MethodPost, "/video/upload", body, contentType, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// UploadDeedImage uploads the deed image through its dedicated endpoint.
func (c *Client) UploadDeedImage(ctx context.Context, f *model.File) (*UploadResult, error) {
	body, contentType, err := buildMultipart(nil, []filePart{{field: "deed_image", file: f}})
	if err != nil {
		return nil, err
	}
	var res UploadResult
	if err := c.do(ctx, http.MethodPost, "/properties/upload-deed-image", body, contentType, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
