package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
)

// UploadField is the multipart form field the backend reads files from.
const UploadField = "arquivo"

// Upload sends an image as multipart/form-data and returns its public URL.
func (c *Client) Upload(ctx context.Context, filename string, content io.Reader) (string, error) {
	body, contentType, err := multipartBody(UploadField, filename, content)
	if err != nil {
		return "", err
	}

	var resp struct {
		envelope
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodPost, "/upload", body, contentType, &resp); err != nil {
		return "", err
	}
	if err := resp.rejected(http.StatusOK); err != nil {
		return "", err
	}
	if resp.URL == "" {
		return "", &ServerError{Status: http.StatusOK, Message: "upload returned no url"}
	}
	return resp.URL, nil
}

func multipartBody(field, filename string, content io.Reader) (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filepath.Base(filename)))
	header.Set("Content-Type", "image/jpeg")
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create form part: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, "", fmt.Errorf("copy upload content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return buf, writer.FormDataContentType(), nil
}
