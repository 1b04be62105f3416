package client

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Wal-20/studysphere-cli/internal/models"
	"github.com/Wal-20/studysphere-cli/internal/utils"
)

// UploadDocument posts a local file to the group as a document message.
func (c *APIClient) UploadDocument(groupID int64, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	_ = w.WriteField("groupId", strconv.FormatInt(groupID, 10))
	_ = w.WriteField("senderId", strconv.FormatInt(c.CurrentUser().ID, 10))
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/documents/upload", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	_, err = c.doRequest(req)
	return err
}

func (c *APIClient) GroupDocuments(groupID int64) ([]models.Document, error) {
	var docs []models.Document
	body, err := c.get(fmt.Sprintf("/documents/group/%d", groupID))
	if err != nil {
		return nil, err
	}
	err = decode(body, &docs)
	return docs, err
}

// DownloadDocument saves the document attached to a message into dir and
// returns the written path. The server's filename wins over fallbackName.
func (c *APIClient) DownloadDocument(messageID, dir, fallbackName string) (string, error) {
	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/documents/%s", c.baseURL, messageID), nil)
	if err != nil {
		return "", err
	}
	if token := c.token(); token != "" {
		if utils.TokenExpired(token, c.now()) {
			return "", ErrSessionExpired
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(body)}
	}

	name := fallbackName
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		name = params["filename"]
	}
	name = filepath.Base(name)
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", errors.New("document has no usable filename")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	dest := filepath.Join(dir, name)
	out, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return "", err
	}
	return dest, out.Close()
}
