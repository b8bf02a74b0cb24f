// Package vectorstore is a typed client for the external artifact store:
// upload a file's bytes, attach it to a named collection, detach and
// delete it, and refresh the collection after a batch of changes.
//
// The remote is OpenAI's vector-store/assistant REST API. No community
// Go SDK for it exists in the wider ecosystem at the fidelity this
// daemon needs (multipart file upload, vector-store file-batch
// lifecycle), so this client speaks the REST contract directly over
// net/http.
package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Client uploads article artifacts to one vector store collection.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New builds a Client. apiKey is sent as a Bearer token on every request.
func New(apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type fileObject struct {
	ID string `json:"id"`
}

// UploadBytes uploads raw content as a named file and returns its remote
// file id. It does not attach the file to any collection.
func (c *Client) UploadBytes(ctx context.Context, filename string, content []byte) (string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField("purpose", "assistants"); err != nil {
		return "", fmt.Errorf("vectorstore: write purpose field: %w", err)
	}
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("vectorstore: create form file: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return "", fmt.Errorf("vectorstore: write file content: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("vectorstore: close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files", &body)
	if err != nil {
		return "", fmt.Errorf("vectorstore: build upload request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	c.authorize(req)

	var fo fileObject
	if err := c.do(req, &fo); err != nil {
		return "", fmt.Errorf("vectorstore: upload %s: %w", filename, err)
	}
	return fo.ID, nil
}

// AttachToCollection adds a previously uploaded file to the named vector
// store collection.
func (c *Client) AttachToCollection(ctx context.Context, collectionID, fileID string) error {
	payload, err := json.Marshal(map[string]string{"file_id": fileID})
	if err != nil {
		return fmt.Errorf("vectorstore: encode attach payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/vector_stores/%s/files", c.baseURL, collectionID), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("vectorstore: build attach request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("vectorstore: attach file %s to %s: %w", fileID, collectionID, err)
	}
	return nil
}

// DetachAndDelete removes a file from the collection, then deletes the
// underlying file object. A missing file on either call is not an error
// (already-gone state is the desired end state).
func (c *Client) DetachAndDelete(ctx context.Context, collectionID, fileID string) error {
	detachReq, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		fmt.Sprintf("%s/vector_stores/%s/files/%s", c.baseURL, collectionID, fileID), nil)
	if err != nil {
		return fmt.Errorf("vectorstore: build detach request: %w", err)
	}
	c.authorize(detachReq)
	if err := c.do(detachReq, nil); err != nil && !isNotFound(err) {
		return fmt.Errorf("vectorstore: detach file %s from %s: %w", fileID, collectionID, err)
	}

	deleteReq, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		fmt.Sprintf("%s/files/%s", c.baseURL, fileID), nil)
	if err != nil {
		return fmt.Errorf("vectorstore: build delete request: %w", err)
	}
	c.authorize(deleteReq)
	if err := c.do(deleteReq, nil); err != nil && !isNotFound(err) {
		return fmt.Errorf("vectorstore: delete file %s: %w", fileID, err)
	}
	return nil
}

// RefreshCollection polls the collection once so its file counts and
// status reflect files attached or detached earlier in the same batch.
func (c *Client) RefreshCollection(ctx context.Context, collectionID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/vector_stores/%s", c.baseURL, collectionID), nil)
	if err != nil {
		return fmt.Errorf("vectorstore: build refresh request: %w", err)
	}
	c.authorize(req)

	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("vectorstore: refresh collection %s: %w", collectionID, err)
	}
	return nil
}

// SetBaseURL overrides the default OpenAI API host. Exposed for tests
// that point the client at a local fake server.
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
}

type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.status, e.body)
}

func isNotFound(err error) bool {
	se, ok := err.(*statusError)
	return ok && se.status == http.StatusNotFound
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return &statusError{status: resp.StatusCode, body: string(raw)}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
