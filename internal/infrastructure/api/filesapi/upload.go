package filesapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/kirillkom/docshelf/internal/core/domain"
	"github.com/kirillkom/docshelf/internal/core/ports"
)

const maxUploadResponseBytes = 1 << 20

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// UploadFile streams req.Body as the "file" part of a multipart form,
// with an optional "title" field. onProgress sees the bytes of the whole
// request body written so far against its exact length. Uploads are never
// retried and carry no timeout beyond ctx.
func (c *Client) UploadFile(ctx context.Context, req ports.UploadRequest, onProgress domain.ProgressFunc) (*domain.UploadedFile, error) {
	if req.Body == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, opUploadFile, errors.New("upload body is nil"))
	}

	body, size := req.Body, req.Size
	if size <= 0 {
		raw, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("read %s body: %w", opUploadFile, err)
		}
		body, size = bytes.NewReader(raw), int64(len(raw))
	}

	form, err := newMultipartForm(req)
	if err != nil {
		return nil, err
	}
	total := int64(len(form.head)) + size + int64(len(form.tail))
	stream := &progressReader{
		r:          io.MultiReader(bytes.NewReader(form.head), io.LimitReader(body, size), bytes.NewReader(form.tail)),
		total:      total,
		onProgress: onProgress,
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", stream)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", opUploadFile, err)
	}
	httpReq.ContentLength = total
	httpReq.Header.Set("Content-Type", form.contentType)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, wrapAPIError(opUploadFile, &TransportError{Operation: opUploadFile, Err: err})
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, wrapAPIError(opUploadFile, newHTTPStatusError(opUploadFile, resp))
	}
	return decodeUploadResponse(resp.Body)
}

type multipartForm struct {
	head        []byte
	tail        []byte
	contentType string
}

// newMultipartForm renders everything around the file content so the
// content itself can be streamed without buffering.
func newMultipartForm(req ports.UploadRequest) (multipartForm, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if title := strings.TrimSpace(req.Title); title != "" {
		if err := mw.WriteField("title", title); err != nil {
			return multipartForm{}, fmt.Errorf("write title field: %w", err)
		}
	}

	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = "application/pdf"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(req.Name)))
	header.Set("Content-Type", mimeType)
	if _, err := mw.CreatePart(header); err != nil {
		return multipartForm{}, fmt.Errorf("create file part: %w", err)
	}
	head := append([]byte(nil), buf.Bytes()...)

	buf.Reset()
	if err := mw.Close(); err != nil {
		return multipartForm{}, fmt.Errorf("close multipart form: %w", err)
	}
	return multipartForm{
		head:        head,
		tail:        append([]byte(nil), buf.Bytes()...),
		contentType: mw.FormDataContentType(),
	}, nil
}

func decodeUploadResponse(r io.Reader) (*domain.UploadedFile, error) {
	raw, err := io.ReadAll(io.LimitReader(r, maxUploadResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", opUploadFile, err)
	}

	var envelope struct {
		File *domain.UploadedFile `json:"file"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", opUploadFile, err)
	}
	if envelope.File != nil {
		return envelope.File, nil
	}

	var bare domain.UploadedFile
	if err := json.Unmarshal(raw, &bare); err != nil || bare.ID == "" {
		return nil, fmt.Errorf("decode %s response: missing file record", opUploadFile)
	}
	return &bare, nil
}

type progressReader struct {
	r          io.Reader
	total      int64
	loaded     int64
	onProgress domain.ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.loaded += int64(n)
		if p.onProgress != nil {
			p.onProgress(domain.ProgressSample{Loaded: p.loaded, Total: p.total})
		}
	}
	return n, err
}
