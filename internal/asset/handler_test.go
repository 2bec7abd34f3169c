package asset

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartImage(t *testing.T, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="hall.jpg"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func TestUploadLoadDelete(t *testing.T) {
	h := NewHandler(t.TempDir())

	src := image.NewRGBA(image.Rect(0, 0, 40, 30))
	src.Set(1, 1, color.RGBA{200, 10, 10, 255})
	var jpg bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpg, src, nil))

	body, ct := multipartImage(t, "image/jpeg", jpg.Bytes())
	req := httptest.NewRequest(http.MethodPost, "/assets/upload", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	h.Upload(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 40, resp.Width)
	assert.Equal(t, resp.ID+".png", resp.Name)

	img, err := h.Load(resp.Name)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(40, 30), img.Bounds().Size())

	rec = httptest.NewRecorder()
	h.Serve().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, resp.URL, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Cache-Control"), "immutable")

	require.NoError(t, h.Delete(resp.Name))
	_, err = h.Load(resp.Name)
	assert.Error(t, err)
}

func TestUploadRejectsOtherTypes(t *testing.T) {
	h := NewHandler(t.TempDir())
	body, ct := multipartImage(t, "text/plain", []byte("hello"))
	req := httptest.NewRequest(http.MethodPost, "/assets/upload", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	h.Upload(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPathRejectsTraversal(t *testing.T) {
	h := NewHandler(t.TempDir())
	for _, name := range []string{"", "../secret.png", "a/b.png", ".hidden"} {
		_, err := h.Path(name)
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}
}
