package docs

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsense/gateway/internal/domain"
	"github.com/docsense/gateway/internal/intake"
)

// fakeForwarder records the forwarded payload and plays back a canned
// response or error.
type fakeForwarder struct {
	route   domain.Route
	payload any
	resp    []byte
	err     error
}

func (f *fakeForwarder) Forward(_ context.Context, route domain.Route, payload any) ([]byte, error) {
	f.route = route
	f.payload = payload
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func newTestHandler(t *testing.T, fwd Forwarder) (*Handler, string) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()
	in, err := intake.New(dir, logger)
	require.NoError(t, err)
	return NewHandler(in, fwd, logger), dir
}

func multipartUpload(t *testing.T, filename, mimeType, contents string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	hdr.Set("Content-Type", mimeType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write([]byte(contents))
	require.NoError(t, err)

	require.NoError(t, mw.WriteField("sessionId", "sess-123"))
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), "failure body must be the normalized shape")
	require.NotEmpty(t, body.Error)
	return body.Error
}

func TestHandleUpload_ForwardsStagedPath(t *testing.T) {
	fwd := &fakeForwarder{resp: []byte(`{"doc_id":"report.pdf"}`)}
	h, dir := newTestHandler(t, fwd)

	body, contentType := multipartUpload(t, "report.pdf", "application/pdf", "%PDF-1.4")
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.HandleUpload(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"doc_id":"report.pdf"}`, rec.Body.String())

	assert.Equal(t, domain.RouteProcessDocument, fwd.route)
	payload, ok := fwd.payload.(*domain.ProcessDocumentRequest)
	require.True(t, ok)
	assert.Equal(t, "report.pdf", payload.OriginalName)
	assert.Equal(t, "sess-123", payload.SessionID)
	assert.True(t, strings.HasPrefix(payload.FilePath, dir), "staged path should live in the staging dir")

	// The staged file is discarded once the forward attempt completes.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHandleUpload_DiscardsStagedFileOnForwardFailure(t *testing.T) {
	fwd := &fakeForwarder{err: domain.ErrDownstream("Document processing failed (status 502)")}
	h, dir := newTestHandler(t, fwd)

	body, contentType := multipartUpload(t, "report.pdf", "application/pdf", "%PDF-1.4")
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.HandleUpload(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	decodeError(t, rec)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHandleUpload_RejectsNonPDF(t *testing.T) {
	fwd := &fakeForwarder{resp: []byte(`{}`)}
	h, dir := newTestHandler(t, fwd)

	body, contentType := multipartUpload(t, "tool.exe", "application/pdf", "MZ")
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.HandleUpload(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Only PDF files are allowed.", decodeError(t, rec))
	assert.Empty(t, fwd.route, "downstream must not be called for invalid uploads")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing may be staged for invalid uploads")
}

func TestHandleUpload_MissingFileField(t *testing.T) {
	fwd := &fakeForwarder{}
	h, _ := newTestHandler(t, fwd)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("sessionId", "sess-123"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()

	h.HandleUpload(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	decodeError(t, rec)
}

func TestHandleAsk_ForwardsValidatedQuestion(t *testing.T) {
	fwd := &fakeForwarder{resp: []byte(`{"answer":"42","confidence_score":0.7}`)}
	h, _ := newTestHandler(t, fwd)

	req := httptest.NewRequest(http.MethodPost, "/ask",
		strings.NewReader(`{"question":"  what is the answer?  ","sessionId":"s"}`))
	rec := httptest.NewRecorder()

	h.HandleAsk(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"answer":"42","confidence_score":0.7}`, rec.Body.String())

	payload, ok := fwd.payload.(*domain.AskRequest)
	require.True(t, ok)
	assert.Equal(t, "what is the answer?", payload.Question, "question is trimmed before forwarding")
}

func TestHandleAsk_EmptyQuestion(t *testing.T) {
	fwd := &fakeForwarder{}
	h, _ := newTestHandler(t, fwd)

	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"question":"   "}`))
	rec := httptest.NewRecorder()

	h.HandleAsk(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Question cannot be empty", decodeError(t, rec))
	assert.Empty(t, fwd.route, "downstream must not be called for invalid questions")
}

func TestHandleAsk_OversizedQuestion(t *testing.T) {
	fwd := &fakeForwarder{}
	h, _ := newTestHandler(t, fwd)

	question := strings.Repeat("a", 2001)
	req := httptest.NewRequest(http.MethodPost, "/ask",
		strings.NewReader(`{"question":"`+question+`"}`))
	rec := httptest.NewRecorder()

	h.HandleAsk(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, fwd.route)
}

func TestHandleAsk_DownstreamFailureIsSingle500(t *testing.T) {
	fwd := &fakeForwarder{err: domain.ErrDownstream("Document processing service is unavailable")}
	h, _ := newTestHandler(t, fwd)

	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"question":"q"}`))
	rec := httptest.NewRecorder()

	h.HandleAsk(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Document processing service is unavailable", decodeError(t, rec))
}

func TestHandleSummarize_RelaysBody(t *testing.T) {
	fwd := &fakeForwarder{resp: []byte(`{"summary":"- point"}`)}
	h, _ := newTestHandler(t, fwd)

	req := httptest.NewRequest(http.MethodPost, "/summarize", strings.NewReader(`{"doc_ids":["d1"]}`))
	rec := httptest.NewRecorder()

	h.HandleSummarize(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"summary":"- point"}`, rec.Body.String())
	assert.Equal(t, domain.RouteSummarize, fwd.route)
}

func TestHandleCompare_BadJSON(t *testing.T) {
	fwd := &fakeForwarder{}
	h, _ := newTestHandler(t, fwd)

	req := httptest.NewRequest(http.MethodPost, "/compare", strings.NewReader(`{nope`))
	rec := httptest.NewRecorder()

	h.HandleCompare(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	decodeError(t, rec)
	assert.Empty(t, fwd.route)
}
