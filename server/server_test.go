package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaos-io/nobg/matte"
	"github.com/chaos-io/nobg/util"
)

func testServer() *Server {
	return New(Options{
		Matte:          matte.DefaultConfig(),
		MaxUploadBytes: 64 << 10,
	}, nil)
}

// canvas is a w x h image filled with bg, with fg at (1,1).
func canvas(w, h int, bg, fg color.NRGBA) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, bg)
		}
	}
	img.SetNRGBA(1, 1, fg)
	var buf bytes.Buffer
	_ = util.EncodePNG(&buf, img)
	return buf.Bytes()
}

var (
	white = color.NRGBA{R: 250, G: 250, B: 250, A: 255}
	dark  = color.NRGBA{R: 10, G: 20, B: 30, A: 255}
)

func uploadRequest(t *testing.T, file []byte, fields map[string]string) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if file != nil {
		part, err := writer.CreateFormFile("image", "upload.png")
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/remove", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodePNG(t *testing.T, w *httptest.ResponseRecorder) image.Image {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	img, format, err := util.Decode(w.Body)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	return img
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body["request_id"])
	return body
}

func at(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	w := serve(testServer(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRemove_Upload(t *testing.T) {
	t.Parallel()

	w := serve(testServer(), uploadRequest(t, canvas(4, 4, white, dark), nil))
	img := decodePNG(t, w)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 0}, at(img, 0, 0))
	assert.Equal(t, dark, at(img, 1, 1))
}

func TestRemove_Options(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		bg     color.NRGBA
		fields map[string]string
		check  func(t *testing.T, img image.Image)
	}{
		{
			name:   "threshold is clamped to 250",
			bg:     color.NRGBA{R: 248, G: 248, B: 248, A: 255},
			fields: map[string]string{"threshold": "999"},
			check: func(t *testing.T, img image.Image) {
				assert.Equal(t, color.NRGBA{R: 248, G: 248, B: 248, A: 255}, at(img, 0, 0))
			},
		},
		{
			name:   "feather",
			bg:     color.NRGBA{R: 225, G: 225, B: 225, A: 255},
			fields: map[string]string{"feather": "true"},
			check: func(t *testing.T, img image.Image) {
				assert.Equal(t, color.NRGBA{R: 225, G: 225, B: 225, A: 30}, at(img, 0, 0))
			},
		},
		{
			name:   "trim",
			bg:     white,
			fields: map[string]string{"trim": "1"},
			check: func(t *testing.T, img image.Image) {
				assert.Equal(t, image.Rect(0, 0, 1, 1), img.Bounds())
				assert.Equal(t, dark, at(img, 0, 0))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := serve(testServer(), uploadRequest(t, canvas(4, 4, tt.bg, dark), tt.fields))
			tt.check(t, decodePNG(t, w))
		})
	}
}

func TestRemove_BadRequests(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		req      func(t *testing.T) *http.Request
		wantCode int
		wantErr  string
	}{
		{
			name:     "no input",
			req:      func(t *testing.T) *http.Request { return uploadRequest(t, nil, nil) },
			wantCode: http.StatusBadRequest,
			wantErr:  "missing",
		},
		{
			name:     "not an image",
			req:      func(t *testing.T) *http.Request { return uploadRequest(t, []byte("hello"), nil) },
			wantCode: http.StatusBadRequest,
			wantErr:  "unknown format",
		},
		{
			name: "bad threshold",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, canvas(2, 2, white, dark), map[string]string{"threshold": "abc"})
			},
			wantCode: http.StatusBadRequest,
			wantErr:  "invalid threshold",
		},
		{
			name:     "too large",
			req:      func(t *testing.T) *http.Request { return uploadRequest(t, bytes.Repeat([]byte{1}, 128<<10), nil) },
			wantCode: http.StatusRequestEntityTooLarge,
			wantErr:  "too large",
		},
		{
			name: "unsupported url scheme",
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/v1/remove?url="+url.QueryEscape("ftp://example.com/a.png"), nil)
			},
			wantCode: http.StatusBadRequest,
			wantErr:  "unsupported url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := serve(testServer(), tt.req(t))
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Contains(t, errorBody(t, w)["error"], tt.wantErr)
		})
	}
}

func TestRemove_URL(t *testing.T) {
	t.Parallel()

	png := canvas(3, 3, white, dark)
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			_, _ = w.Write(png)
		case "/text":
			_, _ = w.Write([]byte("plain text"))
		case "/huge.png":
			_, _ = w.Write(make([]byte, 65<<10))
		default:
			http.NotFound(w, r)
		}
	}))
	defer origin.Close()

	s := testServer()
	post := func(u string) *httptest.ResponseRecorder {
		form := url.Values{"url": {u}}
		req := httptest.NewRequest(http.MethodPost, "/v1/remove", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return serve(s, req)
	}

	img := decodePNG(t, post(origin.URL+"/ok.png"))
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 0}, at(img, 0, 0))

	w := post(origin.URL + "/missing.png")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, errorBody(t, w)["error"], "status 404")

	w = post(origin.URL + "/text")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post(origin.URL + "/huge.png")
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "remote image too large", errorBody(t, w)["error"])
}
