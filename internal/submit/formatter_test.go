package submit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakanhub/listing/internal/backend"
	"github.com/sakanhub/listing/internal/form"
	"github.com/sakanhub/listing/internal/loader"
	"github.com/sakanhub/listing/internal/model"
)

const testOrigin = "https://cdn.example.com"

func testSession(mode model.Mode, res *loader.Result) *form.Session {
	if res == nil {
		res = &loader.Result{Data: model.DefaultFormData(24.7136, 46.6753)}
	}
	return form.NewSession(mode, 7, false, res, nil)
}

func uploadServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload/image", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"status": "success", "data": {"path": "%s/images/thumb.jpg", "url": "%s/images/thumb.jpg"}}`, testOrigin, testOrigin)
	})
	mux.HandleFunc("POST /upload/images", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(32<<20))
		results := make([]backend.UploadResult, len(r.MultipartForm.File["images[]"]))
		for i := range results {
			results[i] = backend.UploadResult{
				Path: fmt.Sprintf("%s/images/batch-%d.jpg", testOrigin, i),
				URL:  fmt.Sprintf("%s/images/batch-%d.jpg", testOrigin, i),
			}
		}
		data, _ := json.Marshal(results)
		fmt.Fprintf(w, `{"status": "success", "data": %s}`, data)
	})
	mux.HandleFunc("POST /properties/upload-deed-image", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"status": "success", "data": {"path": "%s/deeds/deed.jpg", "url": "%s/deeds/deed.jpg"}}`, testOrigin, testOrigin)
	})
	mux.HandleFunc("POST /video/upload", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"status": "success", "data": {"path": "", "url": "%s/videos/tour.mp4"}}`, testOrigin)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func stage(t *testing.T, s *form.Session) {
	t.Helper()
	require.NoError(t, s.Uploads.StageThumbnail(&model.File{Name: "t.jpg", ContentType: "image/jpeg", Size: 10}))
}

func TestFormatAssetAddressing(t *testing.T) {
	tests := []struct {
		name     string
		mode     model.Mode
		expected string
	}{
		{
			name:     "create carries origin-stripped path",
			mode:     model.ModeAdd,
			expected: "/images/thumb.jpg",
		},
		{
			name:     "update carries the absolute url",
			mode:     model.ModeEdit,
			expected: testOrigin + "/images/thumb.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := uploadServer(t)
			f := NewFormatter(backend.New(server.URL, "tok"), testOrigin)

			s := testSession(tt.mode, nil)
			stage(t, s)

			payload, err := f.Format(context.Background(), s)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, payload.FeaturedImage)
		})
	}
}

func TestFormatUntouchedSlotsKeepPreviews(t *testing.T) {
	server := uploadServer(t)
	f := NewFormatter(backend.New(server.URL, "tok"), testOrigin)

	res := &loader.Result{
		Data: model.DefaultFormData(0, 0),
		Previews: model.Previews{
			Thumbnail: "https://cdn.example.com/existing.jpg",
			Gallery:   []string{"https://cdn.example.com/g1.jpg", "https://cdn.example.com/g2.jpg"},
			DeedImage: "https://cdn.example.com/deed-old.jpg",
		},
		VideoPreview: "https://cdn.example.com/tour-old.mp4",
	}
	s := testSession(model.ModeEdit, res)

	payload, err := f.Format(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/existing.jpg", payload.FeaturedImage)
	assert.Equal(t, []string{"https://cdn.example.com/g1.jpg", "https://cdn.example.com/g2.jpg"}, payload.Gallery)
	assert.Equal(t, "https://cdn.example.com/deed-old.jpg", payload.DeedImage)
	assert.Equal(t, "https://cdn.example.com/tour-old.mp4", payload.VideoURL)
}

func TestFormatMixedGallerySplicesInOrder(t *testing.T) {
	server := uploadServer(t)
	f := NewFormatter(backend.New(server.URL, "tok"), testOrigin)

	res := &loader.Result{
		Data: model.DefaultFormData(0, 0),
		Previews: model.Previews{
			Gallery: []string{"https://cdn.example.com/kept.jpg"},
		},
	}
	s := testSession(model.ModeEdit, res)
	_, err := s.Uploads.StageGallery([]*model.File{
		{Name: "new1.jpg", ContentType: "image/jpeg", Size: 10},
		{Name: "new2.jpg", ContentType: "image/jpeg", Size: 10},
	})
	require.NoError(t, err)

	payload, err := f.Format(context.Background(), s)
	require.NoError(t, err)

	require.Len(t, payload.Gallery, 3)
	assert.Equal(t, "https://cdn.example.com/kept.jpg", payload.Gallery[0])
	assert.Equal(t, testOrigin+"/images/batch-0.jpg", payload.Gallery[1])
	assert.Equal(t, testOrigin+"/images/batch-1.jpg", payload.Gallery[2])
}

func TestFormatFeaturesShapePerMode(t *testing.T) {
	server := uploadServer(t)
	f := NewFormatter(backend.New(server.URL, "tok"), testOrigin)

	res := &loader.Result{Data: model.DefaultFormData(0, 0)}
	res.Data.Features = []string{"مسبح", "مصعد"}

	add := testSession(model.ModeAdd, res)
	stage(t, add)
	payload, err := f.Format(context.Background(), add)
	require.NoError(t, err)
	assert.Equal(t, "مسبح,مصعد", payload.Features, "create joins features into one string")

	edit := testSession(model.ModeEdit, res)
	payload, err = f.Format(context.Background(), edit)
	require.NoError(t, err)
	assert.Equal(t, []string{"مسبح", "مصعد"}, payload.Features, "update keeps the list form")
}

func TestFormatCoercion(t *testing.T) {
	server := uploadServer(t)
	f := NewFormatter(backend.New(server.URL, "tok"), testOrigin)

	res := &loader.Result{Data: model.DefaultFormData(0, 0)}
	res.Data.CategoryID = "3"
	res.Data.ProjectID = "not a number"
	res.Data.Price = "450000.50"
	res.Data.Characteristics = map[string]string{
		"bedrooms": "4",
		"size":     "garbage",
	}

	s := testSession(model.ModeEdit, res)
	payload, err := f.Format(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, int64(3), payload.CategoryID)
	assert.Equal(t, int64(0), payload.ProjectID, "unparseable ids default to zero")
	assert.Equal(t, 450000.50, payload.Price)
	assert.Equal(t, 4.0, payload.Characteristics["bedrooms"])
	assert.Equal(t, 0.0, payload.Characteristics["size"], "unparseable numbers default to zero")
	assert.Contains(t, payload.Characteristics, "bathrooms", "every known key is present")
}

func TestFormatSanitizesDescription(t *testing.T) {
	server := uploadServer(t)
	f := NewFormatter(backend.New(server.URL, "tok"), testOrigin)

	res := &loader.Result{Data: model.DefaultFormData(0, 0)}
	res.Data.Description = `<p>شقة واسعة</p><script>alert("x")</script>`

	s := testSession(model.ModeEdit, res)
	payload, err := f.Format(context.Background(), s)
	require.NoError(t, err)

	assert.Contains(t, payload.Description, "شقة واسعة")
	assert.NotContains(t, payload.Description, "<script>")
}

func TestFormatLeavesStatusUnset(t *testing.T) {
	server := uploadServer(t)
	f := NewFormatter(backend.New(server.URL, "tok"), testOrigin)

	s := testSession(model.ModeEdit, nil)
	payload, err := f.Format(context.Background(), s)
	require.NoError(t, err)
	assert.Nil(t, payload.Status, "status is stamped by the caller, never here")
}

func TestFormatBatchCountMismatch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload/images", func(w http.ResponseWriter, r *http.Request) {
		// One result for two files.
		fmt.Fprint(w, `{"status": "success", "data": [{"path": "/a.jpg", "url": ""}]}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	f := NewFormatter(backend.New(server.URL, "tok"), testOrigin)
	s := testSession(model.ModeEdit, nil)
	_, err := s.Uploads.StageGallery([]*model.File{
		{Name: "a.jpg", ContentType: "image/jpeg", Size: 10},
		{Name: "b.jpg", ContentType: "image/jpeg", Size: 10},
	})
	require.NoError(t, err)

	_, err = f.Format(context.Background(), s)
	assert.ErrorIs(t, err, backend.ErrUnexpectedResponse)
}
