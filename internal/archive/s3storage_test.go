package archive

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/Brownie44l1/riceleaf-api/internal/config"
	"github.com/Brownie44l1/riceleaf-api/internal/imaging/imagetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type putRecorder struct {
	mu          sync.Mutex
	path        string
	contentType string
	body        []byte
}

func (p *putRecorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	p.path = r.URL.Path
	p.contentType = r.Header.Get("Content-Type")
	p.body, _ = io.ReadAll(r.Body)
	w.Header().Set("ETag", `"etag"`)
	w.WriteHeader(http.StatusOK)
}

func TestS3StorageUpload(t *testing.T) {
	recorder := &putRecorder{}
	srv := httptest.NewServer(recorder)
	defer srv.Close()

	storage, err := NewS3Storage(&config.S3Config{
		EndpointUrl: srv.URL,
		AccessKey:   "test",
		SecretKey:   "test",
		Region:      "auto",
		Bucket:      "leaves",
		Folder:      "/uploads/",
	})
	require.NoError(t, err)

	data := imagetest.PNG(t, imagetest.Solid(2, 2, imagetest.LeafGreen))
	dest, err := storage.Upload(FileInfo{Folder: "Leaf_Blast", Name: "abc", Extension: ".png", Content: data})
	require.NoError(t, err)

	assert.Equal(t, "s3://leaves/uploads/Leaf_Blast/abc.png", dest)
	assert.Equal(t, "/leaves/uploads/Leaf_Blast/abc.png", recorder.path)
	assert.Equal(t, "image/png", recorder.contentType)
	assert.Equal(t, data, recorder.body)
}

func TestS3StorageRequiresConfig(t *testing.T) {
	_, err := NewS3Storage(nil)
	assert.Error(t, err)
}
