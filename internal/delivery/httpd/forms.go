package httpd

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Aidensmirk/online-learning-platform/internal/models"
	"github.com/go-chi/chi/v5"
)

const maxUploadSize = 32 << 20

// urlID читает положительный id из параметра маршрута.
func urlID(r *http.Request, key string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func queryID(r *http.Request, key string) int64 {
	id, err := strconv.ParseInt(r.URL.Query().Get(key), 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}

// parseForm разбирает и обычные, и multipart формы.
func parseForm(r *http.Request) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.ParseMultipartForm(maxUploadSize)
	}
	return r.ParseForm()
}

func formInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(r.FormValue(key)))
	if err != nil {
		return def
	}
	return v
}

func formInt64(r *http.Request, key string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(r.FormValue(key)), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func formBool(r *http.Request, key string) bool {
	switch strings.ToLower(r.FormValue(key)) {
	case "1", "on", "true", "yes":
		return true
	}
	return false
}

// formTime разбирает значение datetime-local; пустая строка - nil.
func formTime(r *http.Request, key string) (*time.Time, error) {
	raw := strings.TrimSpace(r.FormValue(key))
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return &t, nil
		}
	}
	return nil, errors.New("invalid date")
}

// formFile возвращает загруженный файл или nil, если поле пустое.
func formFile(r *http.Request, key string) (*models.FileUpload, func(), error) {
	if r.MultipartForm == nil {
		return nil, func() {}, nil
	}
	file, header, err := r.FormFile(key)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, func() {}, nil
		}
		return nil, func() {}, err
	}
	if header.Size == 0 {
		file.Close()
		return nil, func() {}, nil
	}
	return &models.FileUpload{FileName: header.Filename, Content: file}, func() { file.Close() }, nil
}
