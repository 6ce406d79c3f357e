package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/patrickmn/go-cache"
)

const cacheHeader = "X-Cache"

type cachedResponse struct {
	status  int
	headers http.Header
	body    []byte
}

type bodyCacheWriter struct {
	*statusRecorder
	body *bytes.Buffer
}

func (w *bodyCacheWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.statusRecorder.Write(b)
}

// Cache кэширует успешные GET ответы в памяти по RequestURI.
// Подходит только для маршрутов, где допустима задержка актуальности в ttl.
func Cache(store *cache.Cache, ttl time.Duration) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			key := r.RequestURI
			if item, found := store.Get(key); found {
				cached := item.(cachedResponse)
				for k, v := range cached.headers {
					w.Header()[k] = v
				}
				w.Header().Set(cacheHeader, "HIT")
				w.WriteHeader(cached.status)
				_, _ = w.Write(cached.body)
				return
			}

			w.Header().Set(cacheHeader, "MISS")
			bw := &bodyCacheWriter{statusRecorder: newStatusRecorder(w), body: bytes.NewBuffer(nil)}
			next.ServeHTTP(bw, r)

			if bw.status >= 200 && bw.status < 300 {
				headers := bw.Header().Clone()
				headers.Del(cacheHeader)
				store.Set(key, cachedResponse{
					status:  bw.status,
					headers: headers,
					body:    bw.body.Bytes(),
				}, ttl)
			}
		})
	}
}
