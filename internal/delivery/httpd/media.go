package httpd

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
)

// newMediaProxy отдает /media/* с сервера API, чтобы файлы открывались с того же origin.
func (h *Handler) newMediaProxy(origin string) (http.Handler, error) {
	if origin == "" {
		return http.NotFoundHandler(), nil
	}

	target, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("invalid media origin %q: %w", origin, err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("media origin %q must be absolute", origin)
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	director := proxy.Director
	proxy.Director = func(req *http.Request) {
		director(req)
		req.Host = target.Host
		// куки сессии фронтенда серверу API не нужны
		req.Header.Del("Cookie")
	}

	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		h.logger.Error().
			Err(err).
			Str("url", r.URL.String()).
			Str("target", target.String()).
			Msg("Media proxy error")
		http.Error(w, "Media is temporarily unavailable.", http.StatusBadGateway)
	}

	return proxy, nil
}
