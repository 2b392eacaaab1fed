package handler

import (
	"errors"
	"mime"
	"net/http"
	"path"
	"strconv"

	"poassistant/internal/gateway/export"
	artifactrepo "poassistant/internal/gateway/repository/artifact"
)

// publishedOwner rebuilds the artifact owner from the route. Only the two
// folders PublishExport writes to are served.
func publishedOwner(r *http.Request) (string, bool) {
	kind, id := r.PathValue("kind"), r.PathValue("id")
	if (kind != "sessions" && kind != "projects") || id == "" {
		return "", false
	}
	return kind + "/" + id, true
}

// HandlePublishedList serves GET /published/{kind}/{id}/ as a JSON name list.
func (s *Service) HandlePublishedList(w http.ResponseWriter, r *http.Request) {
	owner, ok := publishedOwner(r)
	if !ok || s.publisher == nil {
		http.NotFound(w, r)
		return
	}
	names, err := s.publisher.List(r.Context(), owner)
	if err != nil {
		writeHTTPError(w, err)
		return
	}
	writeJSON(w, struct {
		Owner string   `json:"owner"`
		Names []string `json:"names"`
	}{Owner: owner, Names: names})
}

// HandlePublished serves GET /published/{kind}/{id}/{name} from the artifact
// store, for stores that cannot hand out presigned links.
func (s *Service) HandlePublished(w http.ResponseWriter, r *http.Request) {
	owner, ok := publishedOwner(r)
	if !ok || s.publisher == nil {
		http.NotFound(w, r)
		return
	}
	name := r.PathValue("name")
	data, err := s.publisher.Fetch(r.Context(), owner, name)
	if errors.Is(err, artifactrepo.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		writeHTTPError(w, err)
		return
	}
	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

// publishedPath is where a published file can be fetched from this server.
func publishedPath(pub export.Published) string {
	return "/published/" + pub.Owner + "/" + pub.Name
}
