package handler

import (
	"encoding/xml"
	"fmt"
	"net/http"

	"pathwiki/internal/service"
)

// SeoHandler holds dependencies for SEO-related handlers.
type SeoHandler struct {
	pageService service.PageServicer
}

// NewSeoHandler creates a new SeoHandler.
func NewSeoHandler(ps service.PageServicer) *SeoHandler {
	return &SeoHandler{pageService: ps}
}

// robotsHandler serves a static robots.txt file.
func (h *SeoHandler) robotsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "User-agent: *")
	fmt.Fprintln(w, "Allow: /")
	fmt.Fprintln(w, "")
	// In a real deployment the domain would come from config.
	fmt.Fprintln(w, "Sitemap: http://localhost:8080/sitemap.xml")
}

const (
	sitemapDateFormat = "2006-01-02"
	baseURL           = "http://localhost:8080" // In a real deployment, get this from config
)

type sitemapURL struct {
	XMLName xml.Name `xml:"url"`
	Loc     string   `xml:"loc"`
	LastMod string   `xml:"lastmod"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// sitemapHandler generates and serves a dynamic sitemap.xml over every
// distinct page path.
func (h *SeoHandler) sitemapHandler(w http.ResponseWriter, r *http.Request) {
	refs, err := h.pageService.AllPaths(r.Context())
	if err != nil {
		http.Error(w, "Failed to retrieve pages for sitemap", http.StatusInternalServerError)
		return
	}

	sitemap := urlSet{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  make([]sitemapURL, len(refs)),
	}

	for i, ref := range refs {
		sitemap.URLs[i] = sitemapURL{
			Loc:     baseURL + ref.Path,
			LastMod: ref.UpdatedAt.Format(sitemapDateFormat),
		}
	}

	w.Header().Set("Content-Type", "application/xml")
	w.Write([]byte(xml.Header))
	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")
	if err := encoder.Encode(sitemap); err != nil {
		http.Error(w, "Failed to generate sitemap XML", http.StatusInternalServerError)
		return
	}
}
