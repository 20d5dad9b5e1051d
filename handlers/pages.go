package handlers

import (
	"embed"
	"encoding/json"
	"html/template"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"nido/config"
)

//go:embed templates/*.html
var templatesFS embed.FS

// PagesHandler renders the four app pages and the login page.
type PagesHandler struct {
	login     *template.Template
	watchlist *template.Template
	planes    *template.Template
	metas     *template.Template
	ruleta    *template.Template

	app config.AppSettings
}

func NewPagesHandler(app config.AppSettings) *PagesHandler {
	base := template.Must(template.ParseFS(templatesFS, "templates/base.html"))

	page := func(name string) *template.Template {
		return template.Must(template.Must(base.Clone()).ParseFS(templatesFS, "templates/"+name))
	}

	return &PagesHandler{
		login:     page("login.html"),
		watchlist: page("watchlist.html"),
		planes:    page("planes.html"),
		metas:     page("metas.html"),
		ruleta:    page("ruleta.html"),
		app:       app,
	}
}

func (h *PagesHandler) data(active string) map[string]any {
	return map[string]any{
		"App":        h.app,
		"ActivePage": active,
	}
}

func (h *PagesHandler) Login(w http.ResponseWriter, r *http.Request) {
	data := h.data("login")
	data["Next"] = r.URL.Query().Get("next")
	h.login.ExecuteTemplate(w, "login", data)
}

func (h *PagesHandler) Watchlist(w http.ResponseWriter, r *http.Request) {
	h.watchlist.ExecuteTemplate(w, "watchlist", h.data("watchlist"))
}

func (h *PagesHandler) Planes(w http.ResponseWriter, r *http.Request) {
	h.planes.ExecuteTemplate(w, "planes", h.data("planes"))
}

func (h *PagesHandler) Metas(w http.ResponseWriter, r *http.Request) {
	h.metas.ExecuteTemplate(w, "metas", h.data("metas"))
}

func (h *PagesHandler) Ruleta(w http.ResponseWriter, r *http.Request) {
	h.ruleta.ExecuteTemplate(w, "ruleta", h.data("ruleta"))
}

// Manifest serves the installable web app manifest built from settings.
func (h *PagesHandler) Manifest(w http.ResponseWriter, r *http.Request) {
	base := h.app.BasePath
	manifest := map[string]any{
		"name":             h.app.Name,
		"short_name":       h.app.ShortName,
		"start_url":        base + "/watchlist",
		"scope":            base + "/",
		"display":          "standalone",
		"theme_color":      h.app.ThemeColor,
		"background_color": h.app.BackgroundColor,
		"icons": []map[string]string{
			{"src": base + "/icons/192.png", "sizes": "192x192", "type": "image/png"},
			{"src": base + "/icons/512.png", "sizes": "512x512", "type": "image/png"},
		},
	}

	w.Header().Set("Content-Type", "application/manifest+json")
	json.NewEncoder(w).Encode(manifest)
}

// Icon renders a solid theme-colored PNG at the requested manifest size.
func (h *PagesHandler) Icon(w http.ResponseWriter, r *http.Request) {
	size, err := strconv.Atoi(mux.Vars(r)["size"])
	if err != nil || (size != 192 && size != 512) {
		http.NotFound(w, r)
		return
	}

	fill := parseHexColor(h.app.ThemeColor)
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(fill), image.Point{}, draw.Src)

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	png.Encode(w, img)
}

func parseHexColor(s string) color.RGBA {
	c := color.RGBA{R: 0x1f, G: 0x1b, B: 0x2e, A: 0xff}
	if len(s) == 7 && s[0] == '#' {
		if v, err := strconv.ParseUint(s[1:], 16, 32); err == nil {
			c = color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
		}
	}
	return c
}
