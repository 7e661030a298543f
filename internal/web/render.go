package web

import (
	"bytes"
	"net/http"

	"go.uber.org/zap"

	"github.com/your-org/internmatch/internal/i18n"
	"github.com/your-org/internmatch/internal/session"
)

type pageData struct {
	T         i18n.Table
	Lang      string
	Languages []i18n.Language
	Username  string
	Flashes   []session.Flash
	Page      any
}

// render executes page into a buffer first so a template error never leaves
// a half-written response.
func (s *Server) render(w http.ResponseWriter, r *http.Request, page string, data any) {
	t, ok := s.templates[page]
	if !ok {
		s.logger.Error("Unknown template", zap.String("page", page))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	sess := sessionFrom(r.Context())
	lang := i18n.Normalize(sess.Lang)
	pd := pageData{
		T:         i18n.Lookup(lang),
		Lang:      lang,
		Languages: i18n.Available(),
		Username:  sess.Username,
		Flashes:   sess.Flashes,
		Page:      data,
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", pd); err != nil {
		s.logger.Error("Template failed", zap.String("page", page), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	// shown; drop them before the session is saved with the header
	sess.PopFlashes()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (s *Server) redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}
