package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/your-org/internmatch/internal/auth"
	"github.com/your-org/internmatch/internal/catalog"
	"github.com/your-org/internmatch/internal/i18n"
	"github.com/your-org/internmatch/internal/recommend"
	"github.com/your-org/internmatch/internal/session"
	"github.com/your-org/internmatch/internal/store"
	"github.com/your-org/internmatch/internal/tracker"
)

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "login", nil)
}

func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "register", nil)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")

	if err := auth.ValidateCredentials(username, password); err != nil {
		sess.AddFlash(session.FlashError, "Username and password are required.")
		s.redirect(w, r, "/register")
		return
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if _, err := s.store.CreateUser(r.Context(), username, hash); err != nil {
		if errors.Is(err, store.ErrUserExists) {
			sess.AddFlash(session.FlashError, "Username already exists. Please choose a different one.")
			s.redirect(w, r, "/register")
			return
		}
		s.serverError(w, r, err)
		return
	}

	s.logger.Info("Registered user", zap.String("username", username))
	sess.AddFlash(session.FlashSuccess, "Registration successful! Please log in.")
	s.redirect(w, r, "/")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")

	user, err := s.store.FindUserByUsername(r.Context(), username)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.serverError(w, r, err)
		return
	}
	if err != nil || auth.CheckPassword(user.PasswordHash, password) != nil {
		sess.AddFlash(session.FlashError, "Invalid username or password.")
		s.redirect(w, r, "/")
		return
	}

	sess.SetUser(user.Username)
	welcome := i18n.T(sess.Lang, "welcome_message")
	sess.AddFlash(session.FlashSuccess, welcome+" to the PM Internship Scheme!")
	s.redirect(w, r, "/home")
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	sess.Clear()
	sess.AddFlash(session.FlashInfo, "You have been logged out.")
	s.redirect(w, r, "/")
}

func (s *Server) handleSetLanguage(w http.ResponseWriter, r *http.Request) {
	if code := r.PathValue("code"); i18n.Supported(code) {
		sessionFrom(r.Context()).SetLang(code)
	}
	s.redirect(w, r, localReferer(r))
}

// localReferer returns the Referer path when it points back at this host,
// otherwise "/".
func localReferer(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Path == "" || !strings.HasPrefix(ref.Path, "/") {
		return "/"
	}
	if ref.Host != "" && ref.Host != r.Host {
		return "/"
	}
	if strings.HasPrefix(ref.Path, "//") {
		return "/"
	}
	if ref.RawQuery != "" {
		return ref.Path + "?" + ref.RawQuery
	}
	return ref.Path
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "home", nil)
}

type dashboardPage struct {
	User           store.User
	Preferences    *store.Preferences
	ShortlistCount int
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	prefs, err := s.preferences(r, user.ID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	count, err := s.store.CountShortlisted(r.Context(), user.ID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, "dashboard", dashboardPage{User: user, Preferences: prefs, ShortlistCount: count})
}

// preferences returns the user's saved preferences, or nil if they never
// searched.
func (s *Server) preferences(r *http.Request, userID int64) (*store.Preferences, error) {
	p, err := s.store.FindPreferences(r.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

type option struct {
	Value string
	Key   string
}

var educationOptions = []option{
	{Value: "", Key: "any_option"},
	{Value: "School", Key: "school_option"},
	{Value: "College", Key: "college_option"},
	{Value: "Post Graduation", Key: "post_grad_option"},
}

type predictPage struct {
	Preferences      *store.Preferences
	Sectors          []string
	Locations        []string
	EducationOptions []option
}

func (s *Server) handlePredictForm(w http.ResponseWriter, r *http.Request) {
	prefs, err := s.preferences(r, userFrom(r.Context()).ID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	cat := s.recs.Load().Catalog()
	s.render(w, r, "predict", predictPage{
		Preferences:      prefs,
		Sectors:          cat.Sectors(),
		Locations:        cat.Locations(),
		EducationOptions: educationOptions,
	})
}

type recommendationPage struct {
	Current *catalog.Internship
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	user := userFrom(r.Context())

	rec := s.recs.Load()
	if !rec.Available() {
		sess.AddFlash(session.FlashError, "Model or data not loaded. Cannot make recommendations.")
		s.redirect(w, r, "/home")
		return
	}

	prefs := recommend.Preferences{
		Education: r.PostFormValue("education"),
		Skills:    r.PostFormValue("skills"),
		Sector:    r.PostFormValue("sector_interest"),
		Location:  r.PostFormValue("location_interest"),
	}
	err := s.store.SavePreferences(r.Context(), store.Preferences{
		UserID:    user.ID,
		Education: prefs.Education,
		Skills:    prefs.Skills,
		Sector:    prefs.Sector,
		Location:  prefs.Location,
	})
	if err != nil {
		s.recommendationFailed(w, r, err)
		return
	}

	res, err := rec.Recommend(r.Context(), prefs)
	if err != nil {
		s.recommendationFailed(w, r, err)
		return
	}
	s.logger.Debug("Recommended internships",
		zap.String("username", user.Username),
		zap.String("predicted_sector", res.PredictedSector),
		zap.Int("count", len(res.Items)))

	sess.SetQueue(res.Items)
	s.render(w, r, "recommendations", recommendationPage{Current: sess.Current})
}

func (s *Server) recommendationFailed(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Warn("Recommendation failed", zap.Error(err))
	sessionFrom(r.Context()).AddFlash(session.FlashError, fmt.Sprintf("An error occurred: %v", err))
	s.redirect(w, r, "/home")
}

func (s *Server) handleNextRecommendation(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	user := userFrom(r.Context())

	if r.PostFormValue("action") == "like" && sess.Current != nil {
		cur := sess.Current
		_, err := s.store.AddShortlisted(r.Context(), store.ShortlistedInternship{
			UserID:       user.ID,
			InternshipID: cur.ID,
			Title:        cur.Title,
			Company:      cur.Company,
			Sector:       cur.Sector,
			Location:     cur.Location,
			Duration:     cur.Duration,
			Stipend:      cur.Stipend,
		})
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		sess.AddFlash(session.FlashSuccess, "Saved: "+cur.Title)
	}

	next := sess.Advance()
	if next == nil {
		sess.AddFlash(session.FlashInfo, "You've viewed all the recommendations for now!")
	}
	s.render(w, r, "recommendations", recommendationPage{Current: next})
}

type shortlistPage struct {
	Items []store.ShortlistedInternship
}

func (s *Server) handleShortlist(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListShortlisted(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, "shortlist", shortlistPage{Items: items})
}

func formID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(r.PostFormValue("id")), 10, 64)
	return id, err == nil && id > 0
}

func (s *Server) handleRemoveSaved(w http.ResponseWriter, r *http.Request) {
	if id, ok := formID(r); ok {
		if _, err := s.store.RemoveShortlisted(r.Context(), userFrom(r.Context()).ID, id); err != nil {
			s.serverError(w, r, err)
			return
		}
	}
	s.redirect(w, r, "/shortlist")
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	user := userFrom(r.Context())

	item, err := s.findShortlisted(r, user.ID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if item == nil {
		sess.AddFlash(session.FlashError, "Saved internship not found.")
		s.redirect(w, r, "/shortlist")
		return
	}

	if s.trackers {
		app := tracker.Application{
			InternshipID: item.InternshipID,
			Applicant:    user.Username,
			Company:      item.Company,
			Position:     item.Title,
			Sector:       item.Sector,
			Location:     item.Location,
			Duration:     item.Duration,
			Stipend:      item.Stipend,
			Date:         s.now(),
		}
		if it, ok := s.recs.Load().Catalog().Find(item.InternshipID); ok {
			app.Skills = it.RequiredSkills
		}
		path, err := tracker.Create(s.appsDir, app)
		if err != nil {
			s.logger.Error("Cannot write application tracker", zap.Error(err))
		} else {
			s.logger.Info("Wrote application tracker", zap.String("path", path))
		}
	}

	sess.AddFlash(session.FlashInfo, fmt.Sprintf("Redirecting to Apply page for %s...", item.Title))
	s.redirect(w, r, "/home")
}

func (s *Server) findShortlisted(r *http.Request, userID int64) (*store.ShortlistedInternship, error) {
	id, ok := formID(r)
	if !ok {
		return nil, nil
	}
	items, err := s.store.ListShortlisted(r.Context(), userID)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == id {
			return &items[i], nil
		}
	}
	return nil, nil
}

type health struct {
	Status      string  `json:"status"`
	ModelLoaded bool    `json:"model_loaded"`
	Model       string  `json:"model,omitempty"`
	Accuracy    float64 `json:"accuracy,omitempty"`
	Internships int     `json:"internships"`
	Available   bool    `json:"recommendations_available"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	rec := s.recs.Load()
	h := health{
		Status:      "ok",
		Internships: rec.Catalog().Len(),
		Available:   rec.Available(),
	}
	if b := rec.Bundle(); b != nil {
		h.ModelLoaded = true
		h.Model = b.Name
		h.Accuracy = b.Accuracy
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h)
}
