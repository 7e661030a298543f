package web

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/your-org/internmatch/internal/auth"
	"github.com/your-org/internmatch/internal/catalog"
	"github.com/your-org/internmatch/internal/classify"
	"github.com/your-org/internmatch/internal/recommend"
	"github.com/your-org/internmatch/internal/session"
	"github.com/your-org/internmatch/internal/store"
)

func TestMain(m *testing.M) {
	auth.Cost = bcrypt.MinCost
	m.Run()
}

var sectorSkills = map[string][]string{
	"IT":        {"Python", "SQL", "Docker", "Linux"},
	"Marketing": {"SEO", "Branding", "Copywriting", "Campaigns"},
	"Finance":   {"Accounting", "Audit", "Taxation", "Ledger"},
}

func fixtureRecommender(t *testing.T) *recommend.Recommender {
	t.Helper()
	var items []catalog.Internship
	for _, sector := range []string{"Finance", "IT", "Marketing"} {
		skills := sectorSkills[sector]
		for i := 0; i < 8; i++ {
			items = append(items, catalog.Internship{
				Title:             fmt.Sprintf("%s Intern %d", sector, i),
				Company:           fmt.Sprintf("Co %d", i),
				Sector:            sector,
				RequiredSkills:    []string{skills[i%4], skills[(i+1)%4]},
				EducationRequired: "College",
				Location:          []string{"Pune", "Mumbai"}[i%2],
				Duration:          "3",
				Stipend:           "10000",
			})
		}
	}
	cat := catalog.New(items)
	docs, labels := cat.Documents()
	bundle, _, err := classify.TrainBest(context.Background(), docs, labels, classify.Options{
		TestSize:   0.2,
		Seed:       42,
		Candidates: []classify.Classifier{classify.NewLogisticRegression()},
	})
	require.NoError(t, err)
	return recommend.New(bundle, cat)
}

type testApp struct {
	t        *testing.T
	server   *Server
	http     *httptest.Server
	client   *http.Client
	store    *store.Memory
	sessions *session.Manager
	appsDir  string
}

func newTestApp(t *testing.T, rec *recommend.Recommender) *testApp {
	t.Helper()
	st := store.NewMemory()
	mgr := session.NewManager(st)
	appsDir := filepath.Join(t.TempDir(), "applications")

	srv, err := New(Options{
		Store:           st,
		Sessions:        mgr,
		Recommenders:    recommend.NewHolder(rec),
		ApplicationsDir: appsDir,
		WriteTrackers:   true,
		Logger:          zaptest.NewLogger(t),
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testApp{
		t:        t,
		server:   srv,
		http:     ts,
		client:   &http.Client{Jar: jar},
		store:    st,
		sessions: mgr,
		appsDir:  appsDir,
	}
}

func (a *testApp) do(req *http.Request) (*http.Response, string) {
	a.t.Helper()
	resp, err := a.client.Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	return resp, string(body)
}

func (a *testApp) get(path string) (*http.Response, string) {
	a.t.Helper()
	req, err := http.NewRequest(http.MethodGet, a.http.URL+path, nil)
	require.NoError(a.t, err)
	return a.do(req)
}

func (a *testApp) post(path string, form url.Values) (*http.Response, string) {
	a.t.Helper()
	req, err := http.NewRequest(http.MethodPost, a.http.URL+path, strings.NewReader(form.Encode()))
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.do(req)
}

func (a *testApp) registerAndLogin(username, password string) string {
	a.t.Helper()
	a.post("/do_register", url.Values{"username": {username}, "password": {password}})
	resp, body := a.post("/login", url.Values{"username": {username}, "password": {password}})
	require.Equal(a.t, "/home", resp.Request.URL.Path)
	return body
}

func TestRegisterAndLogin(t *testing.T) {
	app := newTestApp(t, nil)

	resp, body := app.post("/do_register", url.Values{"username": {"asha"}, "password": {"pw"}})
	assert.Equal(t, "/", resp.Request.URL.Path)
	assert.Contains(t, body, "Registration successful! Please log in.")

	resp, body = app.post("/login", url.Values{"username": {"asha"}, "password": {"pw"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/home", resp.Request.URL.Path)
	assert.Contains(t, body, "Welcome to the PM Internship Scheme!")
	assert.Contains(t, body, "Welcome, asha!")

	// flashes are shown once
	_, body = app.get("/home")
	assert.NotContains(t, body, "to the PM Internship Scheme!")
}

func TestRegister_Errors(t *testing.T) {
	app := newTestApp(t, nil)
	app.post("/do_register", url.Values{"username": {"asha"}, "password": {"pw"}})

	resp, body := app.post("/do_register", url.Values{"username": {"asha"}, "password": {"other"}})
	assert.Equal(t, "/register", resp.Request.URL.Path)
	assert.Contains(t, body, "Username already exists. Please choose a different one.")

	resp, body = app.post("/do_register", url.Values{"username": {"  "}, "password": {"pw"}})
	assert.Equal(t, "/register", resp.Request.URL.Path)
	assert.Contains(t, body, "Username and password are required.")

	_, body = app.post("/do_register", url.Values{"username": {"ravi"}})
	assert.Contains(t, body, "Username and password are required.")
}

func TestLogin_Invalid(t *testing.T) {
	app := newTestApp(t, nil)
	app.post("/do_register", url.Values{"username": {"asha"}, "password": {"pw"}})

	for _, form := range []url.Values{
		{"username": {"asha"}, "password": {"wrong"}},
		{"username": {"nobody"}, "password": {"pw"}},
	} {
		resp, body := app.post("/login", form)
		assert.Equal(t, "/", resp.Request.URL.Path)
		assert.Contains(t, body, "Invalid username or password.")
	}
}

func TestRequireLogin(t *testing.T) {
	app := newTestApp(t, nil)
	for _, path := range []string{"/home", "/dashboard", "/predict", "/shortlist"} {
		resp, body := app.get(path)
		assert.Equal(t, "/", resp.Request.URL.Path, path)
		assert.Contains(t, body, "Please log in to access this page.", path)
	}
	resp, body := app.post("/next_recommendation", url.Values{"action": {"like"}})
	assert.Equal(t, "/", resp.Request.URL.Path)
	assert.Contains(t, body, "Please log in to access this page.")
}

func TestRequireLogin_UnknownUser(t *testing.T) {
	app := newTestApp(t, nil)

	sess := &session.Session{}
	sess.SetUser("ghost")
	rec := httptest.NewRecorder()
	require.NoError(t, app.sessions.Save(context.Background(), rec, sess))

	req := httptest.NewRequest(http.MethodGet, "/home", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	app.server.ServeHTTP(w, req)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	loaded, err := app.sessions.Load(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, loaded.LoggedIn())
}

func TestLogout(t *testing.T) {
	app := newTestApp(t, nil)
	app.registerAndLogin("asha", "pw")

	resp, body := app.get("/logout")
	assert.Equal(t, "/", resp.Request.URL.Path)
	assert.Contains(t, body, "You have been logged out.")

	resp, _ = app.get("/home")
	assert.Equal(t, "/", resp.Request.URL.Path)
}

func TestSetLanguage(t *testing.T) {
	app := newTestApp(t, nil)

	req, err := http.NewRequest(http.MethodGet, app.http.URL+"/set_language/hi", nil)
	require.NoError(t, err)
	req.Header.Set("Referer", app.http.URL+"/register")
	resp, body := app.do(req)
	assert.Equal(t, "/register", resp.Request.URL.Path)
	assert.Contains(t, body, `lang="hi"`)
	assert.Contains(t, body, "पीएम इंटर्नशिप योजना")

	app.get("/set_language/xx")
	_, body = app.get("/")
	assert.Contains(t, body, `lang="hi"`, "unknown codes are ignored")

	app.post("/do_register", url.Values{"username": {"asha"}, "password": {"pw"}})
	_, body = app.post("/login", url.Values{"username": {"asha"}, "password": {"pw"}})
	assert.Contains(t, body, "स्वागत है to the PM Internship Scheme!")

	// logout clears the language too
	_, body = app.get("/logout")
	assert.Contains(t, body, `lang="en"`)
}

func TestLocalReferer(t *testing.T) {
	tests := []struct {
		referer, want string
	}{
		{"", "/"},
		{"http://example.com/predict", "/predict"},
		{"http://example.com/predict?x=1", "/predict?x=1"},
		{"http://evil.test/phish", "/"},
		{"/shortlist", "/shortlist"},
		{"//evil.test/x", "/"},
		{"::bad", "/"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "http://example.com/set_language/hi", nil)
		if tt.referer != "" {
			req.Header.Set("Referer", tt.referer)
		}
		assert.Equal(t, tt.want, localReferer(req), tt.referer)
	}
}

func TestPredict_Unavailable(t *testing.T) {
	app := newTestApp(t, nil)
	app.registerAndLogin("asha", "pw")

	resp, body := app.post("/predict", url.Values{"skills": {"python"}})
	assert.Equal(t, "/home", resp.Request.URL.Path)
	assert.Contains(t, body, "Model or data not loaded. Cannot make recommendations.")

	_, body = app.get("/predict")
	assert.Contains(t, body, `name="sector_interest"`)
}

func TestRecommendationFlow(t *testing.T) {
	app := newTestApp(t, fixtureRecommender(t))
	app.registerAndLogin("asha", "pw")

	_, body := app.get("/predict")
	assert.Contains(t, body, "<option>Finance</option>")
	assert.Contains(t, body, "<option>Pune</option>")

	resp, body := app.post("/predict", url.Values{
		"education":         {"College"},
		"skills":            {"Python, SQL, Docker"},
		"sector_interest":   {"IT"},
		"location_interest": {"Pune"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `id="recommendation"`)
	assert.Contains(t, body, "IT Intern")

	_, body = app.post("/next_recommendation", url.Values{"action": {"like"}})
	assert.Contains(t, body, "Saved: IT Intern")

	// batch of 5: one shown by /predict, one after the like, three more
	for i := 0; i < 3; i++ {
		_, body = app.post("/next_recommendation", url.Values{"action": {"nope"}})
		assert.Contains(t, body, `id="recommendation"`)
	}
	_, body = app.post("/next_recommendation", url.Values{"action": {"nope"}})
	assert.Contains(t, body, "You&#39;ve viewed all the recommendations for now!")
	assert.NotContains(t, body, `id="recommendation"`)

	// liking with nothing current saves nothing
	_, body = app.post("/next_recommendation", url.Values{"action": {"like"}})
	assert.NotContains(t, body, "Saved:")

	user, err := app.store.FindUserByUsername(context.Background(), "asha")
	require.NoError(t, err)
	items, err := app.store.ListShortlisted(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "IT", items[0].Sector)

	prefs, err := app.store.FindPreferences(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Python, SQL, Docker", prefs.Skills)

	_, body = app.get("/dashboard")
	assert.Contains(t, body, `<strong id="shortlist-count">1</strong>`)
	assert.Contains(t, body, "Python, SQL, Docker")

	_, body = app.get("/shortlist")
	assert.Contains(t, body, items[0].Title)

	id := fmt.Sprint(items[0].ID)
	resp, body = app.post("/apply", url.Values{"id": {id}})
	assert.Equal(t, "/home", resp.Request.URL.Path)
	assert.Contains(t, body, "Redirecting to Apply page for "+items[0].Title+"...")
	trackers, err := filepath.Glob(filepath.Join(app.appsDir, "*.md"))
	require.NoError(t, err)
	assert.Len(t, trackers, 1)

	resp, body = app.post("/remove_saved", url.Values{"id": {id}})
	assert.Equal(t, "/shortlist", resp.Request.URL.Path)
	assert.Contains(t, body, "You have not saved any internships yet.")
}

func TestLogin_SwitchingAccountsDropsRecommendations(t *testing.T) {
	app := newTestApp(t, fixtureRecommender(t))
	app.registerAndLogin("asha", "pw")

	_, body := app.post("/predict", url.Values{
		"skills":          {"Python, SQL"},
		"sector_interest": {"IT"},
	})
	require.Contains(t, body, `id="recommendation"`)

	// second account in the same browser, no logout in between
	app.registerAndLogin("ravi", "pw")
	_, body = app.post("/next_recommendation", url.Values{"action": {"like"}})
	assert.NotContains(t, body, "Saved:")

	ravi, err := app.store.FindUserByUsername(context.Background(), "ravi")
	require.NoError(t, err)
	n, err := app.store.CountShortlisted(context.Background(), ravi.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	asha, err := app.store.FindUserByUsername(context.Background(), "asha")
	require.NoError(t, err)
	n, err = app.store.CountShortlisted(context.Background(), asha.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestApply_UnknownItem(t *testing.T) {
	app := newTestApp(t, nil)
	app.registerAndLogin("asha", "pw")

	resp, body := app.post("/apply", url.Values{"id": {"42"}})
	assert.Equal(t, "/shortlist", resp.Request.URL.Path)
	assert.Contains(t, body, "Saved internship not found.")
}

func TestRemoveSaved_OtherUsersItem(t *testing.T) {
	app := newTestApp(t, nil)
	ctx := context.Background()

	owner, err := app.store.CreateUser(ctx, "owner", "x")
	require.NoError(t, err)
	item, err := app.store.AddShortlisted(ctx, store.ShortlistedInternship{UserID: owner.ID, Title: "Kept"})
	require.NoError(t, err)

	app.registerAndLogin("asha", "pw")
	app.post("/remove_saved", url.Values{"id": {fmt.Sprint(item.ID)}})

	n, err := app.store.CountShortlisted(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, fixtureRecommender(t))
	resp, body := app.get("/healthz")
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var h health
	require.NoError(t, json.Unmarshal([]byte(body), &h))
	assert.Equal(t, "ok", h.Status)
	assert.True(t, h.ModelLoaded)
	assert.Equal(t, "Logistic Regression", h.Model)
	assert.Equal(t, 24, h.Internships)
	assert.True(t, h.Available)

	empty := newTestApp(t, nil)
	_, body = empty.get("/healthz")
	require.NoError(t, json.Unmarshal([]byte(body), &h))
	assert.False(t, h.Available)
}

func TestRecoverer(t *testing.T) {
	app := newTestApp(t, nil)
	h := app.server.recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRender_KeepsFlashesWhenTemplateFails(t *testing.T) {
	app := newTestApp(t, nil)
	good := app.server.templates["home"]
	app.server.templates["home"] = template.Must(template.New("home").Parse(`{{define "layout"}}{{.Page.Missing}}{{end}}`))

	sess := &session.Session{}
	sess.AddFlash(session.FlashInfo, "kept")
	req := httptest.NewRequest(http.MethodGet, "/home", nil)
	req = req.WithContext(context.WithValue(req.Context(), sessionKey, sess))

	w := httptest.NewRecorder()
	app.server.render(w, req, "home", struct{}{})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Len(t, sess.Flashes, 1)

	app.server.templates["home"] = good
	w = httptest.NewRecorder()
	app.server.render(w, req, "home", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "kept")
	assert.Empty(t, sess.Flashes)
}

func TestMethodNotAllowed(t *testing.T) {
	app := newTestApp(t, nil)
	resp, _ := app.get("/do_register")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, _ = app.get("/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
