package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/yelpcamp/internal/common"
	"github.com/dmitrijs2005/yelpcamp/internal/logging"
	"github.com/dmitrijs2005/yelpcamp/internal/server/config"
	"github.com/dmitrijs2005/yelpcamp/internal/server/models"
	"github.com/dmitrijs2005/yelpcamp/internal/server/services"
)

var (
	alice = &models.User{ID: "11111111-1111-1111-1111-111111111111", Username: "alice", Email: "alice@example.com"}
	bob   = &models.User{ID: "22222222-2222-2222-2222-222222222222", Username: "bob", Email: "bob@example.com"}
)

const campID = "33333333-3333-3333-3333-333333333333"

type recordingRenderer struct {
	view string
	data viewData
	err  error
}

func (rr *recordingRenderer) Render(w io.Writer, view string, data any) error {
	if rr.err != nil {
		return rr.err
	}
	rr.view = view
	rr.data = data.(viewData)
	_, err := fmt.Fprint(w, "view:"+view)
	return err
}

type fakeUsers struct {
	sessions map[string]*models.User
	resolve  error

	register func(in services.RegisterInput) (*models.User, error)
	auth     func(username, password string) (*models.User, error)
	profile  func(id string) (*models.User, []*models.Campground, error)
}

func (f *fakeUsers) Register(_ context.Context, in services.RegisterInput) (*models.User, error) {
	return f.register(in)
}

func (f *fakeUsers) Authenticate(_ context.Context, username, password string) (*models.User, error) {
	return f.auth(username, password)
}

func (f *fakeUsers) IssueSession(userID string) (string, time.Time, error) {
	return "session-" + userID, time.Now().Add(time.Hour), nil
}

func (f *fakeUsers) ResolveSession(_ context.Context, token string) (*models.User, error) {
	if f.resolve != nil {
		return nil, f.resolve
	}
	if u, ok := f.sessions[token]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("%w: unknown", common.ErrInvalidToken)
}

func (f *fakeUsers) Profile(_ context.Context, id string) (*models.User, []*models.Campground, error) {
	return f.profile(id)
}

type fakeResets struct {
	issue  func(email string, link func(string) string) (services.IssueOutcome, error)
	check  error
	redeem func(token, password, confirm string) (services.RedeemOutcome, *models.User, error)
}

func (f *fakeResets) Issue(_ context.Context, email string, link func(string) string) (services.IssueOutcome, error) {
	return f.issue(email, link)
}

func (f *fakeResets) Check(_ context.Context, token string) error {
	return f.check
}

func (f *fakeResets) Redeem(_ context.Context, token, password, confirm string) (services.RedeemOutcome, *models.User, error) {
	return f.redeem(token, password, confirm)
}

type fakeCampgrounds struct {
	list    []*models.Campground
	listErr error
	search  string

	get    func(id string) (*models.Campground, error)
	create func(actor *models.User, in services.CampgroundInput) (*models.Campground, error)
	update func(actor *models.User, id string, in services.CampgroundInput) (*models.Campground, error)
	delete func(actor *models.User, id string) error
}

func (f *fakeCampgrounds) List(_ context.Context, search string) ([]*models.Campground, error) {
	f.search = search
	return f.list, f.listErr
}

func (f *fakeCampgrounds) Get(_ context.Context, id string) (*models.Campground, error) {
	return f.get(id)
}

func (f *fakeCampgrounds) GetForEdit(_ context.Context, actor *models.User, id string) (*models.Campground, error) {
	c, err := f.get(id)
	if err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, common.NewUserError(common.ErrorUnauthorized, msgLogin, nil)
	}
	if actor.ID != c.Author.ID {
		return nil, common.NewUserError(common.ErrorForbidden, msgForbidden, nil)
	}
	return c, nil
}

func (f *fakeCampgrounds) Create(_ context.Context, actor *models.User, in services.CampgroundInput) (*models.Campground, error) {
	return f.create(actor, in)
}

func (f *fakeCampgrounds) Update(_ context.Context, actor *models.User, id string, in services.CampgroundInput) (*models.Campground, error) {
	return f.update(actor, id, in)
}

func (f *fakeCampgrounds) Delete(_ context.Context, actor *models.User, id string) error {
	return f.delete(actor, id)
}

type commentCall struct {
	actor        *models.User
	campgroundID string
	commentID    string
	text         string
}

type fakeComments struct {
	calls []commentCall
	err   error
}

func (f *fakeComments) record(c commentCall) error {
	f.calls = append(f.calls, c)
	return f.err
}

func (f *fakeComments) GetForEdit(_ context.Context, actor *models.User, campgroundID, commentID string) (*models.Comment, error) {
	if err := f.record(commentCall{actor: actor, campgroundID: campgroundID, commentID: commentID}); err != nil {
		return nil, err
	}
	return &models.Comment{ID: commentID, CampgroundID: campgroundID, Text: "nice", Author: actor.Snapshot()}, nil
}

func (f *fakeComments) Create(_ context.Context, actor *models.User, campgroundID, text string) (*models.Comment, error) {
	if err := f.record(commentCall{actor: actor, campgroundID: campgroundID, text: text}); err != nil {
		return nil, err
	}
	return &models.Comment{ID: "c1", CampgroundID: campgroundID, Text: text}, nil
}

func (f *fakeComments) Update(_ context.Context, actor *models.User, campgroundID, commentID, text string) (*models.Comment, error) {
	if err := f.record(commentCall{actor: actor, campgroundID: campgroundID, commentID: commentID, text: text}); err != nil {
		return nil, err
	}
	return &models.Comment{ID: commentID, CampgroundID: campgroundID, Text: text}, nil
}

func (f *fakeComments) Delete(_ context.Context, actor *models.User, campgroundID, commentID string) error {
	return f.record(commentCall{actor: actor, campgroundID: campgroundID, commentID: commentID})
}

type testEnv struct {
	server      *Server
	handler     http.Handler
	renderer    *recordingRenderer
	users       *fakeUsers
	resets      *fakeResets
	campgrounds *fakeCampgrounds
	comments    *fakeComments
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		renderer: &recordingRenderer{},
		users: &fakeUsers{sessions: map[string]*models.User{
			"session-" + alice.ID: alice,
			"session-" + bob.ID:   bob,
		}},
		resets: &fakeResets{},
		campgrounds: &fakeCampgrounds{
			get: func(id string) (*models.Campground, error) {
				if id != campID {
					return nil, common.NewUserError(common.ErrorNotFound, "Campground not found.", nil)
				}
				return &models.Campground{ID: campID, Name: "Salmon Creek", Author: alice.Snapshot()}, nil
			},
		},
		comments: &fakeComments{},
	}

	cfg := &config.Config{HTTPAddr: ":0", BaseURL: "http://yelp.test/"}
	env.server = NewServer(cfg, logging.NewNopLogger(), env.renderer, env.users, env.resets, env.campgrounds, env.comments)
	env.handler = env.server.Handler()
	return env
}

// do sends req, logged in as user when user is not nil.
func (env *testEnv) do(req *http.Request, user *models.User) *httptest.ResponseRecorder {
	if user != nil {
		req.AddCookie(&http.Cookie{Name: common.SessionCookieName, Value: "session-" + user.ID})
	}
	if req.RemoteAddr == "" {
		req.RemoteAddr = "192.0.2.1:1234"
	}
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	return rec
}

// flashOf decodes the flash message set by a response, if any.
func (env *testEnv) flashOf(rec *httptest.ResponseRecorder) *flash {
	for _, c := range rec.Result().Cookies() {
		if c.Name == flashCookieName && c.Value != "" {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(c)
			return env.server.popFlash(httptest.NewRecorder(), req)
		}
	}
	return nil
}

func cookieOf(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
