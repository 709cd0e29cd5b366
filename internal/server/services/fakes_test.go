package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/yelpcamp/internal/common"
	"github.com/dmitrijs2005/yelpcamp/internal/dbx"
	"github.com/dmitrijs2005/yelpcamp/internal/logging"
	"github.com/dmitrijs2005/yelpcamp/internal/server/config"
	"github.com/dmitrijs2005/yelpcamp/internal/server/models"
	"github.com/dmitrijs2005/yelpcamp/internal/server/repositories/campgrounds"
	"github.com/dmitrijs2005/yelpcamp/internal/server/repositories/comments"
	"github.com/dmitrijs2005/yelpcamp/internal/server/repositories/users"
	"github.com/google/uuid"
)

var errBoom = errors.New("boom")

// --- in-memory store ---

type memStore struct {
	mu          sync.Mutex
	users       map[string]models.User
	campgrounds map[string]models.Campground
	comments    map[string]models.Comment
	position    int64
	clock       time.Time

	failCampgroundCreate error
	failCampgroundUpdate error
	failCommentsDelete   error
	failCommit           error

	// afterResetLookup runs once a reset token lookup has found a user.
	afterResetLookup func()
}

type memSnapshot struct {
	users       map[string]models.User
	campgrounds map[string]models.Campground
	comments    map[string]models.Comment
}

func newMemStore() *memStore {
	return &memStore{
		users:       map[string]models.User{},
		campgrounds: map[string]models.Campground{},
		comments:    map[string]models.Comment{},
		clock:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := memSnapshot{
		users:       make(map[string]models.User, len(s.users)),
		campgrounds: make(map[string]models.Campground, len(s.campgrounds)),
		comments:    make(map[string]models.Comment, len(s.comments)),
	}
	for k, v := range s.users {
		snap.users[k] = v
	}
	for k, v := range s.campgrounds {
		snap.campgrounds[k] = v
	}
	for k, v := range s.comments {
		snap.comments[k] = v
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = snap.users
	s.campgrounds = snap.campgrounds
	s.comments = snap.comments
}

// txRunner emulates a transaction: the store is restored when fn fails or
// when failCommit is set.
func (s *memStore) txRunner() dbx.TxRunner {
	return dbx.TxFunc(func(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
		snap := s.snapshot()
		if err := fn(ctx, nil); err != nil {
			s.restore(snap)
			return err
		}
		if s.failCommit != nil {
			s.restore(snap)
			return fmt.Errorf("commit error: %w", s.failCommit)
		}
		return nil
	})
}

type fakeRepoManager struct {
	s *memStore
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository              { return &memUsers{m.s} }
func (m *fakeRepoManager) Campgrounds(dbx.DBTX) campgrounds.Repository  { return &memCampgrounds{m.s} }
func (m *fakeRepoManager) Comments(dbx.DBTX) comments.Repository        { return &memComments{m.s} }

// --- users ---

type memUsers struct{ s *memStore }

func (r *memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Username == u.Username {
			return nil, common.NewUserError(common.ErrorConflict, "A user with the given username is already registered", nil)
		}
		if strings.EqualFold(existing.Email, u.Email) {
			return nil, common.NewUserError(common.ErrorConflict, "A user with the given email is already registered", nil)
		}
	}
	u.ID = uuid.NewString()
	u.CreatedAt = r.s.tick()
	r.s.users[u.ID] = *u
	out := *u
	return &out, nil
}

func (r *memUsers) find(match func(models.User) bool) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if match(u) {
			out := u
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.ID == id })
}

func (r *memUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Username == username })
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *memUsers) GetByResetTokenHash(_ context.Context, hash string) (*models.User, error) {
	u, err := r.find(func(u models.User) bool { return u.ResetTokenHash != "" && u.ResetTokenHash == hash })
	if err == nil && r.s.afterResetLookup != nil {
		r.s.afterResetLookup()
	}
	return u, err
}

func (r *memUsers) update(id string, fn func(*models.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	fn(&u)
	r.s.users[id] = u
	return nil
}

func (r *memUsers) SetResetToken(_ context.Context, id, hash string, expires time.Time) error {
	return r.update(id, func(u *models.User) {
		u.ResetTokenHash = hash
		u.ResetExpires = expires
	})
}

func (r *memUsers) UpdatePassword(_ context.Context, id, hash string) error {
	return r.update(id, func(u *models.User) {
		u.PasswordHash = hash
		u.ResetTokenHash = ""
		u.ResetExpires = time.Time{}
	})
}

func (r *memUsers) ConsumeResetToken(_ context.Context, id, tokenHash, hash string, now time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok || u.ResetTokenHash == "" || u.ResetTokenHash != tokenHash || !u.ResetExpires.After(now) {
		return common.ErrorNotFound
	}
	u.PasswordHash = hash
	u.ResetTokenHash = ""
	u.ResetExpires = time.Time{}
	r.s.users[id] = u
	return nil
}

func (r *memUsers) SetAdmin(_ context.Context, id string, isAdmin bool) error {
	return r.update(id, func(u *models.User) { u.IsAdmin = isAdmin })
}

// --- campgrounds ---

type memCampgrounds struct{ s *memStore }

func (r *memCampgrounds) list(match func(models.Campground) bool) []*models.Campground {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Campground
	for _, c := range r.s.campgrounds {
		if match(c) {
			c := c
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *memCampgrounds) List(_ context.Context, search string) ([]*models.Campground, error) {
	needle := strings.ToLower(search)
	return r.list(func(c models.Campground) bool {
		return strings.Contains(strings.ToLower(c.Name), needle)
	}), nil
}

func (r *memCampgrounds) ListByAuthor(_ context.Context, authorID string) ([]*models.Campground, error) {
	return r.list(func(c models.Campground) bool { return c.Author.ID == authorID }), nil
}

func (r *memCampgrounds) GetByID(_ context.Context, id string) (*models.Campground, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.campgrounds[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &c, nil
}

func (r *memCampgrounds) Create(_ context.Context, c *models.Campground) (*models.Campground, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failCampgroundCreate != nil {
		return nil, r.s.failCampgroundCreate
	}
	if _, ok := r.s.users[c.Author.ID]; !ok {
		return nil, fmt.Errorf("db error: author %s does not exist", c.Author.ID)
	}
	c.ID = uuid.NewString()
	c.CreatedAt = r.s.tick()
	stored := *c
	stored.Comments = nil
	r.s.campgrounds[c.ID] = stored
	return c, nil
}

func (r *memCampgrounds) Update(_ context.Context, c *models.Campground) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failCampgroundUpdate != nil {
		return r.s.failCampgroundUpdate
	}
	cur, ok := r.s.campgrounds[c.ID]
	if !ok {
		return common.ErrorNotFound
	}
	cur.Name, cur.Price, cur.Description = c.Name, c.Price, c.Description
	cur.Location, cur.Lat, cur.Lng = c.Location, c.Lat, c.Lng
	cur.ImageURL, cur.ImageID = c.ImageURL, c.ImageID
	r.s.campgrounds[c.ID] = cur
	return nil
}

func (r *memCampgrounds) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.campgrounds[id]; !ok {
		return common.ErrorNotFound
	}
	for _, c := range r.s.comments {
		if c.CampgroundID == id {
			return errors.New("db error: comments_campground_id_fkey")
		}
	}
	delete(r.s.campgrounds, id)
	return nil
}

// --- comments ---

type memComments struct{ s *memStore }

func (r *memComments) ListByCampground(_ context.Context, campgroundID string) ([]*models.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Comment
	for _, c := range r.s.comments {
		if c.CampgroundID == campgroundID {
			c := c
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *memComments) GetByID(_ context.Context, id string) (*models.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.comments[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &c, nil
}

func (r *memComments) Create(_ context.Context, c *models.Comment) (*models.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.campgrounds[c.CampgroundID]; !ok {
		return nil, errors.New("db error: comments_campground_id_fkey")
	}
	r.s.position++
	c.ID = uuid.NewString()
	c.Position = r.s.position
	c.CreatedAt = r.s.tick()
	r.s.comments[c.ID] = *c
	return c, nil
}

func (r *memComments) UpdateText(_ context.Context, id, text string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.comments[id]
	if !ok {
		return common.ErrorNotFound
	}
	c.Text = text
	r.s.comments[id] = c
	return nil
}

func (r *memComments) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.comments[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.comments, id)
	return nil
}

func (r *memComments) DeleteByCampground(_ context.Context, campgroundID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failCommentsDelete != nil {
		return 0, r.s.failCommentsDelete
	}
	var n int64
	for id, c := range r.s.comments {
		if c.CampgroundID == campgroundID {
			delete(r.s.comments, id)
			n++
		}
	}
	return n, nil
}

// --- collaborators ---

type fakeGeocoder struct {
	err      error
	noResult bool
	calls    int
}

func (g *fakeGeocoder) Geocode(_ context.Context, address string) (*models.Place, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	if g.noResult {
		return nil, nil
	}
	return &models.Place{FormattedAddress: address + ", USA", Lat: 45.5, Lng: -122.6}, nil
}

type fakeImages struct {
	mu         sync.Mutex
	next       int
	live       map[string]bool
	uploads    []string
	destroyed  []string
	uploadErr  error
	destroyErr error
}

func newFakeImages() *fakeImages {
	return &fakeImages{live: map[string]bool{}}
}

func (f *fakeImages) Upload(_ context.Context, filename string, data []byte) (*models.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	f.next++
	id := fmt.Sprintf("img-%d", f.next)
	f.live[id] = true
	f.uploads = append(f.uploads, id)
	return &models.Image{URL: "https://images.test/" + id, ID: id}, nil
}

func (f *fakeImages) Destroy(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.destroyErr != nil {
		return f.destroyErr
	}
	delete(f.live, id)
	f.destroyed = append(f.destroyed, id)
	return nil
}

func (f *fakeImages) destroyCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, d := range f.destroyed {
		if d == id {
			n++
		}
	}
	return n
}

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

// --- environment ---

type testEnv struct {
	store       *memStore
	geocoder    *fakeGeocoder
	images      *fakeImages
	mailer      *fakeMailer
	users       *UserService
	campgrounds *CampgroundService
	comments    *CommentService
	reset       *ResetService
}

const testAdminCode = "letmein"

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		SecretKey:                  "k",
		SessionValidityDuration:    time.Hour,
		ResetTokenValidityDuration: time.Hour,
		AdminCode:                  testAdminCode,
	}

	store := newMemStore()
	rm := &fakeRepoManager{s: store}
	logger := logging.NewNopLogger()

	env := &testEnv{
		store:    store,
		geocoder: &fakeGeocoder{},
		images:   newFakeImages(),
		mailer:   &fakeMailer{},
	}
	env.users = NewUserService(nil, rm, cfg)
	env.campgrounds = NewCampgroundService(nil, store.txRunner(), rm, env.geocoder, env.images, logger)
	env.comments = NewCommentService(nil, rm)
	env.reset = NewResetService(nil, rm, env.mailer, cfg, logger)
	return env
}

// seedUser stores a user directly, skipping bcrypt.
func (e *testEnv) seedUser(t *testing.T, username string, isAdmin bool) *models.User {
	t.Helper()
	u, err := (&memUsers{e.store}).Create(context.Background(), &models.User{
		Username: username,
		Email:    username + "@example.com",
		IsAdmin:  isAdmin,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func (e *testEnv) seedCampground(t *testing.T, author *models.User, name string) *models.Campground {
	t.Helper()
	c, err := e.campgrounds.Create(context.Background(), author, CampgroundInput{
		Name:     name,
		Price:    "10",
		Location: "Portland, OR",
		Image:    &ImageUpload{Filename: "photo.jpg", Data: []byte("jpeg")},
	})
	if err != nil {
		t.Fatalf("seed campground: %v", err)
	}
	return c
}

func (e *testEnv) stored(id string) (models.Campground, bool) {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	c, ok := e.store.campgrounds[id]
	return c, ok
}

func (e *testEnv) commentCount(campgroundID string) int {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	n := 0
	for _, c := range e.store.comments {
		if c.CampgroundID == campgroundID {
			n++
		}
	}
	return n
}
