// Package repotest provides in-memory repositories for tests.
package repotest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/oksasatya/fastbb/internal/domain/entity"
	repo "github.com/oksasatya/fastbb/internal/domain/repository"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// Users is an in-memory UserRepository. Setting Err makes every call fail.
type Users struct {
	mu     sync.Mutex
	nextID int64
	ByID   map[int64]*entity.StoredCredential
	Err    error

	LastLoginCalls int
}

func NewUsers() *Users {
	return &Users{ByID: map[int64]*entity.StoredCredential{}}
}

// Add stores u with the given hash, assigning the next id.
func (f *Users) Add(u entity.User, hash string) *entity.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	u.ID = f.nextID
	f.ByID[u.ID] = &entity.StoredCredential{User: u, Credential: entity.Credential{UserID: u.ID, PasswordHash: hash}}
	out := u
	return &out
}

func (f *Users) find(match func(u *entity.User) bool) (*entity.StoredCredential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	for _, sc := range f.ByID {
		if match(&sc.User) {
			cp := *sc
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *Users) findUser(match func(u *entity.User) bool) (*entity.User, error) {
	sc, err := f.find(match)
	if err != nil {
		return nil, err
	}
	return &sc.User, nil
}

func (f *Users) FindCredentialByUsername(_ context.Context, username string) (*entity.StoredCredential, error) {
	return f.find(func(u *entity.User) bool { return u.Username == username })
}

func (f *Users) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	return f.findUser(func(u *entity.User) bool { return u.Username == username })
}

func (f *Users) FindByID(_ context.Context, id int64) (*entity.User, error) {
	return f.findUser(func(u *entity.User) bool { return u.ID == id })
}

func (f *Users) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	return f.findUser(func(u *entity.User) bool { return u.Email != nil && *u.Email == email })
}

func (f *Users) Insert(_ context.Context, sc *entity.StoredCredential) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	for _, existing := range f.ByID {
		if existing.User.Username == sc.User.Username {
			return nil, repo.ErrDuplicateUsername
		}
		if sc.User.Email != nil && existing.User.Email != nil && *existing.User.Email == *sc.User.Email {
			return nil, repo.ErrDuplicateEmail
		}
	}
	f.nextID++
	stored := *sc
	stored.User.ID = f.nextID
	stored.User.RegDate = epoch
	stored.User.LastLogin = epoch
	stored.Credential.UserID = f.nextID
	f.ByID[f.nextID] = &stored
	out := stored.User
	return &out, nil
}

func (f *Users) UpdateLastLogin(_ context.Context, id int64, ts time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastLoginCalls++
	sc, ok := f.ByID[id]
	if !ok {
		return repo.ErrNotFound
	}
	sc.User.LastLogin = ts
	return nil
}

func (f *Users) UpdateAvatar(_ context.Context, id int64, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sc, ok := f.ByID[id]
	if !ok {
		return repo.ErrNotFound
	}
	sc.User.AvatarURL = url
	return nil
}

func (f *Users) List(_ context.Context, offset, limit int) ([]entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entity.User, 0, len(f.ByID))
	for _, sc := range f.ByID {
		out = append(out, sc.User)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return window(out, offset, limit), nil
}

func window[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// Categories is an in-memory CategoryRepository.
type Categories struct {
	Items     []entity.Category
	CreateErr error
}

func (f *Categories) Create(_ context.Context, c *entity.Category) error {
	if f.CreateErr != nil {
		return f.CreateErr
	}
	c.ID = int64(len(f.Items) + 1)
	c.AddDate = epoch
	f.Items = append(f.Items, *c)
	return nil
}

func (f *Categories) GetByName(_ context.Context, name string) (*entity.Category, error) {
	for _, c := range f.Items {
		if c.Name == name {
			cp := c
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *Categories) List(_ context.Context, offset, limit int) ([]entity.Category, error) {
	return window(f.Items, offset, limit), nil
}

// Posts is an in-memory PostRepository keeping insertion order.
type Posts struct {
	Items []entity.Post
}

func (f *Posts) Create(_ context.Context, p *entity.Post) error {
	p.ID = int64(len(f.Items) + 1)
	p.RegDate = epoch.Add(24 * time.Hour)
	p.Children = []*entity.Post{}
	f.Items = append(f.Items, *p)
	return nil
}

func (f *Posts) GetByID(_ context.Context, id int64) (*entity.Post, error) {
	for _, p := range f.Items {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *Posts) filter(keep func(p entity.Post) bool, offset, limit int) []entity.Post {
	out := []entity.Post{}
	for _, p := range f.Items {
		if keep(p) {
			out = append(out, p)
		}
	}
	return window(out, offset, limit)
}

func (f *Posts) ListByCategory(_ context.Context, categoryID int64, offset, limit int) ([]entity.Post, error) {
	return f.filter(func(p entity.Post) bool { return p.CategoryID == categoryID }, offset, limit), nil
}

func (f *Posts) ListByUser(_ context.Context, userID int64, offset, limit int) ([]entity.Post, error) {
	return f.filter(func(p entity.Post) bool { return p.UserID == userID }, offset, limit), nil
}

func (f *Posts) Subtree(_ context.Context, rootID int64) ([]entity.Post, error) {
	in := map[int64]bool{}
	out := []entity.Post{}
	for _, p := range f.Items {
		if p.ID == rootID || (p.ParentID != nil && in[*p.ParentID]) {
			in[p.ID] = true
			out = append(out, p)
		}
	}
	return out, nil
}

var (
	_ repo.UserRepository     = (*Users)(nil)
	_ repo.CategoryRepository = (*Categories)(nil)
	_ repo.PostRepository     = (*Posts)(nil)
)
