package application

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/fastbb/internal/domain/entity"
	"github.com/oksasatya/fastbb/internal/domain/repository/repotest"
	"github.com/oksasatya/fastbb/pkg/mailer"
	tpl "github.com/oksasatya/fastbb/pkg/mailer/templates"
)

func ptr[T any](v T) *T { return &v }

func newTestPosts(t *testing.T) (*PostService, *repotest.Posts, *repotest.Users) {
	t.Helper()
	users := repotest.NewUsers()
	users.Add(entity.User{Username: "root", IsActive: true, IsAdmin: true}, "")
	users.Add(entity.User{Username: "bob", Email: ptr("bob@x.io"), IsActive: true}, "")
	users.Add(entity.User{Username: "eve", IsActive: true}, "")

	cats := NewCategoryService(&repotest.Categories{Items: []entity.Category{{ID: 1, Name: "general"}}}, nil, nil)
	posts := &repotest.Posts{}
	return NewPostService(posts, users, cats, nil, "", nil, MailSettings{}, nil), posts, users
}

func TestPost_Create(t *testing.T) {
	svc, _, users := newTestPosts(t)
	ctx := context.Background()
	bob, _ := users.FindByUsername(ctx, "bob")

	p, err := svc.Create(ctx, bob, CreatePostInput{Text: "hello", Category: "general"})
	require.NoError(t, err)
	assert.Equal(t, bob.ID, p.UserID)
	assert.Equal(t, int64(1), p.CategoryID)
	assert.Nil(t, p.ParentID)

	reply, err := svc.Create(ctx, bob, CreatePostInput{Text: "re", Category: "general", ParentID: &p.ID})
	require.NoError(t, err)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, p.ID, *reply.ParentID)
}

func TestPost_Create_Errors(t *testing.T) {
	svc, _, users := newTestPosts(t)
	ctx := context.Background()
	bob, _ := users.FindByUsername(ctx, "bob")

	tests := []struct {
		name   string
		author *entity.User
		in     CreatePostInput
		want   error
	}{
		{"empty text", bob, CreatePostInput{Text: " ", Category: "general"}, ErrValidation},
		{"empty category", bob, CreatePostInput{Text: "x"}, ErrValidation},
		{"unknown category", bob, CreatePostInput{Text: "x", Category: "nope"}, ErrCategoryNotFound},
		{"unknown parent", bob, CreatePostInput{Text: "x", Category: "general", ParentID: ptr(int64(99))}, ErrParentNotFound},
		{"inactive author", &entity.User{ID: 9}, CreatePostInput{Text: "x", Category: "general"}, ErrInactiveUser},
		{"anonymous", nil, CreatePostInput{Text: "x", Category: "general"}, ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.author, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPost_Create_NotifiesParentAuthor(t *testing.T) {
	svc, _, users := newTestPosts(t)
	ctx := context.Background()
	pub := &fakePublisher{}
	svc.Pub = pub
	svc.Mail = MailSettings{Enabled: true, AppName: "FastBB", ForumURL: "https://bb.example/"}
	bob, _ := users.FindByUsername(ctx, "bob")
	eve, _ := users.FindByUsername(ctx, "eve")

	root, err := svc.Create(ctx, bob, CreatePostInput{Text: "question", Category: "general"})
	require.NoError(t, err)

	// self replies do not notify
	_, err = svc.Create(ctx, bob, CreatePostInput{Text: "bump", Category: "general", ParentID: &root.ID})
	require.NoError(t, err)
	assert.Empty(t, pub.jobs)

	_, err = svc.Create(ctx, eve, CreatePostInput{Text: "answer", Category: "general", ParentID: &root.ID})
	require.NoError(t, err)
	require.Len(t, pub.jobs, 1)
	job := pub.jobs[0].(mailer.EmailJob)
	assert.Equal(t, "bob@x.io", job.To)
	assert.Equal(t, tpl.PostReply, job.Template)
	assert.Equal(t, "https://bb.example/api/posts/1", job.Data["PostURL"])
	assert.Equal(t, "eve", job.Data["ReplyBy"])
}

func TestPost_Lists(t *testing.T) {
	svc, _, users := newTestPosts(t)
	ctx := context.Background()
	bob, _ := users.FindByUsername(ctx, "bob")
	eve, _ := users.FindByUsername(ctx, "eve")
	for _, a := range []*entity.User{bob, eve, bob} {
		_, err := svc.Create(ctx, a, CreatePostInput{Text: "t", Category: "general"})
		require.NoError(t, err)
	}

	byCat, err := svc.ListByCategory(ctx, "general", 0, 0)
	require.NoError(t, err)
	assert.Len(t, byCat, 3)

	byBob, err := svc.ListByUser(ctx, "bob", 0, 10)
	require.NoError(t, err)
	assert.Len(t, byBob, 2)

	_, err = svc.ListByCategory(ctx, "nope", 0, 10)
	assert.ErrorIs(t, err, ErrCategoryNotFound)
	_, err = svc.ListByUser(ctx, "nobody", 0, 10)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestPost_Thread(t *testing.T) {
	svc, _, users := newTestPosts(t)
	ctx := context.Background()
	bob, _ := users.FindByUsername(ctx, "bob")

	root, err := svc.Create(ctx, bob, CreatePostInput{Text: "root", Category: "general"})
	require.NoError(t, err)
	a, err := svc.Create(ctx, bob, CreatePostInput{Text: "a", Category: "general", ParentID: &root.ID})
	require.NoError(t, err)
	_, err = svc.Create(ctx, bob, CreatePostInput{Text: "b", Category: "general", ParentID: &root.ID})
	require.NoError(t, err)
	_, err = svc.Create(ctx, bob, CreatePostInput{Text: "a1", Category: "general", ParentID: &a.ID})
	require.NoError(t, err)

	tree, err := svc.Thread(ctx, root.ID)
	require.NoError(t, err)
	require.Len(t, tree.Children, 2)
	assert.Equal(t, "a", tree.Children[0].Text)
	assert.Equal(t, "b", tree.Children[1].Text)
	require.Len(t, tree.Children[0].Children, 1)
	assert.Equal(t, "a1", tree.Children[0].Children[0].Text)
	assert.Empty(t, tree.Children[1].Children)

	sub, err := svc.Thread(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, sub.Children, 1)

	_, err = svc.Thread(ctx, 404)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestBuildThread_DropsOrphans(t *testing.T) {
	flat := []entity.Post{
		{ID: 1},
		{ID: 2, ParentID: ptr(int64(1))},
		{ID: 3, ParentID: ptr(int64(42))},
	}
	root := BuildThread(1, flat)
	require.NotNil(t, root)
	require.Len(t, root.Children, 1)
	assert.Equal(t, int64(2), root.Children[0].ID)
	assert.NotNil(t, root.Children[0].Children)

	assert.Nil(t, BuildThread(7, flat))
}

func TestPost_Search(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &gotBody)
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"hits":{"hits":[{"_source":{"id":5,"text":"hello world","user_id":2,"category_id":1}}]}}`)
	}))
	defer srv.Close()

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)

	svc, _, _ := newTestPosts(t)
	svc.ES = es
	svc.ESPostsIndex = "posts"

	hits, err := svc.Search(context.Background(), "hello", 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, int64(5), hits[0].ID)
	assert.Equal(t, "hello world", hits[0].Text)
	assert.NotNil(t, hits[0].Children)
	assert.True(t, strings.HasPrefix(gotPath, "/posts/_search"))
	assert.EqualValues(t, 10, gotBody["size"])
}

func TestPost_Create_IndexFailureIsLoggedNotReturned(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	logger, hook := logtest.NewNullLogger()

	svc, _, users := newTestPosts(t)
	svc.ES = es
	svc.ESPostsIndex = "posts"
	svc.Logger = logger
	ctx := context.Background()
	bob, _ := users.FindByUsername(ctx, "bob")

	p, err := svc.Create(ctx, bob, CreatePostInput{Text: "hello", Category: "general"})
	require.NoError(t, err)
	assert.Equal(t, "/posts/_doc/"+strconv.FormatInt(p.ID, 10), gotPath)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "es index response error", hook.LastEntry().Message)
}

func TestPost_Search_WithoutES(t *testing.T) {
	svc, _, _ := newTestPosts(t)
	hits, err := svc.Search(context.Background(), "hello", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
