package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/fastbb/internal/domain/entity"
	repo "github.com/oksasatya/fastbb/internal/domain/repository"
	"github.com/oksasatya/fastbb/pkg/mailer"
	tpl "github.com/oksasatya/fastbb/pkg/mailer/templates"
)

type CreatePostInput struct {
	Text     string
	Category string
	ParentID *int64
}

type PostService struct {
	Repo         repo.PostRepository
	Users        repo.UserRepository
	Categories   *CategoryService
	ES           *elasticsearch.Client
	ESPostsIndex string
	Pub          JobPublisher
	Mail         MailSettings
	Logger       *logrus.Logger
}

func NewPostService(posts repo.PostRepository, users repo.UserRepository, categories *CategoryService, es *elasticsearch.Client, esPostsIndex string, pub JobPublisher, mail MailSettings, logger *logrus.Logger) *PostService {
	return &PostService{
		Repo:         posts,
		Users:        users,
		Categories:   categories,
		ES:           es,
		ESPostsIndex: esPostsIndex,
		Pub:          pub,
		Mail:         mail,
		Logger:       logger,
	}
}

// Create stores a post (or a reply when ParentID is set) authored by author.
func (s *PostService) Create(ctx context.Context, author *entity.User, in CreatePostInput) (*entity.Post, error) {
	if err := RequireActive(author); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Text) == "" {
		return nil, invalid("post text can not be empty")
	}
	if strings.TrimSpace(in.Category) == "" {
		return nil, invalid("post category can not be empty")
	}

	category, err := s.Categories.GetByName(ctx, strings.TrimSpace(in.Category))
	if err != nil {
		return nil, err
	}

	var parent *entity.Post
	if in.ParentID != nil && *in.ParentID != 0 {
		parent, err = s.Repo.GetByID(ctx, *in.ParentID)
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrParentNotFound
		}
		if err != nil {
			return nil, err
		}
	}

	p := &entity.Post{Text: in.Text, UserID: author.ID, CategoryID: category.ID}
	if parent != nil {
		p.ParentID = &parent.ID
	}
	if err := s.Repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.indexPost(ctx, p)
	if parent != nil {
		s.notifyReply(ctx, author, parent, p)
	}
	return p, nil
}

func (s *PostService) ListByCategory(ctx context.Context, categoryName string, skip, limit int) ([]entity.Post, error) {
	c, err := s.Categories.GetByName(ctx, categoryName)
	if err != nil {
		return nil, err
	}
	skip, limit = page(skip, limit)
	return s.Repo.ListByCategory(ctx, c.ID, skip, limit)
}

func (s *PostService) ListByUser(ctx context.Context, username string, skip, limit int) ([]entity.Post, error) {
	u, err := s.Users.FindByUsername(ctx, username)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	skip, limit = page(skip, limit)
	return s.Repo.ListByUser(ctx, u.ID, skip, limit)
}

// Thread returns the post with id and its whole reply tree.
func (s *PostService) Thread(ctx context.Context, id int64) (*entity.Post, error) {
	flat, err := s.Repo.Subtree(ctx, id)
	if err != nil {
		return nil, err
	}
	root := BuildThread(id, flat)
	if root == nil {
		return nil, ErrPostNotFound
	}
	return root, nil
}

// BuildThread nests flat posts under their parents and returns the post with
// rootID, or nil when it is absent. Posts whose parent is not in flat are dropped.
func BuildThread(rootID int64, flat []entity.Post) *entity.Post {
	byID := make(map[int64]*entity.Post, len(flat))
	for i := range flat {
		p := flat[i]
		p.Children = []*entity.Post{}
		byID[p.ID] = &p
	}
	root, ok := byID[rootID]
	if !ok {
		return nil
	}
	// keep input order so siblings stay sorted
	for i := range flat {
		p := byID[flat[i].ID]
		if p.ID == rootID || p.ParentID == nil {
			continue
		}
		if parent, ok := byID[*p.ParentID]; ok {
			parent.Children = append(parent.Children, p)
		}
	}
	return root
}

func (s *PostService) notifyReply(ctx context.Context, author *entity.User, parent, reply *entity.Post) {
	if s.Pub == nil || !s.Mail.Enabled || s.Users == nil || parent.UserID == author.ID {
		return
	}
	owner, err := s.Users.FindByID(ctx, parent.UserID)
	if err != nil || owner.Email == nil {
		return
	}
	url := strings.TrimRight(s.Mail.ForumURL, "/") + "/api/posts/" + strconv.FormatInt(parent.ID, 10)
	data := tpl.NewPostReplyData(s.Mail.AppName, owner.Username, *owner.Email, s.Mail.ForumURL, author.Username, reply.Text,
		tpl.WithPostURL(url), tpl.WithTime(reply.RegDate))
	job := mailer.EmailJob{To: *owner.Email, Template: tpl.PostReply, Data: tpl.ToMap(data)}
	if err := s.Pub.PublishJSON(ctx, job); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("post_id", reply.ID).Warn("failed to publish reply notification")
	}
}

// indexPost mirrors p into Elasticsearch. Failures are logged and do not
// fail the write.
func (s *PostService) indexPost(ctx context.Context, p *entity.Post) {
	if s.ES == nil || s.ESPostsIndex == "" {
		return
	}
	b, err := json.Marshal(p)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("post_id", p.ID).Warn("es index encode failed")
		}
		return
	}
	req := esapi.IndexRequest{Index: s.ESPostsIndex, DocumentID: strconv.FormatInt(p.ID, 10), Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("post_id", p.ID).Warn("es index failed")
		}
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		if s.Logger != nil {
			s.Logger.WithField("status", res.Status()).WithField("post_id", p.ID).Warn("es index response error")
		}
	}
}

// Search runs a match query over post text. Without Elasticsearch it returns no hits.
func (s *PostService) Search(ctx context.Context, q string, size int) ([]entity.Post, error) {
	if s.ES == nil || s.ESPostsIndex == "" || strings.TrimSpace(q) == "" {
		return []entity.Post{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"match": map[string]any{
				"text": q,
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(s.ES.Search.WithContext(c), s.ES.Search.WithIndex(s.ESPostsIndex), s.ES.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("es search: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source entity.Post `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]entity.Post, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		p := h.Source
		if p.Children == nil {
			p.Children = []*entity.Post{}
		}
		out = append(out, p)
	}
	return out, nil
}
