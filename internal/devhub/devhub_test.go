package devhub_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/joestump/devhub/internal/api"
	"github.com/joestump/devhub/internal/devhub"
	"github.com/joestump/devhub/internal/query"
	"github.com/joestump/devhub/internal/seed"
	"github.com/joestump/devhub/internal/store"
	"github.com/joestump/devhub/internal/testutil"
)

// server is a seeded Data API that counts requests per method and path.
type server struct {
	*httptest.Server
	mu   sync.Mutex
	hits map[string]int
}

func (s *server) count(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[key]
}

func (s *server) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.hits {
		n += v
	}
	return n
}

func newServer(t *testing.T) *server {
	t.Helper()
	stores := store.New(testutil.NewTestDB(t))
	doc, err := seed.Default()
	if err != nil {
		t.Fatalf("load seed: %v", err)
	}
	if _, err := seed.Apply(context.Background(), stores, doc); err != nil {
		t.Fatalf("apply seed: %v", err)
	}
	router := api.NewRouter(api.Deps{Stores: stores, AllowedOrigins: []string{"*"}})

	s := &server{hits: make(map[string]int)}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.Method+" "+r.URL.Path]++
		s.mu.Unlock()
		router.ServeHTTP(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

func newClient(t *testing.T, s *server) *devhub.Client {
	t.Helper()
	tr, err := query.NewHTTPTransport(s.URL, 5*time.Second)
	if err != nil {
		t.Fatalf("NewHTTPTransport: %v", err)
	}
	return devhub.NewClient(tr)
}

var longContent = strings.Repeat("Content long enough to pass the form rules. ", 2)

func TestDevelopers_Paging(t *testing.T) {
	s := newServer(t)
	c := newClient(t, s)

	page, err := c.Developers(context.Background(), devhub.DeveloperListArgs{Page: 2, Limit: 6})
	if err != nil {
		t.Fatalf("Developers: %v", err)
	}
	if page.TotalCount != 7 || page.TotalPages() != 2 {
		t.Errorf("total = %d / %d pages, want 7 / 2", page.TotalCount, page.TotalPages())
	}
	if len(page.Developers) != 1 || page.Developers[0].ID != 7 {
		t.Errorf("page 2 = %+v, want developer 7 only", page.Developers)
	}

	page, err = c.Developers(context.Background(), devhub.DeveloperListArgs{Language: "Python", Search: "a"})
	if err != nil {
		t.Fatalf("Developers filtered: %v", err)
	}
	if page.Limit != devhub.DefaultLimit || page.TotalCount != 2 {
		t.Errorf("filtered page = limit %d total %d, want %d / 2", page.Limit, page.TotalCount, devhub.DefaultLimit)
	}
}

func TestDeveloperPage_TotalPages(t *testing.T) {
	tests := []struct {
		total, limit, want int
	}{
		{13, 6, 3},
		{12, 6, 2},
		{0, 6, 0},
		{1, 10, 1},
		{5, 0, 0},
	}
	for _, tt := range tests {
		p := &devhub.DeveloperPage{TotalCount: tt.total, Limit: tt.limit}
		if got := p.TotalPages(); got != tt.want {
			t.Errorf("TotalPages(%d/%d) = %d, want %d", tt.total, tt.limit, got, tt.want)
		}
	}
}

func TestDevelopers_TotalFallsBackToPageLength(t *testing.T) {
	tr := transportFunc(func(ctx context.Context, req query.Request) (*query.Response, error) {
		return &query.Response{Status: 200, Header: http.Header{}, Body: []byte(`[{"id":1},{"id":2}]`)}, nil
	})
	c := devhub.NewClient(tr)

	page, err := c.Developers(context.Background(), devhub.DeveloperListArgs{Limit: 6})
	if err != nil {
		t.Fatalf("Developers: %v", err)
	}
	if page.TotalCount != 2 || page.TotalPages() != 1 {
		t.Errorf("total = %d / %d pages, want 2 / 1", page.TotalCount, page.TotalPages())
	}
}

func TestDevelopers_ConcurrentIdenticalQueriesShareOneRequest(t *testing.T) {
	s := newServer(t)
	c := newClient(t, s)
	args := devhub.DeveloperListArgs{Page: 1, Limit: 6}

	var wg sync.WaitGroup
	pages := make([]*devhub.DeveloperPage, 2)
	for i := range pages {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := c.Developers(context.Background(), args)
			if err != nil {
				t.Errorf("Developers: %v", err)
			}
			pages[i] = p
		}()
	}
	wg.Wait()

	if n := s.count("GET /developers"); n != 1 {
		t.Errorf("GET /developers = %d, want 1", n)
	}
	if pages[0] != pages[1] {
		t.Error("callers received different results")
	}
}

func TestCreateThenGetBlog_RoundTrip(t *testing.T) {
	s := newServer(t)
	c := newClient(t, s)
	ctx := context.Background()

	in := devhub.BlogInput{
		Title:      "Title",
		Excerpt:    "An excerpt here",
		Content:    longContent,
		AuthorID:   1,
		AuthorName: "a",
	}
	created, err := c.CreateBlog(ctx, in)
	if err != nil {
		t.Fatalf("CreateBlog: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("created blog has no id")
	}

	got, err := c.Blog(ctx, created.ID)
	if err != nil {
		t.Fatalf("Blog: %v", err)
	}
	if got.Title != in.Title || got.Excerpt != in.Excerpt || got.Content != in.Content ||
		got.AuthorID != in.AuthorID || got.AuthorName != in.AuthorName {
		t.Errorf("round trip = %+v, want fields of %+v", got, in)
	}
	if len(got.Comments) != 0 {
		t.Errorf("comments = %d, want 0", len(got.Comments))
	}
	if got.Date.IsZero() {
		t.Error("date is zero, want stamped at creation")
	}
}

func TestDeleteBlog_InvalidatesListAndDetail(t *testing.T) {
	s := newServer(t)
	c := newClient(t, s)
	ctx := context.Background()

	if _, err := c.Blogs(ctx); err != nil {
		t.Fatalf("Blogs: %v", err)
	}
	if _, err := c.Blog(ctx, 1); err != nil {
		t.Fatalf("Blog: %v", err)
	}
	// Served from cache.
	_, _ = c.Blogs(ctx)
	_, _ = c.Blog(ctx, 1)
	if n := s.count("GET /blogs"); n != 1 {
		t.Fatalf("GET /blogs before delete = %d, want 1", n)
	}

	if err := c.DeleteBlog(ctx, 1); err != nil {
		t.Fatalf("DeleteBlog: %v", err)
	}

	blogs, err := c.Blogs(ctx)
	if err != nil {
		t.Fatalf("Blogs after delete: %v", err)
	}
	if n := s.count("GET /blogs"); n != 2 {
		t.Errorf("GET /blogs after delete = %d, want 2", n)
	}
	for _, b := range blogs {
		if b.ID == 1 {
			t.Error("deleted blog still listed")
		}
	}

	_, err = c.Blog(ctx, 1)
	var nf *query.NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("Blog after delete err = %v, want NotFoundError", err)
	}
}

func TestUpdateBlog_RefreshesDetailAndList(t *testing.T) {
	s := newServer(t)
	c := newClient(t, s)
	ctx := context.Background()

	_, _ = c.Blogs(ctx)
	_, _ = c.Blog(ctx, 2)
	_, _ = c.Blog(ctx, 1)

	in := devhub.BlogInput{Title: "Designing REST APIs, revised", Excerpt: "Now with more detail.", Content: longContent, AuthorName: "bob"}
	if _, err := c.UpdateBlog(ctx, 2, in); err != nil {
		t.Fatalf("UpdateBlog: %v", err)
	}

	got, err := c.Blog(ctx, 2)
	if err != nil {
		t.Fatalf("Blog: %v", err)
	}
	if got.Title != in.Title || got.AuthorID != 2 {
		t.Errorf("blog 2 = %q by %d, want %q by 2", got.Title, got.AuthorID, in.Title)
	}

	blogs, _ := c.Blogs(ctx)
	if blogs[1].Title != in.Title {
		t.Errorf("listed title = %q, want %q", blogs[1].Title, in.Title)
	}

	// Blog 1 was not touched and stays cached.
	if n := s.count("GET /blogs/1"); n != 1 {
		t.Errorf("GET /blogs/1 = %d, want 1", n)
	}
}

func TestAddComment_RefreshesBlog(t *testing.T) {
	s := newServer(t)
	c := newClient(t, s)
	ctx := context.Background()

	before, err := c.Blog(ctx, 1)
	if err != nil {
		t.Fatalf("Blog: %v", err)
	}

	comment, err := c.AddComment(ctx, devhub.CommentInput{BlogID: 1, Author: "Fay", Content: "Nice."})
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	if comment.Date.IsZero() {
		t.Error("comment date is zero, want stamped")
	}

	after, err := c.Blog(ctx, 1)
	if err != nil {
		t.Fatalf("Blog: %v", err)
	}
	if len(after.Comments) != len(before.Comments)+1 {
		t.Errorf("comments = %d, want %d", len(after.Comments), len(before.Comments)+1)
	}
}

func TestValidationBlocksRequest(t *testing.T) {
	s := newServer(t)
	c := newClient(t, s)
	ctx := context.Background()

	_, err := c.CreateBlog(ctx, devhub.BlogInput{Title: "Hey", Excerpt: "short", Content: "tiny"})
	var ve *devhub.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("CreateBlog err = %v, want ValidationError", err)
	}
	for _, field := range []string{"title", "excerpt", "content"} {
		if _, ok := ve.Fields[field]; !ok {
			t.Errorf("fields = %v, want %s", ve.Fields, field)
		}
	}

	_, err = c.AddComment(ctx, devhub.CommentInput{BlogID: 1})
	if !errors.As(err, &ve) {
		t.Fatalf("AddComment err = %v, want ValidationError", err)
	}

	if n := s.total(); n != 0 {
		t.Errorf("requests sent = %d, want 0", n)
	}
}

func TestRegistry_ArgsShapes(t *testing.T) {
	s := newServer(t)
	c := newClient(t, s)
	q := c.Query()
	ctx := context.Background()

	byValue, err := q.Query(ctx, devhub.GetDevelopers, devhub.DeveloperListArgs{Page: 1, Limit: 6})
	if err != nil {
		t.Fatalf("Query by value: %v", err)
	}
	byPointer, err := q.Query(ctx, devhub.GetDevelopers, &devhub.DeveloperListArgs{Page: 1, Limit: 6})
	if err != nil {
		t.Fatalf("Query by pointer: %v", err)
	}
	if byValue != byPointer {
		t.Error("value and pointer args produced different cache entries")
	}
	if n := s.count("GET /developers"); n != 1 {
		t.Errorf("GET /developers = %d, want 1", n)
	}

	bad := map[string]any{"page": 1, "limit": 6}
	for _, name := range []string{devhub.GetDevelopers, devhub.GetDeveloperByID, devhub.GetBlogByID} {
		if _, err := q.Query(ctx, name, bad); err == nil {
			t.Errorf("Query %s with a map succeeded, want error", name)
		}
	}
	for _, name := range []string{devhub.CreateBlogPost, devhub.UpdateBlogPost, devhub.DeleteBlogPost, devhub.AddComment} {
		if _, err := q.Mutate(ctx, name, "nope"); err == nil {
			t.Errorf("Mutate %s with a string succeeded, want error", name)
		}
	}
	var nilArgs *devhub.DeveloperListArgs
	if _, err := q.Query(ctx, devhub.GetDevelopers, nilArgs); err == nil {
		t.Error("Query with nil pointer args succeeded, want error")
	}

	if n := s.total(); n != 1 {
		t.Errorf("requests sent = %d, want 1", n)
	}
}

type transportFunc func(ctx context.Context, req query.Request) (*query.Response, error)

func (f transportFunc) Do(ctx context.Context, req query.Request) (*query.Response, error) {
	return f(ctx, req)
}
