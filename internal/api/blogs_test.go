package api_test

import (
	"net/http"
	"testing"

	"github.com/joestump/devhub/internal/api"
	"github.com/joestump/devhub/internal/store"
)

const validBlog = `{
	"title": "Testing Go HTTP handlers",
	"excerpt": "Recorders, routers and real stores.",
	"content": "Use httptest.NewRecorder with the real router so middleware runs too.",
	"authorId": 1,
	"authorName": "alice"
}`

func TestBlogLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/blogs", validBlog, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201; body: %s", rec.Code, rec.Body.String())
	}
	var created store.Blog
	decode(t, rec, &created)
	if created.ID != 3 {
		t.Errorf("created id = %d, want 3", created.ID)
	}
	if created.Date.IsZero() {
		t.Error("created date is zero, want stamped")
	}

	rec = env.do(t, http.MethodPut, "/blogs/3", `{"title":"Renamed","content":"New body","authorId":2,"authorName":"alice"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	var updated store.Blog
	decode(t, rec, &updated)
	if updated.Title != "Renamed" {
		t.Errorf("title = %q, want %q", updated.Title, "Renamed")
	}
	if updated.AuthorID != 1 {
		t.Errorf("authorId = %d, want 1 (unchanged)", updated.AuthorID)
	}

	rec = env.do(t, http.MethodDelete, "/blogs/3", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "{}\n" {
		t.Errorf("delete body = %q, want {}", got)
	}

	if rec := env.do(t, http.MethodGet, "/blogs/3", "", ""); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
	if rec := env.do(t, http.MethodDelete, "/blogs/3", "", ""); rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestCreateBlog_Validation(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/blogs", `{"excerpt":"no title or content"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp api.ErrorResponse
	decode(t, rec, &resp)
	if resp.Code != "VALIDATION_FAILED" {
		t.Errorf("code = %q, want VALIDATION_FAILED", resp.Code)
	}
	for _, field := range []string{"title", "content"} {
		if resp.Fields[field] != "required" {
			t.Errorf("fields[%q] = %q, want required", field, resp.Fields[field])
		}
	}

	if rec := env.do(t, http.MethodPost, "/blogs", `{not json`, ""); rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", rec.Code)
	}
}

func TestGetBlog_EmbedComments(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/blogs/1", "", "")
	var plain store.Blog
	decode(t, rec, &plain)
	if len(plain.Comments) != 0 {
		t.Errorf("comments without _embed = %d, want 0", len(plain.Comments))
	}

	rec = env.do(t, http.MethodGet, "/blogs/1?_embed=comments", "", "")
	var embedded store.Blog
	decode(t, rec, &embedded)
	if len(embedded.Comments) != 1 || embedded.Comments[0].Author != "Dana" {
		t.Errorf("embedded comments = %+v, want Dana's comment", embedded.Comments)
	}

	rec = env.do(t, http.MethodGet, "/blogs?_embed=comments", "", "")
	var all []store.Blog
	decode(t, rec, &all)
	if len(all) != 2 || len(all[1].Comments) != 1 {
		t.Errorf("list with _embed = %+v, want 2 blogs each with a comment", all)
	}
}

func TestBlogWrites_EnforceAuthor(t *testing.T) {
	env := newTestEnv(t, func(d *api.Deps) { d.EnforceAuthor = true })

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		token  string
		want   int
	}{
		{"create anonymous", http.MethodPost, "/blogs", validBlog, "", http.StatusUnauthorized},
		{"create unknown token", http.MethodPost, "/blogs", validBlog, "nope", http.StatusUnauthorized},
		{"update someone else's", http.MethodPut, "/blogs/1", validBlog, bobToken, http.StatusForbidden},
		{"delete someone else's", http.MethodDelete, "/blogs/2", "", aliceToken, http.StatusForbidden},
		{"update own", http.MethodPut, "/blogs/1", validBlog, aliceToken, http.StatusOK},
		{"delete own", http.MethodDelete, "/blogs/2", "", bobToken, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, tt.method, tt.path, tt.body, tt.token)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d; body: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	rec := env.do(t, http.MethodPost, "/blogs", `{"title":"Mine","content":"Written by bob regardless of the body","authorId":1}`, bobToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", rec.Code)
	}
	var b store.Blog
	decode(t, rec, &b)
	if b.AuthorID != 2 || b.AuthorName != "bob" {
		t.Errorf("author = %d/%q, want 2/bob", b.AuthorID, b.AuthorName)
	}
}
