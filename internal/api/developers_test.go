package api_test

import (
	"net/http"
	"testing"

	"github.com/joestump/devhub/internal/store"
)

func TestListDevelopers_PaginationHeader(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/developers?_page=3&_limit=3", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("X-Total-Count"); got != "7" {
		t.Errorf("X-Total-Count = %q, want %q", got, "7")
	}

	var devs []store.Developer
	decode(t, rec, &devs)
	if len(devs) != 1 || devs[0].ID != 7 {
		t.Errorf("page 3 = %+v, want only developer 7", devs)
	}
}

func TestListDevelopers_Filters(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name  string
		query string
		want  []int64
	}{
		{"no filter", "", []int64{1, 2, 3, 4, 5, 6, 7}},
		{"name substring", "?name_like=ar", []int64{3, 6}},
		{"name is case sensitive", "?name_like=alice", nil},
		{"skill substring", "?skills_like=React", []int64{1, 4, 6}},
		{"both", "?name_like=a&skills_like=Python", []int64{3, 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/developers"+tt.query, "", "")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			var devs []store.Developer
			decode(t, rec, &devs)
			if len(devs) != len(tt.want) {
				t.Fatalf("got %d developers, want %d", len(devs), len(tt.want))
			}
			for i, d := range devs {
				if d.ID != tt.want[i] {
					t.Errorf("developers[%d].ID = %d, want %d", i, d.ID, tt.want[i])
				}
			}
		})
	}
}

func TestGetDeveloper(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/developers/2", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var d store.Developer
	decode(t, rec, &d)
	if d.Name != "Bob Smith" {
		t.Errorf("name = %q, want %q", d.Name, "Bob Smith")
	}
	if d.Social.GitHub == nil || d.Social.LinkedIn != nil {
		t.Errorf("social = %+v, want github only", d.Social)
	}

	for _, path := range []string{"/developers/99", "/developers/abc"} {
		if rec := env.do(t, http.MethodGet, path, "", ""); rec.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", path, rec.Code)
		}
	}
}
