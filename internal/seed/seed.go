// Package seed loads a json-server style document into the data store.
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/google/uuid"

	"github.com/joestump/devhub/internal/store"
)

//go:embed devhub.json
var defaultDocument []byte

// Document mirrors the db.json layout: one array per collection.
type Document struct {
	Users      []*store.User      `json:"users"`
	Developers []*store.Developer `json:"developers"`
	Blogs      []*store.Blog      `json:"blogs"`
	Comments   []*store.Comment   `json:"comments"`
}

// Default returns the embedded sample document.
func Default() (*Document, error) {
	var doc Document
	if err := json.Unmarshal(defaultDocument, &doc); err != nil {
		return nil, fmt.Errorf("decode embedded seed: %w", err)
	}
	return &doc, nil
}

// Decode reads a document from r.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return &doc, nil
}

// Open returns the document at path, or the embedded default when path is empty.
func Open(path string) (*Document, error) {
	if path == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Result counts the records written by Apply.
type Result struct {
	Users, Developers, Blogs, Comments int
	Skipped                            bool
}

// Apply writes doc into an empty store in one transaction. When any
// collection already holds a record the store is considered seeded and
// nothing is written. Users without a token are given a random one.
func Apply(ctx context.Context, s *store.Stores, doc *Document) (Result, error) {
	var res Result
	err := s.Bulk(ctx, func(tx *store.BulkTx) error {
		res = Result{}
		empty, err := tx.Empty(ctx)
		if err != nil {
			return err
		}
		if !empty {
			res.Skipped = true
			return nil
		}

		for _, u := range doc.Users {
			if u.Token == "" {
				u.Token = uuid.New().String()
				log.Printf("seed: minted token for user %q", u.Username)
			}
			if err := tx.InsertUser(ctx, u); err != nil {
				return fmt.Errorf("seed user %d: %w", u.ID, err)
			}
			res.Users++
		}
		for _, d := range doc.Developers {
			if err := tx.InsertDeveloper(ctx, d); err != nil {
				return fmt.Errorf("seed developer %d: %w", d.ID, err)
			}
			res.Developers++
		}
		for _, b := range doc.Blogs {
			if err := tx.InsertBlog(ctx, b); err != nil {
				return fmt.Errorf("seed blog %d: %w", b.ID, err)
			}
			res.Blogs++
		}
		for _, c := range doc.Comments {
			if err := tx.InsertComment(ctx, c); err != nil {
				return fmt.Errorf("seed comment %d: %w", c.ID, err)
			}
			res.Comments++
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}
