package ops

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/hpungsan/sift/internal/config"
	"github.com/hpungsan/sift/internal/db"
	"github.com/hpungsan/sift/internal/item"
	"github.com/hpungsan/sift/internal/llm"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func seedDomain(t *testing.T, database *sql.DB, path string, keywords ...string) {
	t.Helper()
	err := db.InsertDomain(database, &item.DomainProfile{
		Path:        path,
		DisplayName: path,
		Keywords:    keywords,
		Active:      true,
		CreatedAt:   time.Now().Unix(),
	})
	if err != nil {
		t.Fatalf("InsertDomain failed: %v", err)
	}
}

func seedProject(t *testing.T, database *sql.DB, domain, name string, keywords ...string) string {
	t.Helper()
	out, err := CreateProject(database, CreateProjectInput{
		Name:     name,
		Domain:   domain,
		Keywords: keywords,
	})
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	return out.ID
}

func seedItem(t *testing.T, database *sql.DB, text, status string, createdAt int64) string {
	t.Helper()
	id, err := generateULID()
	if err != nil {
		t.Fatalf("generateULID failed: %v", err)
	}
	err = db.InsertItem(database, &item.Item{
		ID:        id,
		Text:      text,
		Status:    status,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	})
	if err != nil {
		t.Fatalf("InsertItem failed: %v", err)
	}
	return id
}

// fakeEmbedder returns canned vectors per text and counts calls.
type fakeEmbedder struct {
	vecs    map[string][]float32
	def     []float32
	err     error
	embeds  int
	batches int
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.embeds++
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vecs[text]; ok {
		return v, nil
	}
	return f.def, nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.batches++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if v, ok := f.vecs[text]; ok {
			out[i] = v
		} else {
			out[i] = f.def
		}
	}
	return out, nil
}

func (f *fakeEmbedder) Name() string { return "fake" }

// fakeClassifier returns one canned classification and records the
// candidates it was offered.
type fakeClassifier struct {
	result     *llm.Classification
	err        error
	calls      int
	candidates []llm.Candidate
}

func (f *fakeClassifier) Classify(_ context.Context, _ string, candidates []llm.Candidate) (*llm.Classification, error) {
	f.calls++
	f.candidates = candidates
	if f.err != nil {
		return nil, f.err
	}
	c := *f.result
	return &c, nil
}

func (f *fakeClassifier) SuggestName(_ context.Context, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "suggested", nil
}

func testRouter(t *testing.T, database *sql.DB, embedder *fakeEmbedder, classifier *fakeClassifier) *Router {
	t.Helper()
	router := NewRouter(database, config.DefaultConfig(), nil, nil, nil)
	if embedder != nil {
		router.embedder = embedder
	}
	if classifier != nil {
		router.classifier = classifier
	}
	return router
}
