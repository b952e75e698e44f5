// Package storetest holds behaviour tests every store.Store backend must pass.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/MrSnakeDoc/jobscout/internal/domain"
	"github.com/MrSnakeDoc/jobscout/internal/store"
)

// Factory returns an empty store; it is called once per subtest.
type Factory func(t *testing.T) store.Store

// Run executes the shared suite against the backend built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("InsertJobDuplicate", func(t *testing.T) { testInsertJobDuplicate(t, newStore(t)) })
	t.Run("InsertJobConcurrent", func(t *testing.T) { testInsertJobConcurrent(t, newStore(t)) })
	t.Run("InsertJobRejectsInvalid", func(t *testing.T) { testInsertJobRejectsInvalid(t, newStore(t)) })
	t.Run("ListJobs", func(t *testing.T) { testListJobs(t, newStore(t)) })
	t.Run("DeleteJob", func(t *testing.T) { testDeleteJob(t, newStore(t)) })
	t.Run("UpsertSource", func(t *testing.T) { testUpsertSource(t, newStore(t)) })
	t.Run("ToggleSource", func(t *testing.T) { testToggleSource(t, newStore(t)) })
	t.Run("SetSourceEnabled", func(t *testing.T) { testSetSourceEnabled(t, newStore(t)) })
	t.Run("DeleteSource", func(t *testing.T) { testDeleteSource(t, newStore(t)) })
}

func item(text, link string) domain.AcceptedItem {
	return domain.Accept(domain.Candidate{SourceName: "devjobs", Text: text, Link: link}, domain.ProviderFacebook)
}

func testInsertJobDuplicate(t *testing.T, s store.Store) {
	ctx := context.Background()
	it := item("We are hiring a backend engineer", "https://facebook.com/groups/devjobs/posts/1")

	status, err := s.InsertJob(ctx, it)
	if err != nil {
		t.Fatalf("first InsertJob: %v", err)
	}
	if status != domain.SubmitOK {
		t.Fatalf("first InsertJob = %s, want ok", status)
	}

	status, err = s.InsertJob(ctx, it)
	if err != nil {
		t.Fatalf("second InsertJob: %v", err)
	}
	if status != domain.SubmitDuplicate {
		t.Fatalf("second InsertJob = %s, want duplicate", status)
	}

	jobs, err := s.ListJobs(ctx, 10)
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("got %d rows, want exactly 1", len(jobs))
	}
	if jobs[0].ContentHash != it.ContentHash {
		t.Errorf("content_hash = %s, want %s", jobs[0].ContentHash, it.ContentHash)
	}
}

func testInsertJobConcurrent(t *testing.T, s store.Store) {
	ctx := context.Background()
	it := item("Remote Go developer wanted", "")

	const writers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		inserted int
		dups     int
	)
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, err := s.InsertJob(ctx, it)
			if err != nil {
				t.Errorf("InsertJob: %v", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			switch status {
			case domain.SubmitOK:
				inserted++
			case domain.SubmitDuplicate:
				dups++
			}
		}()
	}
	wg.Wait()

	if inserted != 1 || dups != writers-1 {
		t.Fatalf("inserted=%d duplicates=%d, want 1 and %d", inserted, dups, writers-1)
	}
}

func testInsertJobRejectsInvalid(t *testing.T, s store.Store) {
	ctx := context.Background()

	bad := item("hiring", "")
	bad.ContentHash = ""

	if _, err := s.InsertJob(ctx, bad); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("InsertJob(empty hash) = %v, want ErrValidation", err)
	}

	jobs, err := s.ListJobs(ctx, 10)
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(jobs) != 0 {
		t.Fatalf("got %d rows after rejected insert, want 0", len(jobs))
	}
}

func testListJobs(t *testing.T, s store.Store) {
	ctx := context.Background()

	for _, text := range []string{"job one", "job two", "job three"} {
		if _, err := s.InsertJob(ctx, item(text, "")); err != nil {
			t.Fatalf("InsertJob(%q): %v", text, err)
		}
	}
	linked := item("job four", "https://example.com/4")
	if _, err := s.InsertJob(ctx, linked); err != nil {
		t.Fatalf("InsertJob(linked): %v", err)
	}

	jobs, err := s.ListJobs(ctx, 2)
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("ListJobs(2) returned %d rows", len(jobs))
	}
	if jobs[0].Text != "job four" {
		t.Errorf("newest job = %q, want job four", jobs[0].Text)
	}
	if jobs[0].Link == nil || *jobs[0].Link != "https://example.com/4" {
		t.Errorf("link = %v, want https://example.com/4", jobs[0].Link)
	}
	if jobs[1].Link != nil {
		t.Errorf("missing link should be NULL, got %q", *jobs[1].Link)
	}

	all, err := s.ListJobs(ctx, 0)
	if err != nil {
		t.Fatalf("ListJobs(0): %v", err)
	}
	if len(all) != 4 {
		t.Errorf("ListJobs(0) returned %d rows, want 4", len(all))
	}
}

func testDeleteJob(t *testing.T, s store.Store) {
	ctx := context.Background()
	it := item("job to delete", "")

	if _, err := s.InsertJob(ctx, it); err != nil {
		t.Fatalf("InsertJob: %v", err)
	}
	jobs, err := s.ListJobs(ctx, 10)
	if err != nil || len(jobs) != 1 {
		t.Fatalf("ListJobs = %v, %v", jobs, err)
	}

	if err := s.DeleteJob(ctx, jobs[0].ID); err != nil {
		t.Fatalf("DeleteJob: %v", err)
	}
	if err := s.DeleteJob(ctx, jobs[0].ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second DeleteJob = %v, want ErrNotFound", err)
	}

	// Explicit deletion frees the fingerprint.
	status, err := s.InsertJob(ctx, it)
	if err != nil || status != domain.SubmitOK {
		t.Fatalf("re-insert after delete = %v, %v", status, err)
	}
}

func testUpsertSource(t *testing.T, s store.Store) {
	ctx := context.Background()

	src, err := s.UpsertSource(ctx, domain.SourceInput{SourceID: "https://www.facebook.com/groups/ProjectAmazon"})
	if err != nil {
		t.Fatalf("UpsertSource: %v", err)
	}
	if src.SourceID != "ProjectAmazon" || src.Name != "ProjectAmazon" || !src.Enabled {
		t.Fatalf("UpsertSource = %+v", src)
	}
	if src.Provider != domain.ProviderFacebook {
		t.Errorf("provider = %q, want facebook", src.Provider)
	}

	again, err := s.UpsertSource(ctx, domain.SourceInput{SourceID: "ProjectAmazon", Name: "Project Amazon"})
	if err != nil {
		t.Fatalf("second UpsertSource: %v", err)
	}
	if again.ID != src.ID {
		t.Errorf("upsert created a new row: id %d != %d", again.ID, src.ID)
	}
	if again.Name != "Project Amazon" {
		t.Errorf("name = %q, want refreshed name", again.Name)
	}

	if _, err := s.UpsertSource(ctx, domain.SourceInput{}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("UpsertSource(empty) = %v, want ErrValidation", err)
	}

	all, err := s.ListSources(ctx)
	if err != nil {
		t.Fatalf("ListSources: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("ListSources returned %d rows, want 1", len(all))
	}
}

func testToggleSource(t *testing.T, s store.Store) {
	ctx := context.Background()

	a, err := s.UpsertSource(ctx, domain.SourceInput{SourceID: "group-a"})
	if err != nil {
		t.Fatalf("UpsertSource a: %v", err)
	}
	b, err := s.UpsertSource(ctx, domain.SourceInput{SourceID: "https://example.com/feed.xml", Provider: domain.ProviderRSS})
	if err != nil {
		t.Fatalf("UpsertSource b: %v", err)
	}

	enabled, err := s.ToggleSource(ctx, a.ID)
	if err != nil {
		t.Fatalf("ToggleSource: %v", err)
	}
	if enabled {
		t.Fatal("ToggleSource should disable an enabled source")
	}

	active, err := s.ListEnabledSources(ctx)
	if err != nil {
		t.Fatalf("ListEnabledSources: %v", err)
	}
	if len(active) != 1 || active[0].ID != b.ID {
		t.Fatalf("ListEnabledSources = %+v, want only %d", active, b.ID)
	}

	enabled, err = s.ToggleSource(ctx, a.ID)
	if err != nil || !enabled {
		t.Fatalf("second ToggleSource = %v, %v, want true", enabled, err)
	}

	if _, err := s.ToggleSource(ctx, 999999); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("ToggleSource(missing) = %v, want ErrNotFound", err)
	}
}

func testSetSourceEnabled(t *testing.T, s store.Store) {
	ctx := context.Background()

	src, err := s.UpsertSource(ctx, domain.SourceInput{SourceID: "group-set"})
	if err != nil {
		t.Fatalf("UpsertSource: %v", err)
	}

	// concurrent writers of the same value must agree, unlike two toggles
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.SetSourceEnabled(ctx, src.ID, false); err != nil {
				t.Errorf("SetSourceEnabled: %v", err)
			}
		}()
	}
	wg.Wait()

	active, err := s.ListEnabledSources(ctx)
	if err != nil {
		t.Fatalf("ListEnabledSources: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("ListEnabledSources = %+v, want none", active)
	}

	if err := s.SetSourceEnabled(ctx, src.ID, true); err != nil {
		t.Fatalf("SetSourceEnabled(true): %v", err)
	}
	if active, _ = s.ListEnabledSources(ctx); len(active) != 1 {
		t.Errorf("source should be enabled again, got %+v", active)
	}

	if err := s.SetSourceEnabled(ctx, 999999, true); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("SetSourceEnabled(missing) = %v, want ErrNotFound", err)
	}
}

func testDeleteSource(t *testing.T, s store.Store) {
	ctx := context.Background()

	src, err := s.UpsertSource(ctx, domain.SourceInput{SourceID: "group-del"})
	if err != nil {
		t.Fatalf("UpsertSource: %v", err)
	}
	if _, err := s.InsertJob(ctx, item("hiring at group-del", "")); err != nil {
		t.Fatalf("InsertJob: %v", err)
	}

	if err := s.DeleteSource(ctx, src.ID); err != nil {
		t.Fatalf("DeleteSource: %v", err)
	}
	if err := s.DeleteSource(ctx, src.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second DeleteSource = %v, want ErrNotFound", err)
	}

	jobs, err := s.ListJobs(ctx, 10)
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(jobs) != 1 {
		t.Errorf("deleting a source removed its jobs: %d rows left", len(jobs))
	}
}
