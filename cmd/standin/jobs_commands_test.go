package main

import (
	"context"
	"errors"
	"testing"

	"standin/internal/jobs"
)

// seedJournal records one completed and one failed job, newest last.
func seedJournal(t *testing.T, env *cliTestEnv) {
	t.Helper()
	store, err := jobs.Open(env.historyPath)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	first := &jobs.Job{ID: "job-1", Label: "Make proxy for a.mov", Kind: jobs.KindFFmpeg, Dest: "/tmp/a.pending.mp4"}
	if err := store.MarkStarted(ctx, first); err != nil {
		t.Fatalf("record first job: %v", err)
	}
	if err := store.MarkFinished(ctx, first.ID, nil); err != nil {
		t.Fatalf("finish first job: %v", err)
	}
	second := &jobs.Job{ID: "job-2", Label: "Make proxy for b.png", Kind: jobs.KindMelt, Dest: "/tmp/b.pending.jpg"}
	if err := store.MarkStarted(ctx, second); err != nil {
		t.Fatalf("record second job: %v", err)
	}
	if err := store.MarkFinished(ctx, second.ID, errors.New("melt exploded")); err != nil {
		t.Fatalf("finish second job: %v", err)
	}
}

func TestJobsListShowsJournal(t *testing.T) {
	env := setupCLITestEnv(t)
	seedJournal(t, env)

	stdout, _, err := runCLI(t, env.configPath, "jobs")
	if err != nil {
		t.Fatalf("jobs: %v", err)
	}
	requireContains(t, stdout, "Make proxy for a.mov")
	requireContains(t, stdout, "Make proxy for b.png")
	requireContains(t, stdout, "completed")
	requireContains(t, stdout, "failed")
	requireContains(t, stdout, "melt exploded")
}

func TestJobsListHonorsLimit(t *testing.T) {
	env := setupCLITestEnv(t)
	seedJournal(t, env)

	stdout, _, err := runCLI(t, env.configPath, "jobs", "--limit", "1")
	if err != nil {
		t.Fatalf("jobs --limit: %v", err)
	}
	requireContains(t, stdout, "Make proxy for b.png")
	requireNotContains(t, stdout, "Make proxy for a.mov")
}

func TestJobsClearEmptiesJournal(t *testing.T) {
	env := setupCLITestEnv(t)
	seedJournal(t, env)

	stdout, _, err := runCLI(t, env.configPath, "jobs", "clear")
	if err != nil {
		t.Fatalf("jobs clear: %v", err)
	}
	requireContains(t, stdout, "Removed 2 journal records")

	stdout, _, err = runCLI(t, env.configPath, "jobs")
	if err != nil {
		t.Fatalf("jobs after clear: %v", err)
	}
	requireContains(t, stdout, "No recorded jobs")
}

func TestJobsDisabledHistory(t *testing.T) {
	env := setupCLITestEnv(t)
	env.historyPath = ""
	writeTestConfig(t, env)

	stdout, _, err := runCLI(t, env.configPath, "jobs")
	if err != nil {
		t.Fatalf("jobs: %v", err)
	}
	requireContains(t, stdout, "Job history is disabled")
}
