package memstore

import (
	"testing"
	"time"

	"github.com/GogaGogich123/HollowEngineAIMod-sub001/internal/world"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestEpisodesNewestFirst(t *testing.T) {
	s := newTestStore(t)
	base := time.Now().UTC()

	for i, summary := range []string{"saw a stranger", "got attacked", "fled home"} {
		err := s.AddEpisode(world.Episode{
			AgentID: "villager-1",
			Kind:    "observation",
			Summary: summary,
			At:      base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("add episode: %v", err)
		}
	}

	eps, err := s.RecentEpisodes("villager-1", 2)
	if err != nil {
		t.Fatalf("recent episodes: %v", err)
	}
	if len(eps) != 2 {
		t.Fatalf("expected 2 episodes, got %d", len(eps))
	}
	if eps[0].Summary != "fled home" || eps[1].Summary != "got attacked" {
		t.Fatalf("wrong order: %q, %q", eps[0].Summary, eps[1].Summary)
	}
}

func TestEpisodesScopedByAgent(t *testing.T) {
	s := newTestStore(t)
	s.AddEpisode(world.Episode{AgentID: "a", Kind: "x", Summary: "mine"})
	s.AddEpisode(world.Episode{AgentID: "b", Kind: "x", Summary: "theirs"})

	eps, err := s.RecentEpisodes("a", 10)
	if err != nil {
		t.Fatalf("recent episodes: %v", err)
	}
	if len(eps) != 1 || eps[0].Summary != "mine" {
		t.Fatalf("expected only agent a's episode, got %+v", eps)
	}
}

func TestKnowledgeUpsert(t *testing.T) {
	s := newTestStore(t)

	if _, ok := s.Knowledge("a", "village"); ok {
		t.Fatal("unknown topic should miss")
	}
	if err := s.SetKnowledge("a", "village", "small"); err != nil {
		t.Fatalf("set knowledge: %v", err)
	}
	if err := s.SetKnowledge("a", "village", "burned down"); err != nil {
		t.Fatalf("update knowledge: %v", err)
	}

	body, ok := s.Knowledge("a", "village")
	if !ok || body != "burned down" {
		t.Fatalf("expected updated body, got %q (%v)", body, ok)
	}
}
