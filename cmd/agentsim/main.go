// agentsim runs a handful of agents against the simulated world and prints
// what they attend to, interrupt, plan, and become. A scripted stranger
// walks up, stares, then draws a weapon.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/GogaGogich123/HollowEngineAIMod-sub001/internal/agent"
	"github.com/GogaGogich123/HollowEngineAIMod-sub001/internal/config"
	"github.com/GogaGogich123/HollowEngineAIMod-sub001/internal/events"
	"github.com/GogaGogich123/HollowEngineAIMod-sub001/internal/memstore"
	"github.com/GogaGogich123/HollowEngineAIMod-sub001/internal/plan"
	"github.com/GogaGogich123/HollowEngineAIMod-sub001/internal/sim"
	"github.com/GogaGogich123/HollowEngineAIMod-sub001/internal/world"
)

// #region main

func main() {
	configPath := flag.String("config", "tuning.yaml", "tuning file (optional)")
	dbPath := flag.String("db", ":memory:", "episodic memory database")
	duration := flag.Duration("for", 15*time.Second, "how long to run")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	mem, err := memstore.NewStore(*dbPath)
	if err != nil {
		log.Fatalf("open memory store: %v", err)
	}
	defer mem.Close()

	w := sim.NewWorld()
	exec := sim.NewExecutor(800 * time.Millisecond)
	bus := events.NewCallbackBus()
	bus.SubscribeAll(func(ev events.Event) {
		log.Printf("[EVENT] %s %s", ev.EventKind(), ev.Agent())
	})

	w.PlaceAgent("villager-1", world.Vec3{}, 20, 20)

	a, err := agent.New("villager-1", agent.Deps{
		Sensors:  w.SensorsFor("villager-1"),
		Executor: exec,
		Bus:      bus,
		Memory:   mem,
		Decider:  sim.Decider{},
	}, cfg)
	if err != nil {
		log.Fatalf("wire agent: %v", err)
	}
	a.Planner.RegisterGenerator(sim.Generator{})

	// Give the agent something to do.
	planID, err := a.Planner.CreatePlan(
		plan.Goal{Type: "wander", Description: "stretch legs", Priority: 2},
		plan.PriorityLow, plan.ModeSequential,
	)
	if err != nil {
		log.Fatalf("create plan: %v", err)
	}
	if err := a.Planner.ExecutePlan(planID); err != nil {
		log.Printf("execute plan: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()
	a.Start(ctx)
	defer a.Stop()

	runScript(w)

	<-ctx.Done()
	report(a, mem)
}

// #endregion main

// #region script

// runScript walks a stranger toward the agent, has it stare, then arms it.
func runScript(w *sim.World) {
	go func() {
		stranger := world.ActorSnapshot{
			ID:       "stranger",
			Name:     "Stranger",
			Position: world.Vec3{X: 14},
			Forward:  world.Vec3{X: -1},
			Velocity: world.Vec3{X: -1.2},
			Held:     world.ItemNone,
		}
		w.PutActor(stranger)

		for x := 14.0; x > 2; x -= 1.2 {
			stranger.Position.X = x
			w.PutActor(stranger)
			time.Sleep(time.Second)
		}

		// Inside personal space: draw a weapon.
		stranger.Velocity = world.Vec3{X: -0.5}
		stranger.Held = world.ItemWeapon
		w.PutActor(stranger)
	}()
}

// #endregion script

// #region report

func report(a *agent.Agent, mem *memstore.Store) {
	if focus, ok := a.Attention.Focus(); ok {
		log.Printf("final focus: %s (%.2f, %s)", focus.Target, focus.Strength, focus.Reason)
	}
	log.Printf("final state: %s", a.Machine.State())
	log.Printf("interrupt stats: %+v", a.Interrupts.Stats())
	if d := a.SuggestGoal(context.Background(), "pick the next goal"); d != nil {
		log.Printf("decider suggests: %s (%.2f)", d.Action, d.Confidence)
	}

	eps, err := mem.RecentEpisodes("villager-1", 10)
	if err != nil {
		log.Printf("read episodes: %v", err)
		return
	}
	for _, ep := range eps {
		log.Printf("episode [%s] %s", ep.Kind, ep.Summary)
	}
}

// #endregion report
