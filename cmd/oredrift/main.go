package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/oredrift/server/internal/auth"
	"github.com/oredrift/server/internal/config"
	"github.com/oredrift/server/internal/core/capability"
	"github.com/oredrift/server/internal/core/event"
	coresys "github.com/oredrift/server/internal/core/system"
	"github.com/oredrift/server/internal/data"
	"github.com/oredrift/server/internal/handler"
	"github.com/oredrift/server/internal/interaction"
	gonet "github.com/oredrift/server/internal/net"
	"github.com/oredrift/server/internal/persist"
	"github.com/oredrift/server/internal/scripting"
	"github.com/oredrift/server/internal/sim"
	"github.com/oredrift/server/internal/spatial"
	"github.com/oredrift/server/internal/system"
	"github.com/oredrift/server/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string, serverID int) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m            Oredrift  v0.1.0               \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m       space-mining game server            \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mserver:\033[0m %s \033[90m(id: %d)\033[0m\n\n", serverName, serverID)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("OREDRIFT_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		if !os.IsNotExist(errors.Unwrap(err)) {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = config.Default()
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name, cfg.Server.ID)

	// 3. Connect to PostgreSQL and run migrations. An empty DSN runs the
	// simulation without persistence (local development).
	var profileRepo *persist.ProfileRepo
	if cfg.Database.DSN != "" {
		printSection("database")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		db, err := persist.NewDB(ctx, cfg.Database, log)
		cancel()
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("postgres connected")

		mctx, mcancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = persist.RunMigrations(mctx, db.Pool)
		mcancel()
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK("migrations applied")
		fmt.Println()

		profileRepo = persist.NewProfileRepo(db)
	}

	// 4. Load data tables
	printSection("data")

	archetypes, err := data.LoadArchetypeTable(cfg.Simulation.DataDir + "/archetypes.yaml")
	if err != nil {
		return fmt.Errorf("load archetypes: %w", err)
	}
	printStat("archetypes", archetypes.Count())

	defs, err := data.LoadInteractionTable(cfg.Simulation.DataDir + "/interactions.yaml")
	if err != nil {
		return fmt.Errorf("load interactions: %w", err)
	}
	printStat("interactions", defs.Count())

	spawns, err := data.LoadSpawnList(cfg.Simulation.DataDir + "/spawn_list.yaml")
	if err != nil {
		return fmt.Errorf("load spawn list: %w", err)
	}

	// 5. Assemble the simulation context
	bus := event.NewBus(cfg.Simulation.MaxSubscribers, log)
	grid := spatial.NewGrid(cfg.Simulation.CellSize)
	registry := world.NewRegistry(grid, bus)
	cooldowns := world.NewCooldowns()
	formations := world.NewFormations(bus)
	clock := sim.NewClock(time.Now())
	inbox := sim.NewInbox()
	sessions := interaction.NewManager(defs, registry, grid, formations, cooldowns, bus, log)

	scripts, err := scripting.NewEngine(cfg.Simulation.ScriptsDir, log)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer scripts.Close()

	caps := capability.NewRegistry()
	caps.Register(capability.AIDecide, scripts)
	caps.Register(capability.CombatResolve, system.DamageResolver(baselineDamage))
	if profileRepo != nil {
		caps.Register(capability.ProfileStore, profileRepo)
	}

	deps := &handler.Deps{
		Cfg:        cfg,
		Log:        log,
		Clock:      clock,
		Inbox:      inbox,
		Registry:   registry,
		Grid:       grid,
		Bus:        bus,
		Sessions:   sessions,
		Formations: formations,
		Cooldowns:  cooldowns,
		Archetypes: archetypes,
		Defs:       defs,
		Caps:       caps,
	}

	spawned := spawnWorld(deps, spawns)
	printStat("entities spawned", spawned)
	fmt.Println()

	// 6. Gateway
	var verifier *auth.Verifier
	if cfg.Auth.Required {
		verifier = auth.NewVerifier(cfg.Auth)
	}
	gateway := gonet.NewServer(cfg.Network, cfg.RateLimit, verifier, inbox, log)

	// 7. Systems, in phase order
	combat := system.NewCombatSystem(deps)
	deps.Combat = combat

	runner := coresys.NewRunner()
	runner.Register(system.NewInputSystem(deps))
	runner.Register(system.NewNPCAISystem(deps))
	runner.Register(system.NewMovementSystem(deps))
	runner.Register(system.NewInteractionSystem(deps))
	runner.Register(combat)
	runner.Register(system.NewDespawnSystem(deps))
	runner.Register(system.NewBroadcastSystem(deps, gateway))
	runner.Register(system.NewPersistenceSystem(deps))
	runner.Register(system.NewCleanupSystem(deps))

	// 8. Run
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := gateway.Listen(); err != nil {
			log.Error("gateway stopped", zap.Error(err))
			stop()
		}
	}()
	printReady(fmt.Sprintf("gateway on %s", cfg.Network.BindAddress))
	printReady(fmt.Sprintf("game loop at %s per tick", cfg.Simulation.TickRate))
	fmt.Println()

	loop := sim.NewLoop(runner, clock, cfg.Simulation.TickRate, log)
	loop.Run(ctx)

	log.Info("shutting down")
	return nil
}

// spawnWorld instantiates the boot spawn list.
func spawnWorld(deps *handler.Deps, spawns []data.SpawnEntry) int {
	total := 0
	for _, sp := range spawns {
		arch := deps.Archetypes.Get(sp.Archetype)
		if arch == nil {
			deps.Log.Warn("spawn references unknown archetype", zap.String("archetype", sp.Archetype))
			continue
		}
		count := sp.Count
		if count <= 0 {
			count = 1
		}
		for i := 0; i < count; i++ {
			x, y := sp.X, sp.Y
			if sp.Scatter > 0 {
				x += (rand.Float64()*2 - 1) * sp.Scatter
				y += (rand.Float64()*2 - 1) * sp.Scatter
			}
			delay := time.Duration(sp.RespawnDelay) * time.Millisecond
			system.SpawnArchetype(deps, arch, x, y, delay)
			total++
		}
	}
	return total
}

// baselineDamage is the default combat resolver: hull-scaled with a small
// spread. Real balance lives in the external resolver when one is wired.
func baselineDamage(attacker, defender *world.Entity) float64 {
	base := 8.0
	if attacker.Kind == world.KindNPC {
		base = 5.0
	}
	return base + rand.Float64()*4
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}
