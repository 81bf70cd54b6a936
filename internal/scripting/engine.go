package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM hosting NPC decision scripts.
// Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// EntityView is the read-only slice of entity state handed to scripts.
type EntityView struct {
	ID      string
	Kind    string
	Faction string
	X, Y    float64
	VX, VY  float64
	Health  float64
}

// NewEngine creates a Lua engine and loads all AI scripts from the given
// directory. A missing directory is not an error: the builtin fallback AI
// covers every NPC without a script.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	if err := e.loadDir(filepath.Join(scriptsDir, "ai")); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load ai scripts: %w", err)
	}
	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Info("loaded ai script", zap.String("file", entry.Name()))
	}
	return nil
}

// Has reports whether a global decide function with this name is defined.
func (e *Engine) Has(fn string) bool {
	if fn == "" {
		return false
	}
	return e.vm.GetGlobal(fn).Type() == lua.LTFunction
}

// Decide calls the named script function with (self, nearby) and expects
// two numbers back: the desired velocity. Script failures are logged and
// reported as ok=false so the caller falls back to builtin behaviour.
func (e *Engine) Decide(fn string, self EntityView, nearby []EntityView) (vx, vy float64, ok bool) {
	fnVal := e.vm.GetGlobal(fn)
	if fnVal.Type() != lua.LTFunction {
		return 0, 0, false
	}

	selfTbl := e.entityTable(self)
	nearTbl := e.vm.NewTable()
	for i, n := range nearby {
		nearTbl.RawSetInt(i+1, e.entityTable(n))
	}

	if err := e.vm.CallByParam(lua.P{
		Fn:      fnVal,
		NRet:    2,
		Protect: true,
	}, selfTbl, nearTbl); err != nil {
		e.log.Warn("ai script failed",
			zap.String("fn", fn),
			zap.String("npc", self.ID),
			zap.Error(err),
		)
		return 0, 0, false
	}

	ry := e.vm.Get(-1)
	rx := e.vm.Get(-2)
	e.vm.Pop(2)

	nx, okx := rx.(lua.LNumber)
	ny, oky := ry.(lua.LNumber)
	if !okx || !oky {
		e.log.Warn("ai script returned non-numbers", zap.String("fn", fn))
		return 0, 0, false
	}
	return float64(nx), float64(ny), true
}

func (e *Engine) entityTable(v EntityView) *lua.LTable {
	t := e.vm.NewTable()
	t.RawSetString("id", lua.LString(v.ID))
	t.RawSetString("kind", lua.LString(v.Kind))
	t.RawSetString("faction", lua.LString(v.Faction))
	t.RawSetString("x", lua.LNumber(v.X))
	t.RawSetString("y", lua.LNumber(v.Y))
	t.RawSetString("vx", lua.LNumber(v.VX))
	t.RawSetString("vy", lua.LNumber(v.VY))
	t.RawSetString("health", lua.LNumber(v.Health))
	return t
}

func (e *Engine) Close() {
	e.vm.Close()
}
