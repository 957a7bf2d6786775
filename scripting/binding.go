// Package scripting exposes an engine to Lua scenario scripts.
//
// A script sees a single global, grid, bound to the engine it runs against:
//
//	local a = grid:spawn(0, 0, 0)
//	grid:inject(0, 0, 0, 0, 5)
//	grid:run(-1)
//	assert(grid:state_at(0, 0, 0) == 5)
//
// Operations that can fail return nil and an error message, so scripts can
// use assert() to turn a failure into a script error.
package scripting

import (
	"fmt"
	"strings"

	"github.com/Shopify/go-lua"

	"github.com/comalice/eventgrid"
)

const gridTypeName = "eventgrid.grid"

// GlobalName is the name of the engine handle inside scripts.
const GlobalName = "grid"

// NewState returns a Lua state with the standard libraries and grid bound
// to eng.
func NewState(eng *eventgrid.Engine) *lua.State {
	state := lua.NewState()
	lua.OpenLibraries(state)
	Bind(state, eng)
	return state
}

// Bind registers the grid type on state and sets the grid global to eng.
func Bind(state *lua.State, eng *eventgrid.Engine) {
	lua.NewMetaTable(state, gridTypeName)
	state.NewTable()
	lua.SetFunctions(state, gridMethods, 0)
	state.SetField(-2, "__index")
	state.Pop(1)

	state.PushUserData(eng)
	lua.SetMetaTableNamed(state, gridTypeName)
	state.SetGlobal(GlobalName)
}

// RunFile executes the script at path against eng.
func RunFile(eng *eventgrid.Engine, path string) error {
	state := NewState(eng)
	if err := lua.LoadFile(state, path, ""); err != nil {
		return fmt.Errorf("load lua: %w", err)
	}
	if err := state.ProtectedCall(0, 0, 0); err != nil {
		return fmt.Errorf("run lua: %w", err)
	}
	return nil
}

// RunString executes src against eng.
func RunString(eng *eventgrid.Engine, src string) error {
	state := NewState(eng)
	if err := lua.LoadString(state, src); err != nil {
		return fmt.Errorf("load lua: %w", err)
	}
	if err := state.ProtectedCall(0, 0, 0); err != nil {
		return fmt.Errorf("run lua: %w", err)
	}
	return nil
}

var gridMethods = []lua.RegistryFunction{
	{Name: "spawn", Function: gridSpawn},
	{Name: "retire", Function: gridRetire},
	{Name: "connect", Function: gridConnect},
	{Name: "inject", Function: gridInject},
	{Name: "inject_from", Function: gridInjectFrom},
	{Name: "run", Function: gridRun},
	{Name: "state", Function: gridState},
	{Name: "state_at", Function: gridStateAt},
	{Name: "pid_at", Function: gridPIDAt},
	{Name: "events_processed", Function: gridEventsProcessed},
	{Name: "current_time", Function: gridCurrentTime},
	{Name: "process_count", Function: gridProcessCount},
	{Name: "pending", Function: gridPending},
	{Name: "queued", Function: gridQueued},
	{Name: "size", Function: gridSize},
	{Name: "usage", Function: gridUsage},
	{Name: "capacity", Function: gridCapacity},
}

func checkGrid(state *lua.State) *eventgrid.Engine {
	ud := lua.CheckUserData(state, 1, gridTypeName)
	eng, ok := ud.(*eventgrid.Engine)
	if !ok || eng == nil {
		lua.ArgumentError(state, 1, "grid expected")
		panic("unreachable")
	}
	return eng
}

// checkCoord reads three integer arguments starting at index.
func checkCoord(state *lua.State, index int) eventgrid.Coord {
	return checkGrid(state).Coord(
		lua.CheckInteger(state, index),
		lua.CheckInteger(state, index+1),
		lua.CheckInteger(state, index+2),
	)
}

// checkTimestamp rejects negative timestamps, which have no uint64 meaning.
func checkTimestamp(state *lua.State, index int) uint64 {
	ts := lua.CheckInteger(state, index)
	if ts < 0 {
		lua.ArgumentError(state, index, "timestamp must be non-negative")
	}
	return uint64(ts)
}

func pushFailure(state *lua.State, err error) int {
	state.PushNil()
	state.PushString(err.Error())
	return 2
}

func pushOK(state *lua.State, err error) int {
	if err != nil {
		return pushFailure(state, err)
	}
	state.PushBoolean(true)
	return 1
}

func gridSpawn(state *lua.State) int {
	eng := checkGrid(state)
	pid, err := eng.Spawn(checkCoord(state, 2))
	if err != nil {
		return pushFailure(state, err)
	}
	state.PushInteger(int(pid))
	return 1
}

func gridRetire(state *lua.State) int {
	eng := checkGrid(state)
	return pushOK(state, eng.Retire(checkCoord(state, 2)))
}

// grid:connect(sx, sy, sz, dx, dy, dz [, delay [, min, max]])
func gridConnect(state *lua.State) int {
	eng := checkGrid(state)
	src := checkCoord(state, 2)
	dst := checkCoord(state, 5)
	spec := eventgrid.EdgeSpec{
		Delay:    uint64(lua.OptInteger(state, 8, 0)),
		MinDelay: uint64(lua.OptInteger(state, 9, 0)),
		MaxDelay: uint64(lua.OptInteger(state, 10, 0)),
	}
	return pushOK(state, eng.Connect(src, dst, spec))
}

func gridInject(state *lua.State) int {
	eng := checkGrid(state)
	dst := checkCoord(state, 2)
	ts := checkTimestamp(state, 5)
	payload := int64(lua.CheckInteger(state, 6))
	return pushOK(state, eng.Inject(eventgrid.NewEvent(dst, ts, payload)))
}

func gridInjectFrom(state *lua.State) int {
	eng := checkGrid(state)
	src := checkCoord(state, 2)
	dst := checkCoord(state, 5)
	ts := checkTimestamp(state, 8)
	payload := int64(lua.CheckInteger(state, 9))
	return pushOK(state, eng.InjectEventFrom(src, dst, ts, payload))
}

// grid:run([max]) drains everything when max is omitted.
func gridRun(state *lua.State) int {
	eng := checkGrid(state)
	state.PushInteger(eng.Run(lua.OptInteger(state, 2, -1)))
	return 1
}

func gridState(state *lua.State) int {
	eng := checkGrid(state)
	v, err := eng.ProcessState(eventgrid.PID(lua.CheckInteger(state, 2)))
	if err != nil {
		return pushFailure(state, err)
	}
	state.PushInteger(int(v))
	return 1
}

func gridStateAt(state *lua.State) int {
	eng := checkGrid(state)
	v, ok := eng.StateAt(checkCoord(state, 2))
	if !ok {
		state.PushNil()
		return 1
	}
	state.PushInteger(int(v))
	return 1
}

func gridPIDAt(state *lua.State) int {
	eng := checkGrid(state)
	pid, ok := eng.ProcessAt(checkCoord(state, 2))
	if !ok {
		state.PushNil()
		return 1
	}
	state.PushInteger(int(pid))
	return 1
}

func gridEventsProcessed(state *lua.State) int {
	state.PushInteger(int(checkGrid(state).EventsProcessed()))
	return 1
}

func gridCurrentTime(state *lua.State) int {
	state.PushInteger(int(checkGrid(state).CurrentTime()))
	return 1
}

func gridProcessCount(state *lua.State) int {
	state.PushInteger(checkGrid(state).ProcessCount())
	return 1
}

func gridPending(state *lua.State) int {
	state.PushInteger(checkGrid(state).Pending())
	return 1
}

func gridQueued(state *lua.State) int {
	state.PushInteger(checkGrid(state).Queued())
	return 1
}

func gridSize(state *lua.State) int {
	state.PushInteger(int(checkGrid(state).Config().GridSize))
	return 1
}

var categories = map[string]eventgrid.Category{
	"process": eventgrid.CategoryProcess,
	"event":   eventgrid.CategoryEvent,
	"edge":    eventgrid.CategoryEdge,
	"generic": eventgrid.CategoryGeneric,
}

func checkCategory(state *lua.State, index int) eventgrid.Category {
	name := strings.ToLower(lua.CheckString(state, index))
	c, ok := categories[name]
	if !ok {
		lua.ArgumentError(state, index, "unknown category "+name)
	}
	return c
}

func gridUsage(state *lua.State) int {
	eng := checkGrid(state)
	state.PushInteger(eng.Usage(checkCategory(state, 2)))
	return 1
}

func gridCapacity(state *lua.State) int {
	eng := checkGrid(state)
	state.PushInteger(eng.Capacity(checkCategory(state, 2)))
	return 1
}
