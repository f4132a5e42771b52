package main

import (
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// runLua runs a Lua script with these globals:
//
//	lp(cmd, args...)   run any lp5562ctl command except script and lua
//	rgb(r, g, b)       format a color argument, components clamped to 0-255
//	sleep(ms)
func (c *ctl) runLua(args []string) error {
	if err := nargs(args, 1, 1, "lua <file>"); err != nil {
		return err
	}
	L := lua.NewState()
	defer L.Close()
	L.SetGlobal("lp", L.NewFunction(c.luaCommand))
	L.SetGlobal("rgb", L.NewFunction(luaRGB))
	L.SetGlobal("sleep", L.NewFunction(c.luaSleep))
	return L.DoFile(args[0])
}

func (c *ctl) luaCommand(L *lua.LState) int {
	cmd := L.CheckString(1)
	if cmd == "script" || cmd == "lua" {
		L.RaiseError("%s can't be run from lua", cmd)
		return 0
	}
	var args []string
	for i := 2; i <= L.GetTop(); i++ {
		args = append(args, L.Get(i).String())
	}
	if err := c.do(cmd, args); err != nil {
		L.RaiseError("%s: %v", cmd, err)
	}
	return 0
}

func (c *ctl) luaSleep(L *lua.LState) int {
	ms := float64(L.CheckNumber(1))
	c.sleep(time.Duration(ms * float64(time.Millisecond)))
	return 0
}

func luaRGB(L *lua.LState) int {
	r, g, b := L.CheckInt(1), L.CheckInt(2), L.CheckInt(3)
	L.Push(lua.LString(fmt.Sprintf("%02x%02x%02x", clampLevel(r), clampLevel(g), clampLevel(b))))
	return 1
}

func clampLevel(v int) uint8 {
	return uint8(min(max(v, 0), 0xff))
}
