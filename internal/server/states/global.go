package states

import "github.com/aortez/dirtsim/pkg/statemachine"

// RegisterGlobalHandlers wires Quit/GetFPS/GetStats ahead of every
// per-state Handle, per §4.3.
func RegisterGlobalHandlers(m *statemachine.Machine[*Context, Event]) {
	m.AddGlobalHandler(func(ctx *Context, event Event) (statemachine.State[*Context, Event], bool) {
		switch e := event.(type) {
		case Quit:
			return &Shutdown{}, true
		case GetFPS:
			if e.Reply != nil {
				e.Reply(ctx.FPS())
			}
			return nil, true
		case GetStats:
			if e.Reply != nil {
				e.Reply(ctx.Stats())
			}
			return nil, true
		case Fault:
			return &ErrorState{Cause: e.Err}, true
		case WifiScan:
			if e.Reply != nil {
				e.Reply(ctx.scanWifi())
			}
			return nil, true
		case WifiConnect:
			if e.Reply != nil {
				e.Reply(ctx.connectWifi(e.SSID, e.PSK))
			}
			return nil, true
		case WifiStatus:
			if e.Reply != nil {
				e.Reply(ctx.wifiStatus())
			}
			return nil, true
		default:
			return nil, false
		}
	})
}
