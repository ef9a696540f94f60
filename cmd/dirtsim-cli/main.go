// Command dirtsim-cli is the operator client (§6): one WebSocket round trip
// per invocation against either the physics server or the UI process, plus
// a handful of special forms that orchestrate the other binaries for
// benchmarking, cleanup, and local smoke testing.
package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/aortez/dirtsim/internal/opsui"
	"github.com/aortez/dirtsim/pkg/dispatch"
	"github.com/aortez/dirtsim/pkg/envelope"
	"github.com/aortez/dirtsim/pkg/wsnet"
)

var (
	addressOverride = flag.String("address", "", "Override default WebSocket URL")
	timeoutFlag     = flag.Int("timeout", 5000, "Response timeout in milliseconds")
	verboseShort    = flag.Bool("v", false, "Enable debug logging")
	verboseLong     = flag.Bool("verbose", false, "Enable debug logging")
)

func defaultAddress(target string) string {
	switch target {
	case "ui":
		return "ws://localhost:7070"
	case "audio":
		return "ws://localhost:6060"
	default:
		return "ws://localhost:8080"
	}
}

func address(target string) string {
	if *addressOverride != "" {
		return *addressOverride
	}
	return defaultAddress(target)
}

func timeout() time.Duration { return time.Duration(*timeoutFlag) * time.Millisecond }

func verbose() bool { return *verboseShort || *verboseLong }

func logf(format string, args ...any) {
	if verbose() {
		log.Printf(format, args...)
	}
}

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	target := args[0]
	rest := args[1:]

	switch target {
	case "benchmark":
		os.Exit(runBenchmark(rest))
	case "cleanup":
		os.Exit(runCleanup())
	case "integration_test":
		os.Exit(runIntegrationTest())
	case "run-all":
		os.Exit(runAll())
	case "screenshot":
		os.Exit(runScreenshot(rest))
	case "test_binary":
		os.Exit(runTestBinary())
	case "status":
		os.Exit(runStatus())
	case "server", "ui", "audio":
		os.Exit(runCommand(target, rest))
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown target %q\n", target)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: dirtsim-cli <server|ui> <command> [json-body]")
	fmt.Fprintln(os.Stderr, "       dirtsim-cli audio list-devices    # audio device enumeration")
	fmt.Fprintln(os.Stderr, "       dirtsim-cli <benchmark|cleanup|integration_test|run-all|screenshot|test_binary|status> [args]")
	fmt.Fprintln(os.Stderr, "Flags: --address ws://host:port  --timeout ms  -v/--verbose")
}

// runStatus opens the interactive fleet-status view (internal/opsui) over
// the default addresses for the server, UI and audio processes. It blocks
// until the operator quits.
func runStatus() int {
	targets := []opsui.Target{
		{Label: "server", Address: defaultAddress("server")},
		{Label: "ui", Address: defaultAddress("ui")},
		{Label: "audio", Address: defaultAddress("audio")},
	}
	if err := opsui.Run(targets); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// runCommand is the core one-round-trip path: connect, send a JSON-bridge
// command (§4.1), print the reply, and map its success/failure to an exit
// code.
func runCommand(target string, rest []string) int {
	if len(rest) == 0 {
		fmt.Fprintf(os.Stderr, "Error: command is required for %s target\n", target)
		usage()
		return 1
	}
	commandName := rest[0]
	if commandName == "list-devices" {
		commandName = "ListDevices"
	}
	var body string
	if len(rest) > 1 {
		body = rest[1]
	}

	req, err := buildJSONRequest(commandName, body)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing JSON parameters: %v\n", err)
		return 1
	}

	addr := address(target)
	svc := wsnet.New(dispatch.NewTable(), logf)
	if err := svc.Connect(addr, timeout()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to %s: %v\n", addr, err)
		return 1
	}
	defer svc.CloseClient()

	respBytes, err := svc.SendJSON(req, timeout())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to execute command: %v\n", err)
		return 1
	}

	var reply jsonReply
	if err := json.Unmarshal(respBytes, &reply); err != nil {
		// Not a well-formed reply envelope; print raw and let the caller
		// decide, but still treat it as a protocol failure.
		fmt.Println(string(respBytes))
		return 1
	}
	fmt.Println(string(respBytes))
	if reply.Error != "" {
		return 1
	}
	return 0
}

type jsonReply struct {
	ID    uint64          `json:"id"`
	Value json.RawMessage `json:"value,omitempty"`
	Error string          `json:"error,omitempty"`
}

// buildJSONRequest flattens the json-body object's fields alongside the
// command name, matching §6's `{ "command": Name, <fields...> }` shape.
func buildJSONRequest(name, bodyJSON string) ([]byte, error) {
	req := map[string]any{"command": name}
	if strings.TrimSpace(bodyJSON) != "" {
		var fields map[string]any
		if err := json.Unmarshal([]byte(bodyJSON), &fields); err != nil {
			return nil, err
		}
		for k, v := range fields {
			req[k] = v
		}
	}
	return json.Marshal(req)
}

// runScreenshot captures the UI's Screenshot command (base64 PNG, §6) and
// writes it to a file.
func runScreenshot(rest []string) int {
	outputFile := fmt.Sprintf("screenshot_%d.png", time.Now().UnixNano())
	if len(rest) > 0 {
		outputFile = rest[0]
	}

	addr := address("ui")
	if *addressOverride == "" {
		addr = "ws://localhost:7070"
	}
	fmt.Fprintf(os.Stderr, "Capturing screenshot from %s...\n", addr)

	svc := wsnet.New(dispatch.NewTable(), logf)
	if err := svc.Connect(addr, timeout()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to UI at %s: %v\n", addr, err)
		return 1
	}
	defer svc.CloseClient()

	req, _ := buildJSONRequest("Screenshot", "")
	respBytes, err := svc.SendJSON(req, timeout())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Screenshot command failed: %v\n", err)
		return 1
	}

	var reply jsonReply
	if err := json.Unmarshal(respBytes, &reply); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid Screenshot response: %v\n", err)
		return 1
	}
	if reply.Error != "" {
		fmt.Fprintf(os.Stderr, "Screenshot command failed: %s\n", reply.Error)
		return 1
	}

	var value struct {
		PNGBase64 string `json:"pngbase64"`
	}
	if err := json.Unmarshal(reply.Value, &value); err != nil || value.PNGBase64 == "" {
		fmt.Fprintln(os.Stderr, "Invalid Screenshot response format")
		return 1
	}

	png, err := base64.StdEncoding.DecodeString(value.PNGBase64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to decode base64 data: %v\n", err)
		return 1
	}
	if err := os.WriteFile(outputFile, png, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write output file: %v\n", err)
		return 1
	}
	fmt.Fprintf(os.Stderr, "Screenshot saved to %s (%d bytes)\n", outputFile, len(png))
	return 0
}

// runTestBinary exercises the binary protocol directly with a hand-built
// StatusGet envelope (§4.1), bypassing the JSON bridge entirely.
func runTestBinary() int {
	addr := *addressOverride
	if addr == "" {
		addr = "ws://localhost:8080"
	}

	fmt.Fprintln(os.Stderr, "Testing binary protocol with StatusGet command...")

	svc := wsnet.New(dispatch.NewTable(), logf)
	if err := svc.Connect(addr, timeout()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect: %v\n", err)
		return 1
	}
	defer svc.CloseClient()

	fmt.Fprintln(os.Stderr, "Connected using BINARY protocol")

	env := envelope.Envelope{
		CorrelationID: svc.NextCorrelationID(),
		Kind:          envelope.KindCommand,
		Name:          "StatusGet",
		Payload:       nil,
	}
	resp, err := svc.SendBinaryAndReceive(env, timeout())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Binary send/receive failed: %v\n", err)
		return 1
	}

	status, err := decodeStatusGetReply(resp.Payload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Command failed: %v\n", err)
		return 1
	}

	out, _ := json.MarshalIndent(status, "", "  ")
	fmt.Println(string(out))
	fmt.Fprintln(os.Stderr, "Binary protocol test PASSED")
	fmt.Fprintf(os.Stderr, "  Scenario: %s\n", status.ScenarioID)
	fmt.Fprintf(os.Stderr, "  Grid: %dx%d\n", status.Width, status.Height)
	fmt.Fprintf(os.Stderr, "  Timestep: %g\n", status.Timestep)
	return 0
}

// statusGetReply mirrors internal/server's unexported statusGetResp wire
// shape; test_binary is the one place the CLI decodes a binary command
// response itself rather than going through the JSON bridge.
type statusGetReply struct {
	ScenarioID string  `json:"scenario_id"`
	Width      int32   `json:"width"`
	Height     int32   `json:"height"`
	Timestep   float64 `json:"timestep"`
}

func decodeStatusGetReply(payload []byte) (statusGetReply, error) {
	r := envelope.NewReader(bytes.NewReader(payload))
	ok, err := r.ReadBool()
	if err != nil {
		return statusGetReply{}, err
	}
	if !ok {
		apiErr, err := envelope.DecodeApiError(r)
		if err != nil {
			return statusGetReply{}, err
		}
		return statusGetReply{}, fmt.Errorf("%s", apiErr.Message)
	}
	var s statusGetReply
	scenarioID, err := r.ReadString()
	if err != nil {
		return statusGetReply{}, err
	}
	s.ScenarioID = scenarioID
	if s.Width, err = r.ReadInt32(); err != nil {
		return statusGetReply{}, err
	}
	if s.Height, err = r.ReadInt32(); err != nil {
		return statusGetReply{}, err
	}
	if s.Timestep, err = r.ReadFloat64(); err != nil {
		return statusGetReply{}, err
	}
	return s, nil
}

// --- process-orchestration special forms ---

// siblingBinary locates another dirtsim binary next to this one, the same
// way the original CLI resolves its server/UI paths from /proc/self/exe.
func siblingBinary(name string) (string, error) {
	exePath, err := os.Executable()
	if err != nil {
		return "", err
	}
	candidate := filepath.Join(filepath.Dir(exePath), name)
	if _, err := os.Stat(candidate); err != nil {
		return "", fmt.Errorf("cannot find %s binary at %s", name, candidate)
	}
	return candidate, nil
}

// waitForConnect retries Connect until it succeeds or deadline elapses, for
// a process this invocation just spawned.
func waitForConnect(addr string, deadline time.Duration) (*wsnet.Service, error) {
	start := time.Now()
	var lastErr error
	for time.Since(start) < deadline {
		svc := wsnet.New(dispatch.NewTable(), logf)
		if err := svc.Connect(addr, 200*time.Millisecond); err == nil {
			return svc, nil
		} else {
			lastErr = err
		}
		time.Sleep(100 * time.Millisecond)
	}
	return nil, fmt.Errorf("timed out connecting to %s: %w", addr, lastErr)
}

func runBenchmark(rest []string) int {
	fs := flag.NewFlagSet("benchmark", flag.ContinueOnError)
	steps := fs.Int("steps", 120, "Number of simulation steps")
	scenario := fs.String("scenario", "benchmark", "Scenario id")
	if err := fs.Parse(rest); err != nil {
		return 1
	}

	serverPath, err := siblingBinary("dirtsim-server")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	cmd := exec.Command(serverPath, "--no-tui")
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error launching server: %v\n", err)
		return 1
	}
	defer func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}()

	svc, err := waitForConnect("ws://localhost:8080", 5*time.Second)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer svc.CloseClient()

	req, _ := buildJSONRequest("SimRun", fmt.Sprintf(`{"scenario_id":%q,"timestep":0.016,"max_steps":%d}`, *scenario, *steps))
	start := time.Now()
	if _, err := svc.SendJSON(req, timeout()); err != nil {
		fmt.Fprintf(os.Stderr, "SimRun failed: %v\n", err)
		return 1
	}

	// Poll GetStats until max_steps worth of frames have rendered or a
	// generous wall-clock budget elapses, then report timing.
	deadline := time.Now().Add(30 * time.Second)
	var lastStats json.RawMessage
	for time.Now().Before(deadline) {
		statsReq, _ := buildJSONRequest("GetStats", "")
		resp, err := svc.SendJSON(statsReq, timeout())
		if err == nil {
			var reply jsonReply
			if json.Unmarshal(resp, &reply) == nil && reply.Error == "" {
				lastStats = reply.Value
			}
		}
		var stats struct {
			FramesRendered int `json:"frames_rendered"`
		}
		if json.Unmarshal(lastStats, &stats) == nil && stats.FramesRendered >= *steps {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	result := map[string]any{
		"scenario":    *scenario,
		"steps":       *steps,
		"elapsed_ms":  time.Since(start).Milliseconds(),
		"final_stats": lastStats,
	}
	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))
	return 0
}

func runCleanup() int {
	names := []string{"dirtsim-server", "dirtsim-ui", "dirtsim-audio", "dirtsim-os-manager"}
	self, _ := os.Executable()
	killed := 0
	entries, err := os.ReadDir("/proc")
	if err != nil {
		fmt.Fprintf(os.Stderr, "cleanup: cannot read /proc: %v\n", err)
		return 0
	}
	for _, entry := range entries {
		pid := entry.Name()
		if !entry.IsDir() || pid[0] < '0' || pid[0] > '9' {
			continue
		}
		exe, err := os.Readlink(filepath.Join("/proc", pid, "exe"))
		if err != nil || exe == "" || exe == self {
			continue
		}
		for _, name := range names {
			if filepath.Base(exe) != name {
				continue
			}
			proc, err := os.FindProcess(parsePID(pid))
			if err != nil {
				continue
			}
			if err := proc.Kill(); err == nil {
				fmt.Printf("Killed rogue %s (pid %s)\n", name, pid)
				killed++
			}
		}
	}
	fmt.Printf("Cleanup complete: %d process(es) killed\n", killed)
	return 0
}

func parsePID(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}

func runIntegrationTest() int {
	serverPath, err := siblingBinary("dirtsim-server")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	uiPath, err := siblingBinary("dirtsim-ui")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	serverCmd := exec.Command(serverPath, "--no-tui")
	serverCmd.Stderr = os.Stderr
	if err := serverCmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error launching server: %v\n", err)
		return 1
	}
	defer func() { _ = serverCmd.Process.Kill(); _ = serverCmd.Wait() }()

	serverSvc, err := waitForConnect("ws://localhost:8080", 5*time.Second)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer serverSvc.CloseClient()

	uiCmd := exec.Command(uiPath)
	uiCmd.Stderr = os.Stderr
	if err := uiCmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error launching UI: %v\n", err)
		return 1
	}
	defer func() { _ = uiCmd.Process.Kill(); _ = uiCmd.Wait() }()

	uiSvc, err := waitForConnect("ws://localhost:7070", 5*time.Second)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer uiSvc.CloseClient()

	req, _ := buildJSONRequest("StatusGet", "")
	if _, err := serverSvc.SendJSON(req, timeout()); err != nil {
		fmt.Fprintf(os.Stderr, "Server StatusGet failed: %v\n", err)
		return 1
	}
	if _, err := uiSvc.SendJSON(req, timeout()); err != nil {
		fmt.Fprintf(os.Stderr, "UI StatusGet failed: %v\n", err)
		return 1
	}

	fmt.Println("Integration test PASSED: server and UI both reachable")
	return 0
}

func runAll() int {
	serverPath, err := siblingBinary("dirtsim-server")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	uiPath, err := siblingBinary("dirtsim-ui")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	audioPath, err := siblingBinary("dirtsim-audio")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	serverCmd := exec.Command(serverPath, "--no-tui")
	serverCmd.Stdout, serverCmd.Stderr = os.Stdout, os.Stderr
	if err := serverCmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error launching server: %v\n", err)
		return 1
	}
	defer func() { _ = serverCmd.Process.Kill(); _ = serverCmd.Wait() }()

	audioCmd := exec.Command(audioPath)
	audioCmd.Stdout, audioCmd.Stderr = os.Stdout, os.Stderr
	if err := audioCmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error launching audio: %v\n", err)
		return 1
	}
	defer func() { _ = audioCmd.Process.Kill(); _ = audioCmd.Wait() }()

	uiCmd := exec.Command(uiPath)
	uiCmd.Stdout, uiCmd.Stderr = os.Stdout, os.Stderr
	if err := uiCmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error launching UI: %v\n", err)
		return 1
	}

	// Monitor until the UI process exits, per RunAllRunner's contract, then
	// tear down the rest.
	err = uiCmd.Wait()
	if err != nil {
		fmt.Fprintf(os.Stderr, "UI exited with error: %v\n", err)
		return 1
	}
	return 0
}
