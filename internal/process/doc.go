// Package process owns the lilt worker process.
//
// Registry holds at most one running lilt process at a time:
//   - Start kills whatever is running, then spawns a new process from a
//     transcode.Config
//   - Stop force-kills the running process and reports an error when
//     nothing is running
//   - IsRunning and Status report the slot contents
//   - A reaper goroutine per process clears the slot when lilt exits on
//     its own
//
// Lifecycle transitions are published on an events.Bus as a single event
// type, in slot order:
//
//	bus := events.New()
//	reg := process.NewRegistry(&process.RegistryOptions{EventBus: bus})
//	unsub := bus.Subscribe(func(e events.TranscodingLifecycleEvent) { ... })
//	defer unsub()
//	if err := reg.Start(cfg); err != nil { ... }
//	defer reg.Shutdown()
//
// Kills target the whole process group so helper tools spawned by lilt
// (sox, ffmpeg, docker) go down with it.
package process
