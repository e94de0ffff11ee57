// Package sim hosts the simulation daemon: the single-threaded
// orchestrator that turns raw driver input into a physically consistent
// telemetry snapshot every tick.
//
// Lifecycle: Prepare loads an immutable configuration bundle (falling
// back to built-in defaults on failure), NewDaemon wraps it, Reset builds
// a fresh integrator/safety pair, and Step advances the clock. The
// physics step performs no I/O and runs to completion once started.
package sim
