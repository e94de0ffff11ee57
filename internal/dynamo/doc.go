// Package dynamo provides the core primitives of the vehicle-dynamics core.
//
// The package defines the shared value types used by every other package:
//
//   - [State]: the single-track state vector with named index constants
//   - [Control]: the (steering rate, acceleration) command pair
//   - [Stage]: the low-speed safety mode tag
//
// # Thread Safety
//
// A State is exclusively owned by one integrator. Clone before sharing.
package dynamo
