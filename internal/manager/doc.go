// Package manager owns controller instances and drives their lifecycle.
//
// Controllers move through Unconfigured -> Inactive -> Active and back,
// finishing in Finalized once their command interfaces are released. The
// manager also runs the periodic update loop that calls Update on every
// active controller at the configured rate.
package manager
