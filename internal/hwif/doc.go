// Package hwif defines the hardware command interface layer for the Arm
// Control Container.
//
// Hardware exposes an inventory of named writable scalar command slots
// (e.g. "tool0/linear_x"). Controllers declare the ordered slot names they
// intend to write; the registry resolves those names at configuration time
// and the resolved slots are claimed for the controller until it is
// deconfigured. SetValue on a slot is infallible and non-blocking, which
// keeps the periodic update path free of error handling and I/O.
package hwif
