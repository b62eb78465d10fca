// Package viz renders kernel output and bench reports for the terminal.
//
//   - [FieldMap]: Braille projection of body positions onto the xy plane with
//     a stroke along each body's acceleration
//   - [PlotReport]: ns/op against body count, one series per strategy
//   - [Invariants]: styled summary of the conserved quantities
package viz
