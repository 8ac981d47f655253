// Package tester contains simulated devices that let drivers be tested
// without hardware.
package tester

// Failer is implemented by *testing.T and *quicktest.C.
type Failer interface {
	// Fatalf prints an error message and stops the test.
	Fatalf(format string, args ...interface{})
}
