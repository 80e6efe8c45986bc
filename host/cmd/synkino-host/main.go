// Command synkino-host is the desktop companion of the Synkino sync
// engine: it simulates screenings, prints calibration tables, manages
// projector profiles and follows a board's telemetry.
package main

func main() {
	Execute()
}
