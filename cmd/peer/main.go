// Command peer joins a room on the signaling server and negotiates a WebRTC
// session with whoever else is there.
package main

func main() {
	Execute()
}
