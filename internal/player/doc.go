// Package player keeps a media element in step with the current track.
//
// A [Bridge] receives the audio URL of the current track every time the UI
// renders. When the URL changes it loads the new source and starts playback in
// the background. Rejected starts (missing file, unreachable host, no audio
// device) are logged and never reach the user as errors. Pause and resume
// change the reported state at once; a refusal from the element rolls it back.
//
// Two elements are provided: [MPV], which drives an mpv process over its JSON
// IPC socket, and [Nop], which accepts every request and plays nothing.
package player
