// Package process starts and terminates the backend child process.
//
// Child wraps os/exec for a single long-lived subprocess:
//   - the child runs in its own process group so Kill reaches its descendants
//   - stdout and stderr are handed to caller-supplied readers
//   - Done is closed once both streams are drained and the child is reaped
//
// NameKiller covers the leftovers Child cannot see, such as grandchildren that
// escaped the process group, by terminating every process with a given image
// name through pgrep and SIGKILL (Unix) or taskkill (Windows).
package process
