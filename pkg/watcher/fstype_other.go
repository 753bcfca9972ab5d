//go:build !linux

package watcher

// Without statfs magic numbers the best assumption is a local filesystem;
// fsnotify handles its own platform quirks from there.
func statfsType(string) FilesystemType {
	return FSTypeLocal
}
