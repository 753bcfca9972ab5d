//go:build linux

package watcher

import "golang.org/x/sys/unix"

// Superblock magic numbers from statfs(2). SSHFS mounts report the FUSE
// magic, so they classify as FSTypeFUSE here.
const (
	nfsSuperMagic  = 0x6969
	smbSuperMagic  = 0x517B
	smb2SuperMagic = 0xFE534D42
	cifsSuperMagic = 0xFF534D42
	fuseSuperMagic = 0x65735546
)

func statfsType(path string) FilesystemType {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return FSTypeUnknown
	}
	switch uint32(st.Type) {
	case nfsSuperMagic:
		return FSTypeNFS
	case smbSuperMagic, smb2SuperMagic, cifsSuperMagic:
		return FSTypeSMB
	case fuseSuperMagic:
		return FSTypeFUSE
	default:
		return FSTypeLocal
	}
}
