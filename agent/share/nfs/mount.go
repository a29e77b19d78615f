package nfs

import (
	mount "k8s.io/mount-utils"
)

// MountChecker tells whether a path is a mounted filesystem.
type MountChecker interface {
	IsMountpoint(path string) (bool, error)
}

type kernelMounts struct {
	m mount.Interface
}

// NewMountChecker returns a MountChecker backed by the host mount table.
func NewMountChecker() MountChecker {
	return &kernelMounts{m: mount.New("")}
}

func (k *kernelMounts) IsMountpoint(path string) (bool, error) {
	notMnt, err := k.m.IsLikelyNotMountPoint(path)
	if err != nil {
		return false, err
	}
	return !notMnt, nil
}
