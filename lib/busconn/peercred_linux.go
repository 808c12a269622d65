// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package busconn

import (
	"net"

	"golang.org/x/sys/unix"
)

// peerCredentials reads SO_PEERCRED from a Unix socket. The values
// are only logged. Nothing is authorized on them.
func peerCredentials(conn net.Conn) (credentials, bool) {
	unixConn, ok := conn.(*net.UnixConn)
	if !ok {
		return credentials{}, false
	}
	raw, err := unixConn.SyscallConn()
	if err != nil {
		return credentials{}, false
	}

	var ucred *unix.Ucred
	var credErr error
	if err := raw.Control(func(fd uintptr) {
		ucred, credErr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	}); err != nil || credErr != nil {
		return credentials{}, false
	}
	return credentials{PID: ucred.Pid, UID: ucred.Uid, GID: ucred.Gid}, true
}
